package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// ClientMetrics tracks calls made to the persistence service.
type ClientMetrics struct {
	// Round-trip latency of every HTTP exchange, retries included.
	Latency *Histogram

	Requests   atomic.Uint64
	Retries    atomic.Uint64
	Failures   atomic.Uint64
	Rejections atomic.Uint64

	startTime time.Time
	mu        sync.RWMutex
}

// NewClientMetrics creates a new metrics collector.
func NewClientMetrics() *ClientMetrics {
	return &ClientMetrics{
		Latency:   NewHistogram(10000),
		startTime: time.Now(),
	}
}

// RecordRoundTrip records one HTTP exchange.
func (m *ClientMetrics) RecordRoundTrip(d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.Add(1)
	m.Latency.Record(d)
}

// RecordRetry counts a repeated read attempt.
func (m *ClientMetrics) RecordRetry() {
	if m == nil {
		return
	}
	m.Retries.Add(1)
}

// RecordFailure counts a call that gave up after transport errors or throttling.
func (m *ClientMetrics) RecordFailure() {
	if m == nil {
		return
	}
	m.Failures.Add(1)
}

// RecordRejection counts a call the service answered with success:false.
func (m *ClientMetrics) RecordRejection() {
	if m == nil {
		return
	}
	m.Rejections.Add(1)
}

// ClientStats is a snapshot of ClientMetrics.
type ClientStats struct {
	Latency     LatencyStats `json:"latency"`
	Requests    uint64       `json:"requests"`
	Retries     uint64       `json:"retries"`
	Failures    uint64       `json:"failures"`
	Rejections  uint64       `json:"rejections"`
	SuccessRate float64      `json:"success_rate"` // percentage
	Uptime      string       `json:"uptime"`
}

// LatencyStats contains statistics for a latency histogram.
type LatencyStats struct {
	Mean  float64 `json:"mean"` // milliseconds
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// GetStats returns a snapshot of the current statistics.
func (m *ClientMetrics) GetStats() *ClientStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	requests := m.Requests.Load()
	failures := m.Failures.Load()
	rejections := m.Rejections.Load()

	successRate := 0.0
	if requests > 0 {
		bad := min(failures+rejections, requests)
		successRate = float64(requests-bad) / float64(requests) * 100
	}

	return &ClientStats{
		Latency:     latencyStats(m.Latency),
		Requests:    requests,
		Retries:     m.Retries.Load(),
		Failures:    failures,
		Rejections:  rejections,
		SuccessRate: successRate,
		Uptime:      time.Since(m.startTime).Round(time.Second).String(),
	}
}

func latencyStats(h *Histogram) LatencyStats {
	return LatencyStats{
		Mean:  h.Mean(),
		P50:   h.Percentile(50),
		P95:   h.Percentile(95),
		P99:   h.Percentile(99),
		Min:   h.Min(),
		Max:   h.Max(),
		Count: h.Count(),
	}
}

// Reset clears all metrics.
func (m *ClientMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Latency.Reset()
	m.Requests.Store(0)
	m.Retries.Store(0)
	m.Failures.Store(0)
	m.Rejections.Store(0)
	m.startTime = time.Now()
}
