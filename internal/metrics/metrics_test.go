package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistogram_Empty(t *testing.T) {
	h := NewHistogram(0)
	assert.Equal(t, 0, h.Count())
	assert.Zero(t, h.Mean())
	assert.Zero(t, h.Percentile(50))
	assert.Zero(t, h.Min())
	assert.Zero(t, h.Max())
}

func TestHistogram_Stats(t *testing.T) {
	h := NewHistogram(100)
	for _, ms := range []int{10, 20, 30, 40, 50} {
		h.Record(time.Duration(ms) * time.Millisecond)
	}

	assert.Equal(t, 5, h.Count())
	assert.InDelta(t, 30.0, h.Mean(), 0.001)
	assert.InDelta(t, 30.0, h.Percentile(50), 0.001)
	assert.InDelta(t, 48.0, h.Percentile(95), 0.001)
	assert.InDelta(t, 10.0, h.Min(), 0.001)
	assert.InDelta(t, 50.0, h.Max(), 0.001)
	assert.InDelta(t, 50.0, h.Percentile(150), 0.001)

	h.Reset()
	assert.Equal(t, 0, h.Count())
}

func TestHistogram_DropsOldestWhenFull(t *testing.T) {
	h := NewHistogram(10)
	for i := 1; i <= 11; i++ {
		h.Record(time.Duration(i) * time.Millisecond)
	}

	assert.Equal(t, 9, h.Count())
	assert.InDelta(t, 3.0, h.Min(), 0.001)
	assert.InDelta(t, 11.0, h.Max(), 0.001)
}

func TestClientMetrics_Stats(t *testing.T) {
	m := NewClientMetrics()
	m.RecordRoundTrip(10 * time.Millisecond)
	m.RecordRoundTrip(20 * time.Millisecond)
	m.RecordRoundTrip(30 * time.Millisecond)
	m.RecordRoundTrip(40 * time.Millisecond)
	m.RecordRetry()
	m.RecordFailure()

	stats := m.GetStats()
	assert.Equal(t, uint64(4), stats.Requests)
	assert.Equal(t, uint64(1), stats.Retries)
	assert.Equal(t, uint64(1), stats.Failures)
	assert.Equal(t, uint64(0), stats.Rejections)
	assert.InDelta(t, 75.0, stats.SuccessRate, 0.001)
	assert.Equal(t, 4, stats.Latency.Count)
	assert.InDelta(t, 25.0, stats.Latency.Mean, 0.001)

	m.Reset()
	stats = m.GetStats()
	assert.Equal(t, uint64(0), stats.Requests)
	assert.Zero(t, stats.SuccessRate)
}

func TestClientMetrics_NilSafe(t *testing.T) {
	var m *ClientMetrics
	assert.NotPanics(t, func() {
		m.RecordRoundTrip(time.Millisecond)
		m.RecordRetry()
		m.RecordFailure()
		m.RecordRejection()
	})
}
