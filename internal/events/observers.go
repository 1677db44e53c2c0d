package events

import (
	"log/slog"
)

// LogObserver writes every event to a structured logger.
type LogObserver struct {
	name    string
	logger  *slog.Logger
	verbose bool
}

// NewLogObserver creates an observer that logs events. When verbose is set
// the payload is logged too.
func NewLogObserver(logger *slog.Logger, verbose bool) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{
		name:    "LogObserver",
		logger:  logger,
		verbose: verbose,
	}
}

// OnEvent logs the event details. Integrity warnings are logged at Warn,
// everything else at Debug.
func (o *LogObserver) OnEvent(event Event) error {
	level := slog.LevelDebug
	if event.Type == TypeIntegrityWarning || event.Type == TypeCollectionSyncFailed || event.Type == TypeDecksSyncFailed {
		level = slog.LevelWarn
	}

	attrs := []any{"event", event.Type}
	if o.verbose {
		attrs = append(attrs, "payload", event.Payload)
	}
	o.logger.Log(event.Context, level, "Engine event", attrs...)
	return nil
}

// GetName returns the observer's name.
func (o *LogObserver) GetName() string {
	return o.name
}

// ShouldHandle returns true for all events (logs everything).
func (o *LogObserver) ShouldHandle(eventType string) bool {
	return true
}

// FuncObserver adapts a function to the Observer interface.
type FuncObserver struct {
	name  string
	types map[string]bool
	fn    func(Event) error
}

// NewFuncObserver creates an observer calling fn for the listed event types,
// or for every event when no type is given.
func NewFuncObserver(name string, fn func(Event) error, types ...string) *FuncObserver {
	o := &FuncObserver{name: name, fn: fn}
	if len(types) > 0 {
		o.types = make(map[string]bool, len(types))
		for _, t := range types {
			o.types[t] = true
		}
	}
	return o
}

// OnEvent calls the wrapped function.
func (o *FuncObserver) OnEvent(event Event) error {
	return o.fn(event)
}

// GetName returns the observer's name.
func (o *FuncObserver) GetName() string {
	return o.name
}

// ShouldHandle filters by the configured event types.
func (o *FuncObserver) ShouldHandle(eventType string) bool {
	return o.types == nil || o.types[eventType]
}
