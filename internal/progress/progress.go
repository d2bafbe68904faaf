// Package progress delivers user-facing feedback from long-running
// annotation runs.
package progress

import (
	"sync"

	"go.uber.org/zap"
)

// Level classifies a feedback message. The tokens match the event
// vocabulary consumed by workspace front ends.
type Level string

const (
	Info    Level = "info"
	Success Level = "succ"
	Error   Level = "errr"
)

// Notifier receives feedback from a running annotation request.
// Implementations must be safe for concurrent use.
type Notifier interface {
	// Notify emits one console feedback line.
	Notify(level Level, message string)

	// DestinationUpdated signals that the destination dataset changed
	// on disk and viewers should reload it.
	DestinationUpdated(path string)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Notify(Level, string)      {}
func (Nop) DestinationUpdated(string) {}

// LogNotifier forwards events to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(l *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Notify(level Level, message string) {
	if level == Error {
		n.logger.Error(message)
		return
	}
	n.logger.Info(message, zap.String("level", string(level)))
}

func (n *LogNotifier) DestinationUpdated(path string) {
	n.logger.Info("destination updated", zap.String("path", path))
}

// Event is one recorded feedback message.
type Event struct {
	Level   Level
	Message string
}

// Recorder captures events for inspection in tests.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	updates []string
}

func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Level: level, Message: message})
}

func (r *Recorder) DestinationUpdated(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, path)
}

// Events returns a copy of the recorded feedback lines.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Updates returns the destination paths signalled so far.
func (r *Recorder) Updates() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.updates...)
}
