// internal/progress/progress.go

// Package progress adapts backend-native progress events into the
// percentage/message callbacks that the front ends consume.
package progress

import "sync"

// Event is a single backend progress report. Index/Total describe the task's
// position; Message is an optional human-readable status line.
type Event struct {
	Task    string
	Index   int
	Total   int
	Message string
}

// Bridge forwards events to the configured callbacks. Percentages are
// emitted for every index/total pair; messages are de-duplicated against the
// previously emitted one. The de-duplication state lives on the instance, so
// a Bridge is scoped to a single conversion.
//
// No ordering guarantee is made across concurrently reporting tasks; the
// bridge forwards whichever task reports last.
type Bridge struct {
	OnPercent func(percent float64)
	OnMessage func(message string)

	mu          sync.Mutex
	lastMessage string
}

// New returns a Bridge with the given callbacks. Either callback may be nil.
func New(onPercent func(float64), onMessage func(string)) *Bridge {
	return &Bridge{OnPercent: onPercent, OnMessage: onMessage}
}

// Observe processes one backend event. Callbacks run synchronously on the
// caller's goroutine; UI front ends must marshal onto their event loop
// themselves.
func (b *Bridge) Observe(ev Event) {
	b.mu.Lock()
	emitMessage := ev.Message != "" && ev.Message != b.lastMessage
	if emitMessage {
		b.lastMessage = ev.Message
	}
	b.mu.Unlock()

	if b.OnPercent != nil && ev.Total > 0 {
		b.OnPercent(float64(ev.Index) / float64(ev.Total) * 100)
	}
	if b.OnMessage != nil && emitMessage {
		b.OnMessage(ev.Message)
	}
}

// Message emits a bare status line, subject to the same de-duplication.
func (b *Bridge) Message(msg string) {
	b.Observe(Event{Message: msg})
}
