// Package report defines the narrow output contract the agent reports progress through.
package report

import "sync"

// Kind classifies a reported event
type Kind string

const (
	Info     Kind = "info"
	Success  Kind = "success"
	Error    Kind = "error"
	Warning  Kind = "warning"
	Question Kind = "question"
	Answer   Kind = "answer"
	Loading  Kind = "loading"
)

// Kinds lists every kind in display order
var Kinds = []Kind{Info, Success, Error, Warning, Question, Answer, Loading}

// Sink receives status and result events. Implementations decide how to render them.
type Sink interface {
	Report(kind Kind, text string)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(kind Kind, text string)

// Report calls f
func (f SinkFunc) Report(kind Kind, text string) {
	f(kind, text)
}

// Discard drops every event
var Discard Sink = SinkFunc(func(Kind, string) {})

// Event is one recorded report, shaped as the web API returns it
type Event struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
}

// Recorder collects events in order
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report appends the event
func (r *Recorder) Report(kind Kind, text string) {
	r.mu.Lock()
	r.events = append(r.events, Event{Kind: kind, Content: text})
	r.mu.Unlock()
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the texts of events with the given kind
func (r *Recorder) OfKind(kind Kind) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e.Content)
		}
	}
	return out
}

// Tee reports every event to each sink in order
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(kind Kind, text string) {
		for _, s := range sinks {
			s.Report(kind, text)
		}
	})
}
