// Package events publishes profile lifecycle events. Publishing is best
// effort from the caller's point of view: a failed publish is logged and
// counted but never rolls back the state change that produced it.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	id "vitrine/pkg/domain"
)

// Type names an event on the profile events topic.
type Type string

const (
	TypeDocumentChanged  Type = "document.changed"
	TypeSectionSaved     Type = "section.saved"
	TypeIdentityVerified Type = "identity.verified"
	TypeAccountSubmitted Type = "account.submitted"
)

// Event is the envelope written to the topic. Data carries the
// type-specific payload.
type Event struct {
	Type       Type           `json:"type"`
	ProfileID  id.ProfileID   `json:"profile_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher accepts events for delivery.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters recorded events by type.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
