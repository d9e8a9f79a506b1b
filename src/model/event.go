package model

import "time"

// EventContext is the metadata bag attached to a delivered event.
type EventContext map[string]any

// Clone returns a shallow copy.
func (c EventContext) Clone() EventContext {
	out := make(EventContext, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Identity is the authenticated caller of the current request, if any.
type Identity struct {
	ID    string `json:"user_id"`
	Email string `json:"user_email"`
}

// Resolvable reports whether the identity can be attached to events.
func (i *Identity) Resolvable() bool {
	return i != nil && i.ID != ""
}

// Event is a classified, enriched signal ready for the delivery sink.
type Event struct {
	ID          string       `json:"id"`
	Class       string       `json:"class"`
	Message     string       `json:"message"`
	Kind        Kind         `json:"kind"`
	Level       Level        `json:"level"`
	Origin      Origin       `json:"origin"`
	Location    *Location    `json:"location,omitempty"`
	Context     EventContext `json:"context"`
	Component   string       `json:"component"`
	Action      string       `json:"action"`
	Environment string       `json:"environment"`
	Revision    string       `json:"revision"`
	URL         string       `json:"url"`
	OccurredAt  time.Time    `json:"occurred_at"`
}
