package sink

import (
	"context"
	"sync"

	"hbrelay/src/model"
)

// Recorder keeps every event it is sent. Set Err to make it fail.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
	Err    error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(_ context.Context, ev model.Event) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return "", r.Err
	}
	r.events = append(r.events, ev)
	return ev.ID, nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
