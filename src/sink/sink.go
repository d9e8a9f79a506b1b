// Package sink delivers finished events to the monitoring backend.
package sink

import (
	"context"
	"fmt"

	"hbrelay/src/model"
)

// Sink transmits one event and returns the backend's notice id.
type Sink interface {
	Send(ctx context.Context, ev model.Event) (string, error)
}

// Func adapts a plain function to Sink.
type Func func(ctx context.Context, ev model.Event) (string, error)

func (f Func) Send(ctx context.Context, ev model.Event) (string, error) { return f(ctx, ev) }

type safeSink struct {
	next Sink
}

// Safe wraps s so a panic inside Send comes back as an error.
func Safe(s Sink) Sink {
	if s == nil {
		return Func(func(context.Context, model.Event) (string, error) {
			return "", ErrNoSink
		})
	}
	if _, ok := s.(safeSink); ok {
		return s
	}
	return safeSink{next: s}
}

func (s safeSink) Send(ctx context.Context, ev model.Event) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			id = ""
			err = fmt.Errorf("%w: %v", ErrSinkPanic, r)
		}
	}()
	return s.next.Send(ctx, ev)
}
