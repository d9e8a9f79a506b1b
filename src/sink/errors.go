package sink

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoSink    = errors.New("no delivery sink configured")
	ErrSinkPanic = errors.New("delivery sink panicked")
	ErrNoAPIKey  = errors.New("honeybadger api key is empty")
)

// StatusError is a non-success response from the notice API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Messages the notice API documents for its error statuses.
var statusMessages = map[int]string{
	http.StatusForbidden:             "invalid API key",
	http.StatusUnprocessableEntity:   "payload rejected",
	http.StatusTooManyRequests:       "rate limited",
	http.StatusPaymentRequired:       "project over quota",
	http.StatusRequestEntityTooLarge: "payload too large",
}

// Reason returns a human-readable explanation of the status code.
func (e *StatusError) Reason() string {
	if msg, ok := statusMessages[e.Code]; ok {
		return msg
	}
	return fmt.Sprintf("unexpected status %d", e.Code)
}
