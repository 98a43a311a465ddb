package webhook

import (
	"errors"
	"fmt"
)

var (
	ErrNothingToSend = errors.New("nothing to send")
	ErrNoDestination = errors.New("no webhook destination")

	// ErrNoWebhookSelected and ErrNoWebhookSet both match ErrNoDestination.
	ErrNoWebhookSelected = &destinationError{"no webhook selected"}
	ErrNoWebhookSet      = &destinationError{"no webhook set"}
)

type destinationError struct {
	msg string
}

func (e *destinationError) Error() string { return e.msg }

func (e *destinationError) Unwrap() error { return ErrNoDestination }

// StatusError is returned when Discord answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("Discord error %d", e.StatusCode)
	}
	return fmt.Sprintf("Discord error %d: %s", e.StatusCode, e.Body)
}
