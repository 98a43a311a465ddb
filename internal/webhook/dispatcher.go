package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shohag/hookpad/internal/models"
)

// Target is a destination that is resolved at send time.
type Target struct {
	Resolve func(ctx context.Context) (string, error)
	// Missing is returned when Resolve yields an empty URL.
	Missing error
}

type Dispatcher struct {
	sender *Sender
	log    zerolog.Logger
}

func NewDispatcher(sender *Sender, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender: sender,
		log:    log.With().Str("component", "dispatcher").Logger(),
	}
}

// Send posts content to the target exactly once. Empty content or an
// unresolvable target fail before any network call.
func (d *Dispatcher) Send(ctx context.Context, target Target, content string) error {
	url, err := d.Resolve(ctx, target, content)
	if err != nil {
		return err
	}
	return d.Deliver(ctx, url, content)
}

// Resolve checks the preconditions of a send and returns the URL to post to.
func (d *Dispatcher) Resolve(ctx context.Context, target Target, content string) (string, error) {
	if content == "" {
		return "", ErrNothingToSend
	}

	url, err := target.Resolve(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve webhook: %w", err)
	}
	if url == "" {
		if target.Missing != nil {
			return "", target.Missing
		}
		return "", ErrNoDestination
	}
	return url, nil
}

// Deliver performs the POST. There is no retry.
func (d *Dispatcher) Deliver(ctx context.Context, url, content string) error {
	id := models.NewID("snd")
	start := time.Now()

	if err := d.sender.Send(ctx, url, content); err != nil {
		d.log.Warn().
			Err(err).
			Str("send_id", id).
			Dur("latency", time.Since(start)).
			Msg("send failed")
		return err
	}

	d.log.Info().
		Str("send_id", id).
		Int("length", len(content)).
		Dur("latency", time.Since(start)).
		Msg("message sent")
	return nil
}
