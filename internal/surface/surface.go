// Package surface binds compose state to the compiler and dispatcher the way
// an interactive form does: live preview, a status line and a send control
// that stays disabled while a send is in flight.
package surface

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/shohag/hookpad/internal/compose"
	"github.com/shohag/hookpad/internal/webhook"
)

const (
	StatusSending = "Sending…"
	StatusSent    = "Sent."
)

// ErrBusy is reported when a send is requested while another is running.
var ErrBusy = errors.New("a send is already in progress")

// Outcome is the completion of one send task.
type Outcome struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Err     error  `json:"-"`
}

// Snapshot is what a renderer needs to draw the surface.
type Snapshot struct {
	Status  string         `json:"status"`
	Busy    bool           `json:"busy"`
	Preview string         `json:"preview"`
	Result  compose.Result `json:"result"`
}

type Surface struct {
	name       string
	compiler   *compose.Compiler
	dispatcher *webhook.Dispatcher
	target     webhook.Target
	log        zerolog.Logger

	busy  atomic.Bool
	tasks conc.WaitGroup

	mu       sync.RWMutex
	status   string
	last     compose.Result
	onStatus func(Snapshot)
}

func New(name string, compiler *compose.Compiler, dispatcher *webhook.Dispatcher, target webhook.Target, log zerolog.Logger) *Surface {
	s := &Surface{
		name:       name,
		compiler:   compiler,
		dispatcher: dispatcher,
		target:     target,
		log:        log.With().Str("component", "surface").Str("surface", name).Logger(),
	}
	s.last = compiler.Compile(compose.State{})
	return s
}

// OnStatus registers fn to be called whenever the status line or the busy
// state changes. Only one callback is kept.
func (s *Surface) OnStatus(fn func(Snapshot)) {
	s.mu.Lock()
	s.onStatus = fn
	s.mu.Unlock()
}

// Compile recompiles the form and updates the preview. Callers write the
// normalized fields of the result back into their inputs.
func (s *Surface) Compile(state compose.State) compose.Result {
	res := s.compiler.Compile(state)
	s.mu.Lock()
	s.last = res
	s.mu.Unlock()
	return res
}

// SetStatus replaces the status line.
func (s *Surface) SetStatus(status string) {
	s.mu.Lock()
	s.status = status
	fn := s.onStatus
	s.mu.Unlock()

	if fn != nil {
		fn(s.Snapshot())
	}
}

func (s *Surface) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Status:  s.status,
		Busy:    s.busy.Load(),
		Preview: s.last.Preview,
		Result:  s.last,
	}
}

func (s *Surface) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Surface) Busy() bool {
	return s.busy.Load()
}

// Send compiles state and starts a send task. The returned channel yields
// exactly one Outcome and is then closed. The task outlives ctx
// cancellation: a surface that goes away simply stops waiting.
func (s *Surface) Send(ctx context.Context, state compose.State) <-chan Outcome {
	ch := make(chan Outcome, 1)
	res := s.Compile(state)

	if res.Message == "" {
		ch <- s.finish(res.Message, webhook.ErrNothingToSend)
		close(ch)
		return ch
	}

	if !s.busy.CompareAndSwap(false, true) {
		ch <- Outcome{Message: res.Message, Status: s.Status(), Err: ErrBusy}
		close(ch)
		return ch
	}

	ctx = context.WithoutCancel(ctx)
	s.tasks.Go(func() {
		defer close(ch)
		defer s.release()
		ch <- s.run(ctx, res.Message)
	})
	return ch
}

// SendSync runs Send and waits for its outcome.
func (s *Surface) SendSync(ctx context.Context, state compose.State) Outcome {
	return <-s.Send(ctx, state)
}

// Wait blocks until every started send has finished.
func (s *Surface) Wait() {
	s.tasks.Wait()
}

func (s *Surface) run(ctx context.Context, content string) Outcome {
	url, err := s.dispatcher.Resolve(ctx, s.target, content)
	if err != nil {
		return s.finish(content, err)
	}

	s.SetStatus(StatusSending)
	return s.finish(content, s.dispatcher.Deliver(ctx, url, content))
}

func (s *Surface) finish(content string, err error) Outcome {
	status := StatusText(err)
	s.SetStatus(status)
	if err != nil {
		s.log.Debug().Err(err).Msg("send not completed")
	}
	return Outcome{Message: content, Status: status, Err: err}
}

// release re-enables the send control and tells the renderer.
func (s *Surface) release() {
	s.busy.Store(false)
	s.mu.RLock()
	fn := s.onStatus
	s.mu.RUnlock()
	if fn != nil {
		fn(s.Snapshot())
	}
}

// StatusText renders err as the status line shown to the user.
func StatusText(err error) string {
	switch {
	case err == nil:
		return StatusSent
	case errors.Is(err, webhook.ErrNothingToSend):
		return "Nothing to send."
	case errors.Is(err, webhook.ErrNoWebhookSelected):
		return "No webhook selected. Open Settings."
	case errors.Is(err, webhook.ErrNoWebhookSet):
		return "No webhook set. Open Settings."
	case errors.Is(err, webhook.ErrNoDestination):
		return "No webhook set. Open Settings."
	case errors.Is(err, ErrBusy):
		return StatusSending
	default:
		return err.Error()
	}
}
