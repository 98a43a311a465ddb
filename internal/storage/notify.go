package storage

import (
	"sync"

	"github.com/rs/zerolog"
)

type notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Listener
	log    zerolog.Logger
}

func newNotifier(log zerolog.Logger) *notifier {
	return &notifier{subs: make(map[int]Listener), log: log}
}

func (n *notifier) subscribe(fn Listener) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) publish(changes Changes) {
	if len(changes) == 0 {
		return
	}

	n.mu.RLock()
	listeners := make([]Listener, 0, len(n.subs))
	for _, fn := range n.subs {
		listeners = append(listeners, fn)
	}
	n.mu.RUnlock()

	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					n.log.Error().Interface("panic", r).Msg("config listener panicked")
				}
			}()
			fn(changes)
		}()
	}
}
