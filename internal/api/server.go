package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/shohag/hookpad/internal/config"
	"github.com/shohag/hookpad/internal/settings"
	"github.com/shohag/hookpad/internal/storage"
	"github.com/shohag/hookpad/internal/surface"
)

// Server is the persistent panel: a compose form bound to the multi-slot
// webhook selection, kept in sync with the config store.
type Server struct {
	cfg      config.ServerConfig
	store    storage.Store
	settings *settings.Service
	surface  *surface.Surface
	events   *hub
	router   *chi.Mux
	log      zerolog.Logger
	http     *http.Server

	unsubscribe func()
}

func NewServer(cfg config.ServerConfig, store storage.Store, svc *settings.Service, panel *surface.Surface, log zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		settings: svc,
		surface:  panel,
		events:   newHub(),
		log:      log.With().Str("component", "panel").Logger(),
	}
	s.router = s.buildRouter()

	s.unsubscribe = store.Subscribe(s.onConfigChange)
	panel.OnStatus(func(snap surface.Snapshot) {
		s.events.publish("status", snap)
	})
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.log))

	compose := NewComposeHandler(s.surface, s.settings)
	cfg := NewSettingsHandler(s.settings)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "hookpad",
		})
	})
	r.Get("/", servePage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", compose.State)
		r.Post("/compile", compose.Compile)
		r.Post("/send", compose.Send)
		r.Put("/selection", cfg.Select)
		r.Get("/events", s.events.serve)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/webhooks", cfg.ListWebhooks)
			r.Put("/webhooks", cfg.SaveWebhooks)
			r.Get("/legacy", cfg.GetLegacy)
			r.Put("/legacy", cfg.SaveLegacy)
		})
	})

	return r
}

// onConfigChange re-resolves the selector whenever the webhook list or the
// selection changes, whoever wrote it.
func (s *Server) onConfigChange(changes storage.Changes) {
	if !changes.Has(storage.KeyWebhooks, storage.KeySelectedWebhookID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sel, err := s.settings.Selection(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to refresh webhook selector")
		return
	}
	s.events.publish("config", newSelectionView(sel))
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

func (s *Server) Start() error {
	addr := s.Addr()
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info().Str("addr", addr).Msg("starting panel")
	return s.http.ListenAndServe()
}

// Shutdown stops the listener and waits for sends already in flight.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.surface.Wait()
	return err
}
