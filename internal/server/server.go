// Package server assembles the filter editor's HTTP handlers, event bus and
// session janitor, and runs them until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-logr/logr"

	"github.com/matthewbaird/filtereditor/internal/activity"
	"github.com/matthewbaird/filtereditor/internal/config"
	"github.com/matthewbaird/filtereditor/internal/event"
	"github.com/matthewbaird/filtereditor/internal/eventbus"
	"github.com/matthewbaird/filtereditor/internal/filter"
	"github.com/matthewbaird/filtereditor/internal/filter/schema"
	"github.com/matthewbaird/filtereditor/internal/filter/session"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// activityRetention caps the in-memory activity history.
const activityRetention = 10000

// Config holds server configuration.
type Config struct {
	Addr      string
	Schema    *schema.Schema
	RootModel string
	Session   config.SessionConfig
	Events    config.EventsConfig
	Logger    logr.Logger
}

// Server owns the router and the background workers behind it.
type Server struct {
	cfg      Config
	router   chi.Router
	bus      *eventbus.Bus
	sessions *session.Manager
	log      logr.Logger
}

// New wires the session manager, activity store and event bus into a
// router. Nothing runs until Run.
func New(cfg Config) (*Server, error) {
	if cfg.Schema == nil {
		return nil, errors.New("server: schema is required")
	}
	if _, err := schema.NewScope(cfg.Schema, cfg.RootModel); err != nil {
		return nil, fmt.Errorf("server: root model: %w", err)
	}
	if cfg.Session.CleanupInterval <= 0 {
		cfg.Session.CleanupInterval = time.Minute
	}
	log := cfg.Logger.WithName("server")

	store := activity.NewMemoryStore(activityRetention)
	bus := eventbus.New(cfg.Events.Buffer, cfg.Logger)
	stats := eventbus.NewStatsConsumer()
	bus.Subscribe("log", eventbus.NewLogConsumer(cfg.Logger))
	bus.Subscribe("stats", stats)

	recorder := event.NewActivityRecorder(store)
	recorder.SetPublisher(bus)

	sessions := session.NewManager(session.Options{
		Schema:      cfg.Schema,
		DefaultRoot: cfg.RootModel,
		Recorder:    recorder,
		MaxAge:      cfg.Session.MaxAge,
		IdleTimeout: cfg.Session.IdleTimeout,
		Logger:      cfg.Logger,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging(log))
	r.Use(Recovery(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	filter.RegisterRoutes(r, filter.Deps{
		Schema:      cfg.Schema,
		DefaultRoot: cfg.RootModel,
		Sessions:    sessions,
		Activity:    store,
		Stats:       stats,
		Logger:      cfg.Logger,
	})

	return &Server{
		cfg:      cfg,
		router:   r,
		bus:      bus,
		sessions: sessions,
		log:      log,
	}, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.bus.Start(ctx)
	defer s.bus.Stop()
	s.sessions.StartJanitor(ctx, s.cfg.Session.CleanupInterval)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String(), "root_model", s.cfg.RootModel)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
