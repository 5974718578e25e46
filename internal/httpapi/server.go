package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vburojevic/bmxt/internal/domain"
	"github.com/vburojevic/bmxt/internal/workout"
)

// Session is the part of the session controller exposed over HTTP
type Session interface {
	Config() workout.Config
	Snapshot() domain.Snapshot
	Start()
	Pause()
	Reset(completed bool)
	Subscribe(buffer int) (<-chan domain.Snapshot, func())
}

// Server is a small remote control for one running session
type Server struct {
	session Session
	log     *zap.SugaredLogger
	router  chi.Router
}

// New creates a Server with all routes configured
func New(session Session, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		session: session,
		log:     log,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestLogging(s.log))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", s.handleConfig)
		r.Get("/state", s.handleState)
		r.Get("/events", s.handleEvents)
		r.Post("/start", s.handleStart)
		r.Post("/pause", s.handlePause)
		r.Post("/reset", s.handleReset)
	})
}

// Serve runs the server on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// SSE streams do not finish on their own
			_ = srv.Close()
		}
		return nil
	}
}

// configResponse describes the workout the session is running
type configResponse struct {
	workout.Config
	ActiveSeconds int `json:"active_seconds"`
	TotalTicks    int `json:"total_ticks"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.session.Config()
	respondJSON(w, configResponse{
		Config:        cfg,
		ActiveSeconds: workout.ActiveSeconds(cfg),
		TotalTicks:    workout.TotalTicks(cfg),
	}, http.StatusOK)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, domain.NewStateRecord(s.session.Snapshot()), http.StatusOK)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.session.Start()
	respondJSON(w, domain.NewStateRecord(s.session.Snapshot()), http.StatusOK)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.session.Pause()
	respondJSON(w, domain.NewStateRecord(s.session.Snapshot()), http.StatusOK)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset(false)
	respondJSON(w, domain.NewStateRecord(s.session.Snapshot()), http.StatusOK)
}

// handleEvents streams snapshots as server-sent events, starting with the
// current one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	snapshots, cancel := s.session.Subscribe(16)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, s.session.Snapshot()); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				s.log.Debugw("sse write failed", "error", err)
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, snap domain.Snapshot) error {
	data, err := json.Marshal(domain.NewStateRecord(snap))
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: state\ndata: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
