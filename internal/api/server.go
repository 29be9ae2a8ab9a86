package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"astrotux/internal/agent"
	"astrotux/internal/history"
	"astrotux/internal/logging"
	"astrotux/internal/notifications"
)

const maxBodyBytes = 64 << 10

// Service is the notification backend the API drives.
type Service interface {
	Send(ctx context.Context, kind notifications.EventKind, params notifications.Params) error
	Handlers() []agent.HandlerInfo
}

// HistoryLister serves GET /api/history.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
}

// Options configures the router.
type Options struct {
	Token   string
	History HistoryLister
	Logger  *slog.Logger
}

type router struct {
	svc     Service
	history HistoryLister
	logger  *slog.Logger
}

// NewRouter builds the HTTP handler tree.
func NewRouter(svc Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	rt := &router{
		svc:     svc,
		history: opts.History,
		logger:  logging.NewComponentLogger(logger, "api-server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(opts.Token))
		r.Post("/events/{kind}", rt.handleEvent)
		r.Get("/handlers", rt.handleHandlers)
		r.Get("/history", rt.handleHistory)
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	return r
}

func (rt *router) handleEvent(w http.ResponseWriter, r *http.Request) {
	kind, err := notifications.ParseEventKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := notifications.Params{}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := rt.svc.Send(r.Context(), kind, params); err != nil {
		rt.logger.Warn("event delivery failed",
			slog.String("event", kind.String()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			logging.Error(err),
			slog.String(logging.FieldEventType, "api_event_failed"),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, EventAccepted{Status: "accepted", Kind: kind.String()})
}

func (rt *router) handleHandlers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HandlersResponse{Handlers: rt.svc.Handlers()})
}

func (rt *router) handleHistory(w http.ResponseWriter, r *http.Request) {
	if rt.history == nil {
		writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := rt.history.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromHistoryEntry(entry))
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: out})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Server runs the router on a TCP listener.
type Server struct {
	bind     string
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
}

// NewServer prepares a server for bind. It does not listen until Start.
func NewServer(bind string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		bind:   strings.TrimSpace(bind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start listens and serves in the background until ctx ends or Stop is
// called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
