// Package api serves the demurrage ledger over HTTP.
//
// Amounts travel as JSON strings of base units. The caller of a mutating
// request is named by the X-Caller header; the API trusts it, so it must sit
// behind something that authenticates callers.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xraph/demurrage"
)

// CallerHeader names the principal a request acts for.
const CallerHeader = "X-Caller"

// Server is the ledger HTTP API.
type Server struct {
	ledger  *demurrage.Ledger
	logger  *slog.Logger
	router  chi.Router
	version string
	started time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a Server over a started ledger.
func New(l *demurrage.Ledger, opts ...Option) *Server {
	s := &Server{
		ledger:  l,
		logger:  slog.Default(),
		version: "dev",
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Get("/health", s.handleHealth)
	r.Get("/factor", s.handleFactor)

	r.Get("/accounts/{holder}", s.handleAccount)
	r.Get("/supply", s.handleSupply)
	r.Get("/journal", s.handleJournal)
	r.Get("/journal/{entryID}", s.handleEntry)
	r.Get("/rates", s.handleRates)

	r.Group(func(r chi.Router) {
		r.Use(requireCaller)
		r.Post("/mint", s.handleMint)
		r.Post("/transfer", s.handleTransfer)
		r.Post("/withdraw", s.handleWithdraw)
		r.Post("/rates", s.handleUpdateRate)
	})

	s.router = r
}

// requireCaller rejects mutating requests that do not name a caller.
func requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(CallerHeader) == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: CallerHeader + " header required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := s.ledger.ActiveRate()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"started": err == nil,
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

// writeError maps a ledger error onto a status code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	var ve demurrage.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, demurrage.ErrInvalidAmount),
		errors.Is(err, demurrage.ErrInvalidHolder),
		errors.Is(err, demurrage.ErrInvalidRateCheckpoint):
		return http.StatusBadRequest
	case errors.Is(err, demurrage.ErrPermissionDenied):
		return http.StatusForbidden
	case demurrage.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, demurrage.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, demurrage.ErrCollateralTransferFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, demurrage.ErrNotStarted), demurrage.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return demurrage.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}
