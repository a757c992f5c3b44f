// Package gateway is the HTTP surface: account endpoints, authenticated
// chat endpoints with streamed responses, and usage inspection.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"binna-crm/internal/domain"
	"binna-crm/internal/usecase"
)

// Server wires the use cases to HTTP routes.
type Server struct {
	auth          *usecase.Auth
	conversations *usecase.Conversations
	turns         *usecase.TurnRunner
	guard         *usecase.UsageGuard
	logger        *slog.Logger
	limiter       *userLimiter

	http *http.Server
}

// Config holds the server's tunables.
type Config struct {
	Addr           string
	RatePerMinute  int
	RateBurst      int
	RequestTimeout time.Duration
}

// New creates the server and its routes.
func New(cfg Config, auth *usecase.Auth, conversations *usecase.Conversations, turns *usecase.TurnRunner, guard *usecase.UsageGuard, logger *slog.Logger) *Server {
	s := &Server{
		auth:          auth,
		conversations: conversations,
		turns:         turns,
		guard:         guard,
		logger:        logger,
		limiter:       newUserLimiter(cfg.RatePerMinute, cfg.RateBurst),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.authenticated(s.handleLogout))
	mux.HandleFunc("POST /chat/create", s.authenticated(s.handleChatCreate))
	mux.HandleFunc("POST /chat/send", s.authenticated(s.handleChatSend))
	mux.HandleFunc("GET /chat/retrieve", s.authenticated(s.handleChatRetrieve))
	mux.HandleFunc("GET /usage", s.authenticated(s.handleUsage))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.http = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.logging(mux),
		ReadTimeout: cfg.RequestTimeout,
		// No write timeout: /chat/send streams for the length of a run.
	}
	return s
}

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	var body errorBody
	body.Error.Code = string(domain.ErrorCodeOf(err))
	body.Error.Message = err.Error()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeDomainError maps domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthInvalid):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domain.ErrNoActiveWindow), errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, domain.ErrRateLimit):
		writeError(w, http.StatusTooManyRequests, err)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrThreadNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrDuplicate):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.NewDomainError("gateway.decode", domain.ErrInvalidInput, err.Error())
	}
	return nil
}
