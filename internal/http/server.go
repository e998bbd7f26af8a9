// Package http exposes the JSON API for the finance tracker.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"monty/internal/auth"
	"monty/internal/services"
	"monty/internal/storage"
)

// Server wires the JSON handlers, auth and rate limiting over the
// standard library mux.
type Server struct {
	http.Server

	repo         *storage.SQLiteRepository
	transactions *services.TransactionService
	analytics    *services.AnalyticsService
	budgets      *services.BudgetService
	goals        *services.GoalService
	settings     *services.SettingsService
	digest       *services.DigestService

	verifier *auth.TelegramVerifier
	tokens   *auth.TokenIssuer

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// Deps bundles everything the server needs.
type Deps struct {
	Repo         *storage.SQLiteRepository
	Transactions *services.TransactionService
	Analytics    *services.AnalyticsService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Settings     *services.SettingsService
	Digest       *services.DigestService
	Verifier     *auth.TelegramVerifier
	Tokens       *auth.TokenIssuer
	RateLimitRPM int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		repo:         deps.Repo,
		transactions: deps.Transactions,
		analytics:    deps.Analytics,
		budgets:      deps.Budgets,
		goals:        deps.Goals,
		settings:     deps.Settings,
		digest:       deps.Digest,
		verifier:     deps.Verifier,
		tokens:       deps.Tokens,
		rateLimiter:  newRateLimiter(deps.RateLimitRPM),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /auth/telegram", s.wrap(s.handleAuthTelegram))
	mux.HandleFunc("GET /auth/me", s.wrap(s.withAuth(s.handleAuthMe)))

	mux.HandleFunc("GET /categories", s.wrap(s.withAuth(s.handleListCategories)))

	mux.HandleFunc("POST /transactions", s.wrap(s.withAuth(s.handleCreateTransaction)))
	mux.HandleFunc("GET /transactions", s.wrap(s.withAuth(s.handleListTransactions)))
	mux.HandleFunc("PATCH /transactions/{id}", s.wrap(s.withAuth(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /transactions/{id}", s.wrap(s.withAuth(s.handleDeleteTransaction)))
	mux.HandleFunc("GET /transactions/export/csv", s.wrap(s.withAuth(s.handleExportCSV)))

	mux.HandleFunc("GET /analytics", s.wrap(s.withAuth(s.handleAnalytics)))
	mux.HandleFunc("GET /analytics/period", s.wrap(s.withAuth(s.handleAnalyticsPeriod)))

	mux.HandleFunc("GET /budgets/current", s.wrap(s.withAuth(s.handleBudgetDashboard)))
	mux.HandleFunc("GET /goals", s.wrap(s.withAuth(s.handleGoalProgress)))

	mux.HandleFunc("GET /settings", s.wrap(s.withAuth(s.handleGetSettings)))
	mux.HandleFunc("POST /settings", s.wrap(s.withAuth(s.handleSetSetting)))
	mux.HandleFunc("GET /settings/budgets", s.wrap(s.withAuth(s.handleBudgetDashboard)))
	mux.HandleFunc("POST /settings/budgets", s.wrap(s.withAuth(s.handleUpsertBudget)))
	mux.HandleFunc("GET /settings/categories", s.wrap(s.withAuth(s.handleListCategories)))

	mux.HandleFunc("POST /digest/send", s.wrap(s.withAuth(s.handleSendDigest)))

	return s
}

// Shutdown stops the HTTP server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// wrap adds security headers, request ids, rate limiting and request
// logging to a handler.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	claimsKey    contextKey = "claims"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.repo != nil {
		if _, err := s.repo.ListCategories(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "storage not ready")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
