// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Josehuhu/financeiro/internal/cache"
	"github.com/Josehuhu/financeiro/internal/core"
	"github.com/Josehuhu/financeiro/internal/history"
	"github.com/Josehuhu/financeiro/internal/ledger"
	applog "github.com/Josehuhu/financeiro/internal/log"
)

type Server struct {
	http.Server

	svc  *ledger.Service
	hist history.Recorder

	rateLimiter *rateLimiter

	// Read caches, dropped wholesale on every mutation.
	summaryCache      *cache.LRUCache[core.Summary]
	installmentsCache *cache.LRUCache[[]core.Installment]
	cacheManager      *cache.Manager

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *ledger.Service, hist history.Recorder) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:           addr,
			Handler:        mux,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 1 << 16,
		},
		svc:               svc,
		hist:              hist,
		rateLimiter:       newRateLimiter(),
		summaryCache:      cache.NewLRUCache[core.Summary](10, 5*time.Minute),
		installmentsCache: cache.NewLRUCache[[]core.Installment](50, 5*time.Minute),
		cacheManager:      cache.NewManager(),
		started:           time.Now(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.installmentsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/installments", s.withMiddleware(s.handleListInstallments))
	mux.HandleFunc("POST /api/installments/{id}/pay", s.withMiddleware(s.handlePayInstallment))
	mux.HandleFunc("PATCH /api/installments/{id}", s.withMiddleware(s.handleUpdateInstallment))

	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.handleSummary))

	mux.HandleFunc("GET /api/history", s.withMiddleware(s.handleListHistory))
	mux.HandleFunc("GET /api/history/{year}/{month}", s.withMiddleware(s.handleQueryHistory))
	mux.HandleFunc("DELETE /api/history", s.withMiddleware(s.handleClearHistory))

	// Attach a component-scoped logger to every request context.
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	s.Server.Handler = applog.Middleware(logger)(mux)

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		logger := applog.FromContext(ctx).With(applog.FieldRequestID, requestID)

		logger.InfoContext(ctx, "Request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// invalidateCaches drops all read caches. Called after every successful
// mutation so stale aggregates never survive a write.
func (s *Server) invalidateCaches() {
	s.summaryCache.Clear()
	s.installmentsCache.Clear()
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
