// Package http serves the JSON API consumed by the dashboard frontend.
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

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Store is the persistence surface the handlers need.
type Store interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	InsertRule(ctx context.Context, rule core.RecurringRule) (int64, error)
	GetRule(ctx context.Context, id int64) (core.RecurringRule, error)
	ListRules(ctx context.Context) ([]core.RecurringRule, error)
	UpdateRule(ctx context.Context, rule core.RecurringRule) error
	DeleteRule(ctx context.Context, id int64) error

	SpendingByCategory(ctx context.Context, since core.Date) ([]core.CategoryAmount, error)
	Overview(ctx context.Context, since core.Date) (core.Overview, error)
	Categories(ctx context.Context) ([]string, error)

	LatestBudgetGoal(ctx context.Context) (core.BudgetGoal, error)
	InsertBudgetGoal(ctx context.Context, g core.BudgetGoal) (core.BudgetGoal, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	InsertAccount(ctx context.Context, a core.Account) (core.Account, error)
}

// Materializer turns due recurring rules into ledger transactions.
type Materializer interface {
	MaterializeDue(ctx context.Context, today core.Date) (int, error)
}

type Server struct {
	http.Server
	store        Store
	transactions *services.TransactionService
	materializer Materializer
	rateLimiter  *rateLimiter

	// Analytics caches, invalidated on every write.
	spendingCache *cache.LRUCache[[]core.CategoryAmount]
	overviewCache *cache.LRUCache[core.Overview]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store, txs *services.TransactionService, m Materializer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:         store,
		transactions:  txs,
		materializer:  m,
		rateLimiter:   newRateLimiter(),
		spendingCache: cache.NewLRUCache[[]core.CategoryAmount](32, 5*time.Minute),
		overviewCache: cache.NewLRUCache[core.Overview](8, 5*time.Minute),
		cacheManager:  cache.NewManager(),
	}
	s.cacheManager.Register(s.spendingCache)
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/transactions", s.withAPI(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withAPI(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withAPI(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withAPI(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/recurring-transactions", s.withAPI(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring-transactions", s.withAPI(s.handleCreateRecurring))
	mux.HandleFunc("PUT /api/recurring-transactions/{id}", s.withAPI(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring-transactions/{id}", s.withAPI(s.handleDeleteRecurring))
	mux.HandleFunc("POST /api/process-recurring", s.withAPI(s.handleProcessRecurring))

	mux.HandleFunc("GET /api/analytics/spending-by-category", s.withAPI(s.handleSpendingByCategory))
	mux.HandleFunc("GET /api/analytics/financial-overview", s.withAPI(s.handleFinancialOverview))
	mux.HandleFunc("GET /api/categories", s.withAPI(s.handleCategories))

	mux.HandleFunc("GET /api/budget-goals", s.withAPI(s.handleGetBudgetGoals))
	mux.HandleFunc("POST /api/budget-goals", s.withAPI(s.handleCreateBudgetGoals))
	mux.HandleFunc("GET /api/accounts", s.withAPI(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withAPI(s.handleCreateAccount))

	// CORS preflight for the browser frontend.
	mux.HandleFunc("OPTIONS /api/", s.withAPI(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	return s
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

// withAPI adds request logging, rate limiting, and the API response headers.
func (s *Server) withAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests only; reads are cache-backed.
		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

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

// invalidateAnalytics drops cached aggregates after any ledger write.
func (s *Server) invalidateAnalytics() {
	for _, period := range []string{"month", "6months", "year"} {
		s.spendingCache.Delete(period)
	}
	s.overviewCache.Delete("current")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
