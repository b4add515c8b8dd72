package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"masarif/internal/cache"
	"masarif/internal/core"
	applog "masarif/internal/log"
	"masarif/internal/middleware/ratelimit"
	"masarif/internal/middleware/security"
	"masarif/internal/middleware/trace"
)

const (
	idempotencyCacheSize = 1000
	maxIdempotencyKeyLen = 255
	cacheCleanupInterval = 5 * time.Minute
)

// ExpenseService is what the API needs from services.ExpenseService.
type ExpenseService interface {
	Record(ctx context.Context, in core.RawInput) (core.Expense, error)
	List(ctx context.Context) []core.Expense
	Summary(ctx context.Context, today core.Date) core.Summary
	NewForm(defaultCategory string) core.RawInput
	Registry() *core.Registry
}

// Options configures NewServer. Service is required.
type Options struct {
	Addr               string
	Service            ExpenseService
	Logger             *applog.Logger
	DefaultCategory    string
	RateLimitPerMinute int
	IdempotencyTTL     time.Duration
	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
	// TrustedProxies are extra CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
}

type Server struct {
	http.Server
	service         ExpenseService
	logger          *applog.Logger
	defaultCategory string
	ready           func(ctx context.Context) error

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	caches      *cache.Manager

	// Replays POSTs carrying an Idempotency-Key already seen.
	idempotency *cache.Replay[core.Expense]

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. Shutdown releases the background goroutines it starts.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	ttl := opts.IdempotencyTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	s := &Server{
		service:         opts.Service,
		logger:          logger.WithComponent(applog.ComponentHTTP),
		defaultCategory: opts.DefaultCategory,
		ready:           opts.Ready,
		detector:        security.NewDetector(),
		rateLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		caches:          cache.NewManager(logger),
		idempotency:     cache.NewReplay[core.Expense](idempotencyCacheSize, ttl, nil),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.caches.Register(s.idempotency)
	s.caches.StartCleanup(cacheCleanupInterval)

	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/new", s.handleNewExpenseForm)
	mux.Handle("POST /api/expenses", limited(http.HandlerFunc(s.handleCreateExpense)))
	mux.HandleFunc("GET /api/summary", s.handleSummary)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.detector.Middleware(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// ListenAndServe runs the server until Shutdown. http.ErrServerClosed is
// reported as a clean exit.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Metrics is a point-in-time view of the middleware counters.
type Metrics struct {
	Requests           int64
	AvgResponseMicros  int64
	RateLimitHits      int64
	RateLimitedClients int64
	SuspiciousRequests int64
	InvalidIPAttempts  int64
	IdempotentReplays  int64
}

func (s *Server) Metrics() Metrics {
	t := s.tracer.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	sec := s.detector.GetMetrics()
	replay := s.idempotency.Stats()
	return Metrics{
		Requests:           t.TotalRequests,
		AvgResponseMicros:  t.AverageResponseTime,
		RateLimitHits:      rl.TotalHits,
		RateLimitedClients: rl.ClientCount,
		SuspiciousRequests: sec.SuspiciousRequests,
		InvalidIPAttempts:  sec.InvalidIPAttempts,
		IdempotentReplays:  replay.Hits,
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
		m := s.Metrics()
		s.logger.Info("HTTP server stopped",
			applog.FieldOperation, applog.OpShutdown,
			"requests", m.Requests,
			"avg_response_us", m.AvgResponseMicros,
			"rate_limit_hits", m.RateLimitHits,
			"suspicious_requests", m.SuspiciousRequests,
			"idempotent_replays", m.IdempotentReplays)
	})
	return shutdownErr
}
