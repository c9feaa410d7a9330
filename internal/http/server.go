package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"rette/internal/cache"
	applog "rette/internal/log"
	"rette/internal/middleware/ratelimit"
	"rette/internal/middleware/security"
	"rette/internal/middleware/trace"
	"rette/internal/services"
	"rette/internal/session"
	"rette/internal/store"
)

// Config holds the server's tunables.
type Config struct {
	Addr             string
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration
}

type Server struct {
	http.Server
	service *services.PaymentService
	store   *store.Store

	// Single-operator UI state: selection, billing period, pending amount.
	session *session.Session

	// Derived summaries memoized per store version; a mutation bumps the
	// version and strands the old entries until the sweeper drops them.
	summaryCache *cache.SummaryCache
	cacheManager *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector

	cleanupCancel context.CancelFunc
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, service *services.PaymentService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		service:      service,
		store:        service.Store(),
		summaryCache: cache.NewSummaryCache(cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
		cacheManager: cache.NewManager(),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:     security.NewDetector(),
	}
	s.session = session.New(s.store, service)

	s.cacheManager.Register(s.summaryCache)
	cleanupCtx, cancel := context.WithCancel(context.Background())
	s.cleanupCancel = cancel
	s.cacheManager.StartCleanup(cleanupCtx, 10*time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /plans", s.handleCreatePlan)
	mux.HandleFunc("GET /plans", s.handleListPlans)

	mux.HandleFunc("POST /students", s.handleCreateStudent)
	mux.HandleFunc("GET /students", s.handleListStudents)
	mux.HandleFunc("DELETE /students/{id}", s.handleDeleteStudent)
	mux.HandleFunc("GET /students/{id}/summary", s.handleStudentSummary)
	mux.HandleFunc("GET /students/{id}/plan", s.handleStudentPlan)

	mux.HandleFunc("POST /payments", s.handleCreatePayment)
	mux.HandleFunc("GET /payments", s.handleListPayments)
	mux.HandleFunc("PATCH /payments/{id}", s.handleCorrectPayment)
	mux.HandleFunc("DELETE /payments/{id}", s.handleDeletePayment)

	mux.HandleFunc("GET /arrears", s.handleArrears)

	mux.HandleFunc("GET /session", s.handleSessionState)
	mux.HandleFunc("PUT /session/student", s.handleSessionSelectStudent)
	mux.HandleFunc("PUT /session/period", s.handleSessionSelectPeriod)
	mux.HandleFunc("PUT /session/amount", s.handleSessionSetAmount)
	mux.HandleFunc("POST /session/commit", s.handleSessionCommit)
	mux.HandleFunc("GET /session/summary", s.handleSessionSummary)
	mux.HandleFunc("GET /session/payments", s.handleSessionPayments)

	traceMW := trace.NewMiddleware(s.detector.ExtractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	handler := s.rateLimitMutations(mux)
	handler = headersMW.Middleware(handler)
	handler = traceMW.Middleware(handler)

	s.Server = http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}
	return s
}

// rateLimitMutations applies the per-client limiter to mutating methods only;
// reads stay unthrottled. Suspicious request shapes are logged but never
// blocked.
func (s *Server) rateLimitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Suspicious request",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
			clientIP := s.detector.ExtractClientIP(r)
			if !s.limiter.Allow(clientIP) {
				slog.WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cleanupCancel != nil {
			s.cleanupCancel()
		}
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
