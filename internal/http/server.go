package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"freelanceflow/internal/auth"
	"freelanceflow/internal/core"
	"freelanceflow/internal/log"
	"freelanceflow/internal/middleware/ratelimit"
	"freelanceflow/internal/middleware/security"
	"freelanceflow/internal/middleware/trace"
	"freelanceflow/internal/services"
	"freelanceflow/internal/storage"
)

const (
	readHeaderTimeout = 5 * time.Second
	collaboratorWait  = 30 * time.Second
	activityLimit     = 50
)

// SheetsExporter mirrors a user's transactions to a spreadsheet.
type SheetsExporter interface {
	ExportTransactions(ctx context.Context, userID string, txs []core.Transaction) (string, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API serves. Billing and Sheets may be nil
// when the matching integration is not configured.
type Deps struct {
	Workspace *services.Workspace
	Auth      *auth.Service
	Billing   *services.Billing
	Sheets    SheetsExporter
	Activity  storage.ActivityStore
	Health    Pinger
	Logger    *log.Logger

	RateLimit     ratelimit.Config
	TrustedProxy  []string
	SecureCookies bool
}

type Server struct {
	http.Server
	deps     Deps
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		deps:     deps,
		logger:   logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
		detector: security.NewDetector(logger),
	}
	for _, cidr := range deps.TrustedProxy {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.tracer.Middleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.Writes, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
		}))

		r.Post("/session/guest", s.handleGuest)
		r.Post("/session/login", s.handleLogin)
		r.Post("/session/register", s.handleRegister)
		r.Post("/billing/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/session", s.handleSession)
			r.Delete("/session", s.handleLogout)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/level", s.handleLevel)
			r.Get("/reminders", s.handleReminders)

			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleAddTransaction)
			r.Put("/transactions/{id}", s.handleUpdateTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)

			r.Get("/pots", s.handleListPots)
			r.Post("/pots", s.handleAddPot)
			r.Delete("/pots/{id}", s.handleDeletePot)

			r.Get("/tasks", s.handleListTasks)
			r.Post("/tasks", s.handleAddTask)
			r.Put("/tasks/{id}/status", s.handleTaskStatus)
			r.Delete("/tasks/{id}", s.handleDeleteTask)

			r.Get("/plan", s.handleGetPlan)
			r.Post("/plan", s.handleCalculatePlan)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)

			r.Post("/ai/chat", s.handleChat)
			r.Post("/ai/analysis", s.handleAnalysis)

			r.Post("/billing/checkout", s.handleCheckout)

			r.Get("/export/transactions", s.handleExportTransactions)
			r.Get("/export/plan", s.handleExportPlan)
			r.Post("/export/sheets", s.handleExportSheets)

			r.Get("/activity", s.handleActivity)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})
	return r
}

// Stats are the request counters exposed by the middlewares.
type Stats struct {
	Requests     int64 `json:"requests"`
	RateLimited  int64 `json:"rateLimited"`
	Suspicious   int64 `json:"suspicious"`
	ActiveClient int   `json:"activeClients"`
}

func (s *Server) Stats() Stats {
	return Stats{
		Requests:     s.tracer.Total(),
		RateLimited:  s.limiter.Hits(),
		Suspicious:   s.detector.Suspicious(),
		ActiveClient: s.limiter.ActiveClients(),
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "store unavailable").Write(w)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "stats": s.Stats()})
}
