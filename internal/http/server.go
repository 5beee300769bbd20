package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"giaodich/internal/core"
	"giaodich/internal/log"
	"giaodich/internal/middleware/ratelimit"
	"giaodich/internal/middleware/security"
	"giaodich/internal/middleware/trace"
	"giaodich/internal/services"
)

// Server serves the ledger's JSON API.
type Server struct {
	http.Server
	service *services.LedgerService
	logger  *log.Logger
	limiter *ratelimit.Limiter
	now     func() time.Time

	stopLimiter  context.CancelFunc
	shutdownOnce sync.Once
}

type Option func(*Server)

// WithClock sets the clock that supplies the default "today".
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithRateLimit(config ratelimit.Config) Option {
	return func(s *Server) { s.limiter = ratelimit.NewLimiter(config) }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.LedgerService, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		service: service,
		logger:  log.Default(),
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/counters", s.handleCounters)
	mux.HandleFunc("GET /api/rates", s.handleRates)
	mux.HandleFunc("POST /api/transactions/gold", s.handleCreateGold)
	mux.HandleFunc("POST /api/transactions/currency", s.handleCreateCurrency)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	clientIP := security.NewClientIPResolver().ClientIP
	limit := s.limiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	}, http.MethodPost, http.MethodDelete)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = log.Middleware(s.logger, trace.FromRequest)(handler)
	handler = trace.Middleware(handler)
	s.Handler = handler

	ctx, cancel := context.WithCancel(context.Background())
	s.stopLimiter = cancel
	go s.limiter.Run(ctx, 5*time.Minute)

	return s
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stopLimiter()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}
