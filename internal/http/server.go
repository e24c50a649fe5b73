package http

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"tally/internal/auth"
	applog "tally/internal/log"
	"tally/internal/metrics"
	"tally/internal/middleware/ratelimit"
	"tally/internal/middleware/security"
	"tally/internal/middleware/trace"
	"tally/internal/realtime"
	"tally/internal/services"
)

const (
	defaultHeartbeat = 25 * time.Second
	readyTimeout     = 2 * time.Second
)

// Options wires the server's collaborators. Service, Auth and Logger are
// required; the rest are optional.
type Options struct {
	Addr    string
	Service *services.ExpenseService
	Auth    *auth.Authenticator
	Logger  *applog.Logger

	// Hub backs GET /api/changes. Without it the stream answers 503.
	Hub     *realtime.Hub
	Metrics *metrics.Metrics
	Limiter *ratelimit.Limiter

	// Ready reports whether dependencies are usable, for GET /readyz.
	Ready func(context.Context) error

	// Heartbeat is the interval of comment lines on idle event streams.
	Heartbeat time.Duration
}

type Server struct {
	http.Server
	svc       *services.ExpenseService
	auth      *auth.Authenticator
	hub       *realtime.Hub
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	ready     func(context.Context) error
	logger    *applog.Logger
	heartbeat time.Duration

	// baseCancel ends every request context, which releases open event
	// streams on shutdown.
	baseCancel   context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	baseCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		svc:        opts.Service,
		auth:       opts.Auth,
		hub:        opts.Hub,
		metrics:    opts.Metrics,
		limiter:    opts.Limiter,
		detector:   security.NewDetector(),
		ready:      opts.Ready,
		logger:     opts.Logger.WithComponent(applog.ComponentHTTP),
		heartbeat:  opts.Heartbeat,
		baseCancel: cancel,
	}
	if s.heartbeat <= 0 {
		s.heartbeat = defaultHeartbeat
	}

	mux := http.NewServeMux()
	s.route(mux, "GET /healthz", s.handleHealth, false)
	s.route(mux, "GET /readyz", s.handleReady, false)
	if s.metrics != nil {
		s.route(mux, "GET /metrics", s.metrics.Handler().ServeHTTP, false)
	}

	s.route(mux, "GET /api/expenses", s.handleListExpenses, true)
	s.route(mux, "POST /api/expenses", s.handleCreateExpense, true)
	s.route(mux, "GET /api/expenses/{id}", s.handleGetExpense, true)
	s.route(mux, "PATCH /api/expenses/{id}", s.handleUpdateExpense, true)
	s.route(mux, "DELETE /api/expenses/{id}", s.handleDeleteExpense, true)
	s.route(mux, "GET /api/summary", s.handleSummary, true)
	s.route(mux, "GET /api/export", s.handleExport, true)
	s.route(mux, "GET /api/changes", s.handleChanges, true)

	var handler http.Handler = mux
	handler = s.detector.Middleware(opts.Logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	return s
}

// route registers h under pattern with metrics and, for API routes, rate
// limiting and authentication.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc, api bool) {
	var handler http.Handler = h
	if api {
		handler = s.requireUser(handler)
		if s.limiter != nil {
			handler = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
				TooManyRequestsError().Write(w)
			})(handler)
		}
	}
	mux.Handle(pattern, s.instrument(pattern, handler))
}

// instrument records request count and latency labeled by route pattern.
func (s *Server) instrument(pattern string, next http.Handler) http.Handler {
	_, path, _ := strings.Cut(pattern, " ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw, status := trace.StatusRecorder(w)
		next.ServeHTTP(rw, r)
		s.metrics.ObserveHTTP(r.Method, path, status(), time.Since(start))
	})
}

// requireUser resolves the caller and stores the user ID in the request
// context and logger.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.auth.UserID(r)
		if err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Authentication failed",
				applog.FieldPath, r.URL.Path,
				applog.FieldError, err)
			writeError(w, r, err)
			return
		}
		ctx := auth.WithUser(r.Context(), id)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Shutdown stops accepting requests, ends open event streams and waits for
// in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.baseCancel()
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
