package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"farcaster-attestation-frame/internal/infra/logging"
	"farcaster-attestation-frame/internal/infra/redis"
	"farcaster-attestation-frame/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the stateless HTTP front end. Every endpoint either publishes an
// event and returns immediately or performs a pure read; nothing here blocks
// on pipeline work.
type Server struct {
	submitUC   usecase.SubmitUseCase
	statusUC   usecase.StatusUseCase
	paymentUC  usecase.PaymentUseCase
	limiter    *redis.RateLimiter
	pollLimit  int
	pollWindow time.Duration
	log        *zerolog.Logger
}

func NewServer(
	submitUC usecase.SubmitUseCase,
	statusUC usecase.StatusUseCase,
	paymentUC usecase.PaymentUseCase,
	limiter *redis.RateLimiter,
	pollLimit int,
	pollWindow time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		submitUC:   submitUC,
		statusUC:   statusUC,
		paymentUC:  paymentUC,
		limiter:    limiter,
		pollLimit:  pollLimit,
		pollWindow: pollWindow,
		log:        logger,
	}
}

// Router builds the chi router with all frame endpoints mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	r.Use(s.traceMiddleware)

	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)

		r.Get("/frames", s.entryHandler)
		r.Post("/frames/casts/{castHash}", s.submitHandler)
		r.Get("/validations/{jobId}", s.validationStatusHandler)
		r.Get("/jobs/{jobId}", s.jobStatusHandler)
		r.Get("/transactions/{jobId}", s.transactionHandler)
		r.Post("/jobs/{jobId}/payments", s.paymentHandler)
		r.Post("/jobs/{jobId}/reset", s.resetHandler)
	})

	return r
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitMiddleware bounds per-client request rate. Redis being down fails
// open: polling is cheap and side-effect free, so availability wins.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil {
			key := redis.PollKey(clientAddr(r), r.URL.Path)
			ok, err := s.limiter.Allow(r.Context(), key, s.pollLimit, s.pollWindow)
			if err != nil {
				s.log.Warn().Err(err).Msg("rate limiter unavailable")
			} else if !ok {
				writeErrorView(w, http.StatusTooManyRequests, "Too many requests, slow down", "")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
