package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	"github.com/fikri/chatstore/internal/metrics"
	"github.com/fikri/chatstore/pkg/store"
)

// Server is the chatstore HTTP server
type Server struct {
	options        ServerOptions
	store          store.Store
	metrics        *metrics.Metrics
	logger         zerolog.Logger
	server         *http.Server
	saveSchema     *gojsonschema.Schema
	rateLimiter    *RateLimiter
	startTime      time.Time
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// NewServer creates a new API server
func NewServer(options ServerOptions, st store.Store, m *metrics.Metrics, logger zerolog.Logger) (*Server, error) {
	// Set defaults
	if options.Port == 0 {
		options.Port = 3000
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if options.RateLimitPerMinute == 0 {
		options.RateLimitPerMinute = 300
	}
	if options.ShutdownTimeout == 0 {
		options.ShutdownTimeout = 30 * time.Second
	}
	if options.Environment == "" {
		options.Environment = "development"
	}

	if st == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if m == nil {
		return nil, fmt.Errorf("metrics are required")
	}

	saveSchema, err := newSaveSchema()
	if err != nil {
		return nil, err
	}

	return &Server{
		options:     options,
		store:       st,
		metrics:     m,
		logger:      logger,
		saveSchema:  saveSchema,
		rateLimiter: NewRateLimiter(options.RateLimitPerMinute),
		startTime:   time.Now(),
	}, nil
}

// Routes builds the request handler: routing plus the middleware stack
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", s.instrument("/health", s.handleHealth))
	mux.Handle("POST /chat/save", s.instrument("/chat/save", s.handleSave))
	mux.Handle("GET /chat", s.instrument("/chat", s.handleList))
	mux.Handle("GET /chat/{sessionId}", s.instrument("/chat/{sessionId}", s.handleGet))
	mux.Handle("DELETE /chat/{sessionId}", s.instrument("/chat/{sessionId}", s.handleDelete))
	mux.Handle("GET /metrics", s.metrics.Handler())

	return s.withMiddleware(mux)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Routes(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Str("environment", s.options.Environment).
		Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop gracefully stops the server, draining in-flight requests first
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down API server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("All in-flight requests completed")
	case <-time.After(s.options.ShutdownTimeout):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.rateLimiter.Stop()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown API server: %w", err)
		}
	}

	s.logger.Info().Msg("API server stopped")
	return nil
}

// withMiddleware rejects requests during shutdown, tracks in-flight requests
// and applies per-IP rate limiting before routing.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.shutdownMu.RLock()
		if s.isShuttingDown {
			s.shutdownMu.RUnlock()
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}
		s.shutdownMu.RUnlock()

		s.inFlightReqs.Add(1)
		defer s.inFlightReqs.Done()

		ip := s.getClientIP(r)
		if !s.rateLimiter.CheckLimit(ip) {
			retryAfter := s.rateLimiter.GetRetryAfter(ip)
			s.logger.Warn().
				Str("ip", ip).
				Str("path", r.URL.Path).
				Int("retryAfter", retryAfter).
				Msg("Rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// instrument wraps a handler with request logging and HTTP metrics, labelled
// by route pattern rather than raw path to keep metric cardinality bounded.
func (s *Server) instrument(route string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID, _ := gonanoid.New()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(recorder, r)

		duration := time.Since(start)
		s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		s.logger.Info().
			Str("requestId", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", duration).
			Msg("Request completed")
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// getClientIP extracts the client IP from the request
func (s *Server) getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
