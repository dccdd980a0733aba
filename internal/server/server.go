package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/skill-recommender/internal/config"
	"github.com/jonathan/skill-recommender/internal/metrics"
	"github.com/jonathan/skill-recommender/internal/recommender"
	"github.com/jonathan/skill-recommender/internal/server/middleware"
	"github.com/jonathan/skill-recommender/internal/server/ratelimit"
	"github.com/jonathan/skill-recommender/internal/types"
)

const (
	shutdownTimeout = 30 * time.Second
	retrainTimeout  = 5 * time.Minute
)

// BundleFetcher loads a user's signal bundle.
type BundleFetcher interface {
	UserBundle(ctx context.Context, userID int64) (*types.SignalBundle, error)
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Bundles      BundleFetcher
	Certificates *recommender.Recommender
	Positions    *recommender.Recommender

	// Catalogs enables POST /admin/retrain together with a retrain token.
	Catalogs recommender.CatalogLoader
	// Metrics enables GET /metrics and request instrumentation.
	Metrics *metrics.Recorder
	// BreakerState reports the upstream circuit breaker on /health.
	BreakerState func() string

	Logger zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	deps        Deps
	tuning      config.RecommenderConfig
	rateLimiter *ratelimit.Limiter
	logger      zerolog.Logger
	retrainMu   sync.Mutex
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Bundles == nil {
		return nil, errors.New("server: bundle fetcher is required")
	}
	if deps.Certificates == nil || deps.Positions == nil {
		return nil, errors.New("server: both recommenders are required")
	}

	s := &Server{
		deps:        deps,
		tuning:      cfg.Recommender,
		rateLimiter: ratelimit.NewLimiter(
			ratelimit.NewConfig(cfg.Server.RateLimit, cfg.Server.RateBurst).
				WithAccessLists(cfg.Server.RateLimitWhitelist, cfg.Server.RateLimitBlacklist),
		),
		logger:      deps.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /recommend/certificates/{user_id}", s.handleRecommend(deps.Certificates))
	mux.HandleFunc("GET /recommend/positions/{user_id}", s.handleRecommend(deps.Positions))
	mux.HandleFunc("GET /health", s.handleHealth)

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}
	if cfg.Server.RetrainToken != "" && deps.Catalogs != nil {
		auth := middleware.AuthMiddleware(middleware.StaticToken(cfg.Server.RetrainToken))
		mux.Handle("POST /admin/retrain", auth(http.HandlerFunc(s.handleRetrain)))
	}

	var observer middleware.HTTPObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	s.handler = middleware.RequestID(s.logger)(
		middleware.Logging(observer)(
			middleware.CORS(cfg.Server.AllowedOrigins)(
				s.withRateLimit(mux))))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info().Msg("server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	zerolog.Ctx(r.Context()).Warn().
		Int("limit", info.Limit).
		Dur("retry_after", info.RetryAfter).
		Msg("rate limit exceeded")

	s.jsonResponse(w, r, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.jsonResponse(w, r, status, map[string]string{"error": message})
}

// writeError maps err to a status, logs it and writes the response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	logger := zerolog.Ctx(r.Context())
	event := logger.Debug()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	s.errorResponse(w, r, status, publicMessage(err, status))
}
