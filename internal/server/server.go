package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/config"
	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/server/middleware"
	"github.com/jonathan/hired/internal/server/ratelimit"
	"github.com/jonathan/hired/internal/store"
	"github.com/jonathan/hired/internal/types"
	"golang.org/x/sync/errgroup"
)

// maxBodyBytes bounds request bodies; recorded answers arrive inline as data URIs.
const maxBodyBytes = 32 << 20

// AI is the model gateway used by the RPC endpoints and by live interviews.
type AI interface {
	GenerateQuestions(ctx context.Context, jobCategory string, count int) ([]string, error)
	Transcribe(ctx context.Context, rec types.AnswerRecording) (string, error)
	AnalyzeAnswer(ctx context.Context, question, answer, jobCategory string) (types.Analysis, error)
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Config *config.Config
	Store  store.Store
	AI     AI
	// RateLimit replaces the limiter built from Config.RateLimit.
	RateLimit *ratelimit.Config
	Logger    *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg         *config.Config
	store       store.Store
	ai          AI
	log         *slog.Logger
	validate    *validator.Validate
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	live        *registry
	handler     http.Handler

	// ctx bounds live interviews, which outlive the request that created them.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new server instance
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.New("server: config is required")
	case deps.Store == nil:
		return nil, errors.New("server: store is required")
	case deps.AI == nil:
		return nil, errors.New("server: AI gateway is required")
	}

	log := deps.Logger
	if log == nil {
		log = observability.Logger()
	}

	s := &Server{
		cfg:      deps.Config,
		store:    deps.Store,
		ai:       deps.AI,
		log:      log.With("component", "server"),
		validate: validator.New(),
		live:     newRegistry(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	rl := deps.RateLimit
	if rl == nil {
		rl = ratelimit.FromConfig(deps.Config.RateLimit)
	}
	s.rateLimiter = ratelimit.NewLimiter(rl)

	passwordConfig, err := deps.Config.Auth.Password()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.userService = NewUserService(deps.Store, passwordConfig)

	jwtConfig, err := deps.Config.Auth.JWT()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /categories", s.handleCategories)

	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.Handle("GET /auth/me", s.authed(s.authHandler.Me))

	// Stateless model calls
	mux.HandleFunc("POST /rpc/generate-questions", s.handleGenerateQuestions)
	mux.HandleFunc("POST /rpc/transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /rpc/analyze-answer", s.handleAnalyzeAnswer)

	// Live interviews
	mux.Handle("POST /interviews", s.authed(s.handleCreateInterview))
	mux.Handle("GET /interviews/{id}", s.authed(s.handleGetInterview))
	mux.Handle("DELETE /interviews/{id}", s.authed(s.handleDeleteInterview))
	mux.Handle("GET /interviews/{id}/events", s.authed(s.handleInterviewEvents))
	mux.Handle("POST /interviews/{id}/{action}", s.authed(s.handleInterviewAction))
	mux.Handle("POST /interviews/{id}/recording/start", s.authed(s.handleRecordingStart))
	mux.Handle("POST /interviews/{id}/recording/stop", s.authed(s.handleRecordingStop))
	mux.Handle("POST /interviews/{id}/speech/started", s.authed(s.handleSpeechStarted))
	mux.Handle("POST /interviews/{id}/speech/ended", s.authed(s.handleSpeechEnded))
	mux.Handle("PUT /interviews/{id}/voices", s.authed(s.handleSetVoices))
	mux.Handle("PUT /interviews/{id}/voice", s.authed(s.handleSetVoice))

	// History
	mux.Handle("GET /sessions", s.authed(s.handleListSessions))
	mux.Handle("DELETE /sessions", s.authed(s.handleClearSessions))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured port until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// No WriteTimeout: event streams stay open for the whole interview
		IdleTimeout: 120 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server")

		timeout := time.Duration(s.cfg.Server.ShutdownTimeoutSeconds) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// Live interviews hold open event streams; end them first
		s.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.log.Info("server stopped")
	return err
}

// Close ends every live interview and stops background work. It does not close the store.
func (s *Server) Close() {
	s.cancel()
	s.live.closeAll()
	s.rateLimiter.Stop()
}

// authed wraps h with bearer token authentication.
func (s *Server) authed(h http.HandlerFunc) http.Handler {
	return middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h)
}

// withCORS adds CORS headers for the configured origins
func (s *Server) withCORS(next http.Handler) http.Handler {
	origins := s.cfg.Server.CORSOrigins
	anyOrigin := slices.Contains(origins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case anyOrigin:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging tags each request with an id and logs its outcome
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := observability.WithRequestID(r.Context(), requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		observability.LoggerFromContext(ctx).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
		)
	})
}

// statusRecorder captures the response status. It forwards Flush so event streams keep working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{"categories": types.Categories})
}

// decodeBody reads a JSON body into dst and validates it.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return false
	}
	return true
}

// userID returns the authenticated caller. Only used behind authed.
func userID(r *http.Request) string {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return ""
	}
	return id.String()
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		observability.Logger().Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// failure maps err to a status and writes it. Server-side failures are logged and not echoed.
func failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	message := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		message = types.ErrStoreUnavailable.Error()
	case http.StatusBadGateway:
		message = "model call failed"
	case http.StatusInternalServerError:
		message = "internal error"
	}
	if status >= 500 {
		observability.LoggerFromContext(r.Context()).Error("request failed",
			"path", r.URL.Path, "status", status, "error", err)
	}
	errorResponse(w, status, message)
}

// extractClientID extracts the client identifier from the request.
// X-Forwarded-For is not trusted; the limiter keys on the peer address.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
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
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		// Round up so clients never retry early
		secs := int((info.RetryAfter + time.Second - 1) / time.Second)
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	s.log.Warn("rate limit exceeded",
		"client", s.extractClientID(r), "path", r.URL.Path, "limit", info.Limit)

	jsonResponse(w, http.StatusTooManyRequests, response)
}
