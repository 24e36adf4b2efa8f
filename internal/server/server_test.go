package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonathan/hired/internal/gateway"
	"github.com/jonathan/hired/internal/server/ratelimit"
	"github.com/jonathan/hired/internal/speech"
	"github.com/jonathan/hired/internal/store"
	"github.com/jonathan/hired/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{Store: store.NewMemory(), AI: newFakeAI()})
	assert.ErrorContains(t, err, "config")
	_, err = New(Deps{Config: testConfig(), AI: newFakeAI()})
	assert.ErrorContains(t, err, "store")
	_, err = New(Deps{Config: testConfig(), Store: store.NewMemory()})
	assert.ErrorContains(t, err, "AI")

	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	_, err = New(Deps{Config: cfg, Store: store.NewMemory(), AI: newFakeAI()})
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestHealthAndCategories(t *testing.T) {
	env := newTestEnv(t, newFakeAI())

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Categories []types.JobCategory `json:"categories"`
	}](t, w)
	assert.Equal(t, types.Categories, got.Categories)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, newFakeAI())

	w := env.do(t, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, newFakeAI())

	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code, "preflight needs no token")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCORS_AllowList(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CORSOrigins = []string{"https://app.example.com"}
	srv, err := New(Deps{Config: cfg, Store: store.NewMemory(), AI: newFakeAI(), RateLimit: &ratelimit.Config{}})
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	for origin, want := range map[string]string{
		"https://app.example.com":  "https://app.example.com",
		"https://evil.example.com": "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, want, w.Header().Get("Access-Control-Allow-Origin"), origin)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnvWith(t, newFakeAI("Q1"), store.NewMemory(), &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/rpc/", Method: http.MethodPost, Limit: 60, Window: time.Hour, Burst: 2},
		},
	})
	body := map[string]any{"jobCategory": "data-scientist"}

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/rpc/generate-questions", "", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "60", w.Header().Get("X-RateLimit-Limit"))
	}

	w := env.do(t, http.MethodPost, "/rpc/analyze-answer", "", map[string]any{
		"question": "Q", "answer": "A", "jobCategory": "data-scientist",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	// Other routes keep working
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ErrEmailAlreadyExists{Email: "a@b.co"}, http.StatusConflict},
		{&ErrInvalidCredentials{}, http.StatusUnauthorized},
		{&ErrUserNotFound{}, http.StatusNotFound},
		{&ErrInterviewNotFound{ID: "x"}, http.StatusNotFound},
		{store.ErrNotFound, http.StatusNotFound},
		{&ErrValidation{Field: "f", Message: "m"}, http.StatusBadRequest},
		{&gateway.ValidationError{Operation: gateway.OpTranscribe, Message: "empty"}, http.StatusBadRequest},
		{&gateway.ValidationError{Operation: gateway.OpAnalyzeAnswer, Message: "model output out of range", Output: true}, http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", speech.ErrNotRecording), http.StatusConflict},
		{fmt.Errorf("save: %w", types.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{&gateway.UpstreamError{Operation: gateway.OpAnalyzeAnswer, Cause: errors.New("boom")}, http.StatusBadGateway},
		{context.Canceled, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeoutSeconds = 1
	srv, err := New(Deps{Config: cfg, Store: store.NewMemory(), AI: newFakeAI(), RateLimit: &ratelimit.Config{}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
