package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/config"
	"github.com/jonathan/hired/internal/server/ratelimit"
	"github.com/jonathan/hired/internal/store"
	"github.com/jonathan/hired/internal/types"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

// fakeAI answers every model call from canned values.
type fakeAI struct {
	mu sync.Mutex

	questions  []string
	genErr     error
	transcript string
	transErr   error
	analysis   types.Analysis
	analyzeErr error

	gotCategory string
	gotCount    int
	gotRec      types.AnswerRecording
	gotAnswer   string
}

func newFakeAI(questions ...string) *fakeAI {
	return &fakeAI{
		questions:  questions,
		transcript: "I would start by measuring.",
		analysis:   types.Analysis{Feedback: "Good structure.", Score: 80, GreatResponse: "Measure, then fix."},
	}
}

func (f *fakeAI) GenerateQuestions(_ context.Context, jobCategory string, count int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotCategory, f.gotCount = jobCategory, count
	return append([]string(nil), f.questions...), f.genErr
}

func (f *fakeAI) Transcribe(_ context.Context, rec types.AnswerRecording) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotRec = rec
	return f.transcript, f.transErr
}

func (f *fakeAI) AnalyzeAnswer(_ context.Context, _, answer, _ string) (types.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotAnswer = answer
	return f.analysis, f.analyzeErr
}

type testEnv struct {
	srv   *Server
	store store.Store
	ai    *fakeAI
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Auth.JWTSecret = testSecret
	cfg.Auth.BcryptCost = 10
	cfg.Interview.NumberOfQuestions = 2
	return cfg
}

func newTestEnv(t *testing.T, ai *fakeAI) *testEnv {
	t.Helper()
	return newTestEnvWith(t, ai, store.NewMemory(), &ratelimit.Config{Enabled: false})
}

func newTestEnvWith(t *testing.T, ai *fakeAI, st store.Store, rl *ratelimit.Config) *testEnv {
	t.Helper()
	srv, err := New(Deps{
		Config:    testConfig(),
		Store:     st,
		AI:        ai,
		RateLimit: rl,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st, ai: ai}
}

// token creates an account and returns a bearer token for it.
func (e *testEnv) token(t *testing.T) (string, uuid.UUID) {
	t.Helper()
	rec, err := e.store.CreateUser(context.Background(), "Ada", uuid.NewString()+"@example.com", "hash")
	require.NoError(t, err)
	tok, err := e.srv.jwtService.GenerateToken(rec.ID)
	require.NoError(t, err)
	return tok, rec.ID
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
