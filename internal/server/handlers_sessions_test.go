package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/jonathan/hired/internal/results"
	"github.com/jonathan/hired/internal/server/ratelimit"
	"github.com/jonathan/hired/internal/store"
	"github.com/jonathan/hired/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionsResponse struct {
	Sessions []results.View `json:"sessions"`
	Count    int            `json:"count"`
}

func saveSession(t *testing.T, st store.Store, userID, category string, scores ...int) {
	t.Helper()
	s := &types.InterviewSession{
		JobCategory:          category,
		FormattedJobCategory: types.FormatJobCategory(category),
	}
	for _, score := range scores {
		s.Results = append(s.Results, types.NewAnalysisResult("Q", "A", types.Analysis{
			Feedback: "F", Score: score, GreatResponse: "G",
		}))
	}
	_, err := st.Save(context.Background(), userID, s)
	require.NoError(t, err)
}

func TestListSessions(t *testing.T) {
	env := newTestEnv(t, newFakeAI())
	tok, uid := env.token(t)
	other, _ := env.token(t)

	saveSession(t, env.store, uid.String(), "software-engineer", 60, 90)
	saveSession(t, env.store, uid.String(), "data-scientist", 40)

	w := env.do(t, http.MethodGet, "/sessions", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[sessionsResponse](t, w)
	require.Equal(t, 2, got.Count)
	assert.Equal(t, "data-scientist", got.Sessions[0].JobCategory, "newest first")
	assert.Equal(t, 75, got.Sessions[1].AverageScore)
	assert.Equal(t, "Software Engineer", got.Sessions[1].FormattedJobCategory)
	assert.NotEmpty(t, got.Sessions[0].SessionID)

	w = env.do(t, http.MethodGet, "/sessions", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[sessionsResponse](t, w).Count, "sessions are per user")
}

func TestClearSessions(t *testing.T) {
	env := newTestEnv(t, newFakeAI())
	tok, uid := env.token(t)
	saveSession(t, env.store, uid.String(), "product-manager", 70)

	w := env.do(t, http.MethodDelete, "/sessions", tok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/sessions", tok, nil)
	assert.Equal(t, 0, decode[sessionsResponse](t, w).Count)
}

func TestSessions_StoreUnavailable(t *testing.T) {
	mem := store.NewMemory()
	env := newTestEnvWith(t, newFakeAI(), &brokenSessions{Memory: mem}, &ratelimit.Config{})
	tok, _ := env.token(t)

	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/sessions", tok, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodDelete, "/sessions", tok, nil).Code)
}

// brokenSessions keeps accounts working while session storage is down.
type brokenSessions struct {
	*store.Memory
}

func (b *brokenSessions) Save(context.Context, string, *types.InterviewSession) (string, error) {
	return "", types.ErrStoreUnavailable
}

func (b *brokenSessions) ListSessions(context.Context, string) ([]types.InterviewSession, error) {
	return nil, types.ErrStoreUnavailable
}

func (b *brokenSessions) ClearAll(context.Context, string) error {
	return types.ErrStoreUnavailable
}
