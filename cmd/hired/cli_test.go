package main

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/jonathan/hired/internal/config"
	"github.com/jonathan/hired/internal/llm"
	"github.com/jonathan/hired/internal/results"
	"github.com/jonathan/hired/internal/store"
	"github.com/jonathan/hired/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesCommand(t *testing.T) {
	out, err := execute(t, "", "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "SLUG")
	assert.Contains(t, out, "software-engineer")
	assert.Contains(t, out, "UX/UI Designer")
}

func TestPracticeCommand_MissingCategory(t *testing.T) {
	useFakeAI(t, "Q1")
	_, err := execute(t, "", "practice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "category" not set`)
}

func TestPracticeThenHistory(t *testing.T) {
	useBadger(t)
	useFakeAI(t, "Tell me about a hard bug.", "How do you review code?")
	a1 := writeAnswer(t, "a1.webm", "bisected it")
	a2 := writeAnswer(t, "a2.webm", "small diffs")

	out, err := execute(t, "", "practice", "-c", "software-engineer", "-n", "2", "--answers", a1+","+a2)
	require.NoError(t, err, out)
	assert.Contains(t, out, "QUESTION 1 OF 2")
	assert.Contains(t, out, "QUESTION 2 OF 2")
	assert.Contains(t, out, "🔊 Tell me about a hard bug.")
	assert.Contains(t, out, "I said: bisected it")
	assert.Contains(t, out, "Score: 80/100")
	assert.Contains(t, out, "INTERVIEW RESULTS · Software Engineer")
	assert.Contains(t, out, "Average score: 80/100")

	out, err = execute(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "INTERVIEW HISTORY (1)")
	assert.Contains(t, out, "Software Engineer")

	out, err = execute(t, "", "history", "list", "--json")
	require.NoError(t, err)
	var views []results.View
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Len(t, views[0].Items, 2)
	require.NotEmpty(t, views[0].SessionID)

	out, err = execute(t, "", "history", "show", views[0].SessionID)
	require.NoError(t, err)
	assert.Contains(t, out, "How do you review code?")

	_, err = execute(t, "", "history", "show", "missing")
	assert.ErrorContains(t, err, "no session")

	out, err = execute(t, "", "history", "list", "--user", "someone-else")
	require.NoError(t, err)
	assert.Contains(t, out, "No past interviews yet.")

	_, err = execute(t, "", "history", "clear")
	assert.ErrorContains(t, err, "--yes")

	_, err = execute(t, "", "history", "clear", "--yes")
	require.NoError(t, err)
	out, err = execute(t, "", "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No past interviews yet.")
}

func TestPractice_PromptsForAnswers(t *testing.T) {
	useBadger(t)
	useFakeAI(t, "Why product?")
	a1 := writeAnswer(t, "answer.ogg", "users first")

	out, err := execute(t, a1+"\n", "practice", "-c", "product-manager", "-n", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Path to your recorded answer: ")
	assert.Contains(t, out, "I said: users first")
	assert.Contains(t, out, "INTERVIEW RESULTS · Product Manager")
}

func TestPractice_GivesUpAfterRepeatedFailures(t *testing.T) {
	useBadger(t)
	useFakeAI(t, "Q1")

	out, err := execute(t, "", "practice", "-c", "data-scientist", "-n", "1", "--answers", "/does/not/exist.webm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, maxAttempts, strings.Count(out, "MICROPHONE_UNAVAILABLE"))
}

func TestPromptPaths(t *testing.T) {
	next := promptPaths(strings.NewReader("  one.webm \n\nthree.webm\n"), io.Discard)
	ctx := context.Background()

	p, err := next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one.webm", p)

	_, err = next(ctx)
	assert.ErrorIs(t, err, io.EOF, "blank line is no answer")

	p, err = next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "three.webm", p)

	_, err = next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = next(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLLMConfig(t *testing.T) {
	cfg, err := llmConfig(config.LLMConfig{
		Provider: config.ProviderOpenAI,
		Models:   map[string]string{"advanced": "gpt-4.1"},
	})
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4.1", cfg.GetModel(llm.TierAdvanced))
	assert.Equal(t, "gpt-4o-mini", cfg.GetModel(llm.TierLite))

	cfg, err = llmConfig(config.LLMConfig{Provider: config.ProviderVertex, Project: "p", Location: "europe-west4"})
	require.NoError(t, err)
	assert.Equal(t, "p", cfg.Project)
	assert.Equal(t, "europe-west4", cfg.Location)

	_, err = llmConfig(config.LLMConfig{Provider: config.ProviderGemini, Models: map[string]string{"huge": "x"}})
	assert.ErrorContains(t, err, "unknown model tier")
}

func TestNewAI_RequiresKey(t *testing.T) {
	_, _, err := newAI(context.Background(), config.LLMConfig{Provider: config.ProviderOpenAI})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
	_, _, err = newAI(context.Background(), config.LLMConfig{Provider: config.ProviderGemini})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestOpenStore_FallsBackWhenUnavailable(t *testing.T) {
	st, err := openStore(context.Background(), config.StoreConfig{Backend: config.BackendPostgres})
	require.NoError(t, err)
	assert.IsType(t, store.Unavailable{}, st)

	_, err = openStore(context.Background(), config.StoreConfig{Backend: "cassandra"})
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestHistory_UnconfiguredDatabaseReportsUnavailable(t *testing.T) {
	t.Setenv("STORE_BACKEND", config.BackendPostgres)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	_, err := execute(t, "", "history", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.NotContains(t, err.Error(), "config error")
}
