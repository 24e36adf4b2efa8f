package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jonathan/hired/internal/config"
	"github.com/jonathan/hired/internal/server"
	"github.com/jonathan/hired/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	questions []string
}

func (f *fakeAI) GenerateQuestions(_ context.Context, _ string, count int) ([]string, error) {
	if count < len(f.questions) {
		return f.questions[:count], nil
	}
	return f.questions, nil
}

func (f *fakeAI) Transcribe(_ context.Context, rec types.AnswerRecording) (string, error) {
	return "I said: " + string(rec.Data), nil
}

func (f *fakeAI) AnalyzeAnswer(context.Context, string, string, string) (types.Analysis, error) {
	return types.Analysis{Feedback: "Clear and concise.", Score: 80, GreatResponse: "Lead with the outcome."}, nil
}

// useFakeAI swaps the model gateway for canned answers.
func useFakeAI(t *testing.T, questions ...string) {
	t.Helper()
	orig := newAI
	newAI = func(context.Context, config.LLMConfig) (server.AI, func() error, error) {
		return &fakeAI{questions: questions}, func() error { return nil }, nil
	}
	t.Cleanup(func() { newAI = orig })
}

// useBadger points the store at a fresh on-disk database.
func useBadger(t *testing.T) {
	t.Helper()
	t.Setenv("STORE_BACKEND", config.BackendBadger)
	t.Setenv("BADGER_DIR", filepath.Join(t.TempDir(), "sessions"))
	t.Setenv("LOG_LEVEL", "error")
}

// lockedBuffer is written by the speaker goroutine and the command at once.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// execute runs the root command in-process with flags reset to their defaults.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	out := &lockedBuffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeAnswer(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
