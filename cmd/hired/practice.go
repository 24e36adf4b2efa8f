package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jonathan/hired/internal/interview"
	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/results"
	"github.com/jonathan/hired/internal/speech"
	"github.com/jonathan/hired/internal/types"
	"github.com/spf13/cobra"
)

// maxAttempts bounds how often one question is retried after a failed answer.
const maxAttempts = 3

var (
	practiceCategory  string
	practiceQuestions int
	practiceAnswers   []string
	practiceUser      string
	practiceVoice     string
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run a mock interview in the terminal",
	Long: `Run a mock interview in the terminal. Questions are printed instead of spoken and each
answer is read from an audio file: pass them in order with --answers, or type a path when asked.

Example:
  hired practice --category software-engineer --answers q1.webm,q2.webm,q3.webm`,
	RunE: runPractice,
}

func init() {
	practiceCmd.Flags().StringVarP(&practiceCategory, "category", "c", "", "Job category slug, see 'hired categories' (required)")
	practiceCmd.Flags().IntVarP(&practiceQuestions, "questions", "n", 0, "Number of questions (default from config)")
	practiceCmd.Flags().StringSliceVarP(&practiceAnswers, "answers", "a", nil, "Answer audio files in question order")
	practiceCmd.Flags().StringVar(&practiceUser, "user", "local", "User id the finished session is saved under")
	practiceCmd.Flags().StringVar(&practiceVoice, "voice", "", "Voice label shown with each question")

	if err := practiceCmd.MarkFlagRequired("category"); err != nil {
		panic(fmt.Sprintf("failed to mark category flag as required: %v", err))
	}

	rootCmd.AddCommand(practiceCmd)
}

func runPractice(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ai, closeAI, err := newAI(ctx, cfg.LLM)
	if err != nil {
		return err
	}
	defer func() { _ = closeAI() }()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	count := practiceQuestions
	if count <= 0 {
		count = cfg.Interview.NumberOfQuestions
	}

	out := cmd.OutOrStdout()
	source := speech.Paths(practiceAnswers...)
	if len(practiceAnswers) == 0 {
		source = promptPaths(cmd.InOrStdin(), out)
	}

	orch, err := interview.New(ctx, interview.Deps{
		Questions:   ai,
		Transcriber: ai,
		Analyzer:    ai,
		Store:       st,
		Speech:      speech.NewConsoleSpeaker(out),
		Capture:     speech.NewFileCapture(source),
		Logger:      observability.Logger(),
	}, interview.Options{
		UserID:            practiceUser,
		JobCategory:       practiceCategory,
		NumberOfQuestions: count,
		Voice:             practiceVoice,
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	final, err := drive(ctx, orch, observability.NewPrinter(out))
	if err != nil {
		return err
	}

	session := types.InterviewSession{
		ID:                   final.SessionID,
		JobCategory:          final.JobCategory,
		FormattedJobCategory: final.FormattedJobCategory,
		Date:                 time.Now(),
		Results:              final.Results,
	}
	results.Render(out, results.Build(session))
	return nil
}

// promptPaths asks for each answer file on in. An empty line or EOF counts as no answer.
func promptPaths(in io.Reader, out io.Writer) speech.PathSource {
	scanner := bufio.NewScanner(in)
	return func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(out, "Path to your recorded answer: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		path := strings.TrimSpace(scanner.Text())
		if path == "" {
			return "", io.EOF
		}
		return path, nil
	}
}

// drive answers every question of orch in turn and returns the final snapshot.
// A failed save is shown but still returns the results.
func drive(ctx context.Context, orch *interview.Orchestrator, p *observability.Printer) (interview.Snapshot, error) {
	changed := make(chan struct{}, 1)
	orch.OnChange(func(interview.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	await := func(done func(interview.Snapshot) bool) (interview.Snapshot, error) {
		for {
			s := orch.Snapshot()
			if done(s) {
				return s, nil
			}
			select {
			case <-changed:
			case <-ctx.Done():
				return s, ctx.Err()
			}
		}
	}

	orch.Dispatch(interview.Start{})
	s, err := await(func(s interview.Snapshot) bool { return s.State != interview.StateGeneratingQuestions })
	if err != nil {
		return s, err
	}
	if s.Notice != nil {
		return s, errors.New(s.Notice.Message)
	}

	for {
		p.PrintQuestion(s.QuestionIndex, len(s.Questions), s.CurrentQuestion)

		for attempt := 1; ; attempt++ {
			if _, err := await(func(s interview.Snapshot) bool { return !s.Speaking }); err != nil {
				return s, err
			}
			orch.Dispatch(interview.StartRecording{})
			orch.Dispatch(interview.StopRecording{})

			s, err = await(func(s interview.Snapshot) bool {
				return s.State == interview.StateShowingFeedback || (s.State == interview.StateAsking && s.Notice != nil)
			})
			if err != nil {
				return s, err
			}
			if s.Notice == nil {
				break
			}

			p.PrintNotice(string(s.Notice.Kind), s.Notice.Message)
			orch.Dispatch(interview.Dismiss{})
			if attempt == maxAttempts {
				return s, fmt.Errorf("question %d failed after %d attempts", s.QuestionIndex+1, maxAttempts)
			}
		}

		last := s.Results[len(s.Results)-1]
		p.PrintFeedback(&last)

		index := s.QuestionIndex
		orch.Dispatch(interview.Advance{})
		s, err = await(func(s interview.Snapshot) bool {
			return s.State == interview.StateCompleted ||
				(s.State == interview.StateAsking && s.QuestionIndex != index) ||
				(s.State == interview.StateShowingFeedback && s.Notice != nil)
		})
		if err != nil {
			return s, err
		}
		switch {
		case s.State == interview.StateCompleted:
			return s, nil
		case s.Notice != nil:
			p.PrintNotice(string(s.Notice.Kind), s.Notice.Message)
			return s, nil
		}
	}
}
