package interview

import (
	"context"

	"github.com/jonathan/hired/internal/types"
)

// QuestionGenerator produces interview questions for a job category.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, jobCategory string, count int) ([]string, error)
}

// Transcriber converts a recorded answer to text.
type Transcriber interface {
	Transcribe(ctx context.Context, rec types.AnswerRecording) (string, error)
}

// Analyzer scores an answer.
type Analyzer interface {
	AnalyzeAnswer(ctx context.Context, question, answer, jobCategory string) (types.Analysis, error)
}

// SessionStore persists finished interviews.
type SessionStore interface {
	Save(ctx context.Context, userID string, session *types.InterviewSession) (string, error)
}

// SpeechOutput reads text aloud.
//
// Speak blocks until the utterance finishes, Cancel is called or ctx ends. The utterance
// number is the one carried by SpeakQuestion and reported back in SpeechStarted/SpeechEnded.
// Cancel must return promptly and must not call back into the orchestrator.
type SpeechOutput interface {
	Speak(ctx context.Context, utterance int, text, voice string) error
	Cancel()
}

// SpeechCapture records one answer per Start/Stop pair.
// Stop returns an empty recording when nothing was captured.
type SpeechCapture interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (types.AnswerRecording, error)
}
