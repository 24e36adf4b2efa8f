// Package interview drives a single mock interview: it owns the question list, the current
// stage and the accumulated results, and tells speech, capture and AI collaborators what to do.
package interview

import "github.com/jonathan/hired/internal/types"

// State is the stage an interview is in
type State string

// Interview states
const (
	StateIdle                State = "idle"
	StateGeneratingQuestions State = "generating_questions"
	StateAsking              State = "asking"
	StateRecording           State = "recording"
	StateTranscribing        State = "transcribing"
	StateAnalyzing           State = "analyzing"
	StateShowingFeedback     State = "showing_feedback"
	StateCompleting          State = "completing"
	StateCompleted           State = "completed"
)

// Busy reports whether the state is waiting on an external call.
func (s State) Busy() bool {
	switch s {
	case StateGeneratingQuestions, StateTranscribing, StateAnalyzing, StateCompleting:
		return true
	}
	return false
}

// Snapshot is a read-only copy of an interview, safe to serialize and hand to other goroutines.
type Snapshot struct {
	State                State                  `json:"state"`
	JobCategory          string                 `json:"jobCategory"`
	FormattedJobCategory string                 `json:"formattedJobCategory"`
	Questions            []string               `json:"questions"`
	QuestionIndex        int                    `json:"questionIndex"`
	CurrentQuestion      string                 `json:"currentQuestion,omitempty"`
	IsLastQuestion       bool                   `json:"isLastQuestion"`
	Speaking             bool                   `json:"speaking"`
	Utterance            int                    `json:"utterance"`
	Voice                string                 `json:"voice,omitempty"`
	Transcription        *string                `json:"transcription"`
	Feedback             *string                `json:"feedback"`
	Score                *int                   `json:"score"`
	GreatResponse        *string                `json:"greatResponse"`
	Results              []types.AnalysisResult `json:"results"`
	Notice               *Notice                `json:"notice,omitempty"`
	SessionID            string                 `json:"sessionId,omitempty"`
	CanRecord            bool                   `json:"canRecord"`
	CanSkip              bool                   `json:"canSkip"`
}
