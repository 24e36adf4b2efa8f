package interview

import "fmt"

// Kind classifies a user-visible interview failure
type Kind string

// Failure kinds
const (
	KindGenerationFailed      Kind = "generation_failed"
	KindTranscriptionFailed   Kind = "transcription_failed"
	KindAnalysisFailed        Kind = "analysis_failed"
	KindPersistenceFailed     Kind = "persistence_failed"
	KindMicrophoneUnavailable Kind = "microphone_unavailable"
	KindStoreUnavailable      Kind = "store_unavailable"
)

// Error is a failure surfaced to the user. The machine keeps the last one until dismissed.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Notice is the dismissible, user-facing part of an Error
type Notice struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// User-facing messages
const (
	msgGenerationFailed = "Failed to generate questions. Please try again."
	msgNoQuestions      = "No questions were generated. Please try again."
	msgProcessFailed    = "Failed to process your answer. Please try again."
	msgMicrophoneDenied = "Please allow microphone access to record your answer."
	msgNoAudio          = "No audio was captured. Please try recording again."
	msgSaveFailed       = "Could not save your interview results."
	msgStoreUnavailable = "The results database is unavailable. Please try again later."
)
