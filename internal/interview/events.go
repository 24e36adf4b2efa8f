package interview

import "github.com/jonathan/hired/internal/types"

// Event is an input to the machine: a user action or the completion of an effect.
// Completion events carry the epoch their effect was issued under; events from an
// earlier epoch (before a Reset) are ignored.
type Event interface {
	event()
}

// Start requests questions. Only accepted when idle.
type Start struct{}

// QuestionsReady completes a RequestQuestions effect.
type QuestionsReady struct {
	Epoch     int
	Questions []string
	Err       error
}

// SpeechStarted is reported by the speech device when an utterance begins.
type SpeechStarted struct {
	Utterance int
}

// SpeechEnded is reported when an utterance finishes, fails or is cancelled.
type SpeechEnded struct {
	Utterance int
}

// StartRecording is the user asking to answer. Ignored while the question is being read.
type StartRecording struct{}

// Skip cancels the question being read and starts recording right away.
type Skip struct{}

// RecordingFailed completes a StartCapture effect that could not open the microphone.
type RecordingFailed struct {
	Epoch int
	Err   error
}

// StopRecording is the user finishing their answer.
type StopRecording struct{}

// RecordingStopped completes a StopCapture effect with the captured audio.
type RecordingStopped struct {
	Epoch     int
	Recording types.AnswerRecording
	Err       error
}

// Transcribed completes a RequestTranscription effect.
type Transcribed struct {
	Epoch int
	Text  string
	Err   error
}

// Analyzed completes a RequestAnalysis effect.
type Analyzed struct {
	Epoch    int
	Analysis types.Analysis
	Err      error
}

// Advance moves to the next question, or hands the results off for saving after the last one.
type Advance struct{}

// Completed completes a SaveSession effect.
type Completed struct {
	Epoch     int
	SessionID string
	Err       error
}

// Reset abandons the interview and returns to idle from any state.
type Reset struct{}

// Dismiss clears the current notice.
type Dismiss struct{}

func (Start) event()            {}
func (QuestionsReady) event()   {}
func (SpeechStarted) event()    {}
func (SpeechEnded) event()      {}
func (StartRecording) event()   {}
func (Skip) event()             {}
func (RecordingFailed) event()  {}
func (StopRecording) event()    {}
func (RecordingStopped) event() {}
func (Transcribed) event()      {}
func (Analyzed) event()         {}
func (Advance) event()          {}
func (Completed) event()        {}
func (Reset) event()            {}
func (Dismiss) event()          {}
