package interview

import "github.com/jonathan/hired/internal/types"

// Effect is a side effect the machine asks its runner to perform.
type Effect interface {
	effect()
}

// RequestQuestions asks the question generator for Count questions.
type RequestQuestions struct {
	Epoch       int
	JobCategory string
	Count       int
}

// SpeakQuestion reads Text aloud with Voice. Utterance identifies it in speech events.
type SpeakQuestion struct {
	Utterance int
	Text      string
	Voice     string
}

// CancelSpeech stops any utterance immediately.
type CancelSpeech struct{}

// StartCapture opens the microphone.
type StartCapture struct {
	Epoch int
}

// StopCapture closes the microphone and collects the recording.
type StopCapture struct {
	Epoch int
}

// AbortCapture closes the microphone and throws the recording away.
type AbortCapture struct{}

// RequestTranscription converts a recording to text.
type RequestTranscription struct {
	Epoch     int
	Recording types.AnswerRecording
}

// RequestAnalysis scores an answer.
type RequestAnalysis struct {
	Epoch       int
	Question    string
	Answer      string
	JobCategory string
}

// SaveSession persists the finished interview.
type SaveSession struct {
	Epoch   int
	Session types.InterviewSession
}

func (RequestQuestions) effect()     {}
func (SpeakQuestion) effect()        {}
func (CancelSpeech) effect()         {}
func (StartCapture) effect()         {}
func (StopCapture) effect()          {}
func (AbortCapture) effect()         {}
func (RequestTranscription) effect() {}
func (RequestAnalysis) effect()      {}
func (SaveSession) effect()          {}
