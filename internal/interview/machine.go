package interview

import (
	"errors"

	"github.com/jonathan/hired/internal/types"
)

// Machine is the interview state machine. It performs no I/O: Dispatch applies an event,
// updates the state and returns the effects the caller must run. It is not safe for
// concurrent use; the Orchestrator serializes access.
type Machine struct {
	UserID               string
	JobCategory          string
	FormattedJobCategory string
	NumberOfQuestions    int
	Voice                string

	state     State
	epoch     int
	utterance int
	speaking  bool
	stopping  bool

	questions []string
	index     int
	results   []types.AnalysisResult

	// per-question transient data
	pending       *types.AnswerRecording
	transcription *string
	feedback      *string
	score         *int
	greatResponse *string

	err       *Error
	sessionID string
}

// NewMachine creates an idle interview for jobCategory.
func NewMachine(userID, jobCategory string, numberOfQuestions int) *Machine {
	if numberOfQuestions <= 0 {
		numberOfQuestions = types.DefaultNumberOfQuestions
	}
	return &Machine{
		UserID:               userID,
		JobCategory:          jobCategory,
		FormattedJobCategory: types.FormatJobCategory(jobCategory),
		NumberOfQuestions:    numberOfQuestions,
		state:                StateIdle,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Epoch returns the current epoch. It increases on every Reset.
func (m *Machine) Epoch() int { return m.epoch }

// Err returns the last surfaced failure, or nil.
func (m *Machine) Err() *Error { return m.err }

// Dispatch applies ev and returns the effects to perform, in order.
// Events that are not valid in the current state are ignored and produce no effects.
func (m *Machine) Dispatch(ev Event) []Effect {
	switch e := ev.(type) {
	case Start:
		return m.start()
	case QuestionsReady:
		return m.questionsReady(e)
	case SpeechStarted:
		if m.state == StateAsking && e.Utterance == m.utterance {
			m.speaking = true
		}
	case SpeechEnded:
		if e.Utterance == m.utterance {
			m.speaking = false
		}
	case StartRecording:
		if m.state == StateAsking && !m.speaking {
			return m.startRecording()
		}
	case Skip:
		if m.state == StateAsking && m.speaking {
			m.speaking = false
			return append([]Effect{CancelSpeech{}}, m.startRecording()...)
		}
	case RecordingFailed:
		if m.current(e.Epoch, StateRecording) {
			m.fail(StateAsking, KindMicrophoneUnavailable, msgMicrophoneDenied, e.Err)
		}
	case StopRecording:
		if m.state == StateRecording && !m.stopping {
			m.stopping = true
			return []Effect{StopCapture{Epoch: m.epoch}}
		}
	case RecordingStopped:
		return m.recordingStopped(e)
	case Transcribed:
		return m.transcribed(e)
	case Analyzed:
		m.analyzed(e)
	case Advance:
		return m.advance()
	case Completed:
		m.completed(e)
	case Reset:
		return m.reset()
	case Dismiss:
		m.err = nil
	}
	return nil
}

// current reports whether a completion event belongs to this epoch and arrives in the expected state.
func (m *Machine) current(epoch int, want State) bool {
	return epoch == m.epoch && m.state == want
}

func (m *Machine) start() []Effect {
	if m.state != StateIdle {
		return nil
	}
	m.state = StateGeneratingQuestions
	m.err = nil
	return []Effect{RequestQuestions{Epoch: m.epoch, JobCategory: m.JobCategory, Count: m.NumberOfQuestions}}
}

func (m *Machine) questionsReady(e QuestionsReady) []Effect {
	if !m.current(e.Epoch, StateGeneratingQuestions) {
		return nil
	}
	if e.Err != nil {
		m.fail(StateIdle, KindGenerationFailed, msgGenerationFailed, e.Err)
		return nil
	}
	if len(e.Questions) == 0 {
		m.fail(StateIdle, KindGenerationFailed, msgNoQuestions, nil)
		return nil
	}

	m.questions = append([]string(nil), e.Questions...)
	m.index = 0
	m.results = nil
	return m.ask()
}

// ask enters asking for the current question and reads it aloud.
func (m *Machine) ask() []Effect {
	m.clearTransient()
	m.state = StateAsking
	m.utterance++
	m.speaking = true
	return []Effect{SpeakQuestion{Utterance: m.utterance, Text: m.questions[m.index], Voice: m.Voice}}
}

func (m *Machine) startRecording() []Effect {
	m.pending = nil
	m.stopping = false
	m.state = StateRecording
	return []Effect{StartCapture{Epoch: m.epoch}}
}

func (m *Machine) recordingStopped(e RecordingStopped) []Effect {
	if !m.current(e.Epoch, StateRecording) {
		return nil
	}
	m.stopping = false
	if e.Err != nil {
		m.fail(StateAsking, KindMicrophoneUnavailable, msgMicrophoneDenied, e.Err)
		return nil
	}
	if e.Recording.Empty() {
		m.fail(StateAsking, KindMicrophoneUnavailable, msgNoAudio, nil)
		return nil
	}

	rec := e.Recording
	m.pending = &rec
	m.state = StateTranscribing
	return []Effect{RequestTranscription{Epoch: m.epoch, Recording: rec}}
}

func (m *Machine) transcribed(e Transcribed) []Effect {
	if !m.current(e.Epoch, StateTranscribing) {
		return nil
	}
	m.pending = nil
	if e.Err != nil {
		m.fail(StateAsking, KindTranscriptionFailed, msgProcessFailed, e.Err)
		return nil
	}

	text := e.Text
	m.transcription = &text
	m.state = StateAnalyzing
	return []Effect{RequestAnalysis{
		Epoch:       m.epoch,
		Question:    m.questions[m.index],
		Answer:      text,
		JobCategory: m.JobCategory,
	}}
}

func (m *Machine) analyzed(e Analyzed) {
	if !m.current(e.Epoch, StateAnalyzing) {
		return
	}
	if e.Err != nil {
		m.transcription = nil
		m.fail(StateAsking, KindAnalysisFailed, msgProcessFailed, e.Err)
		return
	}

	result := types.NewAnalysisResult(m.questions[m.index], *m.transcription, e.Analysis)
	m.feedback = result.Feedback
	m.score = result.Score
	m.greatResponse = result.GreatResponse
	m.results = append(m.results, result)
	m.state = StateShowingFeedback
}

func (m *Machine) advance() []Effect {
	if m.state != StateShowingFeedback {
		return nil
	}
	if m.index < len(m.questions)-1 {
		m.index++
		return m.ask()
	}

	m.state = StateCompleting
	return []Effect{SaveSession{
		Epoch: m.epoch,
		Session: types.InterviewSession{
			UserID:               m.UserID,
			JobCategory:          m.JobCategory,
			FormattedJobCategory: m.FormattedJobCategory,
			Results:              types.CloneResults(m.results),
		},
	}}
}

func (m *Machine) completed(e Completed) {
	if !m.current(e.Epoch, StateCompleting) {
		return
	}
	if e.Err != nil {
		if errors.Is(e.Err, types.ErrStoreUnavailable) {
			m.fail(StateShowingFeedback, KindStoreUnavailable, msgStoreUnavailable, e.Err)
		} else {
			m.fail(StateShowingFeedback, KindPersistenceFailed, msgSaveFailed, e.Err)
		}
		return
	}
	m.sessionID = e.SessionID
	m.state = StateCompleted
}

func (m *Machine) reset() []Effect {
	effects := []Effect{CancelSpeech{}}
	if m.state == StateRecording && !m.stopping {
		effects = append(effects, AbortCapture{})
	}

	m.epoch++
	m.state = StateIdle
	m.speaking = false
	m.stopping = false
	m.questions = nil
	m.index = 0
	m.results = nil
	m.err = nil
	m.sessionID = ""
	m.clearTransient()
	return effects
}

func (m *Machine) clearTransient() {
	m.pending = nil
	m.transcription = nil
	m.feedback = nil
	m.score = nil
	m.greatResponse = nil
}

func (m *Machine) fail(next State, kind Kind, message string, cause error) {
	m.err = &Error{Kind: kind, Message: message, Cause: cause}
	m.state = next
	m.stopping = false
}

// Snapshot returns a deep copy of the machine's observable state.
func (m *Machine) Snapshot() Snapshot {
	s := Snapshot{
		State:                m.state,
		JobCategory:          m.JobCategory,
		FormattedJobCategory: m.FormattedJobCategory,
		Questions:            append([]string(nil), m.questions...),
		QuestionIndex:        m.index,
		Speaking:             m.speaking,
		Utterance:            m.utterance,
		Voice:                m.Voice,
		Transcription:        copyPtr(m.transcription),
		Feedback:             copyPtr(m.feedback),
		Score:                copyPtr(m.score),
		GreatResponse:        copyPtr(m.greatResponse),
		Results:              types.CloneResults(m.results),
		SessionID:            m.sessionID,
		CanRecord:            m.state == StateAsking && !m.speaking,
		CanSkip:              m.state == StateAsking && m.speaking,
	}
	if s.Questions == nil {
		s.Questions = []string{}
	}
	if s.Results == nil {
		s.Results = []types.AnalysisResult{}
	}
	if m.index < len(m.questions) {
		s.CurrentQuestion = m.questions[m.index]
		s.IsLastQuestion = m.index == len(m.questions)-1
	}
	if m.err != nil {
		s.Notice = &Notice{Kind: m.err.Kind, Message: m.err.Message}
	}
	return s
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
