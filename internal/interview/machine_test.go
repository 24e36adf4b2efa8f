package interview

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jonathan/hired/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var audio = types.AnswerRecording{Data: []byte("RIFF"), MIMEType: "audio/webm"}

func analysis(score int) types.Analysis {
	return types.Analysis{Feedback: "feedback", Score: score, GreatResponse: "great"}
}

// askingMachine returns a machine in asking for the first of questions, with speech finished.
func askingMachine(t *testing.T, questions ...string) *Machine {
	t.Helper()
	m := NewMachine("user-1", "software-engineer", len(questions))
	m.Dispatch(Start{})
	effects := m.Dispatch(QuestionsReady{Epoch: m.Epoch(), Questions: questions})
	require.Len(t, effects, 1)
	speak := effects[0].(SpeakQuestion)
	m.Dispatch(SpeechEnded{Utterance: speak.Utterance})
	require.Equal(t, StateAsking, m.State())
	return m
}

// answer drives one full answer cycle from asking to showing_feedback.
func answer(t *testing.T, m *Machine, transcript string, score int) {
	t.Helper()
	require.IsType(t, StartCapture{}, m.Dispatch(StartRecording{})[0])
	require.IsType(t, StopCapture{}, m.Dispatch(StopRecording{})[0])
	require.IsType(t, RequestTranscription{}, m.Dispatch(RecordingStopped{Epoch: m.Epoch(), Recording: audio})[0])
	require.IsType(t, RequestAnalysis{}, m.Dispatch(Transcribed{Epoch: m.Epoch(), Text: transcript})[0])
	assert.Empty(t, m.Dispatch(Analyzed{Epoch: m.Epoch(), Analysis: analysis(score)}))
	require.Equal(t, StateShowingFeedback, m.State())
}

func TestNewMachine(t *testing.T) {
	m := NewMachine("u", "ux-ui-designer", 0)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 3, m.NumberOfQuestions)
	assert.Equal(t, "Ux Ui Designer", m.FormattedJobCategory)
}

func TestStart_RequestsQuestions(t *testing.T) {
	m := NewMachine("u", "software-engineer", 2)

	effects := m.Dispatch(Start{})
	require.Len(t, effects, 1)
	assert.Equal(t, RequestQuestions{Epoch: 0, JobCategory: "software-engineer", Count: 2}, effects[0])
	assert.Equal(t, StateGeneratingQuestions, m.State())

	// A second Start while generating is ignored
	assert.Empty(t, m.Dispatch(Start{}))
}

func TestQuestionsReady_SpeaksFirstQuestion(t *testing.T) {
	m := NewMachine("u", "software-engineer", 2)
	m.Voice = "voice-1"
	m.Dispatch(Start{})

	effects := m.Dispatch(QuestionsReady{Questions: []string{"Q1", "Q2"}})
	require.Len(t, effects, 1)
	assert.Equal(t, SpeakQuestion{Utterance: 1, Text: "Q1", Voice: "voice-1"}, effects[0])

	snap := m.Snapshot()
	assert.Equal(t, StateAsking, snap.State)
	assert.Equal(t, "Q1", snap.CurrentQuestion)
	assert.True(t, snap.Speaking)
	assert.True(t, snap.CanSkip)
	assert.False(t, snap.CanRecord)
}

func TestQuestionsReady_EmptyListReturnsToIdle(t *testing.T) {
	m := NewMachine("u", "software-engineer", 3)
	m.Dispatch(Start{})

	effects := m.Dispatch(QuestionsReady{Questions: nil})
	assert.Empty(t, effects, "no speech and no save")
	assert.Equal(t, StateIdle, m.State())
	require.NotNil(t, m.Err())
	assert.Equal(t, KindGenerationFailed, m.Err().Kind)
	assert.Equal(t, msgNoQuestions, m.Err().Message)
}

func TestQuestionsReady_ErrorReturnsToIdle(t *testing.T) {
	m := NewMachine("u", "software-engineer", 3)
	m.Dispatch(Start{})

	cause := errors.New("upstream down")
	assert.Empty(t, m.Dispatch(QuestionsReady{Err: cause}))
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, KindGenerationFailed, m.Err().Kind)
	assert.ErrorIs(t, m.Err(), cause)

	// The user may start again; the old notice is cleared
	require.Len(t, m.Dispatch(Start{}), 1)
	assert.Nil(t, m.Err())
}

func TestStartRecording_IgnoredWhileSpeaking(t *testing.T) {
	m := NewMachine("u", "software-engineer", 1)
	m.Dispatch(Start{})
	m.Dispatch(QuestionsReady{Questions: []string{"Q1"}})

	assert.Empty(t, m.Dispatch(StartRecording{}))
	assert.Equal(t, StateAsking, m.State())
}

func TestSkip_OnlyWhileSpeaking(t *testing.T) {
	m := NewMachine("u", "software-engineer", 1)
	m.Dispatch(Start{})
	m.Dispatch(QuestionsReady{Questions: []string{"Q1"}})

	effects := m.Dispatch(Skip{})
	require.Len(t, effects, 2)
	assert.Equal(t, CancelSpeech{}, effects[0])
	assert.Equal(t, StartCapture{Epoch: 0}, effects[1])
	assert.Equal(t, StateRecording, m.State())
	assert.Equal(t, 0, m.Snapshot().QuestionIndex, "skip does not skip the question")
}

func TestSkip_NoEffectWhenNotSpeaking(t *testing.T) {
	m := askingMachine(t, "Q1")
	before := m.Snapshot()

	assert.Empty(t, m.Dispatch(Skip{}))
	assert.Equal(t, before, m.Snapshot())
}

func TestSkip_NoEffectOutsideAsking(t *testing.T) {
	for _, build := range []func() *Machine{
		func() *Machine { return NewMachine("u", "software-engineer", 1) },
		func() *Machine {
			m := askingMachine(t, "Q1")
			m.Dispatch(StartRecording{})
			return m
		},
		func() *Machine {
			m := askingMachine(t, "Q1")
			answer(t, m, "A1", 50)
			return m
		},
	} {
		m := build()
		before := m.Snapshot()
		assert.Empty(t, m.Dispatch(Skip{}))
		assert.Equal(t, before, m.Snapshot())
	}
}

func TestSpeechEvents_StaleUtteranceIgnored(t *testing.T) {
	m := askingMachine(t, "Q1", "Q2")
	answer(t, m, "A1", 60)
	m.Dispatch(Advance{})
	require.True(t, m.Snapshot().Speaking)

	// The first question's end arriving late must not unlock recording of the second
	m.Dispatch(SpeechEnded{Utterance: 1})
	assert.True(t, m.Snapshot().Speaking)

	m.Dispatch(SpeechEnded{Utterance: 2})
	assert.False(t, m.Snapshot().Speaking)
	assert.True(t, m.Snapshot().CanRecord)

	m.Dispatch(SpeechStarted{Utterance: 1})
	assert.False(t, m.Snapshot().Speaking)
}

func TestStartRecording_ClearsPendingPayload(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})
	m.Dispatch(StopRecording{})
	m.Dispatch(RecordingStopped{Recording: audio})
	require.NotNil(t, m.pending)

	m.Dispatch(Transcribed{Err: errors.New("bad audio")})
	assert.Nil(t, m.pending, "payload discarded on transcription failure")

	// Simulate a stale payload left around and make sure a new recording drops it
	stale := types.AnswerRecording{Data: []byte("old")}
	m.pending = &stale
	m.Dispatch(StartRecording{})
	assert.Nil(t, m.pending)
	assert.Equal(t, StateRecording, m.State())
}

func TestStopRecording_OnlyOnce(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})

	require.Len(t, m.Dispatch(StopRecording{}), 1)
	assert.Empty(t, m.Dispatch(StopRecording{}))
}

func TestRecordingStopped_ProcessesExactlyOnce(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})
	m.Dispatch(StopRecording{})

	effects := m.Dispatch(RecordingStopped{Recording: audio})
	require.Len(t, effects, 1)
	assert.Equal(t, RequestTranscription{Recording: audio}, effects[0])

	// A duplicate completion does not start a second transcription
	assert.Empty(t, m.Dispatch(RecordingStopped{Recording: audio}))
	assert.Equal(t, StateTranscribing, m.State())
}

func TestRecordingStopped_EmptyPayload(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})
	m.Dispatch(StopRecording{})

	assert.Empty(t, m.Dispatch(RecordingStopped{Recording: types.AnswerRecording{MIMEType: "audio/webm"}}))
	assert.Equal(t, StateAsking, m.State())
	assert.Equal(t, KindMicrophoneUnavailable, m.Err().Kind)
	assert.Equal(t, msgNoAudio, m.Err().Message)
}

func TestRecordingFailed_ReturnsToAsking(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})

	m.Dispatch(RecordingFailed{Err: errors.New("permission denied")})
	assert.Equal(t, StateAsking, m.State())
	assert.Equal(t, KindMicrophoneUnavailable, m.Err().Kind)
	assert.True(t, m.Snapshot().CanRecord)
}

func TestTranscriptionFailure_RevertsToAsking(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})
	m.Dispatch(StopRecording{})
	m.Dispatch(RecordingStopped{Recording: audio})

	assert.Empty(t, m.Dispatch(Transcribed{Err: errors.New("timeout")}))
	assert.Equal(t, StateAsking, m.State())
	assert.Equal(t, KindTranscriptionFailed, m.Err().Kind)
	assert.Empty(t, m.Snapshot().Results)
}

func TestAnalysisFailure_RevertsToAsking(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})
	m.Dispatch(StopRecording{})
	m.Dispatch(RecordingStopped{Recording: audio})
	m.Dispatch(Transcribed{Text: "my answer"})

	assert.Empty(t, m.Dispatch(Analyzed{Err: errors.New("invalid output")}))
	snap := m.Snapshot()
	assert.Equal(t, StateAsking, snap.State)
	assert.Equal(t, KindAnalysisFailed, snap.Notice.Kind)
	assert.Nil(t, snap.Transcription)
	assert.Empty(t, snap.Results)

	// Retry the same question
	answer(t, m, "better answer", 80)
	assert.Len(t, m.Snapshot().Results, 1)
}

func TestAnalyzed_AppendsResult(t *testing.T) {
	m := askingMachine(t, "Q1", "Q2")
	answer(t, m, "A1", 73)

	snap := m.Snapshot()
	require.Len(t, snap.Results, 1)
	assert.Equal(t, "Q1", snap.Results[0].Question)
	assert.Equal(t, "A1", *snap.Results[0].Transcription)
	assert.Equal(t, 73, *snap.Score)
	assert.Equal(t, "feedback", *snap.Feedback)
	assert.Equal(t, "great", *snap.GreatResponse)
}

func TestAdvance_ResetsTransientStateAndSpeaks(t *testing.T) {
	m := askingMachine(t, "Q1", "Q2")
	answer(t, m, "A1", 73)

	effects := m.Dispatch(Advance{})
	require.Len(t, effects, 1)
	assert.Equal(t, "Q2", effects[0].(SpeakQuestion).Text)

	snap := m.Snapshot()
	assert.Equal(t, StateAsking, snap.State)
	assert.Equal(t, 1, snap.QuestionIndex)
	assert.True(t, snap.IsLastQuestion)
	assert.Nil(t, snap.Transcription)
	assert.Nil(t, snap.Feedback)
	assert.Nil(t, snap.Score)
	assert.Nil(t, snap.GreatResponse)
	assert.Len(t, snap.Results, 1, "results survive advancing")
}

func TestAdvance_IgnoredOutsideFeedback(t *testing.T) {
	m := askingMachine(t, "Q1")
	assert.Empty(t, m.Dispatch(Advance{}))
	assert.Equal(t, StateAsking, m.State())
}

func TestCompletion_HandsOffAllResults(t *testing.T) {
	m := askingMachine(t, "Q1", "Q2")
	answer(t, m, "A1", 70)
	m.Dispatch(Advance{})
	m.Dispatch(SpeechEnded{Utterance: 2})
	answer(t, m, "A2", 90)

	effects := m.Dispatch(Advance{})
	require.Len(t, effects, 1)
	save := effects[0].(SaveSession)
	assert.Equal(t, "user-1", save.Session.UserID)
	assert.Equal(t, "software-engineer", save.Session.JobCategory)
	assert.Equal(t, "Software Engineer", save.Session.FormattedJobCategory)
	require.Len(t, save.Session.Results, 2)
	assert.Equal(t, StateCompleting, m.State())

	// No duplicate submission while the save is in flight
	assert.Empty(t, m.Dispatch(Advance{}))

	m.Dispatch(Completed{SessionID: "s-1"})
	assert.Equal(t, StateCompleted, m.State())
	assert.Equal(t, "s-1", m.Snapshot().SessionID)
}

func TestCompletion_FailureKeepsResults(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{err: errors.New("write conflict"), kind: KindPersistenceFailed},
		{err: fmt.Errorf("save: %w", types.ErrStoreUnavailable), kind: KindStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			m := askingMachine(t, "Q1")
			answer(t, m, "A1", 70)
			m.Dispatch(Advance{})

			m.Dispatch(Completed{Err: tt.err})
			snap := m.Snapshot()
			assert.Equal(t, StateShowingFeedback, snap.State)
			assert.Equal(t, tt.kind, snap.Notice.Kind)
			assert.Len(t, snap.Results, 1)

			// The user can retry without re-running the interview
			effects := m.Dispatch(Advance{})
			require.Len(t, effects, 1)
			assert.Len(t, effects[0].(SaveSession).Session.Results, 1)
		})
	}
}

func TestReset_FromAnyStateIgnoresStaleResults(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})
	m.Dispatch(StopRecording{})
	m.Dispatch(RecordingStopped{Epoch: 0, Recording: audio})
	require.Equal(t, StateTranscribing, m.State())

	effects := m.Dispatch(Reset{})
	assert.Equal(t, []Effect{CancelSpeech{}}, effects)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 1, m.Epoch())

	// The in-flight transcription resolves after the reset
	assert.Empty(t, m.Dispatch(Transcribed{Epoch: 0, Text: "late"}))
	assert.Equal(t, StateIdle, m.State())

	// Even after a new run reaches the same state, old-epoch results are dropped
	m.Dispatch(Start{})
	assert.Empty(t, m.Dispatch(QuestionsReady{Epoch: 0, Questions: []string{"stale"}}))
	assert.Equal(t, StateGeneratingQuestions, m.State())
	require.Len(t, m.Dispatch(QuestionsReady{Epoch: 1, Questions: []string{"fresh"}}), 1)
	assert.Equal(t, "fresh", m.Snapshot().CurrentQuestion)
}

func TestReset_WhileRecordingAbortsCapture(t *testing.T) {
	m := askingMachine(t, "Q1")
	m.Dispatch(StartRecording{})

	effects := m.Dispatch(Reset{})
	assert.Equal(t, []Effect{CancelSpeech{}, AbortCapture{}}, effects)

	snap := m.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Questions)
	assert.Empty(t, snap.Results)
	assert.Nil(t, snap.Notice)
}

func TestDismiss_ClearsNotice(t *testing.T) {
	m := NewMachine("u", "software-engineer", 1)
	m.Dispatch(Start{})
	m.Dispatch(QuestionsReady{})
	require.NotNil(t, m.Snapshot().Notice)

	m.Dispatch(Dismiss{})
	assert.Nil(t, m.Snapshot().Notice)
	assert.Equal(t, StateIdle, m.State())
}

func TestScoresAlwaysInRange(t *testing.T) {
	m := askingMachine(t, "Q1", "Q2", "Q3")
	for i, score := range []int{0, 100, 57} {
		answer(t, m, fmt.Sprintf("A%d", i+1), score)
		if i < 2 {
			m.Dispatch(Advance{})
			m.Dispatch(SpeechEnded{Utterance: i + 2})
		}
	}

	for _, r := range m.Snapshot().Results {
		require.NotNil(t, r.Score)
		assert.GreaterOrEqual(t, *r.Score, 0)
		assert.LessOrEqual(t, *r.Score, 100)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	m := askingMachine(t, "Q1")
	answer(t, m, "A1", 40)

	snap := m.Snapshot()
	*snap.Results[0].Score = 99
	snap.Questions[0] = "changed"

	again := m.Snapshot()
	assert.Equal(t, 40, *again.Results[0].Score)
	assert.Equal(t, "Q1", again.Questions[0])
}

func TestStateBusy(t *testing.T) {
	assert.True(t, StateGeneratingQuestions.Busy())
	assert.True(t, StateCompleting.Busy())
	assert.False(t, StateAsking.Busy())
	assert.False(t, StateRecording.Busy())
}
