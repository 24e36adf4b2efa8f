package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/types"
)

// Deps are the collaborators an interview talks to.
type Deps struct {
	Questions   QuestionGenerator
	Transcriber Transcriber
	Analyzer    Analyzer
	Store       SessionStore
	Speech      SpeechOutput
	Capture     SpeechCapture
	Logger      *slog.Logger
}

// Options configure a single interview.
type Options struct {
	UserID            string
	JobCategory       string
	NumberOfQuestions int
	Voice             string
}

// Orchestrator runs a Machine: it serializes events, performs the effects the machine
// returns, and feeds their outcomes back in as events.
//
// External calls (model, store, speech) run on their own goroutines. Microphone
// operations run one at a time in the order the machine issued them.
type Orchestrator struct {
	deps Deps
	log  *slog.Logger

	mu          sync.Mutex
	m           *Machine
	listeners   []func(Snapshot)
	epochCtx    context.Context
	cancelEpoch context.CancelFunc
	stopSpeech  context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	device serialQueue
}

// New creates an idle interview. ctx bounds the lifetime of every call it makes.
func New(ctx context.Context, deps Deps, opts Options) (*Orchestrator, error) {
	switch {
	case deps.Questions == nil:
		return nil, errors.New("interview: question generator is required")
	case deps.Transcriber == nil:
		return nil, errors.New("interview: transcriber is required")
	case deps.Analyzer == nil:
		return nil, errors.New("interview: analyzer is required")
	case deps.Store == nil:
		return nil, errors.New("interview: session store is required")
	case deps.Speech == nil:
		return nil, errors.New("interview: speech output is required")
	case deps.Capture == nil:
		return nil, errors.New("interview: speech capture is required")
	}
	if opts.JobCategory == "" {
		return nil, errors.New("interview: job category is required")
	}

	log := deps.Logger
	if log == nil {
		log = observability.Logger()
	}

	m := NewMachine(opts.UserID, opts.JobCategory, opts.NumberOfQuestions)
	m.Voice = opts.Voice

	o := &Orchestrator{
		deps: deps,
		log:  log.With("component", "interview", "job_category", opts.JobCategory),
		m:    m,
	}
	o.ctx, o.cancel = context.WithCancel(ctx)
	o.epochCtx, o.cancelEpoch = context.WithCancel(o.ctx)
	return o, nil
}

// OnChange registers fn to receive a snapshot after every event. Listeners are called in
// event order while the interview is locked; they must not block or call Dispatch.
func (o *Orchestrator) OnChange(fn func(Snapshot)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, fn)
}

// Snapshot returns the current observable state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.m.Snapshot()
}

// SetVoice selects the voice used for questions read from now on.
func (o *Orchestrator) SetVoice(voiceURI string) Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m.Voice = voiceURI
	return o.notify()
}

// Dispatch applies ev, schedules the resulting effects and returns the new snapshot.
func (o *Orchestrator) Dispatch(ev Event) Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	from, epoch, prevErr := o.m.State(), o.m.Epoch(), o.m.Err()
	effects := o.m.Dispatch(ev)

	if o.m.Epoch() != epoch {
		// In-flight model and store calls belong to the abandoned run
		o.cancelEpoch()
		o.epochCtx, o.cancelEpoch = context.WithCancel(o.ctx)
	}
	if to := o.m.State(); to != from {
		o.log.Debug("interview state changed", "from", from, "to", to, "event", fmt.Sprintf("%T", ev))
	}
	if err := o.m.Err(); err != nil && err != prevErr {
		o.log.Warn("interview step failed", "kind", err.Kind, "error", err.Cause)
	}

	for _, eff := range effects {
		o.schedule(eff)
	}
	return o.notify()
}

// notify must be called with mu held.
func (o *Orchestrator) notify() Snapshot {
	snap := o.m.Snapshot()
	for _, fn := range o.listeners {
		fn(snap)
	}
	return snap
}

// Wait blocks until no effect is in flight.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Close resets the interview, cancels outstanding calls and waits for them to return.
func (o *Orchestrator) Close() {
	o.Dispatch(Reset{})
	o.cancel()
	o.wg.Wait()
}

// schedule must be called with mu held.
func (o *Orchestrator) schedule(eff Effect) {
	ctx := o.epochCtx

	switch e := eff.(type) {
	case CancelSpeech:
		// The utterance context covers a Speak goroutine that has not started yet
		if o.stopSpeech != nil {
			o.stopSpeech()
			o.stopSpeech = nil
		}
		o.deps.Speech.Cancel()

	case SpeakQuestion:
		if o.stopSpeech != nil {
			o.stopSpeech()
		}
		speakCtx, stop := context.WithCancel(o.ctx)
		o.stopSpeech = stop
		o.async(func() {
			defer stop()
			if err := o.deps.Speech.Speak(speakCtx, e.Utterance, e.Text, e.Voice); err != nil && !errors.Is(err, context.Canceled) {
				o.log.Warn("speech output failed", "utterance", e.Utterance, "error", err)
			}
			o.Dispatch(SpeechEnded{Utterance: e.Utterance})
		})

	case StartCapture:
		o.serial(func() {
			if err := o.deps.Capture.Start(o.ctx); err != nil {
				o.Dispatch(RecordingFailed{Epoch: e.Epoch, Err: err})
			}
		})

	case StopCapture:
		o.serial(func() {
			rec, err := o.deps.Capture.Stop(o.ctx)
			o.Dispatch(RecordingStopped{Epoch: e.Epoch, Recording: rec, Err: err})
		})

	case AbortCapture:
		o.serial(func() {
			if _, err := o.deps.Capture.Stop(o.ctx); err != nil {
				o.log.Debug("abort capture", "error", err)
			}
		})

	case RequestQuestions:
		o.async(func() {
			questions, err := o.deps.Questions.GenerateQuestions(ctx, e.JobCategory, e.Count)
			o.Dispatch(QuestionsReady{Epoch: e.Epoch, Questions: questions, Err: err})
		})

	case RequestTranscription:
		o.async(func() {
			text, err := o.deps.Transcriber.Transcribe(ctx, e.Recording)
			o.Dispatch(Transcribed{Epoch: e.Epoch, Text: text, Err: err})
		})

	case RequestAnalysis:
		o.async(func() {
			analysis, err := o.deps.Analyzer.AnalyzeAnswer(ctx, e.Question, e.Answer, e.JobCategory)
			o.Dispatch(Analyzed{Epoch: e.Epoch, Analysis: analysis, Err: err})
		})

	case SaveSession:
		o.async(func() {
			session := e.Session
			id, err := o.deps.Store.Save(ctx, session.UserID, &session)
			if err == nil {
				o.log.Info("interview saved", "session_id", id, "average_score", types.AverageScore(session.Results))
			}
			o.Dispatch(Completed{Epoch: e.Epoch, SessionID: id, Err: err})
		})
	}
}

func (o *Orchestrator) async(fn func()) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn()
	}()
}

func (o *Orchestrator) serial(fn func()) {
	o.wg.Add(1)
	o.device.push(func() {
		defer o.wg.Done()
		fn()
	})
}

// serialQueue runs functions one at a time in push order on a background goroutine.
type serialQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

func (q *serialQueue) push(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
	if !q.running {
		q.running = true
		go q.drain()
	}
}

func (q *serialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
		fn()
	}
}
