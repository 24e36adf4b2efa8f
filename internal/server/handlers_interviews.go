package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/interview"
	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/speech"
)

const (
	// armTimeout is how long an upload waits for the microphone to finish arming.
	armTimeout      = 500 * time.Millisecond
	armPollInterval = 25 * time.Millisecond

	heartbeatInterval = 15 * time.Second
)

// actions are the user inputs that carry no payload.
var actions = map[string]interview.Event{
	"start":   interview.Start{},
	"skip":    interview.Skip{},
	"advance": interview.Advance{},
	"reset":   interview.Reset{},
	"dismiss": interview.Dismiss{},
}

type createInterviewRequest struct {
	JobCategory       string         `json:"jobCategory" validate:"required"`
	NumberOfQuestions int            `json:"numberOfQuestions" validate:"min=0,max=20"`
	Voice             string         `json:"voiceURI"`
	Voices            []speech.Voice `json:"voices" validate:"dive"`
	AutoStart         bool           `json:"autoStart"`
}

type recordingStopRequest struct {
	AudioDataURI string `json:"audioDataUri"`
}

type utteranceRequest struct {
	Utterance int `json:"utterance" validate:"min=1"`
}

type voicesRequest struct {
	Voices []speech.Voice `json:"voices" validate:"dive"`
}

type voiceRequest struct {
	VoiceURI string `json:"voiceURI" validate:"required"`
}

// interviewView is a live interview as sent to the client.
type interviewView struct {
	ID string `json:"id"`
	interview.Snapshot
}

func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	var req createInterviewRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.NumberOfQuestions == 0 {
		req.NumberOfQuestions = s.cfg.Interview.NumberOfQuestions
	}

	uid := userID(r)
	id := uuid.NewString()
	log := observability.LoggerFromContext(r.Context()).With("interview_id", id, "user_id", uid)

	h := newHub()
	speaker := speech.NewRemoteSpeaker(speech.PublisherFunc(func(cmd speech.Command) {
		h.publish(liveEvent{Name: cmd.Kind, Data: cmd})
	}))
	if len(req.Voices) > 0 {
		speaker.SetVoices(req.Voices)
		if req.Voice == "" {
			req.Voice = pickVoice(req.Voices)
		}
	}
	capture := speech.NewRemoteCapture()

	orch, err := interview.New(s.ctx, interview.Deps{
		Questions:   s.ai,
		Transcriber: s.ai,
		Analyzer:    s.ai,
		Store:       s.store,
		Speech:      speaker,
		Capture:     capture,
		Logger:      log,
	}, interview.Options{
		UserID:            uid,
		JobCategory:       req.JobCategory,
		NumberOfQuestions: req.NumberOfQuestions,
		Voice:             req.Voice,
	})
	if err != nil {
		failure(w, r, &ErrValidation{Field: "interview", Message: err.Error()})
		return
	}
	orch.OnChange(func(snap interview.Snapshot) {
		h.publish(liveEvent{Name: eventSnapshot, Data: interviewView{ID: id, Snapshot: snap}})
	})

	li := &liveInterview{id: id, userID: uid, orch: orch, speaker: speaker, capture: capture, hub: h}
	if replaced := s.live.add(li); replaced != nil {
		log.Info("replacing live interview", "replaced_id", replaced.id)
		replaced.close()
	}
	log.Info("interview created", "job_category", req.JobCategory, "questions", req.NumberOfQuestions)

	snap := orch.Snapshot()
	if req.AutoStart {
		snap = orch.Dispatch(interview.Start{})
	}
	jsonResponse(w, http.StatusCreated, interviewView{ID: id, Snapshot: snap})
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, interviewView{ID: li.id, Snapshot: li.orch.Snapshot()})
}

func (s *Server) handleDeleteInterview(w http.ResponseWriter, r *http.Request) {
	li, err := s.live.remove(r.PathValue("id"), userID(r))
	if err != nil {
		failure(w, r, err)
		return
	}
	li.close()
	w.WriteHeader(http.StatusNoContent)
}

// handleInterviewEvents streams snapshots and speech commands until the interview ends or the client leaves.
func (s *Server) handleInterviewEvents(w http.ResponseWriter, r *http.Request) {
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}

	// Subscribe before the first snapshot so nothing falls in between
	events, unsubscribe := li.hub.subscribe()
	defer unsubscribe()

	sse, err := NewSSEWriter(w)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent(eventSnapshot, interviewView{ID: li.id, Snapshot: li.orch.Snapshot()}); err != nil {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				// A dropped subscriber just disconnects and resubscribes for a fresh snapshot
				if li.hub.isClosed() {
					sse.WriteComplete(li.id, string(li.orch.Snapshot().State))
				}
				return
			}
			if err := sse.WriteEvent(ev.Name, ev.Data); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := sse.WriteHeartbeat(); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleInterviewAction(w http.ResponseWriter, r *http.Request) {
	ev, ok := actions[r.PathValue("action")]
	if !ok {
		errorResponse(w, http.StatusNotFound, "unknown action")
		return
	}
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.dispatch(w, li, ev)
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.dispatch(w, li, interview.StartRecording{})
}

// handleRecordingStop takes the recorded answer and ends recording. An empty upload is
// passed through so the interview can report that nothing was captured.
func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req recordingStopRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if li.orch.Snapshot().State != interview.StateRecording {
		failure(w, r, speech.ErrNotRecording)
		return
	}
	if req.AudioDataURI != "" {
		// The microphone is armed asynchronously after recording starts
		if !waitUntil(r.Context(), li.capture.Recording, armTimeout) {
			failure(w, r, speech.ErrNotRecording)
			return
		}
		if err := li.capture.Deliver(req.AudioDataURI); err != nil {
			if !errors.Is(err, speech.ErrNotRecording) {
				err = &ErrValidation{Field: "audioDataUri", Message: err.Error()}
			}
			failure(w, r, err)
			return
		}
	}
	s.dispatch(w, li, interview.StopRecording{})
}

func (s *Server) handleSpeechStarted(w http.ResponseWriter, r *http.Request) {
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req utteranceRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	s.dispatch(w, li, interview.SpeechStarted{Utterance: req.Utterance})
}

// handleSpeechEnded reports that the client finished reading an utterance aloud.
func (s *Server) handleSpeechEnded(w http.ResponseWriter, r *http.Request) {
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req utteranceRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	jsonResponse(w, http.StatusOK, map[string]bool{"accepted": li.speaker.Ended(req.Utterance)})
}

// handleSetVoices records the voices the client can speak with and picks one if none is set.
func (s *Server) handleSetVoices(w http.ResponseWriter, r *http.Request) {
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req voicesRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	li.speaker.SetVoices(req.Voices)
	snap := li.orch.Snapshot()
	if _, known := speech.FindVoice(req.Voices, snap.Voice); !known {
		if uri := pickVoice(req.Voices); uri != "" {
			snap = li.orch.SetVoice(uri)
		}
	}
	jsonResponse(w, http.StatusOK, map[string]any{"voices": req.Voices, "voiceURI": snap.Voice})
}

func (s *Server) handleSetVoice(w http.ResponseWriter, r *http.Request) {
	li, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req voiceRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	if voices := li.speaker.Voices(); len(voices) > 0 {
		if _, known := speech.FindVoice(voices, req.VoiceURI); !known {
			failure(w, r, &ErrValidation{Field: "voiceURI", Message: "unknown voice"})
			return
		}
	}
	jsonResponse(w, http.StatusOK, interviewView{ID: li.id, Snapshot: li.orch.SetVoice(req.VoiceURI)})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*liveInterview, bool) {
	li, err := s.live.get(r.PathValue("id"), userID(r))
	if err != nil {
		failure(w, r, err)
		return nil, false
	}
	return li, true
}

func (s *Server) dispatch(w http.ResponseWriter, li *liveInterview, ev interview.Event) {
	jsonResponse(w, http.StatusOK, interviewView{ID: li.id, Snapshot: li.orch.Dispatch(ev)})
}

// pickVoice prefers the default English voice, then any default voice.
func pickVoice(voices []speech.Voice) string {
	if v, ok := speech.DefaultVoice(speech.FilterByLang(voices, "en")); ok {
		return v.URI
	}
	if v, ok := speech.DefaultVoice(voices); ok {
		return v.URI
	}
	return ""
}

// waitUntil polls cond until it holds, timeout passes or ctx ends.
func waitUntil(ctx context.Context, cond func() bool, timeout time.Duration) bool {
	if cond() {
		return true
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(armPollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return cond()
		case <-tick.C:
			if cond() {
				return true
			}
		}
	}
}
