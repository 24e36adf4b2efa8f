package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonathan/hired/internal/types"
)

// Command kinds sent to the device host.
const (
	CommandSpeak  = "speak"
	CommandCancel = "cancel_speech"
)

// ErrNotRecording is returned when audio is delivered while capture is not armed.
var ErrNotRecording = errors.New("speech: capture is not recording")

// Command is an instruction for the device host.
type Command struct {
	Kind      string `json:"kind"`
	Utterance int    `json:"utterance"`
	Text      string `json:"text,omitempty"`
	Voice     string `json:"voiceURI,omitempty"`
}

// Publisher delivers commands to the host. Publish must not block.
type Publisher interface {
	Publish(cmd Command)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Command)

// Publish calls f(cmd).
func (f PublisherFunc) Publish(cmd Command) { f(cmd) }

// RemoteSpeaker asks the host to read text aloud and waits for it to report the end.
type RemoteSpeaker struct {
	pub Publisher

	mu     sync.Mutex
	active int
	done   chan error
	voices []Voice
}

// NewRemoteSpeaker creates a speaker that publishes through pub.
func NewRemoteSpeaker(pub Publisher) *RemoteSpeaker {
	return &RemoteSpeaker{pub: pub}
}

// Speak publishes a speak command for utterance and blocks until Ended reports it, Cancel is
// called or ctx ends. Utterance numbers must be positive.
func (s *RemoteSpeaker) Speak(ctx context.Context, utterance int, text, voice string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if utterance < 1 {
		return fmt.Errorf("speech: invalid utterance %d", utterance)
	}

	s.mu.Lock()
	s.finishLocked(context.Canceled)
	id := utterance
	done := make(chan error, 1)
	s.active, s.done = id, done
	s.mu.Unlock()

	s.pub.Publish(Command{Kind: CommandSpeak, Utterance: id, Text: text, Voice: voice})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.mu.Lock()
		if s.active == id {
			s.pub.Publish(Command{Kind: CommandCancel, Utterance: id})
			s.finishLocked(nil)
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

// Ended is called when the host reports utterance finished. Unknown or stale ids are ignored.
func (s *RemoteSpeaker) Ended(utterance int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if utterance == 0 || s.active != utterance {
		return false
	}
	s.finishLocked(nil)
	return true
}

// Cancel stops the current utterance, if any.
func (s *RemoteSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == 0 {
		return
	}
	s.pub.Publish(Command{Kind: CommandCancel, Utterance: s.active})
	s.finishLocked(context.Canceled)
}

// finishLocked releases the waiting Speak call with err. mu must be held.
func (s *RemoteSpeaker) finishLocked(err error) {
	if s.done != nil {
		s.done <- err
		s.done = nil
	}
	s.active = 0
}

// Speaking reports whether an utterance is in progress.
func (s *RemoteSpeaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != 0
}

// SetVoices records the voices the host offers.
func (s *RemoteSpeaker) SetVoices(voices []Voice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = append([]Voice(nil), voices...)
}

// Voices returns the voices the host offers.
func (s *RemoteSpeaker) Voices() []Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Voice(nil), s.voices...)
}

// RemoteCapture holds the answer audio uploaded by the host.
type RemoteCapture struct {
	mu      sync.Mutex
	armed   bool
	payload *types.AnswerRecording
}

// NewRemoteCapture creates an idle capture.
func NewRemoteCapture() *RemoteCapture {
	return &RemoteCapture{}
}

// Start arms capture and drops any payload left from an earlier answer.
func (c *RemoteCapture) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = true
	c.payload = nil
	return nil
}

// Deliver stores the uploaded audio, given as a base64 data URI.
func (c *RemoteCapture) Deliver(dataURI string) error {
	rec, err := types.ParseDataURI(dataURI)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return ErrNotRecording
	}
	c.payload = &rec
	return nil
}

// Recording reports whether capture is armed.
func (c *RemoteCapture) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// Stop disarms capture and hands over the payload. The payload is consumed.
func (c *RemoteCapture) Stop(context.Context) (types.AnswerRecording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = false
	if c.payload == nil {
		return types.AnswerRecording{}, nil
	}
	rec := *c.payload
	c.payload = nil
	return rec, nil
}
