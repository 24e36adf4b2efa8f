package server

import (
	"sync"

	"github.com/jonathan/hired/internal/interview"
	"github.com/jonathan/hired/internal/speech"
)

// Event names sent on an interview stream
const (
	eventSnapshot = "snapshot"
	eventSpeak    = speech.CommandSpeak
	eventCancel   = speech.CommandCancel
)

// subscriberBuffer is how many events a stream may fall behind before it is dropped.
const subscriberBuffer = 64

type liveEvent struct {
	Name string
	Data any
}

// hub fans interview events out to the open streams of one interview.
type hub struct {
	mu     sync.Mutex
	subs   map[chan liveEvent]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[chan liveEvent]struct{})}
}

// subscribe returns a channel of events and a function that ends the subscription.
// The channel is closed when the hub closes or the subscriber falls too far behind.
func (h *hub) subscribe() (<-chan liveEvent, func()) {
	ch := make(chan liveEvent, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// publish never blocks. A full subscriber is disconnected; it reconnects and starts from a fresh snapshot.
func (h *hub) publish(ev liveEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// isClosed reports whether the interview ended. A subscriber whose channel closed while
// the hub is still open was dropped for falling behind.
func (h *hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	clear(h.subs)
}

// liveInterview is one running interview and the device bridge it talks through.
type liveInterview struct {
	id      string
	userID  string
	orch    *interview.Orchestrator
	speaker *speech.RemoteSpeaker
	capture *speech.RemoteCapture
	hub     *hub
}

func (li *liveInterview) close() {
	li.orch.Close()
	li.hub.close()
}

// registry holds the live interviews. Each user has at most one.
type registry struct {
	mu     sync.Mutex
	byID   map[string]*liveInterview
	byUser map[string]string
}

func newRegistry() *registry {
	return &registry{
		byID:   make(map[string]*liveInterview),
		byUser: make(map[string]string),
	}
}

// add registers li and returns the interview it replaced, if any. The caller closes it.
func (r *registry) add(li *liveInterview) *liveInterview {
	r.mu.Lock()
	defer r.mu.Unlock()

	var replaced *liveInterview
	if prev, ok := r.byUser[li.userID]; ok {
		replaced = r.byID[prev]
		delete(r.byID, prev)
	}
	r.byID[li.id] = li
	r.byUser[li.userID] = li.id
	return replaced
}

// get returns the interview id owned by userID. Other users' interviews are reported as missing.
func (r *registry) get(id, userID string) (*liveInterview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	li, ok := r.byID[id]
	if !ok || li.userID != userID {
		return nil, &ErrInterviewNotFound{ID: id}
	}
	return li, nil
}

func (r *registry) remove(id, userID string) (*liveInterview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	li, ok := r.byID[id]
	if !ok || li.userID != userID {
		return nil, &ErrInterviewNotFound{ID: id}
	}
	delete(r.byID, id)
	if r.byUser[userID] == id {
		delete(r.byUser, userID)
	}
	return li, nil
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *registry) closeAll() {
	r.mu.Lock()
	all := make([]*liveInterview, 0, len(r.byID))
	for _, li := range r.byID {
		all = append(all, li)
	}
	clear(r.byID)
	clear(r.byUser)
	r.mu.Unlock()

	for _, li := range all {
		li.close()
	}
}
