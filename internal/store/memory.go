package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/types"
)

// Memory keeps everything in process. It is used in tests and local development.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]types.InterviewSession
	users    map[uuid.UUID]types.UserRecord
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string][]types.InterviewSession),
		users:    make(map[uuid.UUID]types.UserRecord),
		now:      time.Now,
	}
}

func (m *Memory) Save(ctx context.Context, userID string, session *types.InterviewSession) (string, error) {
	if err := checkSave(userID, session); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	s.ID = uuid.NewString()
	s.UserID = userID
	s.Date = m.now().UTC()
	s.Results = types.CloneResults(session.Results)
	m.sessions[userID] = append(m.sessions[userID], s)
	return s.ID, nil
}

func (m *Memory) ListSessions(ctx context.Context, userID string) ([]types.InterviewSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Newest insertion first so equal timestamps keep save order reversed
	stored := m.sessions[userID]
	out := make([]types.InterviewSession, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		s := stored[i]
		s.Results = types.CloneResults(s.Results)
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *Memory) ClearAll(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	email = normalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}

	rec := types.UserRecord{
		User: types.User{
			ID:        uuid.New(),
			Name:      name,
			Email:     email,
			CreatedAt: m.now().UTC(),
		},
		PasswordHash: passwordHash,
	}
	m.users[rec.ID] = rec
	return &rec, nil
}

func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = normalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			rec := u
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) Close() error { return nil }
