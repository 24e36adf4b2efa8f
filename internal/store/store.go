// Package store persists finished interviews and user accounts.
//
// Sessions are kept per user and are immutable once saved. Every backend reports an
// unreachable or unconfigured database as types.ErrStoreUnavailable.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/config"
	"github.com/jonathan/hired/internal/types"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("store: email already registered")
)

// Store is the persistence boundary of the service.
type Store interface {
	// Save appends session under userID and returns the assigned id.
	// The store sets the creation time; the caller's ID and Date are ignored.
	Save(ctx context.Context, userID string, session *types.InterviewSession) (string, error)
	// ListSessions returns the user's sessions, newest first.
	ListSessions(ctx context.Context, userID string) ([]types.InterviewSession, error)
	// ClearAll deletes every session of the user. Either all are removed or none.
	ClearAll(ctx context.Context, userID string) error

	CreateUser(ctx context.Context, name, email, passwordHash string) (*types.UserRecord, error)
	GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error)

	Close() error
}

// Open connects to the backend selected by cfg. Connection failures are wrapped in
// types.ErrStoreUnavailable so callers can fall back to an Unavailable store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemory(), nil
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case config.BackendFirestore:
		return OpenFirestore(ctx, cfg.FirestoreProject)
	case config.BackendBadger:
		return OpenBadger(cfg.BadgerDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Unavailable is a Store whose every operation fails with types.ErrStoreUnavailable.
// It stands in when no backend could be reached so the rest of the service still runs.
type Unavailable struct {
	Reason error
}

func (u Unavailable) err() error {
	if u.Reason != nil {
		return fmt.Errorf("%w: %v", types.ErrStoreUnavailable, u.Reason)
	}
	return types.ErrStoreUnavailable
}

func (u Unavailable) Save(context.Context, string, *types.InterviewSession) (string, error) {
	return "", u.err()
}

func (u Unavailable) ListSessions(context.Context, string) ([]types.InterviewSession, error) {
	return nil, u.err()
}

func (u Unavailable) ClearAll(context.Context, string) error { return u.err() }

func (u Unavailable) CreateUser(context.Context, string, string, string) (*types.UserRecord, error) {
	return nil, u.err()
}

func (u Unavailable) GetUser(context.Context, uuid.UUID) (*types.UserRecord, error) {
	return nil, u.err()
}

func (u Unavailable) GetUserByEmail(context.Context, string) (*types.UserRecord, error) {
	return nil, u.err()
}

func (u Unavailable) Close() error { return nil }

// checkSave rejects sessions that must never reach a backend.
func checkSave(userID string, session *types.InterviewSession) error {
	if userID == "" {
		return errors.New("store: user id is required")
	}
	if session == nil {
		return errors.New("store: session is nil")
	}
	if session.JobCategory == "" {
		return errors.New("store: session has no job category")
	}
	for i, r := range session.Results {
		if r.Question == "" {
			return fmt.Errorf("store: result %d has no question", i)
		}
	}
	return nil
}

// normalizeEmail makes email lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
