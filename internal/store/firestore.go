package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore keeps each user's sessions under users/{uid}/sessions.
// Accounts live in the accounts collection with an emails/{email} claim document.
type Firestore struct {
	client *firestore.Client
}

// OpenFirestore creates a Firestore store for projectID.
// FIRESTORE_EMULATOR_HOST is honoured by the client library.
func OpenFirestore(ctx context.Context, projectID string) (*Firestore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: firestore project is not configured", types.ErrStoreUnavailable)
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: creating firestore client: %v", types.ErrStoreUnavailable, err)
	}
	return &Firestore{client: client}, nil
}

// NewFirestore wraps an existing client.
func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Firestore) sessionsCol(userID string) *firestore.CollectionRef {
	return s.client.Collection("users").Doc(userID).Collection("sessions")
}

func (s *Firestore) accountDoc(id uuid.UUID) *firestore.DocumentRef {
	return s.client.Collection("accounts").Doc(id.String())
}

func (s *Firestore) emailDoc(email string) *firestore.DocumentRef {
	return s.client.Collection("emails").Doc(email)
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	JobCategory          string                 `firestore:"jobCategory"`
	FormattedJobCategory string                 `firestore:"formattedJobCategory"`
	Results              []types.AnalysisResult `firestore:"results"`
	CreatedAt            time.Time              `firestore:"createdAt,serverTimestamp"`
}

type accountDoc struct {
	Name         string    `firestore:"name"`
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"passwordHash"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

type emailClaimDoc struct {
	UserID string `firestore:"userId"`
}

// ─────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────

func (s *Firestore) Save(ctx context.Context, userID string, session *types.InterviewSession) (string, error) {
	if err := checkSave(userID, session); err != nil {
		return "", err
	}

	results := session.Results
	if results == nil {
		results = []types.AnalysisResult{}
	}
	ref, _, err := s.sessionsCol(userID).Add(ctx, sessionDoc{
		JobCategory:          session.JobCategory,
		FormattedJobCategory: session.FormattedJobCategory,
		Results:              results,
	})
	if err != nil {
		return "", fsError("save session", err)
	}
	return ref.ID, nil
}

func (s *Firestore) ListSessions(ctx context.Context, userID string) ([]types.InterviewSession, error) {
	iter := s.sessionsCol(userID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	sessions := []types.InterviewSession{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fsError("list sessions", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListSessions decode %s: %w", snap.Ref.ID, err)
		}
		sessions = append(sessions, types.InterviewSession{
			ID:                   snap.Ref.ID,
			UserID:               userID,
			JobCategory:          doc.JobCategory,
			FormattedJobCategory: doc.FormattedJobCategory,
			Date:                 doc.CreatedAt,
			Results:              doc.Results,
		})
	}
	return sessions, nil
}

func (s *Firestore) ClearAll(ctx context.Context, userID string) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		refs, err := tx.DocumentRefs(s.sessionsCol(userID)).GetAll()
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if err := tx.Delete(ref); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fsError("clear sessions", err)
	}
	return nil
}

// ─────────────────────────────────────────
// Accounts
// ─────────────────────────────────────────

func (s *Firestore) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.UserRecord, error) {
	email = normalizeEmail(email)
	rec := types.UserRecord{
		User: types.User{
			ID:        uuid.New(),
			Name:      name,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: passwordHash,
	}

	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(s.emailDoc(email), emailClaimDoc{UserID: rec.ID.String()}); err != nil {
			return err
		}
		return tx.Create(s.accountDoc(rec.ID), accountDoc{
			Name:         rec.Name,
			Email:        rec.Email,
			PasswordHash: rec.PasswordHash,
			CreatedAt:    rec.CreatedAt,
		})
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, ErrEmailTaken
		}
		return nil, fsError("create user", err)
	}
	return &rec, nil
}

func (s *Firestore) GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error) {
	snap, err := s.accountDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fsError("get user", err)
	}

	var doc accountDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetUser decode: %w", err)
	}
	return &types.UserRecord{
		User: types.User{
			ID:        id,
			Name:      doc.Name,
			Email:     doc.Email,
			CreatedAt: doc.CreatedAt,
		},
		PasswordHash: doc.PasswordHash,
	}, nil
}

func (s *Firestore) GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error) {
	snap, err := s.emailDoc(normalizeEmail(email)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fsError("get user by email", err)
	}

	var claim emailClaimDoc
	if err := snap.DataTo(&claim); err != nil {
		return nil, fmt.Errorf("firestore GetUserByEmail decode: %w", err)
	}
	id, err := uuid.Parse(claim.UserID)
	if err != nil {
		return nil, fmt.Errorf("firestore GetUserByEmail: bad user id %q: %w", claim.UserID, err)
	}
	return s.GetUser(ctx, id)
}

// fsError wraps err, marking an unreachable backend as types.ErrStoreUnavailable.
func fsError(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: firestore %s: %v", types.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("firestore %s: %w", op, err)
}
