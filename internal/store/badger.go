package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/jonathan/hired/internal/observability"
	"github.com/jonathan/hired/internal/types"
	"github.com/vmihailenco/msgpack/v5"
)

// Badger is an embedded store backed by BadgerDB. Records are msgpack-encoded.
//
// Key layout:
//
//	session/<user>/<reverse nanos>/<id>  one interview, newest sorts first
//	user/<id>                            account
//	email/<email>                        account id
type Badger struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadger opens (or creates) a database in dir.
func OpenBadger(dir string) (*Badger, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: badger directory is not configured", types.ErrStoreUnavailable)
	}
	return openBadger(badger.DefaultOptions(dir))
}

// OpenBadgerInMemory opens a database that lives only in memory.
func OpenBadgerInMemory() (*Badger, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*Badger, error) {
	db, err := badger.Open(opts.WithLogger(badgerLogger{}))
	if err != nil {
		return nil, fmt.Errorf("%w: opening badger: %v", types.ErrStoreUnavailable, err)
	}
	return &Badger{db: db, now: time.Now}, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

type sessionRecord struct {
	ID                   string                 `msgpack:"id"`
	JobCategory          string                 `msgpack:"jobCategory"`
	FormattedJobCategory string                 `msgpack:"formattedJobCategory"`
	Results              []types.AnalysisResult `msgpack:"results"`
	CreatedAt            time.Time              `msgpack:"createdAt"`
}

type userRecord struct {
	ID           string    `msgpack:"id"`
	Name         string    `msgpack:"name"`
	Email        string    `msgpack:"email"`
	PasswordHash string    `msgpack:"passwordHash"`
	CreatedAt    time.Time `msgpack:"createdAt"`
}

func sessionPrefix(userID string) []byte {
	return []byte("session/" + userID + "/")
}

func sessionKey(userID string, at time.Time, id string) []byte {
	return fmt.Appendf(sessionPrefix(userID), "%019d/%s", math.MaxInt64-at.UnixNano(), id)
}

func userKey(id string) []byte { return []byte("user/" + id) }

func emailKey(email string) []byte { return []byte("email/" + email) }

func (b *Badger) Save(_ context.Context, userID string, session *types.InterviewSession) (string, error) {
	if err := checkSave(userID, session); err != nil {
		return "", err
	}

	rec := sessionRecord{
		ID:                   uuid.NewString(),
		JobCategory:          session.JobCategory,
		FormattedJobCategory: session.FormattedJobCategory,
		Results:              types.CloneResults(session.Results),
		CreatedAt:            b.now().UTC(),
	}
	val, err := msgpack.Marshal(&rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(userID, rec.CreatedAt, rec.ID), val)
	})
	if err != nil {
		return "", badgerError("save session", err)
	}
	return rec.ID, nil
}

func (b *Badger) ListSessions(_ context.Context, userID string) ([]types.InterviewSession, error) {
	prefix := sessionPrefix(userID)
	sessions := []types.InterviewSession{}

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec sessionRecord
			err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			sessions = append(sessions, types.InterviewSession{
				ID:                   rec.ID,
				UserID:               userID,
				JobCategory:          rec.JobCategory,
				FormattedJobCategory: rec.FormattedJobCategory,
				Date:                 rec.CreatedAt,
				Results:              rec.Results,
			})
		}
		return nil
	})
	if err != nil {
		return nil, badgerError("list sessions", err)
	}
	return sessions, nil
}

// ClearAll deletes in a single transaction so a failure leaves every session in place.
func (b *Badger) ClearAll(_ context.Context, userID string) error {
	prefix := sessionPrefix(userID)
	err := b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return badgerError("clear sessions", err)
	}
	return nil
}

func (b *Badger) CreateUser(_ context.Context, name, email, passwordHash string) (*types.UserRecord, error) {
	rec := userRecord{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    b.now().UTC(),
	}
	val, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(emailKey(rec.Email))
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(emailKey(rec.Email), []byte(rec.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(rec.ID), val)
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, badgerError("create user", err)
	}
	return rec.toUser()
}

func (b *Badger) GetUser(_ context.Context, id uuid.UUID) (*types.UserRecord, error) {
	var rec userRecord
	err := b.db.View(func(txn *badger.Txn) error {
		return getRecord(txn, userKey(id.String()), &rec)
	})
	if err != nil {
		return nil, badgerError("get user", err)
	}
	return rec.toUser()
}

func (b *Badger) GetUserByEmail(_ context.Context, email string) (*types.UserRecord, error) {
	var rec userRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(normalizeEmail(email)))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getRecord(txn, userKey(string(id)), &rec)
	})
	if err != nil {
		return nil, badgerError("get user by email", err)
	}
	return rec.toUser()
}

func getRecord(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, v)
	})
}

func (r userRecord) toUser() (*types.UserRecord, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("stored user has bad id %q: %w", r.ID, err)
	}
	return &types.UserRecord{
		User: types.User{
			ID:        id,
			Name:      r.Name,
			Email:     r.Email,
			CreatedAt: r.CreatedAt,
		},
		PasswordHash: r.PasswordHash,
	}, nil
}

// badgerError maps badger errors to store errors.
func badgerError(op string, err error) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: badger %s: %v", types.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("badger %s: %w", op, err)
}

// badgerLogger forwards warnings and errors to the service logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any) {
	observability.Logger().Error(fmt.Sprintf(f, v...), "component", "badger")
}

func (badgerLogger) Warningf(f string, v ...any) {
	observability.Logger().Warn(fmt.Sprintf(f, v...), "component", "badger")
}

func (badgerLogger) Infof(string, ...any)  {}
func (badgerLogger) Debugf(string, ...any) {}
