package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/hired/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// Postgres stores sessions in PostgreSQL. Results are kept as a JSONB array.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres establishes a connection pool to the database
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database url is not configured", types.ErrStoreUnavailable)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", types.ErrStoreUnavailable, err)
	}

	return &Postgres{pool: pool}, nil
}

// Migrate creates the tables if they do not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return pgError("migrate", err)
	}
	return nil
}

// Close closes the connection pool
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, userID string, session *types.InterviewSession) (string, error) {
	if err := checkSave(userID, session); err != nil {
		return "", err
	}

	results := session.Results
	if results == nil {
		results = []types.AnalysisResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	var id uuid.UUID
	err = p.pool.QueryRow(ctx,
		`INSERT INTO interview_sessions (user_id, job_category, formatted_job_category, results)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		userID, session.JobCategory, session.FormattedJobCategory, resultsJSON,
	).Scan(&id)
	if err != nil {
		return "", pgError("save session", err)
	}
	return id.String(), nil
}

func (p *Postgres) ListSessions(ctx context.Context, userID string) ([]types.InterviewSession, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, job_category, formatted_job_category, results, created_at
		 FROM interview_sessions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, pgError("list sessions", err)
	}
	defer rows.Close()

	sessions := []types.InterviewSession{}
	for rows.Next() {
		var (
			s           types.InterviewSession
			id          uuid.UUID
			resultsJSON []byte
		)
		if err := rows.Scan(&id, &s.JobCategory, &s.FormattedJobCategory, &resultsJSON, &s.Date); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if err := json.Unmarshal(resultsJSON, &s.Results); err != nil {
			return nil, fmt.Errorf("failed to decode results of session %s: %w", id, err)
		}
		s.ID = id.String()
		s.UserID = userID
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, pgError("list sessions", err)
	}
	return sessions, nil
}

func (p *Postgres) ClearAll(ctx context.Context, userID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return pgError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM interview_sessions WHERE user_id = $1`, userID); err != nil {
		return pgError("clear sessions", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return pgError("commit clear sessions", err)
	}
	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.UserRecord, error) {
	var rec types.UserRecord
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, email, password_hash, created_at`,
		name, normalizeEmail(email), passwordHash,
	).Scan(&rec.ID, &rec.Name, &rec.Email, &rec.PasswordHash, &rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, pgError("create user", err)
	}
	return &rec, nil
}

func (p *Postgres) GetUser(ctx context.Context, id uuid.UUID) (*types.UserRecord, error) {
	return p.getUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error) {
	return p.getUser(ctx, `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`, normalizeEmail(email))
}

func (p *Postgres) getUser(ctx context.Context, query string, arg any) (*types.UserRecord, error) {
	var rec types.UserRecord
	err := p.pool.QueryRow(ctx, query, arg).Scan(&rec.ID, &rec.Name, &rec.Email, &rec.PasswordHash, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, pgError("get user", err)
	}
	return &rec, nil
}

// pgError wraps err, marking connection failures as types.ErrStoreUnavailable.
func pgError(op string, err error) error {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %s: %v", types.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
