package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fonotreino/fonotreino/internal/session"
)

// uniqueViolation is the PostgreSQL error code raised when the insert loses
// a race on the one-active-session-per-client partial unique index.
const uniqueViolation = "23505"

const sessionColumns = `
	id, client_id, specialist_id, difficulty, client_age, phrase, status,
	total_words, total_correct, overall_score, result,
	started_at, ended_at, interaction_log, version`

// Save implements [session.Store.Save] with optimistic concurrency: updates
// carry the caller's version in the WHERE clause, so a stale writer affects
// zero rows and receives [session.ErrConflict].
func (s *Store) Save(ctx context.Context, sess *session.TrainingSession) error {
	if sess.Version == 0 {
		return s.insert(ctx, sess)
	}
	return s.update(ctx, sess)
}

func (s *Store) insert(ctx context.Context, sess *session.TrainingSession) error {
	const q = `
		INSERT INTO training_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)`

	_, err := s.pool.Exec(ctx, q,
		sess.ID, sess.ClientID, sess.SpecialistID, sess.Difficulty, sess.Age,
		sess.Phrase, string(sess.Status),
		sess.TotalWords, sess.TotalCorrect, sess.OverallScore, sess.Result,
		sess.StartedAt, sess.EndedAt, sess.Log,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return session.ErrConflict
		}
		return fmt.Errorf("postgres store: insert session: %w", err)
	}
	sess.Version = 1
	return nil
}

func (s *Store) update(ctx context.Context, sess *session.TrainingSession) error {
	const q = `
		UPDATE training_sessions
		SET    difficulty = $2, client_age = $3, phrase = $4, status = $5,
		       total_words = $6, total_correct = $7, overall_score = $8,
		       result = $9, ended_at = $10, interaction_log = $11,
		       version = version + 1
		WHERE  id = $1 AND version = $12`

	tag, err := s.pool.Exec(ctx, q,
		sess.ID, sess.Difficulty, sess.Age, sess.Phrase, string(sess.Status),
		sess.TotalWords, sess.TotalCorrect, sess.OverallScore,
		sess.Result, sess.EndedAt, sess.Log, sess.Version,
	)
	if err != nil {
		return fmt.Errorf("postgres store: update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row vanished or someone else moved the version on.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM training_sessions WHERE id = $1)`, sess.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("postgres store: check session: %w", err)
		}
		if !exists {
			return session.ErrNotFound
		}
		return session.ErrConflict
	}
	sess.Version++
	return nil
}

// FindByID implements [session.Store.FindByID].
func (s *Store) FindByID(ctx context.Context, id string) (*session.TrainingSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM training_sessions WHERE id = $1`
	return s.findOne(ctx, q, id)
}

// FindActiveByClient implements [session.Store.FindActiveByClient].
func (s *Store) FindActiveByClient(ctx context.Context, clientID string) (*session.TrainingSession, error) {
	const q = `
		SELECT ` + sessionColumns + `
		FROM   training_sessions
		WHERE  client_id = $1
		  AND  status IN ('INITIATED', 'AWAITING_AUDIO', 'PROCESSING')`
	return s.findOne(ctx, q, clientID)
}

// FindAllByClient implements [session.Store.FindAllByClient].
func (s *Store) FindAllByClient(ctx context.Context, clientID string) ([]*session.TrainingSession, error) {
	const q = `
		SELECT ` + sessionColumns + `
		FROM   training_sessions
		WHERE  client_id = $1
		ORDER  BY started_at`

	rows, err := s.pool.Query(ctx, q, clientID)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list sessions: %w", err)
	}
	sessions, err := pgx.CollectRows(rows, scanSession)
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan sessions: %w", err)
	}
	return sessions, nil
}

func (s *Store) findOne(ctx context.Context, q string, arg any) (*session.TrainingSession, error) {
	rows, err := s.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: query session: %w", err)
	}
	sess, err := pgx.CollectOneRow(rows, scanSession)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: scan session: %w", err)
	}
	return sess, nil
}

func scanSession(row pgx.CollectableRow) (*session.TrainingSession, error) {
	var (
		sess   session.TrainingSession
		status string
	)
	if err := row.Scan(
		&sess.ID, &sess.ClientID, &sess.SpecialistID, &sess.Difficulty, &sess.Age,
		&sess.Phrase, &status,
		&sess.TotalWords, &sess.TotalCorrect, &sess.OverallScore, &sess.Result,
		&sess.StartedAt, &sess.EndedAt, &sess.Log, &sess.Version,
	); err != nil {
		return nil, err
	}
	sess.Status = session.Status(status)
	return &sess, nil
}
