package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fonotreino/fonotreino/internal/session"
)

// Client implements [session.Directory.Client].
func (s *Store) Client(ctx context.Context, id string) (session.Client, error) {
	const q = `SELECT id, name, age FROM clients WHERE id = $1`

	var c session.Client
	err := s.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Age)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Client{}, session.ErrNotFound
	}
	if err != nil {
		return session.Client{}, fmt.Errorf("postgres store: query client: %w", err)
	}
	return c, nil
}

// SpecialistExists implements [session.Directory.SpecialistExists].
func (s *Store) SpecialistExists(ctx context.Context, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM specialists WHERE id = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres store: query specialist: %w", err)
	}
	return exists, nil
}

// UpsertClient creates or updates a client record. Used by provisioning and
// integration tests; the registry is otherwise owned by an external system.
func (s *Store) UpsertClient(ctx context.Context, c session.Client) error {
	const q = `
		INSERT INTO clients (id, name, age)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, age = EXCLUDED.age`

	if _, err := s.pool.Exec(ctx, q, c.ID, c.Name, c.Age); err != nil {
		return fmt.Errorf("postgres store: upsert client: %w", err)
	}
	return nil
}

// UpsertSpecialist creates or updates a specialist record.
func (s *Store) UpsertSpecialist(ctx context.Context, id, name string) error {
	const q = `
		INSERT INTO specialists (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	if _, err := s.pool.Exec(ctx, q, id, name); err != nil {
		return fmt.Errorf("postgres store: upsert specialist: %w", err)
	}
	return nil
}
