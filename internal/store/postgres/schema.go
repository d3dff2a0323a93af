// Package postgres provides the PostgreSQL-backed session store and client
// directory for Fonotreino.
//
// All operations share a single [pgxpool.Pool]. [Migrate] installs the
// schema via CREATE TABLE IF NOT EXISTS so the store is self-provisioning on
// first start.
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer store.Close()
//
//	err = store.Save(ctx, sess)
//	client, err := store.Client(ctx, clientID)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlTrainingSessions = `
CREATE TABLE IF NOT EXISTS training_sessions (
    id              TEXT              PRIMARY KEY,
    client_id       TEXT              NOT NULL,
    specialist_id   TEXT              NOT NULL,
    difficulty      TEXT              NOT NULL DEFAULT 'GERAL',
    client_age      INT               NOT NULL DEFAULT 0,
    phrase          TEXT              NOT NULL DEFAULT '',
    status          TEXT              NOT NULL,
    total_words     INT               NOT NULL DEFAULT 0,
    total_correct   INT               NOT NULL DEFAULT 0,
    overall_score   DOUBLE PRECISION  NOT NULL DEFAULT 0,
    result          TEXT              NOT NULL DEFAULT '',
    started_at      TIMESTAMPTZ       NOT NULL,
    ended_at        TIMESTAMPTZ,
    interaction_log TEXT[]            NOT NULL DEFAULT '{}',
    version         BIGINT            NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_training_sessions_client
    ON training_sessions (client_id, started_at);

-- At most one session per client may be in a non-terminal status.
CREATE UNIQUE INDEX IF NOT EXISTS uniq_training_sessions_active_client
    ON training_sessions (client_id)
    WHERE status IN ('INITIATED', 'AWAITING_AUDIO', 'PROCESSING');
`

const ddlDirectory = `
CREATE TABLE IF NOT EXISTS clients (
    id    TEXT  PRIMARY KEY,
    name  TEXT  NOT NULL,
    age   INT   NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS specialists (
    id    TEXT  PRIMARY KEY,
    name  TEXT  NOT NULL DEFAULT ''
);
`

// Migrate ensures all required tables and indexes exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []string{ddlTrainingSessions, ddlDirectory} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("postgres store: apply schema: %w", err)
		}
	}
	return nil
}
