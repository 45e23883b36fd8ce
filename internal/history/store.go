// Package history persists import run reports in PostgreSQL.
package history

import (
	"context"
	"fmt"
	"time"

	"design-localizer/internal/importer"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS import_runs (
	run_id            UUID PRIMARY KEY,
	source            TEXT NOT NULL DEFAULT '',
	input_hash        TEXT NOT NULL,
	started_at        TIMESTAMPTZ NOT NULL,
	finished_at       TIMESTAMPTZ NOT NULL,
	languages         TEXT[] NOT NULL,
	groups_attempted  INT NOT NULL,
	groups_processed  INT NOT NULL,
	groups_not_found  INT NOT NULL,
	groups_failed     INT NOT NULL,
	leaves_translated INT NOT NULL,
	leaves_skipped    INT NOT NULL,
	leaves_failed     INT NOT NULL,
	entries_kept      INT NOT NULL,
	canceled          BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS import_skips (
	run_id    UUID NOT NULL REFERENCES import_runs(run_id) ON DELETE CASCADE,
	language  TEXT NOT NULL,
	frame_key TEXT NOT NULL,
	node_key  TEXT NOT NULL DEFAULT '',
	line      INT NOT NULL DEFAULT 0,
	reason    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS import_runs_started_idx ON import_runs (started_at DESC);`

// Run is a stored report summary.
type Run struct {
	RunID            uuid.UUID
	Source           string
	InputHash        string
	StartedAt        time.Time
	FinishedAt       time.Time
	Languages        []string
	GroupsAttempted  int
	GroupsProcessed  int
	GroupsNotFound   int
	GroupsFailed     int
	LeavesTranslated int
	LeavesSkipped    int
	LeavesFailed     int
	EntriesKept      int
	Canceled         bool
}

// Store reads and writes run reports.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store on pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the history tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record stores a report with its skip list in one transaction.
func (s *Store) Record(ctx context.Context, r *importer.Report) error {
	id, err := uuid.Parse(r.RunID)
	if err != nil {
		return fmt.Errorf("parse run id: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO import_runs (
			run_id, source, input_hash, started_at, finished_at, languages,
			groups_attempted, groups_processed, groups_not_found, groups_failed,
			leaves_translated, leaves_skipped, leaves_failed, entries_kept, canceled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		id, r.Source, r.InputHash, r.StartedAt, r.FinishedAt, r.Languages,
		r.GroupsAttempted, r.GroupsProcessed, r.GroupsNotFound, r.GroupsFailed,
		r.LeavesTranslated, r.LeavesSkipped, r.LeavesFailed, r.EntriesKept, r.Canceled,
	)
	for _, sk := range r.Skips {
		batch.Queue(
			`INSERT INTO import_skips (run_id, language, frame_key, node_key, line, reason) VALUES ($1, $2, $3, $4, $5, $6)`,
			id, sk.Language, sk.FrameKey, sk.NodeKey, sk.Line, sk.Reason,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run %s: %w", r.RunID, err)
	}
	log.Info().Str("run", r.RunID).Int("skips", len(r.Skips)).Msg("Recorded import run")
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, source, input_hash, started_at, finished_at, languages,
			groups_attempted, groups_processed, groups_not_found, groups_failed,
			leaves_translated, leaves_skipped, leaves_failed, entries_kept, canceled
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Run])
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}

// Skips returns the skip list of one run in insertion order.
func (s *Store) Skips(ctx context.Context, runID uuid.UUID) ([]importer.Skip, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT language, frame_key, node_key, line, reason
		FROM import_skips
		WHERE run_id = $1
		ORDER BY ctid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query skips: %w", err)
	}
	defer rows.Close()

	var skips []importer.Skip
	for rows.Next() {
		var sk importer.Skip
		if err := rows.Scan(&sk.Language, &sk.FrameKey, &sk.NodeKey, &sk.Line, &sk.Reason); err != nil {
			return nil, fmt.Errorf("scan skip: %w", err)
		}
		skips = append(skips, sk)
	}
	return skips, rows.Err()
}
