package suggest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// PgIndex keeps frame name vectors in PostgreSQL with pgvector, scoped to
// one document, so suggestions survive across runs and can be shared.
type PgIndex struct {
	pool     *pgxpool.Pool
	document string
}

// NewPgIndex creates an index over the rows stored for document.
func NewPgIndex(pool *pgxpool.Pool, document string) *PgIndex {
	return &PgIndex{
		pool:     pool,
		document: document,
	}
}

const frameNamesSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS frame_names (
	document  TEXT NOT NULL,
	node_id   TEXT NOT NULL,
	name      TEXT NOT NULL,
	embedding vector(%d) NOT NULL,
	PRIMARY KEY (document, node_id)
);`

// EnsureSchema creates the vector extension and the frame_names table.
func (p *PgIndex) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, fmt.Sprintf(frameNamesSchema, Dimensions)); err != nil {
		return fmt.Errorf("create frame_names schema: %w", err)
	}
	return nil
}

// Sync replaces the stored frames of the document with entries.
func (p *PgIndex) Sync(ctx context.Context, entries []Entry) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin frame sync: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM frame_names WHERE document = $1`, p.document); err != nil {
		return fmt.Errorf("clear frame names: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		batch.Queue(
			`INSERT INTO frame_names (document, node_id, name, embedding) VALUES ($1, $2, $3, $4)`,
			p.document, e.ID, e.Name, pgvector.NewVector(Vectorize(e.Name)),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert frame names: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit frame sync: %w", err)
	}
	log.Info().Str("document", p.document).Int("frames", batch.Len()).Msg("Synced frame index")
	return nil
}

// Search returns the k stored frames nearest to vec by cosine distance.
func (p *PgIndex) Search(ctx context.Context, vec []float32, k int) ([]Match, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT node_id, name, 1 - (embedding <=> $2) AS similarity
		FROM frame_names
		WHERE document = $1
		ORDER BY embedding <=> $2
		LIMIT $3`,
		p.document, pgvector.NewVector(vec), k,
	)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Name, &m.Score); err != nil {
			return nil, fmt.Errorf("scan frame match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return matches, nil
}
