// Package lineage records which frames were translated into which copies
// as a Neo4j graph: (:Frame)-[:TRANSLATED_TO {language, run, at}]->(:Frame).
package lineage

import (
	"context"
	"fmt"
	"time"

	"design-localizer/internal/importer"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Translation is one copy made from a frame.
type Translation struct {
	CloneID   string
	CloneName string
	Language  string
	RunID     string
	// At is when the run that made the copy started.
	At time.Time
}

// Recorder writes and reads frame lineage.
type Recorder struct {
	driver   neo4j.DriverWithContext
	document string
}

// NewRecorder creates a recorder scoped to one document.
func NewRecorder(driver neo4j.DriverWithContext, document string) *Recorder {
	return &Recorder{driver: driver, document: document}
}

// EnsureSchema creates the frame key constraint.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		"CREATE CONSTRAINT frame_key IF NOT EXISTS FOR (f:Frame) REQUIRE (f.document, f.id) IS UNIQUE", nil)
	if err != nil {
		return fmt.Errorf("create constraint: %w", err)
	}
	log.Info().Msg("Lineage schema ensured")
	return nil
}

const recordClone = `
	MERGE (o:Frame {document: $document, id: $originalId})
	SET o.name = $originalName
	MERGE (c:Frame {document: $document, id: $cloneId})
	SET c.name = $cloneName
	MERGE (o)-[t:TRANSLATED_TO {language: $language}]->(c)
	SET t.run = $run, t.at = $at, t.translated = $translated`

func cloneParams(document, runID string, at time.Time, c importer.CloneRecord) map[string]any {
	return map[string]any{
		"document":     document,
		"originalId":   c.OriginalID,
		"originalName": c.OriginalName,
		"cloneId":      c.CloneID,
		"cloneName":    c.CloneName,
		"language":     c.Language,
		"run":          runID,
		"at":           at,
		"translated":   c.Translated,
	}
}

// RecordReport stores every copy made by a run in one write transaction.
func (r *Recorder) RecordReport(ctx context.Context, report *importer.Report) error {
	if len(report.Clones) == 0 {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, c := range report.Clones {
			if _, err := tx.Run(ctx, recordClone, cloneParams(r.document, report.RunID, report.StartedAt, c)); err != nil {
				return nil, fmt.Errorf("record clone %s: %w", c.CloneID, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("record lineage: %w", err)
	}

	log.Info().Str("run", report.RunID).Int("clones", len(report.Clones)).Msg("Recorded frame lineage")
	return nil
}

const listTranslations = `
	MATCH (o:Frame {document: $document, id: $id})-[t:TRANSLATED_TO]->(c:Frame)
	RETURN c.id AS id, c.name AS name, t.language AS language, t.run AS run, t.at AS at
	ORDER BY t.at, t.language`

// Translations lists the copies made from a frame, oldest run first.
func (r *Recorder) Translations(ctx context.Context, frameID string) ([]Translation, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, listTranslations, map[string]any{"document": r.document, "id": frameID})
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}

	var out []Translation
	for result.Next(ctx) {
		record := result.Record()
		id, _ := record.Get("id")
		name, _ := record.Get("name")
		lang, _ := record.Get("language")
		run, _ := record.Get("run")
		at, _ := record.Get("at")

		tr := Translation{
			CloneID:   fmt.Sprintf("%v", id),
			CloneName: fmt.Sprintf("%v", name),
			Language:  fmt.Sprintf("%v", lang),
			RunID:     fmt.Sprintf("%v", run),
		}
		if ts, ok := at.(time.Time); ok {
			tr.At = ts
		}
		out = append(out, tr)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read translations: %w", err)
	}
	return out, nil
}
