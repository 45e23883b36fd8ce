package history

import (
	"context"
	"os"
	"testing"
	"time"

	"design-localizer/internal/importer"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Runs against a real database when TEST_DATABASE_URL is set.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	s := NewStore(pool)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	report := &importer.Report{
		RunID:            uuid.NewString(),
		Source:           "campaign.csv",
		InputHash:        "abc",
		StartedAt:        now,
		FinishedAt:       now.Add(time.Second),
		Languages:        []string{"fr", "de"},
		GroupsAttempted:  2,
		GroupsProcessed:  1,
		GroupsNotFound:   1,
		LeavesTranslated: 3,
		Skips: []importer.Skip{
			{Language: "de", FrameKey: "Hero", Reason: importer.ReasonFrameNotFound},
			{Language: "fr", FrameKey: "Hero", NodeKey: "n9", Line: 7, Reason: importer.ReasonTextNotFound},
		},
	}
	if err := s.Record(ctx, report); err != nil {
		t.Fatal(err)
	}

	runs, err := s.Recent(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	var found *Run
	for i := range runs {
		if runs[i].RunID.String() == report.RunID {
			found = &runs[i]
		}
	}
	if found == nil {
		t.Fatal("recorded run not returned")
	}
	if found.LeavesTranslated != 3 || found.GroupsNotFound != 1 {
		t.Errorf("run = %+v", found)
	}

	skips, err := s.Skips(ctx, found.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(report.Skips, skips); diff != "" {
		t.Errorf("skips mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRejectsBadRunID(t *testing.T) {
	s := NewStore(nil)
	if err := s.Record(context.Background(), &importer.Report{RunID: "not-a-uuid"}); err == nil {
		t.Error("expected error for malformed run id")
	}
}
