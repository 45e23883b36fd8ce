package lineage

import (
	"context"
	"strings"
	"testing"
	"time"

	"design-localizer/internal/importer"

	"github.com/google/go-cmp/cmp"
)

func TestCloneParams(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	got := cloneParams("campaign", "run-1", at, importer.CloneRecord{
		OriginalID: "1:1", OriginalName: "Hero",
		CloneID: "1:9", CloneName: "Hero - fr",
		Language: "fr", Translated: 4,
	})
	want := map[string]any{
		"document":     "campaign",
		"originalId":   "1:1",
		"originalName": "Hero",
		"cloneId":      "1:9",
		"cloneName":    "Hero - fr",
		"language":     "fr",
		"run":          "run-1",
		"at":           at,
		"translated":   4,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordReportWithoutClonesSkipsDriver(t *testing.T) {
	r := NewRecorder(nil, "campaign")
	if err := r.RecordReport(context.Background(), &importer.Report{RunID: "run-1"}); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestTranslationsOrderedByRunTime(t *testing.T) {
	if !strings.Contains(listTranslations, "ORDER BY t.at") {
		t.Errorf("translations not ordered by run time:\n%s", listTranslations)
	}
	if !strings.Contains(recordClone, "t.at = $at") {
		t.Errorf("run time not stored:\n%s", recordClone)
	}
}
