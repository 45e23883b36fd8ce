package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"design-localizer/internal/config"
	"design-localizer/internal/importer"
	"design-localizer/internal/locate"
	"design-localizer/internal/records"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestImportOptions(t *testing.T) {
	cfg := &config.Config{
		MatchMode:            "TEXT",
		FuzzyFrameMatch:      false,
		TextContainmentMatch: true,
		CloneMargin:          0,
		FallbackFontFamily:   "Roboto",
		HostCallTimeout:      time.Second,
	}
	got := importOptions(cfg)
	want := importer.Options{
		Mode:           records.MatchByText,
		Locate:         locate.Options{TextContainment: true},
		Margin:         100,
		FallbackFamily: "Roboto",
		HostTimeout:    time.Second,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("importOptions mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &importer.Report{
		RunID:            "run-1",
		Source:           "fr.csv",
		StartedAt:        start,
		FinishedAt:       start.Add(1500 * time.Millisecond),
		Languages:        []string{"fr"},
		Rows:             3,
		GroupsAttempted:  2,
		GroupsProcessed:  1,
		GroupsNotFound:   1,
		LeavesTranslated: 2,
		Clones:           []importer.CloneRecord{{CloneName: "Hero - fr", Translated: 2}},
		Skips: []importer.Skip{
			{Language: "fr", FrameKey: "Checkout", Reason: importer.ReasonFrameNotFound},
		},
		Suggestions: map[string][]string{"Checkout": {"Checkout Summary"}},
	}

	var buf bytes.Buffer
	printReport(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"Import fr.csv",
		r.Summary(),
		"run run-1, 3 rows, 1 languages, 1.5s",
		"+ Hero - fr (2 texts)",
		"! [fr] Checkout: frame not found",
		`"Checkout": did you mean ["Checkout Summary"]?`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSetLogLevelFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	setLogLevel("debug")
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("level = %v, want debug", zerolog.GlobalLevel())
	}
	setLogLevel("nonsense")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", zerolog.GlobalLevel())
	}
}
