package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"design-localizer/internal/document"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"MATCH_MODE", "FUZZY_FRAME_MATCH", "TEXT_CONTAINMENT_MATCH", "HOST_CALL_TIMEOUT", "EXPORT_TIMEOUT", "CLONE_MARGIN"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.MatchMode != "node" || !cfg.FuzzyFrameMatch || cfg.TextContainmentMatch {
		t.Errorf("matching defaults = %+v", cfg)
	}
	if cfg.HostCallTimeout != 0 || cfg.ExportTimeout != 30*time.Second || cfg.CloneMargin != 100 {
		t.Errorf("timing defaults = %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FUZZY_FRAME_MATCH", "false")
	t.Setenv("HOST_CALL_TIMEOUT", "1500")
	t.Setenv("EXPORT_TIMEOUT", "2m")
	t.Setenv("TEXT_CONTAINMENT_MATCH", "maybe")

	cfg := Load()
	if cfg.FuzzyFrameMatch {
		t.Error("FUZZY_FRAME_MATCH=false ignored")
	}
	if cfg.HostCallTimeout != 1500*time.Millisecond || cfg.ExportTimeout != 2*time.Minute {
		t.Errorf("timeouts = %v, %v", cfg.HostCallTimeout, cfg.ExportTimeout)
	}
	if cfg.TextContainmentMatch {
		t.Error("invalid boolean should fall back to false")
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	yaml := `rules:
  - name: square
    format: png
    scale: 2
    square: true
  - name: banner
    format: jpg
    scale: 1
    width: 1200
    height: 628
    tolerance: 0
  - name: marked
    format: png
    name_pattern: "^export/"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules", len(rules))
	}
	if rules[1].Format != document.FormatJPEG || rules[1].Width != 1200 || rules[1].Tolerance == nil || *rules[1].Tolerance != 0 {
		t.Errorf("banner rule = %+v", rules[1])
	}
	if rules[2].NamePattern != "^export/" {
		t.Errorf("marked rule = %+v", rules[2])
	}
}

func TestLoadRulesErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("rules: []\n"), 0644)
	broken := filepath.Join(dir, "broken.yaml")
	os.WriteFile(broken, []byte("rules: [\n"), 0644)

	for _, p := range []string{empty, broken, filepath.Join(dir, "missing.yaml")} {
		if _, err := LoadRules(p); err == nil {
			t.Errorf("%s: expected error", filepath.Base(p))
		}
	}
	if rules, err := LoadRules(""); err != nil || rules != nil {
		t.Errorf("empty path: %v, %v", rules, err)
	}
}

// chdir stands in for testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
