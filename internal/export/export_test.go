package export

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"design-localizer/internal/document"
	"design-localizer/internal/document/memdoc"

	"github.com/google/go-cmp/cmp"
)

func box(id, name string, w, h float64) *document.Node {
	return &document.Node{ID: id, Name: name, Kind: document.KindContainer, Visible: true, Opacity: 1, Width: w, Height: h}
}

func newHost(children ...*document.Node) *memdoc.Host {
	root := &document.Node{ID: "0:0", Kind: document.KindContainer, Visible: true, Opacity: 1, Children: children}
	document.LinkParents(root)
	return memdoc.New(&memdoc.Document{Root: root})
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Hero Banner - fr":   "hero_banner_-_fr",
		"Sommer/Aktion 2024": "sommeraktion_2024",
		"Größe  &  Preis":    "gre_preis",
		"!!!":                "asset",
		"A very long frame name that keeps going and going forever": "a_very_long_frame_name_that_keeps_going_and_going_",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestScanAppliesRules(t *testing.T) {
	hidden := box("4", "Hidden", 500, 500)
	hidden.Visible = false
	host := newHost(
		box("1", "Post", 1080, 1081),
		box("2", "Story", 768, 1344),
		box("3", "Banner", 1200, 300),
		hidden,
		box("5", "Post", 600, 600),
	)
	c, err := NewCoordinator(host, nil, 0)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, cd := range c.Scan(context.Background()) {
		got = append(got, cd.ID+":"+cd.Rule+":"+cd.Filename)
	}
	want := []string{"1:square:post.png", "2:story:story.jpg", "5:square:post_2.png"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}
}

func TestNamePatternRule(t *testing.T) {
	host := newHost(box("1", "export/Header", 1200, 300), box("2", "Header", 1200, 300))
	rules := []Rule{{Name: "named", Format: "jpeg", Scale: 1, NamePattern: `^export/`}}
	c, err := NewCoordinator(host, rules, 0)
	if err != nil {
		t.Fatal(err)
	}
	cands := c.Scan(context.Background())
	if len(cands) != 1 || cands[0].ID != "1" || cands[0].Format != document.FormatJPEG {
		t.Errorf("candidates = %+v", cands)
	}
}

func TestNewCoordinatorRejectsBadRules(t *testing.T) {
	bad := [][]Rule{
		{{Name: "gif", Format: "gif", Square: true}},
		{{Name: "all", Format: "png"}},
		{{Name: "re", Format: "png", NamePattern: "("}},
	}
	for _, rules := range bad {
		if _, err := NewCoordinator(newHost(), rules, 0); err == nil {
			t.Errorf("rule %q accepted", rules[0].Name)
		}
	}
}

func TestExportSelection(t *testing.T) {
	host := newHost(box("1", "Post", 100, 100), box("2", "Story", 768, 1344), box("3", "Banner", 300, 100))
	c, _ := NewCoordinator(host, nil, time.Second)

	res, err := c.Export(context.Background(), []string{"2", "1", "3", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Assets) != 2 || res.Assets[0].Filename != "story.jpg" || res.Assets[1].Filename != "post.png" {
		t.Fatalf("assets = %+v", res.Assets)
	}
	if _, err := jpeg.Decode(bytes.NewReader(res.Assets[0].Data)); err != nil {
		t.Errorf("story is not a jpeg: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(res.Assets[1].Data))
	if err != nil {
		t.Fatalf("post is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Errorf("post rendered at %dx%d, want 2x", b.Dx(), b.Dy())
	}

	wantSkipped := []Failure{
		{ID: "3", Name: "Banner", Reason: "no export rule matches"},
		{ID: "missing", Reason: "not found"},
	}
	if diff := cmp.Diff(wantSkipped, res.Skipped); diff != "" {
		t.Errorf("skipped mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2", "1"}, host.Selection()); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestExportNothingSelected(t *testing.T) {
	c, _ := NewCoordinator(newHost(box("3", "Banner", 300, 100)), nil, 0)
	for _, ids := range [][]string{nil, {"3"}} {
		if _, err := c.Export(context.Background(), ids); !errors.Is(err, ErrNothingToExport) {
			t.Errorf("ids %v: err = %v, want ErrNothingToExport", ids, err)
		}
	}
}

// slowHost never finishes rendering the frame named "Slow".
type slowHost struct {
	*memdoc.Host
	release chan struct{}
}

func (h *slowHost) ExportRaster(ctx context.Context, n *document.Node, s document.ExportSettings) ([]byte, error) {
	if n.Name == "Slow" {
		<-h.release
	}
	return h.Host.ExportRaster(ctx, n, s)
}

func TestExportSkipsTimedOutAsset(t *testing.T) {
	host := &slowHost{
		Host:    newHost(box("1", "Slow", 100, 100), box("2", "Fast", 100, 100)),
		release: make(chan struct{}),
	}
	defer close(host.release)

	c, _ := NewCoordinator(host, nil, 20*time.Millisecond)
	res, err := c.Export(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Assets) != 1 || res.Assets[0].ID != "2" {
		t.Errorf("assets = %+v, want only Fast", res.Assets)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].ID != "1" {
		t.Errorf("skipped = %+v", res.Skipped)
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	assets := []Asset{{Candidate: Candidate{Filename: "post.png"}, Data: []byte("x")}}
	if err := Save(dir, assets); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "post.png"))
	if err != nil || string(data) != "x" {
		t.Errorf("read back %q, %v", data, err)
	}
}
