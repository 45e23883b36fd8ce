package locate

import (
	"context"
	"testing"

	"design-localizer/internal/document"
	"design-localizer/internal/document/memdoc"

	"github.com/google/go-cmp/cmp"
)

var solid = []document.Paint{{Type: "SOLID", Visible: true, Opacity: 1}}

func frame(id, name string, children ...*document.Node) *document.Node {
	return &document.Node{ID: id, Name: name, Kind: document.KindContainer, Visible: true, Opacity: 1, Width: 100, Height: 100, Children: children}
}

func text(id, chars string) *document.Node {
	return &document.Node{ID: id, Name: chars, Kind: document.KindText, Visible: true, Opacity: 1, Characters: chars, Fills: solid}
}

func newHost(children ...*document.Node) *memdoc.Host {
	root := &document.Node{ID: "0:0", Kind: document.KindContainer, Visible: true, Opacity: 1, Children: children}
	document.LinkParents(root)
	return memdoc.New(&memdoc.Document{Name: "test", Root: root})
}

func TestFindContainerPrefersIDOverNameSubstring(t *testing.T) {
	host := newHost(
		frame("7", "Promo 42 banner"),
		frame("42", "Banner"),
	)
	loc := NewLocator(host, Options{FuzzyFrames: true})

	n, tier, ok := loc.FindContainer("42")
	if !ok {
		t.Fatal("expected a match")
	}
	if n.ID != "42" || tier != TierID {
		t.Errorf("got %s via %s, want 42 via id", n.ID, tier)
	}
}

func TestFindContainerCascade(t *testing.T) {
	host := newHost(
		frame("1", "Hero Section"),
		frame("2", "Hero"),
		frame("3", "Pricing"),
	)

	tests := []struct {
		name   string
		key    string
		fuzzy  bool
		wantID string
		want   Tier
		found  bool
	}{
		{"exact name beats earlier substring", "Hero", true, "2", TierName, true},
		{"name contains key", "pric", true, "3", TierFuzzy, true},
		{"key contains name", "Pricing Page v2", true, "3", TierFuzzy, true},
		{"fuzzy disabled", "pric", false, "", "", false},
		{"no match", "Footer", true, "", "", false},
		{"empty key", "", true, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := NewLocator(host, Options{FuzzyFrames: tt.fuzzy})
			n, tier, ok := loc.FindContainer(tt.key)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if !ok {
				return
			}
			if n.ID != tt.wantID || tier != tt.want {
				t.Errorf("got %s via %s, want %s via %s", n.ID, tier, tt.wantID, tt.want)
			}
		})
	}
}

func TestFindContainerSkipsTextNodeWithMatchingID(t *testing.T) {
	host := newHost(frame("1", "Card", text("9", "Hello")))
	loc := NewLocator(host, Options{})
	if _, _, ok := loc.FindContainer("9"); ok {
		t.Error("text node matched as a container")
	}
}

func TestFindContainerIgnoresTranslatedCopies(t *testing.T) {
	host := newHost(
		frame("1", "Hero - fr"),
		frame("2", "Hero copy"),
		frame("3", "Hero"),
	)
	loc := NewLocator(host, Options{FuzzyFrames: true})
	loc.IgnoreSuffixes([]string{"fr"})
	loc.Exclude("2")

	n, tier, ok := loc.FindContainer("Hero")
	if !ok || n.ID != "3" || tier != TierName {
		t.Fatalf("got %v %s %v, want 3 via name", n, tier, ok)
	}

	n, _, ok = loc.FindContainer("her")
	if !ok || n.ID != "3" {
		t.Errorf("fuzzy match picked %v, want 3", n)
	}
}

func TestFindTextLeafVisibility(t *testing.T) {
	hidden := text("h", "Welcome")
	hidden.Visible = false

	faded := text("f", "Welcome")
	faded.Opacity = 0.005

	unpainted := text("u", "Welcome")
	unpainted.Fills = []document.Paint{{Type: "SOLID", Visible: false, Opacity: 1}}

	strokeOnly := text("s", "Outline")
	strokeOnly.Fills = nil
	strokeOnly.Strokes = solid

	hiddenGroup := frame("g", "Group", text("inner", "Welcome"))
	hiddenGroup.Visible = false

	visible := text("v", "Welcome")

	root := frame("1", "Hero", hidden, faded, unpainted, hiddenGroup, strokeOnly, visible)
	host := newHost(root)
	loc := NewLocator(host, Options{})

	leaf, ok := loc.FindTextLeaf(root, Identity{Text: "Welcome"})
	if !ok || leaf.ID != "v" {
		t.Fatalf("got %v, want leaf v", leaf)
	}

	if _, ok := loc.FindTextLeaf(root, Identity{NodeKey: "inner"}); ok {
		t.Error("leaf inside hidden group matched by key")
	}

	if leaf, ok := loc.FindTextLeaf(root, Identity{Text: "Outline"}); !ok || leaf.ID != "s" {
		t.Error("stroke-only text should count as painted")
	}

	var ids []string
	for _, n := range VisibleTextLeaves(root) {
		ids = append(ids, n.ID)
	}
	if diff := cmp.Diff([]string{"s", "v"}, ids); diff != "" {
		t.Errorf("VisibleTextLeaves mismatch (-want +got):\n%s", diff)
	}
}

func TestFindTextLeafKeyThenText(t *testing.T) {
	a := text("a", "Sign  up\nnow")
	b := text("b", "Sign up now")
	root := frame("1", "Form", a, b)
	loc := NewLocator(newHost(root), Options{})

	if leaf, _ := loc.FindTextLeaf(root, Identity{NodeKey: "b", Text: "Sign up now"}); leaf.ID != "b" {
		t.Errorf("key match: got %s, want b", leaf.ID)
	}
	if leaf, _ := loc.FindTextLeaf(root, Identity{NodeKey: "missing", Text: "Sign up now"}); leaf.ID != "a" {
		t.Errorf("text fallback: got %s, want first normalized match a", leaf.ID)
	}
	if _, ok := loc.FindTextLeaf(root, Identity{Text: "Sign"}); ok {
		t.Error("partial text matched without containment enabled")
	}
}

func TestFindTextLeafContainment(t *testing.T) {
	root := frame("1", "Form", text("a", "Terms apply. Sign up now!"))
	loc := NewLocator(newHost(root), Options{TextContainment: true})

	leaf, ok := loc.FindTextLeaf(root, Identity{Text: "Sign up now"})
	if !ok || leaf.ID != "a" {
		t.Errorf("got %v, want a", leaf)
	}
}

func TestEffectivelyVisibleInheritsFromAncestors(t *testing.T) {
	leaf := text("t", "Hi")
	inner := frame("i", "Inner", leaf)
	outer := frame("o", "Outer", inner)
	newHost(outer)

	if !EffectivelyVisible(leaf) {
		t.Fatal("leaf should be visible")
	}
	outer.Opacity = 0
	if EffectivelyVisible(leaf) {
		t.Error("leaf under a transparent ancestor reported visible")
	}
}

func TestCorrespondMapsParallelTrees(t *testing.T) {
	orig := frame("1", "Hero", text("n1", "Welcome"), frame("g", "Group", text("n2", "Go")))
	host := newHost(orig)

	dup, err := host.Clone(testContext(t), orig)
	if err != nil {
		t.Fatal(err)
	}
	m := Correspond(orig, dup)

	want := map[string]string{
		"1":  dup.ID,
		"n1": dup.Children[0].ID,
		"g":  dup.Children[1].ID,
		"n2": dup.Children[1].Children[0].ID,
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("Correspond mismatch (-want +got):\n%s", diff)
	}
}

func TestFindTextLeafSkipsWrittenLeaves(t *testing.T) {
	f := frame("1", "Hero", text("a", "Sign up"), text("b", "Sign up"))
	loc := NewLocator(newHost(f), Options{TextContainment: true})

	written := map[string]bool{"a": true}
	leaf, ok := loc.FindTextLeaf(f, Identity{NodeKey: "a", Text: "Sign up", Written: written})
	if !ok || leaf.ID != "b" {
		t.Fatalf("got %v, %v; want b", leaf, ok)
	}

	written["b"] = true
	if leaf, ok := loc.FindTextLeaf(f, Identity{Text: "Sign", Written: written}); ok {
		t.Errorf("matched written leaf %s", leaf.ID)
	}
}

// testContext stands in for testing.T.Context (Go 1.24+) on older toolchains.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
