package memdoc

import (
	"context"
	"testing"

	"design-localizer/internal/document"
)

func TestDecodeDefaultsToVisible(t *testing.T) {
	doc, err := Decode([]byte(`{
		"name": "campaign",
		"root": {"id": "0:0", "kind": "container", "children": [
			{"id": "1:1", "name": "Hero", "kind": "container", "children": [
				{"id": "n1", "kind": "text", "characters": "Welcome", "fills": [{"type": "SOLID"}]},
				{"id": "n2", "kind": "text", "characters": "Hidden", "visible": false, "opacity": 0.5,
					"fills": [{"type": "SOLID", "opacity": 0}]}
			]}
		]}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	hero := doc.Root.Children[0]
	shown, hidden := hero.Children[0], hero.Children[1]
	if !hero.Visible || hero.Opacity != 1 || !shown.Visible || shown.Opacity != 1 {
		t.Errorf("missing keys not defaulted: hero %+v, leaf %+v", hero, shown)
	}
	if p := shown.Fills[0]; !p.Visible || p.Opacity != 1 {
		t.Errorf("fill = %+v, want visible at opacity 1", p)
	}
	if hidden.Visible || hidden.Opacity != 0.5 || hidden.Fills[0].Opacity != 0 {
		t.Errorf("explicit values overridden: %+v", hidden)
	}
	if shown.Parent != hero {
		t.Error("parents not linked")
	}
}

func TestRemove(t *testing.T) {
	hero := &document.Node{ID: "1:1", Name: "Hero", Kind: document.KindContainer,
		Children: []*document.Node{{ID: "n1", Kind: document.KindText}}}
	root := &document.Node{ID: "0:0", Kind: document.KindContainer, Children: []*document.Node{hero}}
	document.LinkParents(root)
	h := New(&Document{Root: root})

	dup, err := h.Clone(context.Background(), hero)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Remove(dup); err != nil {
		t.Fatal(err)
	}

	if len(root.Children) != 1 || root.Children[0] != hero {
		t.Errorf("children = %v, want the original only", root.Children)
	}
	for _, id := range []string{dup.ID, dup.Children[0].ID} {
		if _, ok := h.NodeByID(id); ok {
			t.Errorf("%s still indexed", id)
		}
	}
	if err := h.Remove(dup); err == nil {
		t.Error("removing twice succeeded")
	}
	if err := h.Remove(root); err == nil {
		t.Error("removed the document root")
	}
}
