// Package locate resolves translation keys against the live document tree.
package locate

import (
	"strings"

	"design-localizer/internal/document"
	"design-localizer/internal/textutil"

	"github.com/rs/zerolog/log"
)

// visibilityEpsilon is the opacity at or below which a node counts as hidden.
const visibilityEpsilon = 0.01

// Tier names the cascade step that produced a container match.
type Tier string

const (
	TierID    Tier = "id"
	TierName  Tier = "name"
	TierFuzzy Tier = "fuzzy"
)

// Identity describes the text leaf an entry targets.
type Identity struct {
	NodeKey string
	// Text is the normalized source text.
	Text string
	// Written holds ids of leaves already rewritten in this pass; they
	// never match again.
	Written map[string]bool
}

// Options configures the heuristic tiers of the cascade.
type Options struct {
	// FuzzyFrames enables substring matching of container names.
	FuzzyFrames bool
	// TextContainment lets a leaf match when its text contains the source text.
	TextContainment bool
}

// Locator finds containers and text leaves through a document.Host.
type Locator struct {
	host     document.Host
	opts     Options
	excluded map[string]bool
	suffixes []string
}

// NewLocator creates a locator over host.
func NewLocator(host document.Host, opts Options) *Locator {
	return &Locator{
		host:     host,
		opts:     opts,
		excluded: make(map[string]bool),
	}
}

// Exclude keeps a node (typically a clone made by this run) out of the
// name-based tiers.
func (l *Locator) Exclude(id string) {
	l.excluded[id] = true
}

// IgnoreSuffixes keeps containers whose names end in " - <label>" for any
// label out of the name-based tiers, so earlier translations are never
// mistaken for the source frame.
func (l *Locator) IgnoreSuffixes(labels []string) {
	l.suffixes = l.suffixes[:0]
	for _, lbl := range labels {
		l.suffixes = append(l.suffixes, " - "+lbl)
	}
}

// FindContainer resolves key by host id, then exact name, then (if enabled)
// name containment in either direction. The boolean is false when nothing
// matches.
func (l *Locator) FindContainer(key string) (*document.Node, Tier, bool) {
	if key == "" {
		return nil, "", false
	}

	if n, ok := l.host.NodeByID(key); ok && n.IsContainer() {
		return n, TierID, true
	}

	candidates := l.host.FindAll(func(n *document.Node) bool {
		return n.IsContainer() && !l.excluded[n.ID] && !l.translated(n.Name)
	})

	for _, n := range candidates {
		if n.Name == key {
			return n, TierName, true
		}
	}

	if !l.opts.FuzzyFrames {
		return nil, "", false
	}

	keyFold := textutil.Fold(key)
	for _, n := range candidates {
		if n.Name == "" {
			continue
		}
		nameFold := textutil.Fold(n.Name)
		if strings.Contains(nameFold, keyFold) || strings.Contains(keyFold, nameFold) {
			log.Warn().
				Str("key", key).
				Str("matched", n.Name).
				Str("id", n.ID).
				Msg("Frame matched by partial name")
			return n, TierFuzzy, true
		}
	}
	return nil, "", false
}

func (l *Locator) translated(name string) bool {
	for _, s := range l.suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// FindTextLeaf searches the effectively visible text leaves under root.
// A node key match wins; otherwise the first leaf whose normalized text
// equals id.Text is returned.
func (l *Locator) FindTextLeaf(root *document.Node, id Identity) (*document.Node, bool) {
	leaves := VisibleTextLeaves(root)
	if len(id.Written) > 0 {
		kept := leaves[:0]
		for _, leaf := range leaves {
			if !id.Written[leaf.ID] {
				kept = append(kept, leaf)
			}
		}
		leaves = kept
	}

	if id.NodeKey != "" {
		for _, leaf := range leaves {
			if leaf.ID == id.NodeKey {
				return leaf, true
			}
		}
	}

	if id.Text == "" {
		return nil, false
	}
	for _, leaf := range leaves {
		if textutil.Normalize(leaf.Characters) == id.Text {
			return leaf, true
		}
	}

	if l.opts.TextContainment {
		for _, leaf := range leaves {
			if strings.Contains(textutil.Normalize(leaf.Characters), id.Text) {
				log.Warn().
					Str("leaf", leaf.ID).
					Str("text", textutil.Truncate(id.Text, 40)).
					Msg("Text leaf matched by containment")
				return leaf, true
			}
		}
	}
	return nil, false
}

// VisibleTextLeaves returns the text leaves under root, in traversal order,
// that are effectively visible. Hidden containers hide their subtree.
func VisibleTextLeaves(root *document.Node) []*document.Node {
	var out []*document.Node
	if root == nil {
		return out
	}
	for _, c := range root.Children {
		document.Walk(c, func(n *document.Node) bool {
			if !shown(n) {
				return false
			}
			if n.IsText() && painted(n) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

// EffectivelyVisible reports whether n is visible, not faded out, and for
// text carries at least one visible paint. Ancestors are checked too.
func EffectivelyVisible(n *document.Node) bool {
	if n == nil || !shown(n) {
		return false
	}
	if n.IsText() && !painted(n) {
		return false
	}
	for p := n.Parent; p != nil && p.Parent != nil; p = p.Parent {
		if !shown(p) {
			return false
		}
	}
	return true
}

func shown(n *document.Node) bool {
	return n.Visible && n.Opacity > visibilityEpsilon
}

func painted(n *document.Node) bool {
	for _, p := range n.Fills {
		if p.Visible && p.Opacity > visibilityEpsilon {
			return true
		}
	}
	for _, p := range n.Strokes {
		if p.Visible && p.Opacity > visibilityEpsilon {
			return true
		}
	}
	return false
}

// Correspond maps node ids of original onto the ids of the structurally
// identical clone, so keys captured against the original resolve inside
// the copy.
func Correspond(original, clone *document.Node) map[string]string {
	m := make(map[string]string)
	var pair func(a, b *document.Node)
	pair = func(a, b *document.Node) {
		m[a.ID] = b.ID
		if len(a.Children) != len(b.Children) {
			return
		}
		for i := range a.Children {
			pair(a.Children[i], b.Children[i])
		}
	}
	if original != nil && clone != nil {
		pair(original, clone)
	}
	return m
}
