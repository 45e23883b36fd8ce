package parser

import (
	"fmt"
	"strings"

	"design-localizer/internal/textutil"
)

// Role is the semantic meaning of a spreadsheet column.
type Role string

const (
	RoleFrame      Role = "frameKey"
	RoleNode       Role = "nodeKey"
	RoleSource     Role = "sourceText"
	RoleLanguage   Role = "targetLanguage"
	RoleTranslated Role = "translatedText"
)

// roleOrder fixes resolution order; more specific roles claim headers first.
var roleOrder = []Role{RoleFrame, RoleNode, RoleSource, RoleTranslated, RoleLanguage}

// canonical names per role, compared after folding.
var canonical = map[Role][]string{
	RoleFrame:      {"frame_name", "frame_id", "frame"},
	RoleNode:       {"node_id", "node_name", "node"},
	RoleSource:     {"source_text", "source"},
	RoleLanguage:   {"target_language", "target_lang", "target_locale", "target", "language", "lang", "locale"},
	RoleTranslated: {"translated_text", "translation"},
}

// substrings per role, used when no canonical name matches.
var fragments = map[Role]string{
	RoleFrame:      "frame",
	RoleNode:       "node",
	RoleSource:     "source",
	RoleLanguage:   "lang",
	RoleTranslated: "translat",
}

// Columns maps each role to a column index; -1 means unresolved.
type Columns struct {
	Frame      int
	Node       int
	Source     int
	Language   int
	Translated int
}

func (c *Columns) set(r Role, idx int) {
	switch r {
	case RoleFrame:
		c.Frame = idx
	case RoleNode:
		c.Node = idx
	case RoleSource:
		c.Source = idx
	case RoleLanguage:
		c.Language = idx
	case RoleTranslated:
		c.Translated = idx
	}
}

// Get returns the column index for r, or -1.
func (c Columns) Get(r Role) int {
	switch r {
	case RoleFrame:
		return c.Frame
	case RoleNode:
		return c.Node
	case RoleSource:
		return c.Source
	case RoleLanguage:
		return c.Language
	case RoleTranslated:
		return c.Translated
	}
	return -1
}

// MissingColumnError names a required role no header could be resolved to,
// together with the headers actually present.
type MissingColumnError struct {
	Role    Role
	Headers []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column not found: %s (headers found: %s)", e.Role, strings.Join(e.Headers, ", "))
}

// FoldHeader normalizes a header cell for comparison: quotes stripped,
// trimmed, case-folded, spaces and hyphens turned into underscores.
func FoldHeader(h string) string {
	h = strings.ReplaceAll(h, `"`, "")
	h = textutil.Fold(strings.TrimSpace(h))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, h)
}

// ResolveColumns maps header cells to semantic roles. A canonical name
// wins over a substring match, and a header claimed by one role is not
// reused by another. The node column is only required when requireNode
// is set.
func ResolveColumns(header []string, requireNode bool) (Columns, error) {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = FoldHeader(h)
	}

	cols := Columns{Frame: -1, Node: -1, Source: -1, Language: -1, Translated: -1}
	claimed := make(map[int]bool, len(header))

	// Canonical pass for every role before any substring guessing.
	for _, r := range roleOrder {
		if idx := findCanonical(folded, canonical[r], claimed); idx >= 0 {
			cols.set(r, idx)
			claimed[idx] = true
		}
	}
	for _, r := range roleOrder {
		if cols.Get(r) >= 0 {
			continue
		}
		for i, h := range folded {
			if !claimed[i] && strings.Contains(h, fragments[r]) {
				cols.set(r, i)
				claimed[i] = true
				break
			}
		}
	}

	for _, r := range []Role{RoleFrame, RoleNode, RoleSource, RoleLanguage, RoleTranslated} {
		if r == RoleNode && !requireNode {
			continue
		}
		if cols.Get(r) < 0 {
			return cols, &MissingColumnError{Role: r, Headers: append([]string(nil), header...)}
		}
	}
	return cols, nil
}

func findCanonical(folded, names []string, claimed map[int]bool) int {
	for _, name := range names {
		for i, h := range folded {
			if !claimed[i] && h == name {
				return i
			}
		}
	}
	return -1
}
