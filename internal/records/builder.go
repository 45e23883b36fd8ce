// Package records turns parsed spreadsheet rows into translation groups
// keyed by target language and frame.
package records

import (
	"strings"

	"design-localizer/internal/parser"
	"design-localizer/internal/textutil"

	"github.com/rs/zerolog/log"
)

// MatchMode selects the identity used to reconcile duplicate rows and to
// find text leaves.
type MatchMode string

const (
	// MatchByNode requires a node id on every row and dedups by it.
	MatchByNode MatchMode = "node"
	// MatchByText dedups by normalized source text; node ids are optional hints.
	MatchByText MatchMode = "text"
)

// ParseMatchMode maps a config string to a MatchMode, defaulting to node.
func ParseMatchMode(s string) MatchMode {
	if strings.EqualFold(strings.TrimSpace(s), string(MatchByText)) {
		return MatchByText
	}
	return MatchByNode
}

// Row is one validated translation record.
type Row struct {
	FrameKey   string
	NodeKey    string
	SourceText string
	Language   string
	// Translated is empty when no translation is available; the original
	// text is then kept.
	Translated string
	// Normalized is SourceText with whitespace collapsed, used for matching.
	Normalized string
	// Line is the 1-based data row the record came from.
	Line int
}

// HasTranslation reports whether the row carries a replacement text.
func (r Row) HasTranslation() bool { return r.Translated != "" }

// Group holds every row sharing one (language, frame) pair.
type Group struct {
	Language string
	FrameKey string
	Rows     []Row
}

// Result is the output of Build.
type Result struct {
	Groups []*Group
	// Languages lists target languages in first-seen order.
	Languages []string
	Rows      int
	Retained  int
	Skipped   int
	// Merged counts rows folded into an earlier row with the same identity.
	Merged int
	// Conflicts counts duplicates whose differing translations were dropped.
	Conflicts int
}

// Options configures Build.
type Options struct {
	Mode MatchMode
}

type groupKey struct {
	language string
	frame    string
}

// Build extracts rows by resolved column, drops incomplete rows, groups the
// rest and reconciles duplicates: a non-empty translation replaces an empty
// one, and between two non-empty translations the first is kept.
func Build(rows [][]string, cols parser.Columns, opts Options) *Result {
	res := &Result{Rows: len(rows)}

	groups := make(map[groupKey]*Group)
	// position of each dedup key inside its group
	seen := make(map[groupKey]map[string]int)
	langs := make(map[string]bool)

	for i, fields := range rows {
		row := Row{
			FrameKey:   cell(fields, cols.Frame),
			NodeKey:    cell(fields, cols.Node),
			SourceText: textutil.NormalizeNewlines(cell(fields, cols.Source)),
			Language:   cell(fields, cols.Language),
			Translated: textutil.NormalizeNewlines(cell(fields, cols.Translated)),
			Line:       i + 2,
		}
		row.Normalized = textutil.Normalize(row.SourceText)

		if row.FrameKey == "" || row.Normalized == "" || row.Language == "" ||
			(opts.Mode == MatchByNode && row.NodeKey == "") {
			res.Skipped++
			log.Debug().Int("line", row.Line).Msg("Skipping incomplete row")
			continue
		}

		key := groupKey{language: row.Language, frame: row.FrameKey}
		g, ok := groups[key]
		if !ok {
			g = &Group{Language: row.Language, FrameKey: row.FrameKey}
			groups[key] = g
			seen[key] = make(map[string]int)
			res.Groups = append(res.Groups, g)
		}
		if !langs[row.Language] {
			langs[row.Language] = true
			res.Languages = append(res.Languages, row.Language)
		}

		id := row.Normalized
		if opts.Mode == MatchByNode {
			id = row.NodeKey
		}
		if pos, dup := seen[key][id]; dup {
			res.Merged++
			prev := g.Rows[pos]
			switch {
			case !prev.HasTranslation() && row.HasTranslation():
				g.Rows[pos] = row
			case prev.HasTranslation() && row.HasTranslation() && prev.Translated != row.Translated:
				res.Conflicts++
				log.Warn().
					Str("frame", row.FrameKey).
					Str("language", row.Language).
					Str("text", textutil.Truncate(row.Normalized, 40)).
					Int("kept_line", prev.Line).
					Int("dropped_line", row.Line).
					Msg("Conflicting translations for duplicate entry, keeping first")
			}
			continue
		}

		seen[key][id] = len(g.Rows)
		g.Rows = append(g.Rows, row)
		res.Retained++
	}

	return res
}

// cell returns the trimmed field at idx. Quote doubling was already undone
// by the scanner; a "" left here is content.
func cell(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}
