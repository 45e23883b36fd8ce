// Package template writes a translation spreadsheet pre-filled with the
// visible text of a document, ready to be filled in and imported back.
package template

import (
	"encoding/csv"
	"fmt"
	"io"

	"design-localizer/internal/document"
	"design-localizer/internal/locate"
)

// Header is the column layout of a generated template.
var Header = []string{"frame_name", "node_id", "source_text", "target_language", "translated_text"}

// Options configures Write.
type Options struct {
	// Languages adds one row per language for every leaf; none leaves the
	// language column blank.
	Languages []string
	// ByID puts frame ids instead of frame names in the frame column.
	ByID bool
}

// Write emits one row per visible text leaf of every visible top-level
// container and returns the number of data rows written.
func Write(w io.Writer, host document.Host, opts Options) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, fmt.Errorf("write template header: %w", err)
	}

	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{""}
	}

	frames := host.FindAll(func(n *document.Node) bool {
		return n.IsContainer() && document.TopLevel(n) && locate.EffectivelyVisible(n)
	})

	count := 0
	for _, f := range frames {
		key := f.Name
		if opts.ByID {
			key = f.ID
		}
		for _, leaf := range locate.VisibleTextLeaves(f) {
			if leaf.Characters == "" {
				continue
			}
			for _, lang := range langs {
				if err := cw.Write([]string{key, leaf.ID, leaf.Characters, lang, ""}); err != nil {
					return count, fmt.Errorf("write template row: %w", err)
				}
				count++
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return count, fmt.Errorf("flush template: %w", err)
	}
	return count, nil
}
