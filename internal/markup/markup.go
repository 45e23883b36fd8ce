package markup

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// boldPattern matches a single level of **emphasis**. The body must be
// non-empty and may span lines.
var boldPattern = regexp.MustCompile(`(?s)\*\*(.+?)\*\*`)

// Run is a span of plain text, optionally bold.
type Run struct {
	Text string
	Bold bool
}

// Span locates a bold run inside the rendered plain text, in runes.
type Span struct {
	Start int
	End   int
}

// HasBold reports whether text contains at least one **bold** pair.
func HasBold(text string) bool {
	return boldPattern.MatchString(text)
}

// Parse splits text into plain and bold runs. Unpaired markers stay literal.
func Parse(text string) []Run {
	locs := boldPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []Run{{Text: text}}
	}

	var runs []Run
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			runs = append(runs, Run{Text: text[last:loc[0]]})
		}
		runs = append(runs, Run{Text: text[loc[2]:loc[3]], Bold: true})
		last = loc[1]
	}
	if last < len(text) {
		runs = append(runs, Run{Text: text[last:]})
	}
	return runs
}

// Render concatenates runs into plain text and returns the rune spans of
// the bold runs within it.
func Render(runs []Run) (string, []Span) {
	var sb strings.Builder
	var spans []Span
	offset := 0
	for _, r := range runs {
		n := utf8.RuneCountInString(r.Text)
		if r.Bold && n > 0 {
			spans = append(spans, Span{Start: offset, End: offset + n})
		}
		sb.WriteString(r.Text)
		offset += n
	}
	return sb.String(), spans
}

// Strip removes bold markers, returning plain text.
func Strip(text string) string {
	plain, _ := Render(Parse(text))
	return plain
}
