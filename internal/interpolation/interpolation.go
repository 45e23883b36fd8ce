// Package interpolation detects runtime placeholders in design copy, such
// as {name} or %d, so a translation that drops one can be flagged.
package interpolation

import (
	"regexp"
	"sort"
)

// patterns to detect placeholders in UI strings.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{[a-zA-Z_][a-zA-Z0-9_]*\}`),         // ${value}
	regexp.MustCompile(`\{\{\s*[a-zA-Z_][a-zA-Z0-9_.]*\s*\}\}`), // {{ name }}
	regexp.MustCompile(`\{[a-zA-Z0-9_]+\}`),                     // {0}, {name}
	regexp.MustCompile(`%[-+0-9]*\.?[0-9]*[dsfieEgGxXoubcpq]`),  // %d, %s, %2d
}

type span struct {
	start, end int
	value      string
}

// Extract returns the placeholders in text in order of appearance.
// Overlapping matches keep the earliest, longest one.
func Extract(text string) []string {
	var all []span
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			all = append(all, span{start: loc[0], end: loc[1], value: text[loc[0]:loc[1]]})
		}
	}
	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end-all[i].start > all[j].end-all[j].start
	})

	var out []string
	lastEnd := -1
	for _, s := range all {
		if s.start >= lastEnd {
			out = append(out, s.value)
			lastEnd = s.end
		}
	}
	return out
}

// Missing lists placeholders of source that occur fewer times in
// translated, once per missing occurrence.
func Missing(source, translated string) []string {
	want := Extract(source)
	if len(want) == 0 {
		return nil
	}
	have := make(map[string]int)
	for _, p := range Extract(translated) {
		have[p]++
	}

	var missing []string
	for _, p := range want {
		if have[p] > 0 {
			have[p]--
			continue
		}
		missing = append(missing, p)
	}
	return missing
}
