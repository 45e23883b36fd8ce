package export

import (
	"fmt"
	"regexp"
	"strings"

	"design-localizer/internal/document"
)

const maxFilenameLen = 50

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_\-\s]`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

// SanitizeFilename reduces a frame name to a lowercase file stem of at
// most 50 characters from [a-z0-9_-].
func SanitizeFilename(name string) string {
	s := unsafeChars.ReplaceAllString(name, "")
	s = spaceRuns.ReplaceAllString(s, "_")
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	s = strings.ToLower(s)
	if s == "" {
		return "asset"
	}
	return s
}

// namer hands out unique file names within one scan or export.
type namer struct {
	used map[string]bool
}

func newNamer() *namer {
	return &namer{used: make(map[string]bool)}
}

func (nm *namer) name(frame string, format document.Format) string {
	stem := SanitizeFilename(frame)
	ext := "." + string(format)
	file := stem + ext
	for i := 2; nm.used[file]; i++ {
		file = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
	nm.used[file] = true
	return file
}
