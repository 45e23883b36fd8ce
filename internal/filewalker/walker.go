package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// SupportedExtensions lists spreadsheet exports the importer reads.
var SupportedExtensions = map[string]bool{
	".csv": true,
}

// FileEntry is a discovered input file.
type FileEntry struct {
	Path string
	// Rel is the path relative to the argument it was found under.
	Rel string
}

// Walk expands each argument into input files: files are taken as given,
// directories are searched recursively for supported extensions in
// lexical order. Hidden directories are skipped.
func Walk(args []string) ([]FileEntry, error) {
	var entries []FileEntry
	seen := make(map[string]bool)

	add := func(path, rel string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		entries = append(entries, FileEntry{Path: path, Rel: rel})
	}

	for _, root := range args {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat input: %w", err)
		}
		if !info.IsDir() {
			add(root, filepath.Base(root))
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Error walking path")
				return nil
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if SupportedExtensions[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk directory: %w", err)
		}

		sort.Strings(found)
		for _, path := range found {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			add(path, rel)
		}
	}

	log.Info().Int("count", len(entries)).Msg("Discovered input files")
	return entries, nil
}
