package suggest

import (
	"context"
	"sort"
	"sync"

	"design-localizer/internal/document"
)

// Entry is an indexed frame.
type Entry struct {
	ID   string
	Name string
}

// Match is a search hit.
type Match struct {
	Entry
	Score float64
}

// MemoryIndex is an in-process index over the frames of one document.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []Entry
	vectors [][]float32
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add indexes entries, skipping unnamed ones.
func (m *MemoryIndex) Add(entries ...Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		m.entries = append(m.entries, e)
		m.vectors = append(m.vectors, Vectorize(e.Name))
	}
}

// Len returns the number of indexed entries.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Search returns the k entries most similar to vec, best first.
func (m *MemoryIndex) Search(_ context.Context, vec []float32, k int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.entries))
	for i, e := range m.entries {
		matches = append(matches, Match{Entry: e, Score: Cosine(vec, m.vectors[i])})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Containers lists the named top-level containers of a document as entries.
func Containers(host document.Host) []Entry {
	var out []Entry
	for _, n := range host.FindAll(func(n *document.Node) bool {
		return n.IsContainer() && document.TopLevel(n)
	}) {
		out = append(out, Entry{ID: n.ID, Name: n.Name})
	}
	return out
}
