package suggest

import (
	"context"

	"design-localizer/internal/textutil"

	"github.com/rs/zerolog/log"
)

// DefaultMinScore is the similarity below which a frame is not worth naming.
const DefaultMinScore = 0.35

// Index is a nearest-neighbour search over frame name vectors.
type Index interface {
	Search(ctx context.Context, vec []float32, k int) ([]Match, error)
}

// Suggester turns an unresolved frame key into a short list of similar
// frame names.
type Suggester struct {
	index    Index
	limit    int
	minScore float64
}

// New creates a suggester returning at most limit names.
func New(index Index, limit int) *Suggester {
	if limit <= 0 {
		limit = 3
	}
	return &Suggester{
		index:    index,
		limit:    limit,
		minScore: DefaultMinScore,
	}
}

// Suggest returns frame names similar to key, best first. Lookup failures
// are logged and yield no suggestions.
func (s *Suggester) Suggest(ctx context.Context, key string) []string {
	matches, err := s.index.Search(ctx, Vectorize(key), s.limit)
	if err != nil {
		log.Warn().Err(err).Str("key", textutil.Truncate(key, 50)).Msg("Suggestion lookup failed")
		return nil
	}

	var names []string
	seen := make(map[string]bool)
	for _, m := range matches {
		if m.Score < s.minScore || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		names = append(names, m.Name)
	}
	return names
}
