// Package clone duplicates a container next to its original for one
// target language.
package clone

import (
	"context"
	"fmt"
	"strings"
	"time"

	"design-localizer/internal/document"
	"design-localizer/internal/worker"

	"github.com/rs/zerolog/log"
)

// DefaultMargin is the horizontal gap left between an original and its copies.
const DefaultMargin = 100

// Cloner creates per-language copies of containers.
type Cloner struct {
	host    document.Host
	margin  float64
	timeout time.Duration
}

// NewCloner creates a Cloner. timeout bounds the duplication request; zero
// waits indefinitely.
func NewCloner(host document.Host, margin float64, timeout time.Duration) *Cloner {
	return &Cloner{
		host:    host,
		margin:  margin,
		timeout: timeout,
	}
}

// Name returns the name a copy of a container named original gets for lang.
func Name(original, lang string) string {
	return original + " - " + lang
}

// CloneContainer duplicates original, names the copy "<name> - <lang>" and
// places it to the right of the original and of every earlier copy, at the
// original's y. The original is left as it was.
func (c *Cloner) CloneContainer(ctx context.Context, original *document.Node, lang string) (*document.Node, error) {
	// Computed before the copy exists so it is not counted as a sibling.
	x := c.nextX(original)

	dup, err := worker.BoundedSettle(ctx, c.timeout, func(ctx context.Context) (*document.Node, error) {
		return c.host.Clone(ctx, original)
	}, c.discard)
	if err != nil {
		return nil, fmt.Errorf("clone %q: %w", original.Name, err)
	}

	name := Name(original.Name, lang)
	if err := c.host.Rename(dup, name); err != nil {
		c.discard(dup)
		return nil, fmt.Errorf("rename clone of %q: %w", original.Name, err)
	}
	if err := c.host.Move(dup, x, original.Y); err != nil {
		c.discard(dup)
		return nil, fmt.Errorf("move %q: %w", name, err)
	}

	log.Info().
		Str("original", original.ID).
		Str("clone", dup.ID).
		Str("name", name).
		Float64("x", x).
		Msg("Created translated frame")
	return dup, nil
}

// discard removes a copy that will not be used.
func (c *Cloner) discard(dup *document.Node) {
	if dup == nil {
		return
	}
	if err := c.host.Remove(dup); err != nil {
		log.Error().Err(err).Str("clone", dup.ID).Msg("Failed to remove unused copy")
	}
}

func (c *Cloner) nextX(original *document.Node) float64 {
	right := original.Right()
	if original.Parent != nil {
		prefix := original.Name + " - "
		for _, sib := range original.Parent.Children {
			if sib != original && strings.HasPrefix(sib.Name, prefix) && sib.Right() > right {
				right = sib.Right()
			}
		}
	}
	return right + c.margin
}
