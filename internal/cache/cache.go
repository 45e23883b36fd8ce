package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"design-localizer/internal/document"
	"design-localizer/internal/worker"

	"github.com/rs/zerolog/log"
)

// FontLoader is the slice of the document host the cache needs.
type FontLoader interface {
	LoadFont(ctx context.Context, font document.FontName) error
}

// FontCache remembers the outcome of every font load for the duration of a
// run, so each distinct font is requested from the host at most once.
// Failures are remembered too; nothing is retried.
type FontCache struct {
	loader  FontLoader
	timeout time.Duration
	mu      sync.RWMutex
	results map[document.FontName]error
}

// NewFontCache creates a cache in front of loader. timeout bounds each
// host request; zero waits indefinitely.
func NewFontCache(loader FontLoader, timeout time.Duration) *FontCache {
	return &FontCache{
		loader:  loader,
		timeout: timeout,
		results: make(map[document.FontName]error),
	}
}

// Load makes font available, returning the cached outcome when the font
// was requested before.
func (c *FontCache) Load(ctx context.Context, font document.FontName) error {
	c.mu.RLock()
	err, ok := c.results[font]
	c.mu.RUnlock()
	if ok {
		return err
	}

	_, err = worker.Bounded(ctx, c.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.loader.LoadFont(ctx, font)
	})
	if err != nil {
		err = fmt.Errorf("load font %s: %w", font, err)
		log.Warn().Err(err).Msg("Font unavailable")
	}

	// A cancelled run says nothing about the font itself.
	if ctx.Err() == nil {
		c.mu.Lock()
		c.results[font] = err
		c.mu.Unlock()
	}
	return err
}

// LoadAll loads every font and returns the first failure, continuing past
// failures so that all fonts in use are attempted.
func (c *FontCache) LoadAll(ctx context.Context, fonts []document.FontName) error {
	var first error
	for _, f := range fonts {
		if err := c.Load(ctx, f); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Loaded reports the number of fonts successfully loaded so far.
func (c *FontCache) Loaded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, err := range c.results {
		if err == nil {
			n++
		}
	}
	return n
}
