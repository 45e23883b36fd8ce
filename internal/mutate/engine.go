// Package mutate rewrites the characters of text leaves, applying bold
// emphasis where the translation marks it.
package mutate

import (
	"context"
	"strings"

	"design-localizer/internal/cache"
	"design-localizer/internal/document"
	"design-localizer/internal/markup"

	"github.com/rs/zerolog/log"
)

// DefaultFallbackFamily is used for bold runs when the leaf's own family
// has no usable bold style.
const DefaultFallbackFamily = "Inter"

// Engine applies translated text to text leaves.
type Engine struct {
	host     document.Host
	fonts    *cache.FontCache
	fallback string
}

// NewEngine creates an engine. fonts must be scoped to a single run.
func NewEngine(host document.Host, fonts *cache.FontCache, fallbackFamily string) *Engine {
	if fallbackFamily == "" {
		fallbackFamily = DefaultFallbackFamily
	}
	return &Engine{
		host:     host,
		fonts:    fonts,
		fallback: fallbackFamily,
	}
}

// ApplyText replaces the content of leaf with text and reports whether the
// leaf was changed. Font failures are logged and the write is attempted
// anyway; a rejected write leaves the leaf untouched.
func (e *Engine) ApplyText(ctx context.Context, leaf *document.Node, text string) bool {
	if text == "" || !leaf.IsText() {
		return false
	}

	if err := e.fonts.LoadAll(ctx, leaf.Fonts); err != nil {
		log.Warn().Err(err).Str("leaf", leaf.ID).Msg("Writing text without all fonts loaded")
	}

	if !markup.HasBold(text) {
		if err := e.host.SetCharacters(leaf, text); err != nil {
			log.Error().Err(err).Str("leaf", leaf.ID).Msg("Failed to set characters")
			return false
		}
		return true
	}

	// Resolved before the write, which resets the leaf to its first font.
	bold, haveBold := e.boldFont(ctx, leaf)

	plain, spans := markup.Render(markup.Parse(text))
	if err := e.host.SetCharacters(leaf, plain); err != nil {
		log.Error().Err(err).Str("leaf", leaf.ID).Msg("Failed to set characters")
		return false
	}

	if !haveBold {
		log.Warn().Str("leaf", leaf.ID).Msg("No bold font available, emphasis dropped")
		return true
	}
	for _, s := range spans {
		if err := e.host.SetRangeFont(leaf, s.Start, s.End, bold); err != nil {
			log.Warn().Err(err).
				Str("leaf", leaf.ID).
				Int("start", s.Start).
				Int("end", s.End).
				Msg("Failed to apply bold range")
		}
	}
	return true
}

// boldFont resolves a loadable bold variant of the leaf's base font, or of
// the fallback family.
func (e *Engine) boldFont(ctx context.Context, leaf *document.Node) (document.FontName, bool) {
	var candidates []document.FontName
	if len(leaf.Fonts) > 0 {
		base := leaf.Fonts[0]
		candidates = append(candidates, document.FontName{Family: base.Family, Style: BoldStyle(base.Style)})
	}
	candidates = append(candidates, document.FontName{Family: e.fallback, Style: "Bold"})

	for _, f := range candidates {
		if err := e.fonts.Load(ctx, f); err == nil {
			return f, true
		}
	}
	return document.FontName{}, false
}

// BoldStyle derives the bold counterpart of a font style name.
func BoldStyle(style string) string {
	s := strings.TrimSpace(style)
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "bold"):
		return s
	case lower == "italic" || lower == "oblique":
		return "Bold " + s
	case strings.HasSuffix(lower, " italic"):
		return "Bold Italic"
	default:
		return "Bold"
	}
}
