package export

import (
	"fmt"
	"math"
	"regexp"

	"design-localizer/internal/document"
)

// DefaultTolerance is the pixel slack allowed when matching dimensions.
const DefaultTolerance = 2

// Rule decides whether a container is an export candidate and how it is
// rasterized. Shape constraints (Square, Width/Height) and NamePattern
// must all hold when set.
type Rule struct {
	Name        string          `yaml:"name"`
	Format      document.Format `yaml:"format"`
	Scale       float64         `yaml:"scale"`
	Square      bool            `yaml:"square,omitempty"`
	Width       float64         `yaml:"width,omitempty"`
	Height      float64         `yaml:"height,omitempty"`
	Tolerance   *float64        `yaml:"tolerance,omitempty"`
	NamePattern string          `yaml:"name_pattern,omitempty"`

	pattern *regexp.Regexp
}

// DefaultRules returns the built-in rules: square frames as PNG at 2x and
// 768x1344 story frames as JPEG at 1x.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "square", Format: document.FormatPNG, Scale: 2, Square: true},
		{Name: "story", Format: document.FormatJPEG, Scale: 1, Width: 768, Height: 1344},
	}
}

// Compile validates the rule and prepares its name pattern.
func (r *Rule) Compile() error {
	switch r.Format {
	case document.FormatPNG, document.FormatJPEG:
	case "jpeg":
		r.Format = document.FormatJPEG
	default:
		return fmt.Errorf("rule %q: unsupported format %q", r.Name, r.Format)
	}
	if r.Scale <= 0 {
		r.Scale = 1
	}
	if !r.Square && r.Width == 0 && r.Height == 0 && r.NamePattern == "" {
		return fmt.Errorf("rule %q: matches every frame, set a shape or name_pattern", r.Name)
	}
	if r.NamePattern != "" {
		re, err := regexp.Compile(r.NamePattern)
		if err != nil {
			return fmt.Errorf("rule %q: compile name_pattern: %w", r.Name, err)
		}
		r.pattern = re
	}
	return nil
}

func (r *Rule) tolerance() float64 {
	if r.Tolerance != nil {
		return *r.Tolerance
	}
	return DefaultTolerance
}

// Matches reports whether n satisfies every constraint of the rule.
func (r *Rule) Matches(n *document.Node) bool {
	tol := r.tolerance()
	w, h := math.Round(n.Width), math.Round(n.Height)
	if r.Square && math.Abs(w-h) > tol {
		return false
	}
	if r.Width > 0 && math.Abs(w-r.Width) > tol {
		return false
	}
	if r.Height > 0 && math.Abs(h-r.Height) > tol {
		return false
	}
	if r.pattern != nil && !r.pattern.MatchString(n.Name) {
		return false
	}
	return true
}
