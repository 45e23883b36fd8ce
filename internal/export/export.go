// Package export finds frames worth rasterizing and exports them through
// the document host one at a time.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"design-localizer/internal/document"
	"design-localizer/internal/locate"
	"design-localizer/internal/worker"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds a single rasterization.
const DefaultTimeout = 30 * time.Second

// ErrNothingToExport is returned when a selection resolves to no candidates.
var ErrNothingToExport = errors.New("no valid assets to export")

// Candidate is a container matched by a rule.
type Candidate struct {
	Node     *document.Node  `json:"-"`
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Format   document.Format `json:"format"`
	Scale    float64         `json:"scale"`
	Rule     string          `json:"rule"`
	Filename string          `json:"filename"`
}

// Asset is an exported candidate with its encoded bytes.
type Asset struct {
	Candidate
	Data []byte `json:"-"`
}

// Failure records a selected item that produced no asset.
type Failure struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// Result is the outcome of Export.
type Result struct {
	Assets  []Asset   `json:"assets"`
	Skipped []Failure `json:"skipped,omitempty"`
}

// Coordinator scans and exports through a document host.
type Coordinator struct {
	host    document.Host
	rules   []Rule
	timeout time.Duration
}

// NewCoordinator compiles rules (DefaultRules when empty) and returns a
// coordinator. timeout bounds each rasterization; zero waits indefinitely.
func NewCoordinator(host document.Host, rules []Rule, timeout time.Duration) (*Coordinator, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	compiled := make([]Rule, len(rules))
	for i := range rules {
		compiled[i] = rules[i]
		if err := compiled[i].Compile(); err != nil {
			return nil, err
		}
	}
	return &Coordinator{
		host:    host,
		rules:   compiled,
		timeout: timeout,
	}, nil
}

// match returns the first rule n satisfies.
func (c *Coordinator) match(n *document.Node) (*Rule, bool) {
	for i := range c.rules {
		if c.rules[i].Matches(n) {
			return &c.rules[i], true
		}
	}
	return nil, false
}

func candidate(n *document.Node, r *Rule, nm *namer) Candidate {
	return Candidate{
		Node:     n,
		ID:       n.ID,
		Name:     n.Name,
		Width:    n.Width,
		Height:   n.Height,
		Format:   r.Format,
		Scale:    r.Scale,
		Rule:     r.Name,
		Filename: nm.name(n.Name, r.Format),
	}
}

// Scan lists every visible container that matches a rule, in document order.
func (c *Coordinator) Scan(ctx context.Context) []Candidate {
	nodes := c.host.FindAll(func(n *document.Node) bool {
		return n.IsContainer() && locate.EffectivelyVisible(n)
	})

	nm := newNamer()
	var out []Candidate
	for _, n := range nodes {
		if ctx.Err() != nil {
			break
		}
		if r, ok := c.match(n); ok {
			out = append(out, candidate(n, r, nm))
		}
	}
	log.Info().Int("containers", len(nodes)).Int("candidates", len(out)).Msg("Scanned for exportable frames")
	return out
}

// Export rasterizes the selected containers in order. Unknown ids and
// containers matching no rule are skipped; a failed or timed out
// rasterization skips that asset and the batch continues.
func (c *Coordinator) Export(ctx context.Context, ids []string) (*Result, error) {
	res := &Result{}
	nm := newNamer()

	var cands []Candidate
	for _, id := range ids {
		n, ok := c.host.NodeByID(id)
		if !ok || !n.IsContainer() {
			res.Skipped = append(res.Skipped, Failure{ID: id, Reason: "not found"})
			continue
		}
		r, ok := c.match(n)
		if !ok {
			res.Skipped = append(res.Skipped, Failure{ID: id, Name: n.Name, Reason: "no export rule matches"})
			continue
		}
		cands = append(cands, candidate(n, r, nm))
	}
	if len(cands) == 0 {
		return res, ErrNothingToExport
	}

	nodes := make([]*document.Node, len(cands))
	for i, cd := range cands {
		nodes[i] = cd.Node
	}
	if err := c.host.SelectAndFocus(nodes); err != nil {
		log.Warn().Err(err).Msg("Failed to select export candidates")
	}

	seq := worker.NewSequence(c.timeout, func(ctx context.Context, cd Candidate) ([]byte, error) {
		return c.host.ExportRaster(ctx, cd.Node, document.ExportSettings{Format: cd.Format, Scale: cd.Scale})
	})
	for _, task := range seq.Execute(ctx, cands) {
		if task.Err != nil {
			res.Skipped = append(res.Skipped, Failure{ID: task.Input.ID, Name: task.Input.Name, Reason: task.Err.Error()})
			continue
		}
		res.Assets = append(res.Assets, Asset{Candidate: task.Input, Data: task.Result})
		log.Info().
			Str("file", task.Input.Filename).
			Int("bytes", len(task.Result)).
			Msg("Exported asset")
	}
	return res, nil
}

// Save writes assets into dir, creating it when needed.
func Save(dir string, assets []Asset) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, a := range assets {
		path := filepath.Join(dir, a.Filename)
		if err := os.WriteFile(path, a.Data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", a.Filename, err)
		}
	}
	return nil
}
