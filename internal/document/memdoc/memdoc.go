// Package memdoc is an in-memory document host backed by a JSON snapshot
// of a design file. It implements document.Host for the CLI and for tests.
package memdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"sync"
	"unicode/utf8"

	"design-localizer/internal/document"

	"github.com/rs/zerolog/log"
)

// maxRasterSide caps the pixel size of a rendered export.
const maxRasterSide = 16384

// Document is the on-disk shape of a design file snapshot.
type Document struct {
	Name string         `json:"name"`
	Root *document.Node `json:"root"`
}

// Load reads a document snapshot from a JSON file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Decode(data)
}

// Decode parses a document snapshot from JSON bytes.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("decode document: missing root node")
	}
	document.LinkParents(doc.Root)
	return &doc, nil
}

// Save writes the document snapshot as indented JSON.
func (d *Document) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Option configures a Host.
type Option func(*Host)

// WithAvailableFonts restricts LoadFont to the given fonts.
// Without it every font loads.
func WithAvailableFonts(fonts ...document.FontName) Option {
	return func(h *Host) {
		h.available = make(map[document.FontName]bool, len(fonts))
		for _, f := range fonts {
			h.available[f] = true
		}
	}
}

// WithStrictFonts makes SetCharacters and SetRangeFont fail unless
// every font involved was loaded first.
func WithStrictFonts() Option {
	return func(h *Host) { h.strict = true }
}

// Host serves document.Host over an in-memory Document.
type Host struct {
	mu        sync.Mutex
	doc       *Document
	index     map[string]*document.Node
	nextID    int
	available map[document.FontName]bool
	loaded    map[document.FontName]bool
	strict    bool
	selection []string
}

// New wraps doc in a Host.
func New(doc *Document, opts ...Option) *Host {
	h := &Host{
		doc:    doc,
		index:  make(map[string]*document.Node),
		loaded: make(map[document.FontName]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	document.Walk(doc.Root, func(n *document.Node) bool {
		h.index[n.ID] = n
		return true
	})
	return h
}

// Document returns the wrapped document.
func (h *Host) Document() *Document { return h.doc }

// Selection returns the ids of the last SelectAndFocus call.
func (h *Host) Selection() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.selection...)
}

// FindAll walks the document below the root. pred must not call back into the host.
func (h *Host) FindAll(pred func(*document.Node) bool) []*document.Node {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*document.Node
	for _, n := range document.Descendants(h.doc.Root) {
		if pred(n) {
			out = append(out, n)
		}
	}
	return out
}

func (h *Host) NodeByID(id string) (*document.Node, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.index[id]
	return n, ok
}

// Clone deep-copies n with fresh ids and inserts the copy right after n.
func (h *Host) Clone(ctx context.Context, n *document.Node) (*document.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.index[n.ID]; !ok {
		return nil, fmt.Errorf("clone %s: node not in document", n.ID)
	}
	parent := n.Parent
	if parent == nil {
		return nil, fmt.Errorf("clone %s: cannot clone the document root", n.ID)
	}

	dup := h.copyTree(n)
	dup.Parent = parent

	pos := len(parent.Children)
	for i, c := range parent.Children {
		if c == n {
			pos = i + 1
			break
		}
	}
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[pos+1:], parent.Children[pos:])
	parent.Children[pos] = dup

	log.Debug().Str("original", n.ID).Str("clone", dup.ID).Msg("Cloned node")
	return dup, nil
}

func (h *Host) copyTree(n *document.Node) *document.Node {
	dup := *n
	dup.ID = h.freshID()
	dup.Fonts = append([]document.FontName(nil), n.Fonts...)
	dup.Fills = append([]document.Paint(nil), n.Fills...)
	dup.Strokes = append([]document.Paint(nil), n.Strokes...)
	dup.Ranges = append([]document.FontRange(nil), n.Ranges...)
	dup.Children = nil
	h.index[dup.ID] = &dup
	for _, c := range n.Children {
		cc := h.copyTree(c)
		cc.Parent = &dup
		dup.Children = append(dup.Children, cc)
	}
	return &dup
}

func (h *Host) freshID() string {
	for {
		h.nextID++
		id := fmt.Sprintf("clone:%d", h.nextID)
		if _, taken := h.index[id]; !taken {
			return id
		}
	}
}

// Remove detaches n from its parent and forgets its subtree.
func (h *Host) Remove(n *document.Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.index[n.ID]; !ok {
		return fmt.Errorf("remove %s: node not in document", n.ID)
	}
	parent := n.Parent
	if parent == nil {
		return fmt.Errorf("remove %s: cannot remove the document root", n.ID)
	}
	for i, c := range parent.Children {
		if c == n {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			break
		}
	}
	n.Parent = nil
	document.Walk(n, func(d *document.Node) bool {
		delete(h.index, d.ID)
		return true
	})

	log.Debug().Str("node", n.ID).Msg("Removed node")
	return nil
}

func (h *Host) Rename(n *document.Node, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n.Name = name
	return nil
}

func (h *Host) Move(n *document.Node, x, y float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	n.X, n.Y = x, y
	return nil
}

// SetCharacters replaces the text; the whole content takes the first font,
// as design tools do when characters are rewritten.
func (h *Host) SetCharacters(n *document.Node, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !n.IsText() {
		return fmt.Errorf("set characters on %s: not a text node", n.ID)
	}
	if h.strict {
		for _, f := range n.Fonts {
			if !h.loaded[f] {
				return fmt.Errorf("set characters on %s: font %q not loaded", n.ID, f.String())
			}
		}
	}
	n.Characters = text
	if len(n.Fonts) > 1 {
		n.Fonts = n.Fonts[:1]
	}
	n.Ranges = nil
	return nil
}

func (h *Host) LoadFont(ctx context.Context, font document.FontName) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.available != nil && !h.available[font] {
		return fmt.Errorf("load font %q: unavailable", font.String())
	}
	h.loaded[font] = true
	return nil
}

func (h *Host) SetRangeFont(n *document.Node, start, end int, font document.FontName) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !n.IsText() {
		return fmt.Errorf("set range font on %s: not a text node", n.ID)
	}
	if start < 0 || end > utf8.RuneCountInString(n.Characters) || start >= end {
		return fmt.Errorf("set range font on %s: range [%d,%d) out of bounds", n.ID, start, end)
	}
	if h.strict && !h.loaded[font] {
		return fmt.Errorf("set range font on %s: font %q not loaded", n.ID, font.String())
	}

	n.Ranges = append(n.Ranges, document.FontRange{Start: start, End: end, Font: font})
	for _, f := range n.Fonts {
		if f == font {
			return nil
		}
	}
	n.Fonts = append(n.Fonts, font)
	return nil
}

// ExportRaster renders a flat placeholder of the node's size; the snapshot
// carries no vector data to draw.
func (h *Host) ExportRaster(ctx context.Context, n *document.Node, settings document.ExportSettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scale := settings.Scale
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Round(n.Width * scale))
	ht := int(math.Round(n.Height * scale))
	if w <= 0 || ht <= 0 || w > maxRasterSide || ht > maxRasterSide {
		return nil, fmt.Errorf("export %s: invalid raster size %dx%d", n.ID, w, ht)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, ht))
	fill := color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	var buf bytes.Buffer
	switch settings.Format {
	case document.FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func (h *Host) SelectAndFocus(nodes []*document.Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.selection = h.selection[:0]
	for _, n := range nodes {
		h.selection = append(h.selection, n.ID)
	}
	return nil
}
