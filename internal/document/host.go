package document

import "context"

// Format is a rasterization output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
)

// ExportSettings parameterizes a single rasterization request.
type ExportSettings struct {
	Format Format
	Scale  float64
}

// Host is the capability surface of the design tool's document model.
// The localizer never reaches into the document beyond these calls.
//
// Methods taking a context may suspend (font loading, duplication,
// rasterization); the rest complete synchronously.
type Host interface {
	// FindAll returns every node matching pred in document order.
	FindAll(pred func(*Node) bool) []*Node
	// NodeByID returns the node with the given host-assigned id.
	NodeByID(id string) (*Node, bool)
	// Clone deep-duplicates n next to it under the same parent.
	Clone(ctx context.Context, n *Node) (*Node, error)
	// Remove detaches n and its subtree from the document.
	Remove(n *Node) error
	Rename(n *Node, name string) error
	Move(n *Node, x, y float64) error
	// SetCharacters replaces the full character content of a text node.
	SetCharacters(n *Node, text string) error
	// LoadFont makes a font available for text mutation.
	LoadFont(ctx context.Context, font FontName) error
	// SetRangeFont applies font to characters [start, end) of a text node.
	SetRangeFont(n *Node, start, end int, font FontName) error
	// ExportRaster renders n and returns the encoded image bytes.
	ExportRaster(ctx context.Context, n *Node, settings ExportSettings) ([]byte, error)
	// SelectAndFocus selects nodes in the editor and scrolls them into view.
	SelectAndFocus(nodes []*Node) error
}
