package document

import "encoding/json"

// Kind tags a node as one of the closed set of shapes the localizer cares about.
type Kind string

const (
	// KindContainer nodes hold children (frames, groups, components).
	KindContainer Kind = "container"
	// KindText nodes hold directly editable character content.
	KindText Kind = "text"
	// KindOther covers every other visual leaf (vectors, images, shapes).
	KindOther Kind = "other"
)

// FontName identifies a font by family and style, e.g. {"Inter", "Bold"}.
type FontName struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

func (f FontName) String() string {
	return f.Family + " " + f.Style
}

// FontRange is a font applied to runes [Start, End) of a text node.
type FontRange struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Font  FontName `json:"font"`
}

// Paint is a single fill or stroke layer.
type Paint struct {
	Type    string  `json:"type"`
	Visible bool    `json:"visible"`
	Opacity float64 `json:"opacity"`
}

// Node is a node of the host document tree. The host owns every Node;
// callers read fields freely but mutate only through Host methods.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Kind     Kind    `json:"kind"`
	Visible  bool    `json:"visible"`
	Locked   bool    `json:"locked,omitempty"`
	Opacity  float64 `json:"opacity"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Children []*Node `json:"children,omitempty"`

	// Text nodes only.
	Characters string     `json:"characters,omitempty"`
	Fonts      []FontName `json:"fonts,omitempty"`
	Fills      []Paint    `json:"fills,omitempty"`
	Strokes    []Paint    `json:"strokes,omitempty"`
	// Ranges records fonts applied to sub-ranges of Characters.
	Ranges []FontRange `json:"ranges,omitempty"`

	Parent *Node `json:"-"`
}

// UnmarshalJSON decodes a paint; a missing visible or opacity key means a
// fully visible layer.
func (p *Paint) UnmarshalJSON(data []byte) error {
	type plain Paint
	v := plain{Visible: true, Opacity: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Paint(v)
	return nil
}

// UnmarshalJSON decodes a node; a missing visible or opacity key means a
// fully visible node.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	v := plain{Visible: true, Opacity: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Node(v)
	return nil
}

// IsContainer reports whether n can hold children.
func (n *Node) IsContainer() bool { return n != nil && n.Kind == KindContainer }

// IsText reports whether n holds editable characters.
func (n *Node) IsText() bool { return n != nil && n.Kind == KindText }

// Right returns the x coordinate of the node's right edge.
func (n *Node) Right() float64 { return n.X + n.Width }
