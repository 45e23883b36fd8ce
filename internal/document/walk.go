package document

// Walk visits root and its descendants depth-first in document order.
// Returning false from fn skips the children of the visited node.
func Walk(root *Node, fn func(n *Node) bool) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for _, c := range root.Children {
		Walk(c, fn)
	}
}

// Descendants returns every node below root in document order, excluding root.
func Descendants(root *Node) []*Node {
	var out []*Node
	if root == nil {
		return out
	}
	for _, c := range root.Children {
		Walk(c, func(n *Node) bool {
			out = append(out, n)
			return true
		})
	}
	return out
}

// TopLevel reports whether n sits directly under the document root.
func TopLevel(n *Node) bool {
	return n != nil && n.Parent != nil && n.Parent.Parent == nil
}

// LinkParents sets Parent pointers for the whole subtree under root.
func LinkParents(root *Node) {
	for _, c := range root.Children {
		c.Parent = root
		LinkParents(c)
	}
}
