// Package confluence preserves Confluence inline comment markers across
// markdown re-renders by diffing the old and new page bodies as XHTML trees.
package confluence

import "strings"

const commentMarkerTag = "ac:inline-comment-marker"
const commentMarkerRefAttr = "ac:ref"

// TreeNode is one element of a parsed XHTML fragment, in the style of an
// ElementTree node: a tag, its attributes, the text immediately inside it
// before the first child, the "tail" text that follows its closing tag (and
// precedes the next sibling), and its children in document order.
type TreeNode struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Tail     string
	Children []*TreeNode
}

// NewTreeNode creates an empty node for tag.
func NewTreeNode(tag string) *TreeNode {
	return &TreeNode{Tag: tag, Attrs: map[string]string{}}
}

// WithText sets the node's direct text and returns it for chaining.
func (n *TreeNode) WithText(text string) *TreeNode {
	n.Text = text
	return n
}

// WithTail sets the node's tail text and returns it for chaining.
func (n *TreeNode) WithTail(tail string) *TreeNode {
	n.Tail = tail
	return n
}

// WithAttrs sets the node's attributes and returns it for chaining.
func (n *TreeNode) WithAttrs(attrs map[string]string) *TreeNode {
	n.Attrs = attrs
	return n
}

// IsCommentMarker reports whether n is an <ac:inline-comment-marker> element.
func (n *TreeNode) IsCommentMarker() bool {
	return n.Tag == commentMarkerTag
}

// MarkerRef returns the marker's ac:ref attribute, if present.
func (n *TreeNode) MarkerRef() (string, bool) {
	v, ok := n.Attrs[commentMarkerRefAttr]
	return v, ok
}

// CommentMarkers returns n's direct children that are comment markers.
// Markers nested deeper than one level are reached by recursing into
// whichever of those children is itself matched during tree matching.
func (n *TreeNode) CommentMarkers() []*TreeNode {
	var markers []*TreeNode
	for _, c := range n.Children {
		if c.IsCommentMarker() {
			markers = append(markers, c)
		}
	}
	return markers
}

// TextSignature returns the full rendered text of n's subtree: its own
// text, each child's signature (which already folds in that child's own
// tail), in document order. Two nodes with equal signatures render
// identical text regardless of markup differences underneath.
func (n *TreeNode) TextSignature() string {
	var b strings.Builder
	b.WriteString(n.Text)
	for _, c := range n.Children {
		b.WriteString(c.TextSignature())
	}
	b.WriteString(n.Tail)
	return b.String()
}

// Clone returns a shallow copy of n without its children, suitable for
// re-inserting a marker node at a new position in another tree.
func (n *TreeNode) Clone() *TreeNode {
	attrs := make(map[string]string, len(n.Attrs))
	for k, v := range n.Attrs {
		attrs[k] = v
	}
	return &TreeNode{Tag: n.Tag, Attrs: attrs, Text: n.Text, Tail: n.Tail}
}
