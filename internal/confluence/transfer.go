package confluence

import (
	"log/slog"
	"strings"
)

// UnmatchedComment is a comment marker from the old tree that could not be
// placed anywhere in the new tree.
type UnmatchedComment struct {
	RefID string
	Text  string
}

// Transfer moves comment markers from a matched old tree onto their
// counterparts in a new tree, falling back to a global text search for
// markers whose parent node didn't match anything.
type Transfer struct {
	logger            *slog.Logger
	unmatchedComments []UnmatchedComment
	transferredRefs   map[string]bool
}

// NewTransfer creates a Transfer tracker.
func NewTransfer(logger *slog.Logger) *Transfer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transfer{logger: logger, transferredRefs: map[string]bool{}}
}

// Run transfers markers from oldTree onto newTree using the match map
// produced by Matcher.FindMatches.
func (t *Transfer) Run(matches map[*TreeNode]*TreeNode, newTree, oldTree *TreeNode) {
	transferredCount := 0

	// Phase 1: transfer markers belonging to matched old nodes directly.
	for oldNode, newNode := range matches {
		markers := oldNode.CommentMarkers()
		if len(markers) == 0 {
			continue
		}

		t.logger.Debug("transferring markers", slog.Int("count", len(markers)), slog.String("tag", oldNode.Tag))

		for _, marker := range markers {
			refID, _ := marker.MarkerRef()
			if t.transferMarkerTo(newTree, newNode, marker) {
				t.transferredRefs[refID] = true
				transferredCount++
			}
		}
	}

	// Phase 2: markers whose parent wasn't matched get a global fallback.
	for _, marker := range findAllMarkers(oldTree) {
		refID, _ := marker.MarkerRef()
		if t.transferredRefs[refID] {
			continue
		}

		preview := previewText(marker.Text, 50)
		t.logger.Debug("parent node not matched for marker text", slog.String("text", preview))

		if t.tryGlobalInsert(newTree, marker) {
			t.logger.Info("fallback: inserted marker via global search", slog.String("text", previewText(marker.Text, 30)))
			t.transferredRefs[refID] = true
			transferredCount++
		} else {
			t.logger.Warn("could not place marker text", slog.String("text", preview))
			t.unmatchedComments = append(t.unmatchedComments, UnmatchedComment{RefID: refID, Text: marker.Text})
		}
	}

	t.logger.Info("transferred comment markers", slog.Int("count", transferredCount))
}

// UnmatchedComments returns the comments that couldn't be placed.
func (t *Transfer) UnmatchedComments() []UnmatchedComment {
	return t.unmatchedComments
}

func (t *Transfer) transferMarkerTo(newTree, target *TreeNode, marker *TreeNode) bool {
	markerText := strings.TrimSpace(marker.Text)
	if markerText == "" {
		t.logger.Warn("empty comment marker text, skipping")
		return false
	}

	if !findNode(newTree, target) {
		return false
	}
	return insertMarkerByText(target, marker.Clone(), markerText)
}

func (t *Transfer) tryGlobalInsert(tree *TreeNode, marker *TreeNode) bool {
	markerText := strings.TrimSpace(marker.Text)
	if markerText == "" {
		return false
	}
	return searchAndInsert(tree, marker.Clone(), markerText)
}

// findNode reports whether target is reachable from root by identity,
// confirming the new-tree pointer captured during matching still belongs
// to the tree we're about to mutate.
func findNode(root, target *TreeNode) bool {
	if root == target {
		return true
	}
	for _, c := range root.Children {
		if findNode(c, target) {
			return true
		}
	}
	return false
}

func findAllMarkers(node *TreeNode) []*TreeNode {
	var markers []*TreeNode
	var walk func(*TreeNode)
	walk = func(n *TreeNode) {
		if n.IsCommentMarker() {
			markers = append(markers, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(node)
	return markers
}

// splitAtMarker splits text at the first occurrence of markerText, or
// reports ok == false if it isn't present.
func splitAtMarker(text, markerText string) (before, after string, ok bool) {
	idx := strings.Index(text, markerText)
	if idx < 0 {
		return "", "", false
	}
	return text[:idx], text[idx+len(markerText):], true
}

// insertMarkerByText inserts marker at the position within node's subtree
// where markerText appears, searching node's own text, then each child's
// tail, then recursing into whichever child's content contains it.
func insertMarkerByText(node *TreeNode, marker *TreeNode, markerText string) bool {
	if before, after, ok := splitAtMarker(node.Text, markerText); ok {
		node.Text = before
		marker.Tail = after
		node.Children = append([]*TreeNode{marker}, node.Children...)
		return true
	}

	for i, child := range node.Children {
		if child.IsCommentMarker() {
			continue
		}

		if before, after, ok := splitAtMarker(child.Tail, markerText); ok {
			child.Tail = before
			marker.Tail = after
			node.Children = insertAt(node.Children, i+1, marker)
			return true
		}

		if strings.Contains(childContent(child), markerText) {
			return insertMarkerByText(child, marker, markerText)
		}
	}

	return false
}

// insertAt returns a copy of children with v inserted at index i.
func insertAt(children []*TreeNode, i int, v *TreeNode) []*TreeNode {
	out := make([]*TreeNode, 0, len(children)+1)
	out = append(out, children[:i]...)
	out = append(out, v)
	out = append(out, children[i:]...)
	return out
}

// childContent returns the full rendered text of a child node, excluding
// its own tail (which the caller checks separately).
func childContent(node *TreeNode) string {
	var b strings.Builder
	b.WriteString(node.Text)
	for _, c := range node.Children {
		b.WriteString(c.TextSignature())
	}
	return b.String()
}

// searchAndInsert walks the whole tree looking for markerText, inserting a
// clone of marker at the first place it's found.
func searchAndInsert(node *TreeNode, marker *TreeNode, markerText string) bool {
	if node.IsCommentMarker() {
		return false
	}

	if before, after, ok := splitAtMarker(node.Text, markerText); ok {
		node.Text = before
		marker.Tail = after
		node.Children = append([]*TreeNode{marker}, node.Children...)
		return true
	}

	for i, child := range node.Children {
		if child.IsCommentMarker() {
			continue
		}
		if before, after, ok := splitAtMarker(child.Tail, markerText); ok {
			child.Tail = before
			marker.Tail = after
			node.Children = insertAt(node.Children, i+1, marker)
			return true
		}
	}

	for _, child := range node.Children {
		if searchAndInsert(child, marker.Clone(), markerText) {
			return true
		}
	}

	return false
}

func previewText(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}
