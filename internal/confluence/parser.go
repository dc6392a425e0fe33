package confluence

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	acNamespaceURI = "http://www.atlassian.com/schema/confluence/4/ac/"
	riNamespaceURI = "http://www.atlassian.com/schema/confluence/4/ri/"
)

var namespacePrefixes = map[string]string{
	acNamespaceURI: "ac",
	riNamespaceURI: "ri",
}

// Parser parses Confluence storage-format XHTML fragments into TreeNode
// trees, resolving the ac:/ri: namespaces Confluence macros rely on.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() Parser { return Parser{} }

// Parse parses an XHTML fragment into a synthetic root TreeNode whose
// Children are the fragment's top-level elements.
//
// HTML-only named entities are resolved before parsing; the document is
// wrapped in a synthetic root element that declares the ac:/ri: namespaces
// so unprefixed fragments parse the same as full Confluence page bodies.
// Parsing is permissive about unclosed void elements (br, img, hr, ...)
// the way browsers and markdown renderers emit them.
func (Parser) Parse(fragment string) (*TreeNode, error) {
	decoded := convertHTMLEntities(fragment)
	wrapped := fmt.Sprintf(
		`<root xmlns:ac=%q xmlns:ri=%q>%s</root>`,
		acNamespaceURI, riNamespaceURI, decoded,
	)

	dec := xml.NewDecoder(strings.NewReader(wrapped))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	root := NewTreeNode("root")
	stack := []*TreeNode{root}
	wrapperSeen := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing confluence xhtml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// The synthetic wrapper is represented by root itself.
			if !wrapperSeen {
				wrapperSeen = true
				continue
			}
			node := NewTreeNode(qualifiedName(t.Name))
			for _, a := range t.Attr {
				key := qualifiedName(a.Name)
				if strings.HasPrefix(key, "xmlns") {
					continue
				}
				node.Attrs[key] = a.Value
			}
			stack = append(stack, node)

		case xml.EndElement:
			if len(stack) <= 1 {
				continue
			}
			finished := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, finished)

		case xml.CharData:
			appendText(stack[len(stack)-1], string(t))
		}
	}

	// Anything left unclosed (tolerated by AutoClose/malformed input) still
	// needs to be folded into its parent.
	for len(stack) > 1 {
		finished := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, finished)
	}

	return root, nil
}

func qualifiedName(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	if prefix, ok := namespacePrefixes[name.Space]; ok {
		return prefix + ":" + name.Local
	}
	return name.Local
}

// appendText appends text to node's direct text if it has no children yet,
// otherwise to the tail of its last child, matching how text interleaves
// with elements in document order.
func appendText(node *TreeNode, text string) {
	if n := len(node.Children); n > 0 {
		node.Children[n-1].Tail += text
		return
	}
	node.Text += text
}
