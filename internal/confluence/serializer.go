package confluence

import "strings"

// cdataTags are the Confluence storage-format elements whose body must be
// wrapped in a CDATA section rather than entity-escaped.
var cdataTags = map[string]bool{
	"ac:plain-text-body": true,
}

// voidTags are emitted as self-closing even when empty; all other empty
// elements still get an explicit closing tag.
var voidTags = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true,
	"ri:attachment": true, "ri:page": true, "ri:url": true, "ri:user": true,
}

// Serializer renders a TreeNode tree back to Confluence storage-format
// XHTML.
type Serializer struct{}

// NewSerializer creates a Serializer.
func NewSerializer() Serializer { return Serializer{} }

// Serialize renders root's children (root itself is the synthetic wrapper
// introduced by Parser.Parse and is not emitted).
func (Serializer) Serialize(root *TreeNode) string {
	var b strings.Builder
	for _, child := range root.Children {
		writeNode(&b, child)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n *TreeNode) {
	b.WriteByte('<')
	b.WriteString(n.Tag)
	for _, key := range sortedAttrKeys(n.Attrs) {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(n.Attrs[key]))
		b.WriteByte('"')
	}

	if n.Text == "" && len(n.Children) == 0 && voidTags[n.Tag] {
		b.WriteString("/>")
		b.WriteString(escapeText(n.Tail))
		return
	}

	b.WriteByte('>')
	if cdataTags[n.Tag] {
		b.WriteString("<![CDATA[")
		b.WriteString(n.Text)
		b.WriteString("]]>")
	} else {
		b.WriteString(escapeText(n.Text))
	}
	for _, child := range n.Children {
		writeNode(b, child)
	}
	b.WriteString("</")
	b.WriteString(n.Tag)
	b.WriteByte('>')
	b.WriteString(escapeText(n.Tail))
}

func sortedAttrKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	// Stable, deterministic output regardless of map iteration order.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
