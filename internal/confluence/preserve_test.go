package confluence

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreserveCommentsSimpleCase(t *testing.T) {
	oldHTML := `<p><ac:inline-comment-marker ac:ref="abc">marked</ac:inline-comment-marker> text</p>`
	newHTML := "<p>marked text</p>"

	result := PreserveComments(oldHTML, newHTML, nil)

	assert.Empty(t, result.UnmatchedComments)
	assert.Contains(t, result.HTML, "ac:inline-comment-marker")
	assert.Contains(t, result.HTML, `ac:ref="abc"`)
}

func TestPreserveCommentsMarkerInTail(t *testing.T) {
	oldHTML := `<li><code>x</code> <ac:inline-comment-marker ac:ref="id">marked</ac:inline-comment-marker>, rest</li>`
	newHTML := "<li><code>x</code> marked, rest</li>"

	result := PreserveComments(oldHTML, newHTML, nil)

	assert.Empty(t, result.UnmatchedComments)
	assert.Contains(t, result.HTML, "ac:inline-comment-marker")
}

func TestPreserveCommentsCyrillicText(t *testing.T) {
	oldHTML := `<li><code>gateway</code> <ac:inline-comment-marker ac:ref="xyz">проверяет тип</ac:inline-comment-marker>, активность</li>`
	newHTML := "<li><code>gateway</code> проверяет тип, активность</li>"

	result := PreserveComments(oldHTML, newHTML, nil)

	assert.Empty(t, result.UnmatchedComments)
	assert.Contains(t, result.HTML, "проверяет тип")
	assert.Contains(t, result.HTML, "ac:inline-comment-marker")
}

func TestPreserveCommentsMultipleMarkers(t *testing.T) {
	oldHTML := `<p><ac:inline-comment-marker ac:ref="a">first paragraph text</ac:inline-comment-marker></p><p><ac:inline-comment-marker ac:ref="b">second paragraph text</ac:inline-comment-marker></p>`
	newHTML := "<p>first paragraph text</p><p>second paragraph text</p>"

	result := PreserveComments(oldHTML, newHTML, nil)

	assert.Empty(t, result.UnmatchedComments)
	assert.Equal(t, 2, strings.Count(result.HTML, "<ac:inline-comment-marker"))
}

func TestPreserveCommentsUnmatchedWhenTextRemoved(t *testing.T) {
	oldHTML := `<p>Some text with <ac:inline-comment-marker ac:ref="abc">original word</ac:inline-comment-marker> in it</p>`
	newHTML := "<p>Some text with different word in it</p>"

	result := PreserveComments(oldHTML, newHTML, nil)

	require.Len(t, result.UnmatchedComments, 1)
	assert.Equal(t, "abc", result.UnmatchedComments[0].RefID)
	assert.Equal(t, "original word", result.UnmatchedComments[0].Text)
}

func TestPreserveCommentsUnmatchedWhenParentNotMatched(t *testing.T) {
	oldHTML := `<p><ac:inline-comment-marker ac:ref="xyz">Original sentence here</ac:inline-comment-marker></p>`
	newHTML := "<p>Completely different content</p>"

	result := PreserveComments(oldHTML, newHTML, nil)

	require.Len(t, result.UnmatchedComments, 1)
	assert.Equal(t, "xyz", result.UnmatchedComments[0].RefID)
	assert.Equal(t, "Original sentence here", result.UnmatchedComments[0].Text)
}

func TestPreserveCommentsFallbackGlobalSearch(t *testing.T) {
	oldHTML := `<table><tbody>
		<tr><td><code>old-text</code></td><td><code>changed-value</code></td></tr>
		<tr><td><code><ac:inline-comment-marker ac:ref="marker-id">keep-this</ac:inline-comment-marker></code></td><td><code>same</code></td></tr>
	</tbody></table>`

	newHTML := `<table><tbody>
		<tr><td><code>old-text</code></td><td><code>completely-different-value-here</code></td></tr>
		<tr><td><code>keep-this</code></td><td><code>same</code></td></tr>
	</tbody></table>`

	result := PreserveComments(oldHTML, newHTML, nil)

	assert.Empty(t, result.UnmatchedComments)
	assert.Contains(t, result.HTML, "inline-comment-marker")
	assert.Contains(t, result.HTML, `ac:ref="marker-id"`)
	assert.Contains(t, result.HTML, "keep-this")
}
