package confluence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchIdenticalTrees(t *testing.T) {
	oldTree, err := NewParser().Parse("<p>Hello</p>")
	require.NoError(t, err)
	newTree, err := NewParser().Parse("<p>Hello</p>")
	require.NoError(t, err)

	matches := NewMatcher(oldTree, newTree, nil).FindMatches()
	assert.Len(t, matches, 1)
}

func TestMatchDifferentText(t *testing.T) {
	oldTree, err := NewParser().Parse("<p>Hello World</p>")
	require.NoError(t, err)
	newTree, err := NewParser().Parse("<p>Completely different</p>")
	require.NoError(t, err)

	matches := NewMatcher(oldTree, newTree, nil).FindMatches()
	assert.Empty(t, matches)
}

func TestMatchIgnoresCommentMarkersInOld(t *testing.T) {
	oldHTML := `<p><ac:inline-comment-marker ac:ref="x">marked</ac:inline-comment-marker> text</p>`
	newHTML := "<p>marked text</p>"

	oldTree, err := NewParser().Parse(oldHTML)
	require.NoError(t, err)
	newTree, err := NewParser().Parse(newHTML)
	require.NoError(t, err)

	matches := NewMatcher(oldTree, newTree, nil).FindMatches()
	assert.Len(t, matches, 1)
}

func TestTextSimilarityIdentical(t *testing.T) {
	assert.Equal(t, 1.0, textSimilarity("hello", "hello"))
}

func TestTextSimilarityEmpty(t *testing.T) {
	assert.Equal(t, 0.0, textSimilarity("", "hello"))
	assert.Equal(t, 0.0, textSimilarity("hello", ""))
}

func TestTextSimilarityPartial(t *testing.T) {
	sim := textSimilarity("hello world", "hello there")
	assert.Greater(t, sim, 0.5)
	assert.Less(t, sim, 1.0)
}

func TestTextSimilaritySymmetric(t *testing.T) {
	assert.Equal(t, textSimilarity("hello world", "hello there"), textSimilarity("hello there", "hello world"))
	assert.Equal(t, textSimilarity("ab", "abcd"), textSimilarity("abcd", "ab"))
}

func TestTextSimilarityLengthRatioEarlyExit(t *testing.T) {
	// Below the 0.8 length ratio the score is the ratio itself, not an LCS
	// ratio; the matching decisions depend on this exact behavior.
	assert.InDelta(t, 0.5, textSimilarity("ab", "abcd"), 1e-9)
}
