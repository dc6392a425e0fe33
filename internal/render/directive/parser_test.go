package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineDirective(t *testing.T) {
	d, start, end, ok := ParseLine("Press :kbd[Ctrl+C] to copy.")
	require.True(t, ok)
	assert.Equal(t, 6, start)
	assert.Equal(t, 18, end)
	assert.Equal(t, Inline, d.Kind)
	assert.Equal(t, "kbd", d.Name)
	assert.Equal(t, "Ctrl+C", d.Args.Content)
}

func TestInlineWithAttrs(t *testing.T) {
	d, _, _, ok := ParseLine(`:abbr[HTML]{title="HyperText Markup Language"}`)
	require.True(t, ok)
	assert.Equal(t, Inline, d.Kind)
	assert.Equal(t, "abbr", d.Name)
	assert.Equal(t, "HTML", d.Args.Content)
	v, _ := d.Args.Get("title")
	assert.Equal(t, "HyperText Markup Language", v)
}

func TestLeafDirective(t *testing.T) {
	d, _, _, ok := ParseLine("::youtube[dQw4w9WgXcQ]")
	require.True(t, ok)
	assert.Equal(t, Leaf, d.Kind)
	assert.Equal(t, "youtube", d.Name)
	assert.Equal(t, "dQw4w9WgXcQ", d.Args.Content)
}

func TestLeafWithAttrs(t *testing.T) {
	d, _, _, ok := ParseLine("::include[snippet.md]{#code .highlight}")
	require.True(t, ok)
	assert.Equal(t, Leaf, d.Kind)
	assert.Equal(t, "include", d.Name)
	assert.Equal(t, "snippet.md", d.Args.Content)
	assert.Equal(t, "code", d.Args.ID)
	assert.Equal(t, []string{"highlight"}, d.Args.Classes)
}

func TestContainerStart(t *testing.T) {
	d, ok := ParseContainerLine("::: note")
	require.True(t, ok)
	assert.Equal(t, "note", d.Name)
	assert.Equal(t, "", d.Args.Content)
	assert.Equal(t, 3, d.ColonCount)
}

func TestContainerWithContent(t *testing.T) {
	d, ok := ParseContainerLine(":::tab[macOS]")
	require.True(t, ok)
	assert.Equal(t, "tab", d.Name)
	assert.Equal(t, "macOS", d.Args.Content)
}

func TestContainerWithBrackets(t *testing.T) {
	d, ok := ParseContainerLine("::: details[Click to expand]")
	require.True(t, ok)
	assert.Equal(t, "details", d.Name)
	assert.Equal(t, "Click to expand", d.Args.Content)
}

func TestContainerEnd(t *testing.T) {
	d, ok := ParseContainerLine(":::")
	require.True(t, ok)
	assert.Equal(t, ContainerEnd, d.Kind)
	assert.Equal(t, 3, d.ColonCount)
}

func TestContainerEndWithMoreColons(t *testing.T) {
	d, ok := ParseContainerLine("::::")
	require.True(t, ok)
	assert.Equal(t, ContainerEnd, d.Kind)
	assert.Equal(t, 4, d.ColonCount)
}

func TestNotDirective(t *testing.T) {
	_, _, _, ok := ParseLine("regular text")
	assert.False(t, ok)
	_, _, _, ok = ParseLine("")
	assert.False(t, ok)
	_, ok = ParseContainerLine("not a directive")
	assert.False(t, ok)
}

func TestInvalidName(t *testing.T) {
	_, _, _, ok := ParseLine(":foo@bar[content]")
	assert.False(t, ok)
	_, _, _, ok = ParseLine(":[content]")
	assert.False(t, ok)
}

func TestParseBrackets(t *testing.T) {
	c, n := parseBrackets("[hello]")
	assert.Equal(t, "hello", c)
	assert.Equal(t, 7, n)

	c, n = parseBrackets("[hello] rest")
	assert.Equal(t, "hello", c)
	assert.Equal(t, 7, n)

	c, n = parseBrackets("[nested [brackets]]")
	assert.Equal(t, "nested [brackets]", c)
	assert.Equal(t, 19, n)

	c, n = parseBrackets("no brackets")
	assert.Equal(t, "", c)
	assert.Equal(t, 0, n)

	c, n = parseBrackets("[unclosed")
	assert.Equal(t, "", c)
	assert.Equal(t, 0, n)
}

func TestParseBraces(t *testing.T) {
	a, n := parseBraces("{#id}")
	assert.Equal(t, "#id", a)
	assert.Equal(t, 5, n)

	a, n = parseBraces("{.class} rest")
	assert.Equal(t, ".class", a)
	assert.Equal(t, 8, n)

	a, n = parseBraces("no braces")
	assert.Equal(t, "", a)
	assert.Equal(t, 0, n)

	a, n = parseBraces("{unclosed")
	assert.Equal(t, "", a)
	assert.Equal(t, 0, n)
}

func TestIsValidDirectiveName(t *testing.T) {
	assert.True(t, isValidName("kbd"))
	assert.True(t, isValidName("my-directive"))
	assert.True(t, isValidName("directive_name"))
	assert.True(t, isValidName("directive123"))
	assert.False(t, isValidName(""))
	assert.False(t, isValidName("foo@bar"))
	assert.False(t, isValidName("foo bar"))
}

func TestDirectiveAtStart(t *testing.T) {
	_, start, _, ok := ParseLine(":kbd[X]")
	require.True(t, ok)
	assert.Equal(t, 0, start)
}

func TestMultipleDirectivesFindsFirst(t *testing.T) {
	d, start, _, ok := ParseLine(":a[1] :b[2]")
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, Inline, d.Kind)
	assert.Equal(t, "a", d.Name)
	assert.Equal(t, "1", d.Args.Content)
}
