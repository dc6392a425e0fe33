package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleExtractionAndToc_HTML(t *testing.T) {
	src := "# My Title\n\n## A\n\n## B\n"
	p := New(Config{Backend: HTML, ExtractTitle: true})
	res, err := p.Render(src)
	require.NoError(t, err)

	assert.Equal(t, "My Title", res.Title)
	assert.Contains(t, res.HTML, `<h1 id="my-title">My Title</h1>`)
	assert.Contains(t, res.HTML, `<h2 id="a">A</h2>`)
	assert.Contains(t, res.HTML, `<h2 id="b">B</h2>`)
	require.Len(t, res.Toc, 2)
	assert.Equal(t, TocEntry{Level: 2, Title: "A", ID: "a"}, res.Toc[0])
	assert.Equal(t, TocEntry{Level: 2, Title: "B", ID: "b"}, res.Toc[1])
}

func TestTitleExtractionAndToc_Confluence(t *testing.T) {
	src := "# My Title\n\n## A\n\n## B\n"
	p := New(Config{Backend: Confluence, ExtractTitle: true})
	res, err := p.Render(src)
	require.NoError(t, err)

	assert.Equal(t, "My Title", res.Title)
	assert.NotContains(t, res.HTML, "My Title")
	assert.Contains(t, res.HTML, "<h1>A</h1>")
	assert.Contains(t, res.HTML, "<h1>B</h1>")
}

func TestHeadingIDUniquing(t *testing.T) {
	src := "## Section\n\n## Section\n"
	p := New(Config{Backend: HTML})
	res, err := p.Render(src)
	require.NoError(t, err)

	assert.Contains(t, res.HTML, `id="section"`)
	assert.Contains(t, res.HTML, `id="section-2"`)
}

func TestTransformLink(t *testing.T) {
	assert.Equal(t, "/domains/billing/guide/page#frag",
		TransformLink("./page.md#frag", "domains/billing/guide"))
	assert.Equal(t, "/domains/billing/other",
		TransformLink("../other.md", "domains/billing/guide"))
	assert.Equal(t, "/etc/passwd",
		TransformLink("../../../etc/passwd.md", "a/b"))
}

func TestTransformLinkPassesThroughNonMarkdown(t *testing.T) {
	assert.Equal(t, "https://example.com/x.md", TransformLink("https://example.com/x.md", "a/b"))
	assert.Equal(t, "#frag", TransformLink("#frag", "a/b"))
	assert.Equal(t, "image.png", TransformLink("image.png", "a/b"))
	assert.Equal(t, "mailto:a@b.com", TransformLink("mailto:a@b.com", "a/b"))
}

func TestTransformLinkIsRetraction(t *testing.T) {
	cases := []struct{ dest, base string }{
		{"./page.md#frag", "domains/billing/guide"},
		{"../other.md", "domains/billing/guide"},
		{"../../../etc/passwd.md", "a/b"},
	}
	for _, c := range cases {
		once := TransformLink(c.dest, c.base)
		twice := TransformLink(once, c.base)
		assert.Equal(t, once, twice, "transform_link should be idempotent once applied")
	}
}

func TestGFMAlertBlock(t *testing.T) {
	src := "> [!WARNING]\n> Be careful.\n"
	p := New(Config{Backend: HTML})
	res, err := p.Render(src)
	require.NoError(t, err)

	assert.Contains(t, res.HTML, `alert-warning`)
	assert.Contains(t, res.HTML, "Be careful.")
	assert.NotContains(t, res.HTML, "[!WARNING]")
}

func TestTable(t *testing.T) {
	src := "| A | B |\n| :-- | --: |\n| 1 | 2 |\n"
	p := New(Config{Backend: HTML})
	res, err := p.Render(src)
	require.NoError(t, err)

	assert.Contains(t, res.HTML, "<table>")
	assert.Contains(t, res.HTML, "<th")
	assert.Contains(t, res.HTML, "text-align: left")
	assert.Contains(t, res.HTML, "text-align: right")
}

func TestTabsDirective(t *testing.T) {
	src := ":::tabs\n:::tab[Go]\n```go\nfmt.Println(1)\n```\n:::\n:::tab[Rust]\nHello Rust\n:::\n:::\n"
	p := New(Config{Backend: HTML})
	res, err := p.Render(src)
	require.NoError(t, err)

	assert.Contains(t, res.HTML, `role="tab"`)
	assert.Contains(t, res.HTML, "Go")
	assert.Contains(t, res.HTML, "Rust")
	assert.Contains(t, res.HTML, "Hello Rust")
	assert.NotContains(t, res.HTML, "DIRECTIVE")
}

func TestUnknownDirectivePassesThroughAsLiteralText(t *testing.T) {
	src := ":::callout[hi]{#x}\nbody\n:::\n"
	p := New(Config{Backend: HTML})
	res, err := p.Render(src)
	require.NoError(t, err)

	assert.Contains(t, res.HTML, ":::callout")
}

func TestWarningsOnStrayContainerClose(t *testing.T) {
	src := "some text\n:::\nmore text\n"
	p := New(Config{Backend: HTML})
	res, err := p.Render(src)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)
}

func TestDeterministicRendering(t *testing.T) {
	src := "# Title\n\nSome **bold** and _em_ text with a [link](./x.md).\n"
	p1 := New(Config{Backend: HTML, ExtractTitle: true, BasePath: "a/b"})
	p2 := New(Config{Backend: HTML, ExtractTitle: true, BasePath: "a/b"})
	r1, err1 := p1.Render(src)
	r2, err2 := p2.Render(src)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1.HTML, r2.HTML)
}
