// Package main regenerates the vendored Chroma stylesheet the frontend build
// bundles for syntax-highlighted code blocks. Run it whenever the highlight
// style changes:
//
//	go run ./tools/generate-chroma-css -style github-dark > web/vendor/chroma-github-dark.min.css
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

func main() {
	styleName := flag.String("style", "github-dark", "chroma style to emit CSS for")
	flag.Parse()

	style := styles.Get(*styleName)
	if style == nil {
		fmt.Fprintf(os.Stderr, "unknown chroma style %q; see https://xyproto.github.io/splash/docs/\n", *styleName)
		os.Exit(1)
	}

	formatter := html.New(
		html.WithClasses(true),
		html.ClassPrefix(""),
	)

	if err := formatter.WriteCSS(os.Stdout, style); err != nil {
		fmt.Fprintf(os.Stderr, "generate css: %v\n", err)
		os.Exit(1)
	}
}
