// Package docs renders the embedded usage page.
package docs

import (
	_ "embed"
	"fmt"

	"github.com/gomarkdown/markdown"
	mhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

//go:embed usage.md
var usage []byte

const pageTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s
</body>
</html>
`

// Markdown returns the raw usage document.
func Markdown() []byte {
	return usage
}

// ToHTML converts markdown into an HTML fragment.
func ToHTML(md []byte) []byte {
	// create markdown parser with extensions
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(md)

	// create HTML renderer with extensions
	htmlFlags := mhtml.CommonFlags | mhtml.HrefTargetBlank
	renderer := mhtml.NewRenderer(mhtml.RendererOptions{Flags: htmlFlags})
	return markdown.Render(doc, renderer)
}

// Page renders the usage document as a standalone HTML page.
func Page(title string) []byte {
	return []byte(fmt.Sprintf(pageTemplate, title, ToHTML(usage)))
}
