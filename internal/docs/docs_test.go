package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTML(t *testing.T) {
	html := string(ToHTML([]byte("# Title\n\nsome `code`\n")))
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "Title</h1>")
	assert.Contains(t, html, "<code>code</code>")
}

func TestPage(t *testing.T) {
	page := string(Page("Knee API"))
	assert.Contains(t, page, "<title>Knee API</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "4_Severe")
	assert.Contains(t, page, "/predict")
}

func TestMarkdown(t *testing.T) {
	assert.NotEmpty(t, Markdown())
}
