package render

import (
	"fmt"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// MarkdownRenderer converts the standalone page to Markdown. Inlined images
// stay inlined as data URIs in the image links.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render converts the document into Markdown bytes.
func (r *MarkdownRenderer) Render(doc *goquery.Document) ([]byte, error) {
	page, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}
	markdown, err := htmltomarkdown.ConvertString(page)
	if err != nil {
		return nil, fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return []byte(markdown), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
