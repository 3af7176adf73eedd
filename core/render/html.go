// Package render serializes the finished document. HTML output is either
// minified or pretty-printed; Markdown output is available as an
// alternative renderer.
package render

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
)

// HTMLRenderer writes the document as UTF-8 HTML.
type HTMLRenderer struct {
	compress bool
	minifier *Minifier
}

// NewHTMLRenderer creates an HTMLRenderer. When compress is false the
// output is pretty-printed. compressCSS controls whether <style> text and
// style attributes are minified along with the markup.
func NewHTMLRenderer(compress, compressCSS bool) *HTMLRenderer {
	r := &HTMLRenderer{compress: compress}
	if compress {
		r.minifier = newMinifier(compressCSS)
	}
	return r
}

// Render serializes the whole document, doctype included.
func (r *HTMLRenderer) Render(doc *goquery.Document) ([]byte, error) {
	var buf bytes.Buffer
	for _, n := range doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("rendering document: %w", err)
		}
	}

	if r.compress {
		out, err := r.minifier.MinifyHTML(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("minifying document: %w", err)
		}
		return out, nil
	}
	return gohtml.FormatBytes(buf.Bytes()), nil
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}
