package render

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
)

const (
	mimeCSS  = "text/css"
	mimeHTML = "text/html"
)

// Minifier minifies style sheets and documents.
type Minifier struct {
	m *minify.M
}

// NewMinifier creates a Minifier. Document and end tags are kept so the
// minified page parses to the same tree.
func NewMinifier() *Minifier {
	return newMinifier(true)
}

// newMinifier leaves style text untouched when withCSS is false: the HTML
// minifier copies embedded content verbatim when no minifier is registered
// for its type.
func newMinifier(withCSS bool) *Minifier {
	m := minify.New()
	if withCSS {
		m.AddFunc(mimeCSS, css.Minify)
	}
	m.Add(mimeHTML, &minhtml.Minifier{
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepDefaultAttrVals: true,
	})
	return &Minifier{m: m}
}

// MinifyCSS minifies style sheet text.
func (m *Minifier) MinifyCSS(text string) (string, error) {
	return m.m.String(mimeCSS, text)
}

// MinifyHTML minifies a whole document.
func (m *Minifier) MinifyHTML(page []byte) ([]byte, error) {
	return m.m.Bytes(mimeHTML, page)
}
