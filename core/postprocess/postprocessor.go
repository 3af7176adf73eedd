// Package postprocess rewrites a loaded document into a standalone page:
// resources are inlined as data URIs, external style sheets are replaced by
// <style> blocks and scripts are removed.
package postprocess

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/mht2html/core"
	"github.com/gaurav-prasanna/mht2html/core/archive"
	"github.com/gaurav-prasanna/mht2html/core/imaging"
	"github.com/gaurav-prasanna/mht2html/core/resolve"
)

// removeSelectors are dropped from the page.
var removeSelectors = []string{
	"script",
	"link[rel='preload']",
}

// CSSMinifier minifies style sheet text.
type CSSMinifier interface {
	MinifyCSS(css string) (string, error)
}

// Stats counts what a run changed.
type Stats struct {
	StylesRewritten  int
	ImagesEmbedded   int
	ImagesCompressed int
	SheetsInlined    int
	SheetsMissing    int
	ElementsRemoved  int
}

// Postprocessor rewrites one document in place.
type Postprocessor struct {
	opts       core.Options
	doc        *goquery.Document
	store      *archive.Store
	resolver   *resolve.Resolver
	compressor *imaging.Compressor
	minifier   CSSMinifier
	log        *zerolog.Logger
	stats      Stats
}

// New creates a Postprocessor for doc. minifier may be nil when CSS
// compression is off.
func New(
	opts core.Options,
	doc *goquery.Document,
	resolver *resolve.Resolver,
	store *archive.Store,
	minifier CSSMinifier,
	log *zerolog.Logger,
) *Postprocessor {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Postprocessor{
		opts:       opts,
		doc:        doc,
		store:      store,
		resolver:   resolver,
		compressor: imaging.New(opts, log),
		minifier:   minifier,
		log:        log,
	}
}

// Run applies the passes in order and returns the document.
//
// Inline styles are expanded before external sheets are inlined, so the new
// <style> blocks are only rewritten once, against their own location.
func (p *Postprocessor) Run() (*goquery.Document, Stats) {
	p.expandURLsInStyles()
	p.embedImages()
	p.embedExternalStyles()
	p.removeScripts()
	return p.doc, p.stats
}

func (p *Postprocessor) expandURLsInStyles() {
	p.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		css := s.Text()
		rewritten := p.resolver.RewriteCSS(css, nil)
		if rewritten == css {
			return
		}
		setText(s, rewritten)
		p.stats.StylesRewritten++
	})
}

func (p *Postprocessor) embedImages() {
	p.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if strings.TrimSpace(src) == "" {
			return
		}

		chunk, _, ok := p.resolver.Lookup(src)
		if !ok || !chunk.IsImage() {
			return
		}

		dataURI := chunk.DataURI()
		if p.opts.CompressImages {
			var plan imaging.Plan
			dataURI, plan = p.compressor.Compress(chunk)
			if plan != imaging.PlanVerbatim {
				p.stats.ImagesCompressed++
			}
		}
		s.SetAttr("src", dataURI)
		p.stats.ImagesEmbedded++
	})
}

func (p *Postprocessor) embedExternalStyles() {
	p.doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		chunk, ok := p.store.LookupString(href)
		if !ok {
			p.log.Warn().Str("href", href).Msg("Cannot find mime part for style sheet")
			p.stats.SheetsMissing++
			return
		}

		css := strings.TrimSpace(chunk.Text())
		css = p.resolver.RewriteCSS(css, chunk.Location)
		if p.opts.CompressCSS && p.minifier != nil {
			if minified, err := p.minifier.MinifyCSS(css); err != nil {
				p.log.Warn().Err(err).Str("href", href).Msg("Cannot minify style sheet; keeping original")
			} else {
				css = minified
			}
		}

		style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
		if media, ok := s.Attr("media"); ok && media != "" {
			style.Attr = append(style.Attr, html.Attribute{Key: "media", Val: media})
		}
		style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
		s.ReplaceWithNodes(style)
		p.stats.SheetsInlined++
	})
}

func (p *Postprocessor) removeScripts() {
	for _, sel := range removeSelectors {
		found := p.doc.Find(sel)
		p.stats.ElementsRemoved += found.Length()
		found.Remove()
	}
}

// setText replaces the children of every node in s with a single text node.
func setText(s *goquery.Selection, text string) {
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = n.FirstChild {
			n.RemoveChild(c)
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}
