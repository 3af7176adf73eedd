// Package loader locates the root HTML part of an MHTML message and turns
// it into a correctly decoded DOM.
//
// Decoding is done at most twice: once with the charset from the MIME
// headers, and once more when the document itself declares a different
// charset in a meta tag.
package loader

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gaurav-prasanna/mht2html/core"
	"github.com/gaurav-prasanna/mht2html/core/archive"
)

// FallbackBaseURI is used when neither the root part nor the message
// declare a Content-Location.
const FallbackBaseURI = "http://localhost/"

// Result is a loaded document with its resolution context.
type Result struct {
	Document *goquery.Document
	BaseURI  *url.URL
	// Charset is the canonical name of the charset used for the final decode.
	Charset string
	// Reparsed is true when a meta tag forced a second decode.
	Reparsed bool
}

// Loader builds documents from decomposed messages.
type Loader struct {
	log *zerolog.Logger
}

// New creates a Loader. A nil logger discards output.
func New(log *zerolog.Logger) *Loader {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Loader{log: log}
}

// Load parses the root part of msg into a document.
func (l *Loader) Load(ctx context.Context, msg *archive.Message) (*Result, error) {
	if !msg.IsRelated() {
		l.log.Error().Str("type", msg.MediaType).Msg("Message is not in MHT format")
		return nil, core.ErrNotMHTML
	}
	root := msg.Root
	if root == nil || !strings.HasPrefix(root.MimeType, "text/") {
		l.log.Error().Msg("Root element is not a text part")
		return nil, fmt.Errorf("%w: %w", core.ErrNotMHTML, core.ErrRootNotText)
	}

	label := root.Charset
	if label == "" {
		label = msg.Params["charset"]
	}
	enc, used, ok := lookupEncoding(label)
	if label != "" && !ok {
		l.log.Warn().Str("charset", label).Msg("Unknown charset in MIME header, decoding as UTF-8")
	}

	doc, err := parse(ctx, decode(root.Body, enc))
	if err != nil {
		l.log.Error().Err(err).Msg("Cannot retrieve body")
		return nil, err
	}

	res := &Result{Document: doc, Charset: used}

	if declared := declaredCharset(doc); declared != "" {
		metaEnc, name, ok := lookupEncoding(declared)
		switch {
		case !ok:
			l.log.Warn().Str("charset", declared).Msg("Unknown charset in meta tag, keeping first decode")
		case name != used:
			l.log.Debug().Str("from", used).Str("to", name).Msg("Re-decoding body with declared charset")
			text := stripContentTypeMeta(decode(root.Body, metaEnc))
			doc, err = parse(ctx, text)
			if err != nil {
				l.log.Error().Err(err).Msg("Cannot retrieve body after charset correction")
				return nil, err
			}
			res.Document = doc
			res.Charset = name
			res.Reparsed = true
		}
	}

	setUTF8Meta(res.Document)
	res.BaseURI = baseURI(msg)
	return res, nil
}

func parse(ctx context.Context, text string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParseDocument, err)
	}
	return doc, nil
}

// setUTF8Meta drops every charset directive and inserts a single UTF-8
// content-type meta at the top of <head>.
func setUTF8Meta(doc *goquery.Document) {
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("charset"); ok || isContentTypeMeta(s) {
			s.Remove()
		}
	})

	meta := &html.Node{
		Type:     html.ElementNode,
		Data:     "meta",
		DataAtom: atom.Meta,
		Attr: []html.Attribute{
			{Key: "http-equiv", Val: "Content-Type"},
			{Key: "content", Val: "text/html; charset=utf-8"},
		},
	}
	doc.Find("head").First().PrependNodes(meta)
}

// baseURI picks the resolution context for relative references.
func baseURI(msg *archive.Message) *url.URL {
	if msg.Root != nil && usableBase(msg.Root.Location) {
		return msg.Root.Location
	}
	if usableBase(msg.Location) {
		return msg.Location
	}
	u, _ := url.Parse(FallbackBaseURI)
	return u
}

func usableBase(u *url.URL) bool {
	return u != nil && u.IsAbs() && !strings.EqualFold(u.Scheme, "cid")
}
