package resolve

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/mht2html/core/archive"
)

// Resolver resolves references against the document base and the chunk
// store of one conversion.
type Resolver struct {
	store *archive.Store
	base  *url.URL
	log   *zerolog.Logger
}

// New creates a Resolver. base is the document base URI.
func New(store *archive.Store, base *url.URL, log *zerolog.Logger) *Resolver {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Resolver{store: store, base: base, log: log}
}

// Resolve makes ref absolute against base, or against the document base
// when base is nil.
func (r *Resolver) Resolve(ref string, base *url.URL) (*url.URL, error) {
	if base == nil {
		base = r.base
	}
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(u), nil
}

// Lookup resolves ref against the document base and finds its chunk.
func (r *Resolver) Lookup(ref string) (*archive.Chunk, *url.URL, bool) {
	u, err := r.Resolve(ref, nil)
	if err != nil {
		return nil, nil, false
	}
	c, ok := r.store.Lookup(u)
	return c, u, ok
}

// RewriteCSS rewrites every url() in css. Relative references resolve
// against base, which is the style sheet's own location for external
// style sheets and the document base for inline ones.
func (r *Resolver) RewriteCSS(css string, base *url.URL) string {
	return RewriteURLs(css, func(token, value string) string {
		return r.RewriteURL(token, value, base)
	})
}

// RewriteURL applies the rewrite rule to one url() token.
func (r *Resolver) RewriteURL(token, value string, base *url.URL) string {
	// Content-id bases carry no resolution context.
	if base == nil || hasScheme(base, "cid") {
		base = r.base
	}
	if value == "" || hasPrefixFold(value, "data:") {
		return token
	}

	u, err := r.Resolve(value, base)
	if err != nil {
		r.log.Debug().Err(err).Str("url", value).Msg("Skipping unparseable url")
		return token
	}

	if chunk, ok := r.store.Lookup(u); ok {
		r.log.Debug().Str("url", u.String()).Msg("Replacing")
		return "url('" + chunk.DataURI() + "')"
	}

	switch {
	case hasScheme(u, "data"):
		return token
	case hasScheme(u, "http"), hasScheme(u, "https"):
		return "url('" + u.String() + "')"
	case hasScheme(u, "cid"):
		path := pathAndQuery(u)
		ev := r.log.Debug().Str("base", base.String()).Str("url", value).Str("path", path)
		if ref, err := url.Parse(path); err == nil {
			ev = ev.Str("resolved", r.base.ResolveReference(ref).String())
		}
		ev.Msg("Skipping cid")
		return token
	default:
		r.log.Debug().Str("url", u.String()).Msg("Skipping")
		return token
	}
}

// pathAndQuery returns the path and query of u; for opaque URLs such as
// cid:part@host the opaque part stands in for the path.
func pathAndQuery(u *url.URL) string {
	p := u.Opaque
	if p == "" {
		p = u.EscapedPath()
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

func hasScheme(u *url.URL, scheme string) bool {
	return strings.EqualFold(u.Scheme, scheme)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
