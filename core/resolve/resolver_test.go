package resolve

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/mht2html/core/archive"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func newResolver(t *testing.T, chunks ...*archive.Chunk) *Resolver {
	t.Helper()
	return New(archive.NewStore(chunks), mustURL(t, "http://example.com/page/index.html"), nil)
}

func chunk(t *testing.T, mimeType, location string, body string) *archive.Chunk {
	t.Helper()
	return &archive.Chunk{MimeType: mimeType, Location: mustURL(t, location), Body: []byte(body)}
}

var dataURIPayload = regexp.MustCompile(`data:[^;]+;base64,([A-Za-z0-9+/=]+)`)

func TestRewriteURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "bare", in: "a{background:url(img.png)}", want: []string{"img.png"}},
		{name: "single quoted", in: "a{background:url('img.png')}", want: []string{"img.png"}},
		{name: "double quoted", in: `a{background:url("a b.png")}`, want: []string{"a b.png"}},
		{name: "spaces", in: "a{background:url(  img.png  )}", want: []string{"img.png"}},
		{name: "several", in: "a{b:url(1.png)} c{d:url('2.png')}", want: []string{"1.png", "2.png"}},
		{name: "none", in: "a{color:red}", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			out := RewriteURLs(tt.in, func(token, value string) string {
				got = append(got, value)
				return token
			})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, out)
		})
	}
}

func TestResolver_RewriteCSS(t *testing.T) {
	t.Run("Should inline a chunk as a data URI", func(t *testing.T) {
		body := "\x89PNG binary"
		r := newResolver(t, chunk(t, "image/png", "http://example.com/page/img.png", body))

		out := r.RewriteCSS("a{background:url(img.png)}", nil)
		m := dataURIPayload.FindStringSubmatch(out)
		require.Len(t, m, 2)
		decoded, err := base64.StdEncoding.DecodeString(m[1])
		require.NoError(t, err)
		assert.Equal(t, body, string(decoded))
		assert.Contains(t, out, "url('data:image/png;base64,")
	})

	t.Run("Should leave data URIs unchanged", func(t *testing.T) {
		r := newResolver(t)
		in := `a{background:url("data:image/gif;base64,R0lGODlh")} b{c:url(DATA:x)}`
		assert.Equal(t, in, r.RewriteCSS(in, nil))
	})

	t.Run("Should make unmatched http references absolute", func(t *testing.T) {
		r := newResolver(t)
		out := r.RewriteCSS("a{background:url(../fonts/x.woff)}", nil)
		assert.Equal(t, "a{background:url('http://example.com/fonts/x.woff')}", out)
	})

	t.Run("Should resolve relative to the style sheet location", func(t *testing.T) {
		r := newResolver(t, chunk(t, "image/png", "http://cdn.example.com/css/img/bg.png", "bg"))
		out := r.RewriteCSS("a{background:url(img/bg.png)}", mustURL(t, "http://cdn.example.com/css/site.css"))
		assert.Equal(t, "a{background:url('data:image/png;base64,Ymc=')}", out)
	})

	t.Run("Should fall back to the document base for cid style sheets", func(t *testing.T) {
		r := newResolver(t, chunk(t, "image/png", "http://example.com/page/bg.png", "bg"))
		out := r.RewriteCSS("a{background:url(bg.png)}", mustURL(t, "cid:css-1@mhtml.blink"))
		assert.Equal(t, "a{background:url('data:image/png;base64,Ymc=')}", out)
	})

	t.Run("Should leave unmatched cid references untouched", func(t *testing.T) {
		r := newResolver(t)
		in := "a{background:url(cid:img-1@mhtml.blink)}"
		assert.Equal(t, in, r.RewriteCSS(in, nil))
	})

	t.Run("Should inline matching cid references", func(t *testing.T) {
		r := newResolver(t, chunk(t, "image/gif", "cid:img-1@mhtml.blink", "GIF89a"))
		out := r.RewriteCSS("a{background:url(cid:img-1@mhtml.blink)}", nil)
		assert.Equal(t, "a{background:url('data:image/gif;base64,R0lGODlh')}", out)
	})

	t.Run("Should leave unknown schemes untouched", func(t *testing.T) {
		r := newResolver(t)
		in := "a{behavior:url(about:blank)} b{c:url(ftp://x/y)}"
		assert.Equal(t, in, r.RewriteCSS(in, nil))
	})

	t.Run("Should leave empty url tokens untouched", func(t *testing.T) {
		r := newResolver(t)
		in := "a{background:url()}"
		assert.Equal(t, in, r.RewriteCSS(in, nil))
	})
}

func TestResolver_Lookup(t *testing.T) {
	first := chunk(t, "image/png", "http://example.com/page/a.png", "first")
	second := chunk(t, "image/png", "http://example.com/page/a.png", "second")
	r := newResolver(t, first, second)

	c, u, ok := r.Lookup("a.png#frag")
	require.True(t, ok)
	assert.Same(t, first, c)
	assert.Equal(t, "http://example.com/page/a.png#frag", u.String())

	_, _, ok = r.Lookup("missing.png")
	assert.False(t, ok)
}
