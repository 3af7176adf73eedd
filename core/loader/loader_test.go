package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/mht2html/core"
	"github.com/gaurav-prasanna/mht2html/core/archive"
	"github.com/gaurav-prasanna/mht2html/core/archive/archivetest"
)

func decompose(t *testing.T, data []byte) *archive.Message {
	t.Helper()
	msg, err := archive.Decompose(context.Background(), data, nil)
	require.NoError(t, err)
	return msg
}

func countUTF8Metas(doc *goquery.Document) int {
	return doc.Find(`meta[http-equiv="Content-Type"]`).Length()
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should load the root document with its base URI", func(t *testing.T) {
		msg := decompose(t, archivetest.Related(
			archivetest.HTML("http://example.com/page.html", "<html><head><title>T</title></head><body><p>hello</p></body></html>"),
		))
		res, err := New(nil).Load(context.Background(), msg)
		require.NoError(t, err)
		assert.Equal(t, "hello", res.Document.Find("p").Text())
		assert.Equal(t, "http://example.com/page.html", res.BaseURI.String())
		assert.Equal(t, "utf-8", res.Charset)
		assert.False(t, res.Reparsed)
		assert.Equal(t, 1, countUTF8Metas(res.Document))
	})

	t.Run("Should re-decode with the charset declared in a meta tag", func(t *testing.T) {
		body := "<html><head><meta http-equiv=\"Content-Type\" content=\"text/html; charset=iso-8859-1\"></head>" +
			"<body><p>caf\xe9</p></body></html>"
		msg := decompose(t, archivetest.Related(archivetest.Part{
			ContentType: "text/html; charset=utf-8",
			Location:    "http://example.com/",
			Encoding:    "quoted-printable",
			Body:        []byte(body),
		}))

		res, err := New(nil).Load(context.Background(), msg)
		require.NoError(t, err)
		assert.True(t, res.Reparsed)
		assert.Equal(t, "windows-1252", res.Charset)
		assert.Equal(t, "café", res.Document.Find("p").Text())

		require.Equal(t, 1, countUTF8Metas(res.Document))
		content, _ := res.Document.Find(`meta[http-equiv="Content-Type"]`).Attr("content")
		assert.Equal(t, "text/html; charset=utf-8", content)
	})

	t.Run("Should decode with the MIME charset when the meta agrees", func(t *testing.T) {
		body := "<html><head><meta charset=\"iso-8859-1\"></head><body><p>na\xefve</p></body></html>"
		msg := decompose(t, archivetest.Related(archivetest.Part{
			ContentType: "text/html; charset=iso-8859-1",
			Location:    "http://example.com/",
			Encoding:    "quoted-printable",
			Body:        []byte(body),
		}))

		res, err := New(nil).Load(context.Background(), msg)
		require.NoError(t, err)
		assert.False(t, res.Reparsed)
		assert.Equal(t, "naïve", res.Document.Find("p").Text())
		assert.Equal(t, 0, res.Document.Find("meta[charset]").Length())
		assert.Equal(t, 1, countUTF8Metas(res.Document))
	})

	t.Run("Should fall back to localhost when no location is declared", func(t *testing.T) {
		msg := decompose(t, archivetest.Related(archivetest.HTML("", "<p>x</p>")))
		res, err := New(nil).Load(context.Background(), msg)
		require.NoError(t, err)
		assert.Equal(t, FallbackBaseURI, res.BaseURI.String())
	})

	t.Run("Should reject messages that are not multipart/related", func(t *testing.T) {
		msg := decompose(t, archivetest.Archive{
			ContentType: "text/html; charset=utf-8",
			Parts:       []archivetest.Part{{Body: []byte("<p>plain</p>")}},
		}.Bytes())
		_, err := New(nil).Load(context.Background(), msg)
		assert.True(t, errors.Is(err, core.ErrNotMHTML))
	})

	t.Run("Should reject a root that is not a text part", func(t *testing.T) {
		msg := decompose(t, archivetest.Related(
			archivetest.Resource("image/png", "http://example.com/a.png", []byte("png")),
		))
		_, err := New(nil).Load(context.Background(), msg)
		assert.True(t, errors.Is(err, core.ErrNotMHTML))
		assert.True(t, errors.Is(err, core.ErrRootNotText))
	})
}

func TestCharsetFromContent(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{content: "text/html; charset=iso-8859-1", want: "iso-8859-1"},
		{content: "text/html; Charset=\"windows-1251\"", want: "windows-1251"},
		{content: "text/html", want: ""},
		{content: "text/html; charset=utf-8; foo=bar", want: "utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			assert.Equal(t, tt.want, charsetFromContent(tt.content))
		})
	}
}

func TestStripContentTypeMeta(t *testing.T) {
	in := `<head><META HTTP-EQUIV="Content-Type" content="text/html; charset=koi8-r"><meta charset="koi8-r"><meta name="x" content="y"></head>`
	assert.Equal(t, `<head><meta name="x" content="y"></head>`, stripContentTypeMeta(in))
}
