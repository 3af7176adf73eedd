// Package archive decomposes an MHTML message into its MIME leaf parts and
// indexes them by Content-Location for reference resolution.
package archive

import (
	"encoding/base64"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"
)

// Chunk is one decoded MIME leaf part.
type Chunk struct {
	MimeType  string
	Location  *url.URL // nil when the part has no usable Content-Location
	ContentID string
	Charset   string // charset parameter of the Content-Type, if any
	Body      []byte
}

// DataURI encodes the chunk as a base64 data URI using its declared type.
func (c *Chunk) DataURI() string {
	return EncodeDataURI(c.MimeType, c.Body)
}

// Text returns the body as UTF-8 text, decoded from the part's declared
// charset. Unknown or undeclared charsets leave the bytes as they are.
func (c *Chunk) Text() string {
	label := strings.TrimSpace(c.Charset)
	if label == "" {
		return string(c.Body)
	}
	enc, name := charset.Lookup(label)
	if enc == nil || name == "utf-8" {
		return string(c.Body)
	}
	text, err := enc.NewDecoder().Bytes(c.Body)
	if err != nil {
		return string(c.Body)
	}
	return string(text)
}

// IsImage reports whether the declared type is an image type.
func (c *Chunk) IsImage() bool {
	return strings.HasPrefix(c.MimeType, "image")
}

// LocationString returns the normalized location, or "" when absent.
func (c *Chunk) LocationString() string {
	if c.Location == nil {
		return ""
	}
	return NormalizeURL(c.Location)
}

// EncodeDataURI builds a data URI for the given type and bytes.
func EncodeDataURI(mimeType string, body []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(body)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(body))
	return b.String()
}

// NormalizeURL returns the lookup key for u: the absolute form without
// fragment.
func NormalizeURL(u *url.URL) string {
	if u.Fragment == "" && u.RawFragment == "" {
		return u.String()
	}
	c := *u
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
