package loader

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

const (
	defaultCharset = "utf-8"
	charsetMarker  = "charset="
)

// contentTypeMeta matches meta tags that carry a charset directive.
var contentTypeMeta = regexp.MustCompile(`(?i)<meta\b[^<>]*\b(?:http-equiv|charset)\b[^<>]*>`)

// lookupEncoding resolves a charset label to an encoding and its canonical
// name. Unknown or empty labels resolve to UTF-8 with ok=false.
func lookupEncoding(label string) (enc encoding.Encoding, name string, ok bool) {
	label = strings.TrimSpace(label)
	if label != "" {
		if e, n := charset.Lookup(label); e != nil {
			return e, n, true
		}
	}
	return unicode.UTF8, defaultCharset, false
}

// decode converts raw bytes in enc to a UTF-8 string.
func decode(raw []byte, enc encoding.Encoding) string {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// declaredCharset returns the charset named by the first content-type meta
// tag in doc, either <meta http-equiv="Content-Type" content="..."> or
// <meta charset="...">.
func declaredCharset(doc *goquery.Document) string {
	var found string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if isContentTypeMeta(s) {
			content, _ := s.Attr("content")
			if cs := charsetFromContent(content); cs != "" {
				found = cs
				return false
			}
		}
		if cs, ok := s.Attr("charset"); ok && strings.TrimSpace(cs) != "" {
			found = strings.TrimSpace(cs)
			return false
		}
		return true
	})
	return found
}

func isContentTypeMeta(s *goquery.Selection) bool {
	equiv, ok := s.Attr("http-equiv")
	return ok && strings.EqualFold(strings.TrimSpace(equiv), "content-type")
}

// charsetFromContent extracts the value after the last "charset=" marker.
func charsetFromContent(content string) string {
	idx := strings.LastIndex(strings.ToLower(content), charsetMarker)
	if idx < 0 {
		return ""
	}
	cs := content[idx+len(charsetMarker):]
	if end := strings.IndexAny(cs, ";, "); end >= 0 {
		cs = cs[:end]
	}
	return strings.Trim(cs, `"' `)
}

// stripContentTypeMeta removes charset directives from raw markup.
func stripContentTypeMeta(text string) string {
	return contentTypeMeta.ReplaceAllString(text, "")
}
