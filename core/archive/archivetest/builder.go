// Package archivetest builds MHTML fixtures for tests.
package archivetest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/quotedprintable"
	"strings"
)

const Boundary = "----MultipartBoundary--archivetest----"

// Part describes one MIME part of a fixture.
type Part struct {
	ContentType string // written verbatim; omitted when empty
	Location    string
	ContentID   string
	Encoding    string // "", "base64", "quoted-printable" or "binary"
	Body        []byte
}

// Archive describes a whole fixture message.
type Archive struct {
	// ContentType overrides the top-level type; defaults to multipart/related.
	ContentType string
	Location    string
	Parts       []Part
}

// Related builds a multipart/related message from parts.
func Related(parts ...Part) []byte {
	return Archive{Parts: parts}.Bytes()
}

// HTML returns a quoted-printable text/html part.
func HTML(location, body string) Part {
	return Part{
		ContentType: "text/html; charset=utf-8",
		Location:    location,
		Encoding:    "quoted-printable",
		Body:        []byte(body),
	}
}

// Resource returns a base64 part with the given type.
func Resource(contentType, location string, body []byte) Part {
	return Part{
		ContentType: contentType,
		Location:    location,
		Encoding:    "base64",
		Body:        body,
	}
}

// Bytes serializes the archive.
func (a Archive) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("From: <Saved by archivetest>\r\n")
	buf.WriteString("Subject: fixture\r\n")
	buf.WriteString("MIME-Version: 1.0\r\n")
	if a.Location != "" {
		fmt.Fprintf(&buf, "Content-Location: %s\r\n", a.Location)
	}
	ct := a.ContentType
	if ct == "" {
		ct = fmt.Sprintf("multipart/related;\r\n\ttype=\"text/html\";\r\n\tboundary=\"%s\"", Boundary)
	}
	fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", ct)

	if !strings.HasPrefix(ct, "multipart/") {
		if len(a.Parts) > 0 {
			buf.Write(a.Parts[0].Body)
		}
		return buf.Bytes()
	}

	for _, p := range a.Parts {
		fmt.Fprintf(&buf, "\r\n--%s\r\n", Boundary)
		writePart(&buf, p)
	}
	fmt.Fprintf(&buf, "\r\n--%s--\r\n", Boundary)
	return buf.Bytes()
}

func writePart(buf *bytes.Buffer, p Part) {
	if p.ContentType != "" {
		fmt.Fprintf(buf, "Content-Type: %s\r\n", p.ContentType)
	}
	if p.ContentID != "" {
		fmt.Fprintf(buf, "Content-ID: <%s>\r\n", p.ContentID)
	}
	if p.Encoding != "" {
		fmt.Fprintf(buf, "Content-Transfer-Encoding: %s\r\n", p.Encoding)
	}
	if p.Location != "" {
		fmt.Fprintf(buf, "Content-Location: %s\r\n", p.Location)
	}
	buf.WriteString("\r\n")

	switch p.Encoding {
	case "base64":
		enc := base64.StdEncoding.EncodeToString(p.Body)
		for len(enc) > 76 {
			buf.WriteString(enc[:76])
			buf.WriteString("\r\n")
			enc = enc[76:]
		}
		buf.WriteString(enc)
	case "quoted-printable":
		w := quotedprintable.NewWriter(buf)
		_, _ = w.Write(p.Body)
		_ = w.Close()
	default:
		buf.Write(p.Body)
	}
}
