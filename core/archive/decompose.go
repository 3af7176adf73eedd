package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	message "github.com/emersion/go-message"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/mht2html/core"
)

const mediaTypeRelated = "multipart/related"

// Message is the decomposed form of an MHTML archive.
type Message struct {
	// MediaType and Params come from the top-level Content-Type.
	MediaType string
	Params    map[string]string
	// Location is the top-level Content-Location, if any.
	Location *url.URL
	// Root is the root part of a multipart/related message. It is nil when
	// the message is not multipart/related or the root is itself multipart.
	Root *Chunk
	// Store holds every leaf part, the root included, in message order.
	Store *Store
}

// IsRelated reports whether the top-level entity is multipart/related.
func (m *Message) IsRelated() bool {
	return m.MediaType == mediaTypeRelated
}

// Decompose parses data as a MIME message and extracts every leaf part.
//
// Transfer encodings are removed but text is left in its declared charset:
// go-message only converts charsets when message.CharsetReader is set, and
// this package never sets it, so the loader sees the original bytes.
func Decompose(ctx context.Context, data []byte, log *zerolog.Logger) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	entity, err := message.Read(bytes.NewReader(data))
	if err != nil && !recoverable(err) {
		return nil, fmt.Errorf("%w: %v", core.ErrNotMIME, err)
	}

	mediaType, params, _ := entity.Header.ContentType()
	msg := &Message{
		MediaType: strings.ToLower(mediaType),
		Params:    params,
		Location:  parseLocation(entity.Header.Get("Content-Location"), nil),
		Store:     NewStore(nil),
	}

	d := &decomposer{msg: msg, log: log}
	if err := d.walk(entity, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNotMIME, err)
	}

	log.Debug().
		Str("type", msg.MediaType).
		Int("parts", msg.Store.Len()).
		Bool("root", msg.Root != nil).
		Msg("Decomposed MIME message")
	return msg, nil
}

type decomposer struct {
	msg *Message
	log *zerolog.Logger
}

// walk visits e depth-first, recording leaves in message order.
func (d *decomposer) walk(e *message.Entity, depth int) error {
	mr := e.MultipartReader()
	if mr == nil {
		_, err := d.leaf(e)
		return err
	}

	related := depth == 0 && d.msg.IsRelated()
	start := strings.Trim(d.msg.Params["start"], "<> ")
	var first *Chunk
	rootFound := false

	for idx := 0; ; idx++ {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !recoverable(err) {
			return fmt.Errorf("part %d at depth %d: %w", idx, depth, err)
		}

		if part.MultipartReader() != nil {
			if related && idx == 0 && start == "" {
				// The root is a nested multipart; it cannot be a text part.
				rootFound = true
			}
			if err := d.walk(part, depth+1); err != nil {
				return err
			}
			continue
		}

		chunk, err := d.leaf(part)
		if err != nil {
			return fmt.Errorf("part %d at depth %d: %w", idx, depth, err)
		}
		if !related || rootFound {
			continue
		}
		if idx == 0 {
			first = chunk
		}
		if start == "" {
			d.msg.Root = first
			rootFound = true
		} else if chunk.ContentID == start {
			d.msg.Root = chunk
			rootFound = true
		}
	}

	if related && !rootFound {
		// A start parameter that names no part falls back to the first part.
		d.msg.Root = first
	}
	return nil
}

// leaf reads a non-multipart entity into a Chunk and stores it.
func (d *decomposer) leaf(e *message.Entity) (*Chunk, error) {
	body, err := io.ReadAll(e.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	mediaType, params, ctErr := e.Header.ContentType()
	if ctErr != nil || mediaType == "" {
		mediaType = detectMIME(body)
		params = nil
	}

	chunk := &Chunk{
		MimeType:  strings.ToLower(mediaType),
		Location:  parseLocation(e.Header.Get("Content-Location"), d.msg.Location),
		ContentID: strings.Trim(e.Header.Get("Content-Id"), "<> "),
		Charset:   params["charset"],
		Body:      body,
	}
	d.msg.Store.Add(chunk)
	return chunk, nil
}

// parseLocation turns a Content-Location header into an absolute URL.
// Relative locations are resolved against base; without a base they are
// dropped since they can never match a resolved reference.
func parseLocation(raw string, base *url.URL) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	if u.IsAbs() {
		return u
	}
	if base == nil {
		return nil
	}
	return base.ResolveReference(u)
}

// detectMIME sniffs the type of a part that carries no Content-Type,
// using stdlib detection first and the broader mimetype library after.
func detectMIME(head []byte) string {
	if len(head) == 0 {
		return "application/octet-stream"
	}
	mt := http.DetectContentType(head)
	if mt != "application/octet-stream" {
		return stripParams(mt)
	}
	return stripParams(mimetype.Detect(head).String())
}

func stripParams(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		return strings.TrimSpace(mt[:i])
	}
	return mt
}

// recoverable reports whether a go-message error still yields a usable entity.
func recoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}
