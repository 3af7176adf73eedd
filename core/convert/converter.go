// Package convert runs the whole pipeline:
// decompose → load → resolve → postprocess → render.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/mht2html/core"
	"github.com/gaurav-prasanna/mht2html/core/archive"
	"github.com/gaurav-prasanna/mht2html/core/loader"
	"github.com/gaurav-prasanna/mht2html/core/output"
	"github.com/gaurav-prasanna/mht2html/core/postprocess"
	"github.com/gaurav-prasanna/mht2html/core/render"
	"github.com/gaurav-prasanna/mht2html/core/resolve"
)

// Converter turns MHTML archives into standalone pages. It holds only
// immutable configuration and may be shared between goroutines.
type Converter struct {
	opts     core.Options
	renderer core.Renderer
	minifier *render.Minifier
	log      *zerolog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithRenderer replaces the default HTML renderer.
func WithRenderer(r core.Renderer) Option {
	return func(c *Converter) {
		if r != nil {
			c.renderer = r
		}
	}
}

// New creates a Converter. Nil options mean core.DefaultOptions and a nil
// logger discards output.
func New(opts *core.Options, log *zerolog.Logger, options ...Option) *Converter {
	o := core.DefaultOptions()
	if opts != nil {
		o = opts.Normalize()
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	c := &Converter{
		opts:     o,
		minifier: render.NewMinifier(),
		log:      log,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.renderer == nil {
		c.renderer = render.NewHTMLRenderer(o.CompressHTML, o.CompressCSS)
	}
	return c
}

// Extension returns the file extension of the selected renderer.
func (c *Converter) Extension() string {
	return c.renderer.Extension()
}

// ConvertBytes converts a whole archive held in memory.
func (c *Converter) ConvertBytes(ctx context.Context, data []byte) ([]byte, error) {
	msg, err := archive.Decompose(ctx, data, c.log)
	if err != nil {
		c.log.Error().Err(err).Msg("Cannot read MIME message")
		return nil, err
	}

	for _, chunk := range msg.Store.All() {
		c.log.Debug().
			Str("type", chunk.MimeType).
			Str("location", chunk.LocationString()).
			Int("bytes", len(chunk.Body)).
			Msg("Archive part")
	}

	loaded, err := loader.New(c.log).Load(ctx, msg)
	if err != nil {
		return nil, err
	}
	c.log.Debug().
		Str("base", loaded.BaseURI.String()).
		Str("charset", loaded.Charset).
		Bool("reparsed", loaded.Reparsed).
		Msg("Loaded root document")

	resolver := resolve.New(msg.Store, loaded.BaseURI, c.log)
	doc, stats := postprocess.New(c.opts, loaded.Document, resolver, msg.Store, c.minifier, c.log).Run()
	c.log.Info().
		Int("parts", msg.Store.Len()).
		Int("styles", stats.StylesRewritten).
		Int("images", stats.ImagesEmbedded).
		Int("compressed", stats.ImagesCompressed).
		Int("sheets", stats.SheetsInlined).
		Int("missing_sheets", stats.SheetsMissing).
		Int("removed", stats.ElementsRemoved).
		Msg("Postprocessed document")

	out, err := c.renderer.Render(doc)
	if err != nil {
		c.log.Error().Err(err).Msg("Cannot serialize document")
		return nil, err
	}
	return out, nil
}

// Convert reads an archive from r and writes the page to w. Nothing is
// written to w when the conversion fails.
func (c *Converter) Convert(ctx context.Context, r io.Reader, w io.Writer) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, &ctxReader{ctx: ctx, r: r}); err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	out, err := c.ConvertBytes(ctx, buf.Bytes())
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	return nil
}

// ConvertFile converts the archive at src into dst. dst is only created
// when the conversion succeeds.
func (c *Converter) ConvertFile(ctx context.Context, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	var page bytes.Buffer
	if err := c.Convert(ctx, f, &page); err != nil {
		return err
	}

	w := &output.Writer{OutputDir: filepath.Dir(dst)}
	if err := w.Write(dst, page.Bytes()); err != nil {
		return err
	}
	c.log.Info().Str("source", src).Str("destination", dst).Int("bytes", page.Len()).Msg("Converted archive")
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
