// Package core defines the shared types for the mht2html conversion pipeline.
// Each stage of the pipeline lives in its own package under core/ and
// depends only on the types declared here.
package core

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
)

// Structural failures. Any of these aborts a conversion.
var (
	ErrNotMIME       = errors.New("input is not a MIME message")
	ErrNotMHTML      = errors.New("message is not in MHTML format")
	ErrRootNotText   = errors.New("root part is not a text part")
	ErrParseDocument = errors.New("cannot parse HTML document")
)

const (
	DefaultJPEGQuality  = 30
	DefaultMaxPNGColors = 256
)

// Options controls the conversion pipeline.
type Options struct {
	// CompressCSS minifies inlined and rewritten style text.
	CompressCSS bool
	// CompressImages applies the image compression policy instead of
	// embedding image bytes verbatim.
	CompressImages bool
	// CompressHTML minifies the final document instead of pretty-printing it.
	CompressHTML bool
	// UglifyPNG allows opaque PNGs to be re-encoded as JPEG.
	UglifyPNG bool
	// JPEGQuality is the quality used for JPEG re-encoding (1-100). Zero
	// means unset and selects DefaultJPEGQuality, so a zero Options value
	// gets the default quality.
	JPEGQuality int
	// MaxPNGColors caps the palette of quantized PNGs (2-256). Zero selects
	// DefaultMaxPNGColors.
	MaxPNGColors int
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		CompressCSS:    true,
		CompressImages: true,
		CompressHTML:   true,
		UglifyPNG:      true,
		JPEGQuality:    DefaultJPEGQuality,
		MaxPNGColors:   DefaultMaxPNGColors,
	}
}

// Normalize clamps numeric options into their valid ranges and fills in
// defaults for zero values.
func (o Options) Normalize() Options {
	switch {
	case o.JPEGQuality <= 0:
		o.JPEGQuality = DefaultJPEGQuality
	case o.JPEGQuality > 100:
		o.JPEGQuality = 100
	}
	switch {
	case o.MaxPNGColors <= 0:
		o.MaxPNGColors = DefaultMaxPNGColors
	case o.MaxPNGColors < 2:
		o.MaxPNGColors = 2
	case o.MaxPNGColors > 256:
		o.MaxPNGColors = 256
	}
	return o
}

// Renderer converts the finished document into a final output format.
type Renderer interface {
	Render(doc *goquery.Document) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".html", ".md").
	Extension() string
}
