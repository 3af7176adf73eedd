package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gaurav-prasanna/mht2html/core"
	"github.com/gaurav-prasanna/mht2html/core/archive"
)

// Compressor embeds image chunks, recompressing them when possible.
type Compressor struct {
	opts core.Options
	log  *zerolog.Logger
}

// New creates a Compressor. Options are normalized first.
func New(opts core.Options, log *zerolog.Logger) *Compressor {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Compressor{opts: opts.Normalize(), log: log}
}

// Compress returns a data URI for the chunk and the plan that produced it.
// Any failure falls back to embedding the original bytes.
func (c *Compressor) Compress(chunk *archive.Chunk) (string, Plan) {
	location := chunk.LocationString()

	if _, _, err := image.DecodeConfig(bytes.NewReader(chunk.Body)); err != nil {
		c.log.Info().Str("location", location).Str("type", chunk.MimeType).Msg("Cannot determine image")
		return chunk.DataURI(), PlanVerbatim
	}

	img, format, err := image.Decode(bytes.NewReader(chunk.Body))
	if err != nil {
		c.log.Info().Err(err).Str("location", location).Msg("Cannot decode image; embedding original")
		return chunk.DataURI(), PlanVerbatim
	}

	opaque := false
	if format == "png" && c.opts.UglifyPNG {
		opaque = !HasTransparency(img)
	}
	plan := Decide(format, opaque, c.opts)
	if plan == PlanVerbatim {
		return chunk.DataURI(), plan
	}

	data, err := c.encode(img, plan)
	if err != nil {
		c.log.Info().Err(err).Str("location", location).Str("plan", plan.String()).Msg("Cannot encode image; embedding original")
		return chunk.DataURI(), PlanVerbatim
	}

	c.log.Info().
		Str("location", location).
		Str("plan", plan.String()).
		Int("old", len(chunk.Body)).
		Int("new", len(data)).
		Msg("Compressed image")
	return archive.EncodeDataURI(plan.MimeType(), data), plan
}

func (c *Compressor) encode(img image.Image, plan Plan) ([]byte, error) {
	var buf bytes.Buffer
	switch plan {
	case PlanJPEG, PlanPNGToJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.opts.JPEGQuality}); err != nil {
			return nil, fmt.Errorf("encoding jpeg: %w", err)
		}
	case PlanQuantizedPNG:
		if img.Bounds().Empty() {
			return nil, errors.New("empty image")
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, quantizeImage(img, c.opts.MaxPNGColors)); err != nil {
			return nil, fmt.Errorf("encoding png: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported plan %s", plan)
	}
	return buf.Bytes(), nil
}

// quantizeImage maps img onto a median-cut palette of at most maxColors.
// A fully transparent entry is reserved when the image has transparency.
func quantizeImage(img image.Image, maxColors int) *image.Paletted {
	q := quantize.MedianCutQuantizer{AddTransparent: HasTransparency(img)}
	palette := q.Quantize(make(color.Palette, 0, maxColors), img)

	b := img.Bounds()
	dst := image.NewPaletted(b, palette)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
