// Package imaging decides how embedded images are recompressed and carries
// out the re-encoding.
package imaging

import (
	"image"

	"github.com/gaurav-prasanna/mht2html/core"
)

// Plan is the compression applied to one image.
type Plan int

const (
	// PlanVerbatim embeds the original bytes.
	PlanVerbatim Plan = iota
	// PlanJPEG re-encodes a JPEG at the configured quality.
	PlanJPEG
	// PlanPNGToJPEG replaces an opaque PNG with a JPEG.
	PlanPNGToJPEG
	// PlanQuantizedPNG re-encodes a PNG with a reduced palette.
	PlanQuantizedPNG
)

func (p Plan) String() string {
	switch p {
	case PlanJPEG:
		return "jpeg"
	case PlanPNGToJPEG:
		return "png-to-jpeg"
	case PlanQuantizedPNG:
		return "quantized-png"
	default:
		return "verbatim"
	}
}

// MimeType is the type of the data produced by the plan, or "" for
// PlanVerbatim which keeps the declared type.
func (p Plan) MimeType() string {
	switch p {
	case PlanJPEG, PlanPNGToJPEG:
		return "image/jpeg"
	case PlanQuantizedPNG:
		return "image/png"
	default:
		return ""
	}
}

// Decide picks the plan for a decoded image. format is the name reported by
// the image package ("jpeg", "png", ...). opaque only matters for PNGs.
func Decide(format string, opaque bool, opts core.Options) Plan {
	switch format {
	case "jpeg":
		return PlanJPEG
	case "png":
		if opts.UglifyPNG && opaque {
			return PlanPNGToJPEG
		}
		return PlanQuantizedPNG
	default:
		return PlanVerbatim
	}
}

// HasTransparency reports whether any pixel is less than fully opaque.
// It scans the whole image.
func HasTransparency(img image.Image) bool {
	b := img.Bounds()
	if m, ok := img.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
			for i := 3; i < len(row); i += 4 {
				if row[i] < 0xff {
					return true
				}
			}
		}
		return false
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a < 0xffff {
				return true
			}
		}
	}
	return false
}
