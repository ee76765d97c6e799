package plot

import (
	"strings"

	"gonum.org/v1/plot/vg/draw"
)

// Mode selects what the scatter encodes.
type Mode int

const (
	// ModeIdentity places spike train i at (i, 0).
	ModeIdentity Mode = iota

	// ModeRaster places every spike at (time, train index).
	ModeRaster
)

// String returns the settings name of the mode.
func (m Mode) String() string {
	if m == ModeRaster {
		return "raster"
	}
	return "identity"
}

// Format is the encoding of a rendered plot.
type Format int

const (
	FormatPNG Format = iota
	FormatSVG
	FormatPDF
	FormatJPG
)

// ParseFormat maps a settings value to a Format. Unknown values are PNG.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "svg":
		return FormatSVG
	case "pdf":
		return FormatPDF
	case "jpg", "jpeg":
		return FormatJPG
	default:
		return FormatPNG
	}
}

// Name returns the format name understood by gonum's canvas encoders.
func (f Format) Name() string {
	switch f {
	case FormatSVG:
		return "svg"
	case FormatPDF:
		return "pdf"
	case FormatJPG:
		return "jpg"
	default:
		return "png"
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + f.Name()
}

// Config holds plot rendering settings.
//
// PathFormat supports placeholders:
//   - {name} - block name (sanitized)
//   - {index} - position of the dataset in the input list
//
// Example:
//
//	cfg := &Config{
//	    PathFormat: "plots/{name}_spiketrains",
//	    Format:     FormatPNG,
//	    Mode:       ModeIdentity,
//	    Marker:     "x",
//	    Width:      640,
//	    Height:     480,
//	}
type Config struct {
	// PathFormat is the output path template, without or with extension.
	PathFormat string

	// Format is the file encoding.
	Format Format

	// Mode selects identity or raster points.
	Mode Mode

	// Marker is the glyph style: "x", "+", "o" or ".".
	Marker string

	// Width and Height are the image size in pixels at 96 DPI.
	Width  int
	Height int

	// Thumbnail writes an additional JPEG preview next to the plot.
	Thumbnail bool

	// ThumbnailMaxSize bounds both thumbnail dimensions in pixels.
	ThumbnailMaxSize int
}

// glyph returns the glyph drawer for a marker style. Unknown markers fall
// back to the cross.
func glyph(marker string) draw.GlyphDrawer {
	switch marker {
	case "+":
		return draw.PlusGlyph{}
	case "o":
		return draw.RingGlyph{}
	case ".":
		return draw.CircleGlyph{}
	default:
		return draw.CrossGlyph{}
	}
}
