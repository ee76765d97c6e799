package plot

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	ioutils "github.com/handiism/spikeview/internal/io"
	"github.com/handiism/spikeview/internal/model"
)

const (
	// dpi is the resolution gonum's raster canvases render at.
	dpi = 96

	defaultName = "recording"
)

// Points returns the scatter points for the given trains.
//
// ModeIdentity yields len(trains) points (i, 0). ModeRaster yields one point
// per spike (time, i).
func Points(trains []*model.SpikeTrain, mode Mode) plotter.XYs {
	if mode == ModeRaster {
		var xys plotter.XYs
		for i, st := range trains {
			for _, t := range st.Times {
				xys = append(xys, plotter.XY{X: t, Y: float64(i)})
			}
		}
		return xys
	}

	xys := make(plotter.XYs, len(trains))
	for i := range trains {
		xys[i] = plotter.XY{X: float64(i), Y: 0}
	}
	return xys
}

// Plotter renders spike train scatters with gonum/plot.
//
// Example:
//
//	p := NewPlotter(cfg)
//	path, err := p.Save(ctx, block, 0, trains)
type Plotter struct {
	cfg    *Config
	images *ioutils.ImageService
}

// NewPlotter creates a Plotter with the given configuration.
func NewPlotter(cfg *Config) *Plotter {
	return &Plotter{
		cfg:    cfg,
		images: ioutils.NewImageService(),
	}
}

// Render draws the trains and encodes the plot in the configured format.
func (p *Plotter) Render(title string, trains []*model.SpikeTrain) ([]byte, error) {
	return p.render(title, trains, p.cfg.Format)
}

func (p *Plotter) render(title string, trains []*model.SpikeTrain, format Format) ([]byte, error) {
	pl := plot.New()
	pl.Title.Text = title
	switch p.cfg.Mode {
	case ModeRaster:
		pl.X.Label.Text = "time (" + timeUnits(trains) + ")"
		pl.Y.Label.Text = "spike train"
	default:
		pl.X.Label.Text = "spike train"
	}

	xys := Points(trains, p.cfg.Mode)
	if len(xys) > 0 {
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, errors.Wrap(err, "could not build scatter")
		}
		scatter.GlyphStyle.Shape = glyph(p.cfg.Marker)
		scatter.GlyphStyle.Radius = vg.Points(3)
		pl.Add(scatter)
	}

	w, h := pixels(p.cfg.Width, 640), pixels(p.cfg.Height, 480)
	wt, err := pl.WriterTo(w, h, format.Name())
	if err != nil {
		return nil, errors.Wrapf(err, "could not create %s canvas", format.Name())
	}

	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "could not encode plot")
	}
	return buf.Bytes(), nil
}

// Save renders the trains of block and writes the plot to the path computed
// from the configuration. When thumbnails are enabled a JPEG preview is
// written to "<path without extension>_thumb.jpg".
//
// Returns the path of the written plot.
func (p *Plotter) Save(ctx context.Context, block *model.Block, index int, trains []*model.SpikeTrain) (string, error) {
	data, err := p.Render(block.Name, trains)
	if err != nil {
		return "", err
	}

	path := p.OutputPath(block, index)
	if err := ioutils.WriteFile(ctx, path, data); err != nil {
		return "", errors.Wrapf(err, "could not write plot %s", path)
	}

	if p.cfg.Thumbnail {
		raster := data
		if p.cfg.Format != FormatPNG && p.cfg.Format != FormatJPG {
			if raster, err = p.render(block.Name, trains, FormatPNG); err != nil {
				return "", err
			}
		}

		thumb, err := p.images.Thumbnail(ctx, raster, p.cfg.ThumbnailMaxSize)
		if err != nil {
			return "", errors.Wrap(err, "could not create thumbnail")
		}
		thumbPath := strings.TrimSuffix(path, pathExt(path)) + "_thumb.jpg"
		if err := ioutils.WriteFile(ctx, thumbPath, thumb); err != nil {
			return "", errors.Wrapf(err, "could not write thumbnail %s", thumbPath)
		}
	}

	return path, nil
}

// OutputPath computes the plot file path for a block.
func (p *Plotter) OutputPath(block *model.Block, index int) string {
	name := ioutils.SanitizeFileName(block.Name)
	if name == "" {
		name = defaultName
	}

	path := p.cfg.PathFormat
	if path == "" {
		path = "{name}_spiketrains"
	}
	path = strings.ReplaceAll(path, "{name}", name)
	path = strings.ReplaceAll(path, "{index}", strconv.Itoa(index))

	ext := p.cfg.Format.Extension()
	if !strings.EqualFold(pathExt(path), ext) {
		path += ext
	}
	return path
}

func pathExt(path string) string {
	i := strings.LastIndexAny(path, "./\\")
	if i < 0 || path[i] != '.' {
		return ""
	}
	return path[i:]
}

// pixels converts a pixel count at 96 DPI to a vg.Length. Non-positive
// values use def.
func pixels(n, def int) vg.Length {
	if n <= 0 {
		n = def
	}
	return vg.Length(n) * vg.Inch / dpi
}

// timeUnits returns the time units shared by the trains, "s" if unknown.
func timeUnits(trains []*model.SpikeTrain) string {
	for _, st := range trains {
		if st.Units != "" {
			return st.Units
		}
	}
	return model.DefaultTimeUnits
}
