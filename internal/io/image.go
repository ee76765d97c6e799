package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration

	"golang.org/x/image/draw"
)

// ImageService produces preview images of rendered plots.
//
// Example usage:
//
//	svc := NewImageService()
//	thumb, err := svc.Thumbnail(ctx, pngBytes, 200)
//	err = WriteFile(ctx, "session1_spiketrains_thumb.jpg", thumb)
type ImageService struct {
	quality int
}

// NewImageService creates a new ImageService encoding JPEG at quality 90.
func NewImageService() *ImageService {
	return &ImageService{quality: 90}
}

// Thumbnail scales a PNG or JPEG image to fit within maxSize x maxSize and
// returns it as JPEG.
//
// The aspect ratio is preserved and images already within bounds are only
// re-encoded. The Catmull-Rom kernel is used for scaling.
//
// Example:
//
//	// A 640x480 plot with maxSize 200 becomes 200x150
//	thumb, err := svc.Thumbnail(ctx, png, 200)
func (s *ImageService) Thumbnail(ctx context.Context, data []byte, maxSize int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxSize)

	// JPEG has no alpha, so paint the transparent plot background white.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// fitWithin returns width and height scaled down to fit a maxSize square.
// A non-positive maxSize leaves the dimensions unchanged.
func fitWithin(width, height, maxSize int) (int, int) {
	if maxSize <= 0 || (width <= maxSize && height <= maxSize) {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if width >= height {
		h := int(float64(maxSize) / ratio)
		if h < 1 {
			h = 1
		}
		return maxSize, h
	}
	w := int(float64(maxSize) * ratio)
	if w < 1 {
		w = 1
	}
	return w, maxSize
}
