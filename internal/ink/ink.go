// Package ink handles freehand annotation rasters: blank detection,
// flattening onto paper white and the data URI transport form.
package ink

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	_ "image/jpeg" // decode JPEG data URIs

	xdraw "golang.org/x/image/draw"
)

const (
	maxSamples     = 1000 // per axis
	alphaThreshold = 20
	whiteThreshold = 250
	minInkPixels   = 50
)

// Surface limits. MaxWidth is the widest raster kept on a surface; wider
// drawings are downscaled on intake. MaxPixels bounds what is decoded at all.
const (
	MaxWidth  = 2000
	MaxPixels = 4096 * 4096
)

// ErrTooLarge reports an image whose declared dimensions exceed MaxPixels.
var ErrTooLarge = errors.New("ink: image too large")

// HasContent reports whether img carries visible ink. At most 1000×1000
// pixels are sampled on an even stride; a pixel counts when it is more than
// faintly opaque and any channel is darker than near-white. The scan stops as
// soon as more than 50 pixels qualify.
func HasContent(img image.Image) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	if b.Empty() {
		return false
	}
	stepX := max(1, (b.Dx()+maxSamples-1)/maxSamples)
	stepY := max(1, (b.Dy()+maxSamples-1)/maxSamples)
	count := 0
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A <= alphaThreshold {
				continue
			}
			if c.R < whiteThreshold || c.G < whiteThreshold || c.B < whiteThreshold {
				count++
				if count > minInkPixels {
					return true
				}
			}
		}
	}
	return false
}

// Flatten composites img over an opaque white background.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), image.White, image.Point{}, xdraw.Src)
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Over)
	return out
}

// Blank returns a fully transparent surface of the given size.
func Blank(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

// Clone copies img into a fresh NRGBA raster anchored at the origin.
func Clone(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}

// Downscale shrinks img so that it is at most maxW pixels wide. Smaller
// images are returned unchanged.
func Downscale(img image.Image, maxW int) image.Image {
	b := img.Bounds()
	if maxW <= 0 || b.Dx() <= maxW {
		return img
	}
	w, h := FitWidth(float64(b.Dx()), float64(b.Dy()), float64(maxW))
	out := image.NewNRGBA(image.Rect(0, 0, int(w), max(1, int(h))))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

// FitWidth scales (w, h) down to maxW keeping the aspect ratio.
func FitWidth(w, h, maxW float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w <= maxW {
		return w, h
	}
	return maxW, h * maxW / w
}

// EncodeDataURI flattens img and encodes it as a PNG data URI.
func EncodeDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Flatten(img)); err != nil {
		return "", fmt.Errorf("ink: encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURIBytes parses a data:[<mediatype>];base64,<data> URI and
// returns the payload and its media type.
func DecodeDataURIBytes(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("ink: not a data URI")
	}
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("ink: invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("ink: only base64 data URIs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("ink: invalid base64 data: %w", err)
		}
	}
	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	return data, mime, nil
}

// DecodeDataURI decodes an image data URI.
func DecodeDataURI(uri string) (image.Image, error) {
	data, _, err := DecodeDataURIBytes(uri)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode decodes a PNG or JPEG image. The header is checked first so that
// images declaring more than MaxPixels are rejected before any pixel
// buffer is allocated.
func Decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ink: decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d (max %d pixels)", ErrTooLarge, cfg.Width, cfg.Height, MaxPixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ink: decode image: %w", err)
	}
	return img, nil
}
