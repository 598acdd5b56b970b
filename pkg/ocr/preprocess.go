package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// maxScaledPixels bounds the upsampled image area.
const maxScaledPixels = 16_000_000

// Preprocess decodes img, converts it to single-channel grayscale,
// upsamples it when scale > 1 and returns it PNG encoded.
func Preprocess(img []byte, scale float64) ([]byte, error) {
	if len(img) == 0 {
		return nil, ErrEmptyImage
	}

	src, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	gray := Scale(Grayscale(src), scale)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode grayscale: %w", err)
	}
	return buf.Bytes(), nil
}

// Grayscale converts img to an 8-bit single channel image.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Scale resizes img by factor using Catmull-Rom interpolation.
// Factors <= 1 and results above maxScaledPixels return img unchanged.
func Scale(img *image.Gray, factor float64) *image.Gray {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w <= 0 || h <= 0 || w*h > maxScaledPixels {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
