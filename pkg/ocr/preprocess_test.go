package ocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocessProducesGrayPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	out, err := Preprocess(encodeJPEG(t, src), 1)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if _, ok := img.(*image.Gray); !ok {
		t.Errorf("expected *image.Gray, got %T", img)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("bounds = %v, want 40x20", b)
	}
}

func TestPreprocessScale(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 30, 10))
	var buf bytes.Buffer
	png.Encode(&buf, src)

	out, err := Preprocess(buf.Bytes(), 2)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Width != 60 || cfg.Height != 20 {
		t.Errorf("scaled size = %dx%d, want 60x20", cfg.Width, cfg.Height)
	}
}

func TestPreprocessErrors(t *testing.T) {
	if _, err := Preprocess(nil, 1); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := Preprocess([]byte("not an image"), 1); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestGrayscaleLuma(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.White)
	src.Set(6, 5, color.Black)

	gray := Grayscale(src)
	if gray.Bounds().Min != (image.Point{}) {
		t.Errorf("grayscale should be rebased to origin, got %v", gray.Bounds())
	}
	if got := gray.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("white pixel = %d, want 255", got)
	}
	if got := gray.GrayAt(1, 0).Y; got != 0 {
		t.Errorf("black pixel = %d, want 0", got)
	}
}

func TestScaleBounds(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	if Scale(img, 1) != img {
		t.Error("factor 1 should return the input")
	}
	if Scale(img, 0.5) != img {
		t.Error("factor < 1 should return the input")
	}
	huge := image.NewGray(image.Rect(0, 0, 5000, 5000))
	if Scale(huge, 2) != huge {
		t.Error("oversized result should return the input")
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Languages) != 1 || cfg.Languages[0] != DefaultLanguage {
		t.Errorf("default languages = %v", cfg.Languages)
	}
	if cfg.PageSegMode != PSMAuto {
		t.Errorf("default PSM = %d, want %d", cfg.PageSegMode, PSMAuto)
	}

	cfg.Apply(
		WithLanguages("deu", "eng"),
		WithPageSegMode(PSMSingleLine),
		WithTessdataPrefix("/usr/share/tessdata"),
		WithScale(1.5),
	)
	if len(cfg.Languages) != 2 || cfg.Languages[0] != "deu" {
		t.Errorf("languages = %v", cfg.Languages)
	}
	if cfg.PageSegMode != PSMSingleLine {
		t.Errorf("PSM = %d", cfg.PageSegMode)
	}
	if cfg.TessdataPrefix != "/usr/share/tessdata" {
		t.Errorf("tessdata = %q", cfg.TessdataPrefix)
	}
	if cfg.Scale != 1.5 {
		t.Errorf("scale = %v", cfg.Scale)
	}

	cfg.Apply(WithLanguages())
	if len(cfg.Languages) != 2 {
		t.Error("empty WithLanguages should keep previous languages")
	}
}
