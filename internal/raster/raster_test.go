package raster

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func filled(t *testing.T) *Canvas {
	t.Helper()
	c := NewCanvas(2, 2)
	if err := c.WriteRow([]byte{0, 255}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := c.WriteRow([]byte{128, 64}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return c
}

func TestCanvasBottomUp(t *testing.T) {
	img := filled(t).Image()

	// First row written is the bottom row.
	tests := []struct {
		x, y int
		want uint8
	}{
		{0, 1, 0}, {1, 1, 255},
		{0, 0, 128}, {1, 0, 64},
	}
	for _, tt := range tests {
		if got := img.GrayAt(tt.x, tt.y).Y; got != tt.want {
			t.Errorf("pixel (%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCanvasChecks(t *testing.T) {
	c := NewCanvas(2, 1)
	if err := c.WriteRow([]byte{1}); err == nil {
		t.Error("short row accepted")
	}
	if err := c.Close(); err == nil {
		t.Error("Close of an empty canvas succeeded")
	}
	if err := c.WriteRow([]byte{1, 2}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := c.WriteRow([]byte{1, 2}); err == nil {
		t.Error("extra row accepted")
	}
}

func TestFit(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 40, 20))

	if got := Fit(img, 0).Bounds(); got != img.Bounds() {
		t.Errorf("Fit(0) bounds = %v, want %v", got, img.Bounds())
	}
	got := Fit(img, 10).Bounds()
	if got.Dx() != 10 || got.Dy() != 5 {
		t.Errorf("Fit(10) size = %dx%d, want 10x5", got.Dx(), got.Dy())
	}

	tall := image.NewGray(image.Rect(0, 0, 20, 40))
	got = Fit(tall, 10).Bounds()
	if got.Dx() != 5 || got.Dy() != 10 {
		t.Errorf("Fit(10) size = %dx%d, want 5x10", got.Dx(), got.Dy())
	}
}

func TestEncode(t *testing.T) {
	img := filled(t).Image()
	decoders := map[Format]func(*bytes.Buffer) (image.Image, error){
		PNG:  func(b *bytes.Buffer) (image.Image, error) { return png.Decode(b) },
		TIFF: func(b *bytes.Buffer) (image.Image, error) { return tiff.Decode(b) },
		BMP:  func(b *bytes.Buffer) (image.Image, error) { return bmp.Decode(b) },
	}

	for format, decode := range decoders {
		var buf bytes.Buffer
		if err := Encode(&buf, img, format); err != nil {
			t.Fatalf("%s: Encode failed: %v", format, err)
		}
		out, err := decode(&buf)
		if err != nil {
			t.Fatalf("%s: decode failed: %v", format, err)
		}
		if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 2 {
			t.Errorf("%s: size = %v, want 2x2", format, out.Bounds())
		}
		r, _, _, _ := out.At(1, 1).RGBA()
		if r>>8 != 255 {
			t.Errorf("%s: pixel (1,1) = %d, want 255", format, r>>8)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{"a.png": PNG, "b.TIF": TIFF, "c.tiff": TIFF, "d.bmp": BMP}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatFromPath("e.jpg"); err == nil {
		t.Error("FormatFromPath(e.jpg) succeeded")
	}
}
