// Package raster renders DEM profiles into an in-memory grayscale image
// for preview output.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Canvas collects rows into an image.Gray. Like the TGA output, the first
// row written becomes the bottom row of the image.
type Canvas struct {
	img  *image.Gray
	rows int
}

// NewCanvas creates a canvas of the given size
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewGray(image.Rect(0, 0, width, height))}
}

// WriteRow stores the next row.
func (c *Canvas) WriteRow(row []byte) error {
	b := c.img.Bounds()
	if len(row) != b.Dx() {
		return fmt.Errorf("raster: row has %d pixels, want %d", len(row), b.Dx())
	}
	if c.rows >= b.Dy() {
		return errors.New("raster: too many rows")
	}
	y := b.Dy() - 1 - c.rows
	copy(c.img.Pix[y*c.img.Stride:], row)
	c.rows++
	return nil
}

// Close fails if the canvas was not filled.
func (c *Canvas) Close() error {
	if c.rows != c.img.Bounds().Dy() {
		return fmt.Errorf("raster: wrote %d of %d rows", c.rows, c.img.Bounds().Dy())
	}
	return nil
}

// Image returns the rendered image.
func (c *Canvas) Image() *image.Gray {
	return c.img
}

// Fit scales img so its longer side is size pixels. A size of 0 returns
// img unchanged.
func Fit(img image.Image, size uint) image.Image {
	if size == 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() >= b.Dy() {
		return resize.Resize(size, 0, img, resize.MitchellNetravali)
	}
	return resize.Resize(0, size, img, resize.MitchellNetravali)
}

// Format is a preview file format
type Format string

const (
	PNG  Format = "png"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".tif", ".tiff":
		return TIFF, nil
	case ".bmp":
		return BMP, nil
	default:
		return "", fmt.Errorf("unsupported preview format %q (use .png, .tif or .bmp)", filepath.Ext(path))
	}
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
