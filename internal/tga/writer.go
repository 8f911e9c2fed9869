// Package tga writes uncompressed 8-bit color-mapped Truevision TGA images
// row by row.
package tga

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the fixed TGA header
	HeaderSize = 18
	// PaletteSize is the size of the 256 entry, 24-bit grayscale color map
	PaletteSize = 256 * 3

	// MaxDimension is the largest width or height a TGA header can hold
	MaxDimension = 0xFFFF
)

var (
	// ErrRowWidth is returned when a row does not match the image width.
	ErrRowWidth = errors.New("tga: row width does not match image width")
	// ErrTooManyRows is returned when more rows than the image height are written.
	ErrTooManyRows = errors.New("tga: too many rows")
	// ErrMissingRows is returned by Close when fewer rows than the height were written.
	ErrMissingRows = errors.New("tga: missing rows")
)

// Writer streams an image to an io.Writer without holding more than one
// row. Rows are stored bottom-up: the first row written is the bottom row
// of the image.
type Writer struct {
	w      *bufio.Writer
	width  int
	height int
	rows   int
	err    error
}

// NewWriter writes the image header and grayscale palette and returns a
// writer ready for the first row.
func NewWriter(w io.Writer, width, height int) (*Writer, error) {
	if width < 1 || width > MaxDimension || height < 1 || height > MaxDimension {
		return nil, fmt.Errorf("tga: invalid image size %dx%d", width, height)
	}

	tw := &Writer{
		w:      bufio.NewWriter(w),
		width:  width,
		height: height,
	}
	if err := tw.writeHeader(); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := tw.writePalette(); err != nil {
		return nil, fmt.Errorf("write palette: %w", err)
	}
	return tw, nil
}

// Header returns the 18 byte header for an image of the given size. All
// multi-byte fields are little-endian.
func Header(width, height int) [HeaderSize]byte {
	var h [HeaderSize]byte

	// Offset 0x00: ID length, no image ID
	h[0] = 0
	// Offset 0x01: color map type, a palette follows
	h[1] = 1
	// Offset 0x02: image type, uncompressed color-mapped
	h[2] = 1
	// Offset 0x03-0x04: first color map entry
	binary.LittleEndian.PutUint16(h[3:5], 0)
	// Offset 0x05-0x06: color map length
	binary.LittleEndian.PutUint16(h[5:7], 256)
	// Offset 0x07: bits per color map entry
	h[7] = 24
	// Offset 0x08-0x0B: x and y origin
	binary.LittleEndian.PutUint16(h[8:10], 0)
	binary.LittleEndian.PutUint16(h[10:12], 0)
	// Offset 0x0C-0x0F: width and height
	binary.LittleEndian.PutUint16(h[12:14], uint16(width))
	binary.LittleEndian.PutUint16(h[14:16], uint16(height))
	// Offset 0x10: bits per pixel (palette index)
	h[16] = 8
	// Offset 0x11: descriptor, bottom-left origin, no alpha bits
	h[17] = 0

	return h
}

func (w *Writer) writeHeader() error {
	h := Header(w.width, w.height)
	_, err := w.w.Write(h[:])
	return err
}

// writePalette writes a linear gray ramp: entry i is (i, i, i).
func (w *Writer) writePalette() error {
	var palette [PaletteSize]byte
	for i := 0; i < 256; i++ {
		palette[3*i] = byte(i)
		palette[3*i+1] = byte(i)
		palette[3*i+2] = byte(i)
	}
	_, err := w.w.Write(palette[:])
	return err
}

// WriteRow appends one row of palette indices.
func (w *Writer) WriteRow(row []byte) error {
	if w.err != nil {
		return w.err
	}
	if len(row) != w.width {
		return fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(row), w.width)
	}
	if w.rows >= w.height {
		return ErrTooManyRows
	}
	if _, err := w.w.Write(row); err != nil {
		w.err = err
		return err
	}
	w.rows++
	return nil
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int {
	return w.rows
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Close flushes the image. It does not close the underlying writer and
// fails if fewer rows than the image height were written; the rows that
// were written are flushed regardless.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.rows < w.height {
		return fmt.Errorf("%w: wrote %d of %d", ErrMissingRows, w.rows, w.height)
	}
	return nil
}
