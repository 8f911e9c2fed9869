package tga

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeader(t *testing.T) {
	got := Header(1201, 300)
	want := [HeaderSize]byte{
		0, 1, 1, // no ID, color map present, uncompressed color-mapped
		0, 0, // first color map entry
		0, 1, // 256 entries
		24,         // bits per entry
		0, 0, 0, 0, // origin
		0xB1, 0x04, // width 1201
		0x2C, 0x01, // height 300
		8, 0,
	}
	if got != want {
		t.Errorf("Header = % x, want % x", got, want)
	}
}

func TestWriteImage(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 2, 2)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.WriteRow([]byte{0, 255}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := w.WriteRow([]byte{128, 64}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	out := buf.Bytes()
	if len(out) != HeaderSize+PaletteSize+4 {
		t.Fatalf("image is %d bytes, want %d", len(out), HeaderSize+PaletteSize+4)
	}

	palette := out[HeaderSize : HeaderSize+PaletteSize]
	for i := 0; i < 256; i++ {
		if palette[3*i] != byte(i) || palette[3*i+1] != byte(i) || palette[3*i+2] != byte(i) {
			t.Fatalf("palette entry %d = % x, want gray %d", i, palette[3*i:3*i+3], i)
		}
	}

	pixels := out[HeaderSize+PaletteSize:]
	if !bytes.Equal(pixels, []byte{0, 255, 128, 64}) {
		t.Errorf("pixels = %v, want [0 255 128 64]", pixels)
	}
}

func TestWriteRowChecks(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 3, 1)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	if err := w.WriteRow([]byte{1, 2}); !errors.Is(err, ErrRowWidth) {
		t.Errorf("short row error = %v, want ErrRowWidth", err)
	}
	if err := w.WriteRow([]byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := w.WriteRow([]byte{4, 5, 6}); !errors.Is(err, ErrTooManyRows) {
		t.Errorf("extra row error = %v, want ErrTooManyRows", err)
	}
	if w.Rows() != 1 {
		t.Errorf("Rows = %d, want 1", w.Rows())
	}
}

func TestCloseMissingRows(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1, 2)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.WriteRow([]byte{9}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrMissingRows) {
		t.Errorf("Close error = %v, want ErrMissingRows", err)
	}
	// The partial image is still flushed.
	if buf.Len() != HeaderSize+PaletteSize+1 {
		t.Errorf("flushed %d bytes, want %d", buf.Len(), HeaderSize+PaletteSize+1)
	}
}

func TestInvalidSize(t *testing.T) {
	for _, size := range [][2]int{{0, 1}, {1, 0}, {MaxDimension + 1, 1}} {
		if _, err := NewWriter(&bytes.Buffer{}, size[0], size[1]); err == nil {
			t.Errorf("NewWriter(%d, %d) succeeded", size[0], size[1])
		}
	}
}
