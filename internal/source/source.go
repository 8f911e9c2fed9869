// Package source opens DEM files, transparently decompressing the
// archive formats DEM tiles are commonly distributed in.
package source

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Format is the container format of a DEM source
type Format int

const (
	Plain Format = iota
	Gzip
	Zstd
	XZ
	LZ4
	Bzip2
)

func (f Format) String() string {
	switch f {
	case Plain:
		return "plain"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case XZ:
		return "xz"
	case LZ4:
		return "lz4"
	case Bzip2:
		return "bzip2"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Magic numbers of the supported formats
var signatures = []struct {
	format Format
	magic  []byte
}{
	{Gzip, []byte{0x1f, 0x8b}},
	{Zstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{XZ, []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{LZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
	{Bzip2, []byte{'B', 'Z', 'h'}},
}

// Detect identifies the format from the first bytes of a stream.
func Detect(head []byte) Format {
	for _, sig := range signatures {
		if bytes.HasPrefix(head, sig.magic) {
			return sig.format
		}
	}
	return Plain
}

// NewReader sniffs r and returns a reader producing the decompressed DEM.
// The returned closer releases decoder resources; it does not close r.
func NewReader(r io.Reader) (io.ReadCloser, Format, error) {
	br := bufio.NewReader(r)

	// A short or empty stream is passed through; the DEM decoder reports it.
	head, _ := br.Peek(6)
	format := Detect(head)

	switch format {
	case Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, format, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, format, nil

	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, format, fmt.Errorf("open zstd stream: %w", err)
		}
		return zr.IOReadCloser(), format, nil

	case XZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, format, fmt.Errorf("open xz stream: %w", err)
		}
		return io.NopCloser(xr), format, nil

	case LZ4:
		return io.NopCloser(lz4.NewReader(br)), format, nil

	case Bzip2:
		return io.NopCloser(bzip2.NewReader(br)), format, nil

	default:
		return io.NopCloser(br), format, nil
	}
}

// File is an opened, possibly decompressed, DEM file
type File struct {
	io.Reader
	Path   string
	Format Format

	file    *os.File
	decoder io.Closer
}

// Open opens the DEM file at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open DEM file: %w", err)
	}

	rc, format, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &File{
		Reader:  rc,
		Path:    path,
		Format:  format,
		file:    f,
		decoder: rc,
	}, nil
}

// Close releases the decoder and closes the file.
func (f *File) Close() error {
	derr := f.decoder.Close()
	if err := f.file.Close(); err != nil {
		return err
	}
	return derr
}
