package dem

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/dyuri/demconv/internal/fixed"
	"github.com/dyuri/demconv/internal/model"
)

// Type B record layout
const (
	// Offset of the elevation count inside a profile record
	elevationCountOffset = 12

	// Offset of the first elevation sample
	sampleBase = 144

	// Samples are packed in 1024 byte physical records holding 170 values
	// followed by 4 blank bytes; the first record also carries the 144
	// byte profile header, so it ends after 146 samples.
	padFirst  = 146
	padPeriod = 170
	padWidth  = 4

	// Largest dimension a TGA header can hold
	maxImageDim = 0xFFFF
)

// SampleOffset returns the byte offset of elevation sample i (0-based)
// inside a Type B record.
func SampleOffset(i int) int {
	off := sampleBase + i*fixed.IntWidth
	if i >= padFirst {
		off += padWidth * ((i-padFirst)/padPeriod + 1)
	}
	return off
}

// Reader decodes a DEM file sequentially: one Type A record followed by
// one Type B record per profile. It never seeks, so it works on pipes and
// decompressed streams.
type Reader struct {
	br     *bufio.Reader
	header *model.Header
	block  []byte
	next   int   // Expected id of the next profile
	err    error // Sticky failure
}

// NewReader creates a new DEM reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		br:    bufio.NewReaderSize(r, TypeBSize),
		block: make([]byte, TypeBSize),
	}
}

// Header returns the header read by ReadHeader, or nil.
func (r *Reader) Header() *model.Header {
	return r.header
}

// ReadHeader reads and validates the Type A record, then probes the first
// profile record for the number of elevations per profile without
// consuming it.
func (r *Reader) ReadHeader() (*model.Header, error) {
	if r.header != nil {
		return r.header, nil
	}

	buf := make([]byte, TypeASize)
	n, err := io.ReadFull(r.br, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, r.fail(IOError(err, "read header record"))
	}

	h, err := ParseHeader(buf[:n])
	if err != nil {
		return nil, r.fail(err)
	}

	// The elevation count lives in the first profile record (absolute
	// offset 1036); it sizes the raster before any profile is streamed.
	peek, err := r.br.Peek(elevationCountOffset + fixed.IntWidth)
	if err != nil {
		if err == io.EOF || err == bufio.ErrBufferFull {
			return nil, r.fail(newError(CodeFormat, ErrUnexpectedEOF, "first profile record is missing"))
		}
		return nil, r.fail(IOError(err, "read first profile record"))
	}
	count, err := fixed.Int(peek, elevationCountOffset)
	if err != nil {
		return nil, r.fail(wrapError(CodeFormat, ErrFieldParse, err, "decode elevations per profile"))
	}
	if count < 1 {
		return nil, r.fail(newError(CodeInvariant, ErrImageSize, "%d elevations per profile", count))
	}
	if count > maxImageDim || h.ProfileCount < 1 || h.ProfileCount > maxImageDim {
		return nil, r.fail(newError(CodeInvariant, ErrImageSize,
			"%d x %d image exceeds %d pixels per side", count, h.ProfileCount, maxImageDim))
	}
	if SampleOffset(count-1)+fixed.IntWidth > TypeBSize {
		return nil, r.fail(newError(CodeInvariant, ErrImageSize,
			"%d elevations do not fit in a %d byte profile record", count, TypeBSize))
	}
	h.ElevationCount = count

	r.header = h
	r.next = 1
	return h, nil
}

// Next decodes the next profile. It returns io.EOF once the number of
// profiles declared by the header has been read. The returned profile and
// its samples are only valid until the following call.
func (r *Reader) Next() (*model.Profile, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.header == nil {
		return nil, errors.New("dem: Next called before ReadHeader")
	}
	if r.next > r.header.ProfileCount {
		return nil, io.EOF
	}

	want := r.next
	n, err := io.ReadFull(r.br, r.block)
	switch {
	case err == io.EOF:
		return nil, r.fail(newError(CodeFormat, ErrUnexpectedEOF,
			"profile %d of %d: record is missing", want, r.header.ProfileCount))
	case err == io.ErrUnexpectedEOF:
		// A short final record is fine as long as it holds every sample.
	case err != nil:
		return nil, r.fail(IOError(err, "read profile %d", want))
	}
	buf := r.block[:n:n]

	p := &fieldParser{buf: buf}

	// Bytes 0-11: profile row (dimension) and column (id)
	dim := p.int(0, "profile row")
	id := p.int(6, "profile id")
	// Bytes 12-23: elevation count and columns
	count := p.int(12, "elevation count")
	columns := p.int(18, "profile columns")
	if p.err != nil {
		return nil, r.fail(fmt.Errorf("profile %d: %w", want, p.err))
	}

	if id != want {
		return nil, r.fail(newError(CodeInvariant, ErrSequenceMismatch,
			"expecting profile id %d, got %d", want, id))
	}
	if dim != r.header.ProfileDimension {
		return nil, r.fail(newError(CodeInvariant, ErrSequenceMismatch,
			"profile %d: expecting profile dimension %d, got %d", id, r.header.ProfileDimension, dim))
	}
	if count != r.header.ElevationCount {
		return nil, r.fail(newError(CodeInvariant, ErrSequenceMismatch,
			"profile %d: expecting %d elevations, got %d", id, r.header.ElevationCount, count))
	}
	if columns != 1 {
		return nil, r.fail(newError(CodeInvariant, ErrSequenceMismatch,
			"profile %d: expecting 1 profile column, got %d", id, columns))
	}

	profile := &model.Profile{
		ID:             id,
		Dimension:      dim,
		ElevationCount: count,
		Columns:        columns,
	}

	// Bytes 24-71: ground coordinate of the first elevation
	profile.Start = model.Corner{
		X: p.double(24, "profile start longitude"),
		Y: p.double(48, "profile start latitude"),
	}

	// Bytes 72-95: local datum elevation, sea level for one-degree DEMs
	profile.LocalDatum = p.double(72, "local datum elevation")

	// Bytes 96-143: profile min and max elevation
	profile.MinElevation = p.double(96, "profile minimum elevation")
	profile.MaxElevation = p.double(120, "profile maximum elevation")
	if p.err != nil {
		return nil, r.fail(fmt.Errorf("profile %d: %w", id, p.err))
	}

	if profile.LocalDatum != 0.0 {
		return nil, r.fail(newError(CodeInvariant, ErrLocalDatum,
			"profile %d: expecting local datum 0.0, got %.1f", id, profile.LocalDatum))
	}

	if end := SampleOffset(count-1) + fixed.IntWidth; end > len(buf) {
		return nil, r.fail(newError(CodeFormat, ErrUnexpectedEOF,
			"profile %d: record holds %d bytes, samples need %d", id, len(buf), end))
	}

	profile.Sample = func(i int) (int, error) {
		if i < 0 || i >= count {
			return 0, fmt.Errorf("profile %d: sample %d out of range [0, %d)", id, i, count)
		}
		v, err := fixed.Int(buf, SampleOffset(i))
		if err != nil {
			return 0, r.fail(wrapError(CodeFormat, ErrFieldParse, err, "profile %d sample %d", id, i))
		}
		return v, nil
	}

	r.next++
	return profile, nil
}

func (r *Reader) fail(err error) error {
	if r.err == nil {
		r.err = err
	}
	return err
}
