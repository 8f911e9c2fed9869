// Package fixed decodes numbers stored in fixed-width ASCII columns.
//
// USGS DEM records lay out every value at a known byte offset with a known
// width: integers take 6 characters, single precision reals 12 and double
// precision reals 24. Reals may use the Fortran exponent marker 'D'.
package fixed

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/elliotwutingfeng/asciiset"
)

// Field widths in characters
const (
	IntWidth    = 6
	FloatWidth  = 12
	DoubleWidth = 24
)

var (
	// ErrShortField is returned when a field would extend past the buffer.
	ErrShortField = errors.New("field extends past end of record")
	// ErrNotNumeric is returned when a field holds no valid number.
	ErrNotNumeric = errors.New("field is not numeric")
)

var (
	intChars  asciiset.ASCIISet
	realChars asciiset.ASCIISet
)

func init() {
	var ok bool
	if intChars, ok = asciiset.MakeASCIISet("0123456789+- "); !ok {
		panic("fixed: invalid integer character set")
	}
	if realChars, ok = asciiset.MakeASCIISet("0123456789+-. EDed"); !ok {
		panic("fixed: invalid real character set")
	}
}

// FieldError describes a field that could not be decoded
type FieldError struct {
	Offset int    // Offset of the field within its record
	Width  int    // Declared width
	Text   string // Raw field content (may be shorter than Width)
	Err    error  // ErrShortField or ErrNotNumeric
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field at offset %d (width %d) %q: %v", e.Offset, e.Width, e.Text, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// slice returns exactly width bytes starting at off, never reading past them.
func slice(buf []byte, off, width int) ([]byte, error) {
	if off < 0 || off+width > len(buf) {
		text := ""
		if off >= 0 && off < len(buf) {
			text = string(buf[off:])
		}
		return nil, &FieldError{Offset: off, Width: width, Text: text, Err: ErrShortField}
	}
	return buf[off : off+width : off+width], nil
}

// trim strips the blanks and NUL padding around a field.
func trim(field []byte) []byte {
	return bytes.Trim(field, " \x00")
}

// valid screens a field before strconv sees it. For integers it only makes
// the ErrNotNumeric diagnostic independent of strconv's error text; for
// reals it also rejects Inf, NaN and hex literals that ParseFloat accepts.
func valid(field []byte, set *asciiset.ASCIISet) bool {
	for i := 0; i < len(field); i++ {
		if !set.Contains(field[i]) {
			return false
		}
	}
	return true
}

// Int decodes a 6 character decimal integer at off.
func Int(buf []byte, off int) (int, error) {
	field, err := slice(buf, off, IntWidth)
	if err != nil {
		return 0, err
	}
	text := trim(field)
	if len(text) == 0 || !valid(text, &intChars) {
		return 0, &FieldError{Offset: off, Width: IntWidth, Text: string(field), Err: ErrNotNumeric}
	}
	v, err := strconv.Atoi(string(text))
	if err != nil {
		return 0, &FieldError{Offset: off, Width: IntWidth, Text: string(field), Err: ErrNotNumeric}
	}
	return v, nil
}

// Float decodes a 12 character real at off.
func Float(buf []byte, off int) (float32, error) {
	v, err := parseReal(buf, off, FloatWidth, 32)
	return float32(v), err
}

// Double decodes a 24 character real at off.
func Double(buf []byte, off int) (float64, error) {
	return parseReal(buf, off, DoubleWidth, 64)
}

func parseReal(buf []byte, off, width, bitSize int) (float64, error) {
	field, err := slice(buf, off, width)
	if err != nil {
		return 0, err
	}
	text := trim(field)
	if len(text) == 0 || !valid(text, &realChars) {
		return 0, &FieldError{Offset: off, Width: width, Text: string(field), Err: ErrNotNumeric}
	}

	// Fortran exponent: 0.123456D+04
	literal := make([]byte, len(text))
	for i, c := range text {
		switch c {
		case 'D', 'd':
			literal[i] = 'E'
		default:
			literal[i] = c
		}
	}

	v, err := strconv.ParseFloat(string(literal), bitSize)
	if err != nil {
		return 0, &FieldError{Offset: off, Width: width, Text: string(field), Err: ErrNotNumeric}
	}
	return v, nil
}
