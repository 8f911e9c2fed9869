package dem

import (
	"bytes"
	"errors"
	"math"

	"github.com/dyuri/demconv/internal/fixed"
	"github.com/dyuri/demconv/internal/model"
	"golang.org/x/text/encoding/charmap"
)

// Record sizes
const (
	TypeASize = 1024 // Type A (header) record
	TypeBSize = 8192 // Type B (profile) logical block
)

// ParseHeader decodes a Type A record. buf is padded with NUL bytes if it
// is shorter than TypeASize.
//
// The elevation count is not part of the Type A record and is left at zero;
// Reader.ReadHeader fills it from the first profile.
func ParseHeader(buf []byte) (*model.Header, error) {
	if len(buf) < TypeASize {
		padded := make([]byte, TypeASize)
		copy(padded, buf)
		buf = padded
	}
	buf = buf[:TypeASize:TypeASize]

	h := &model.Header{}
	p := &fieldParser{buf: buf}

	// Bytes 0-39: quadrangle name, 40-143: free text
	h.Name = decodeText(buf[0:40])
	h.FreeText = decodeText(buf[40:144])

	// Descriptive fields are only reported, so blanks decode as zero.
	// Bytes 144-167: level, pattern, planimetric system and zone codes
	h.LevelCode = p.optInt(144)
	h.PatternCode = p.optInt(150)
	h.PlanimetricCode = p.optInt(156)
	h.ZoneCode = p.optInt(162)

	// Bytes 168-527: 15 map projection parameters
	for i := range h.ProjectionParams {
		h.ProjectionParams[i] = p.optDouble(168 + i*fixed.DoubleWidth)
	}

	// Bytes 528-539: ground and elevation units
	h.GroundUnits = model.GroundUnit(p.int(528, "ground units code"))
	h.ElevationUnits = model.ElevationUnit(p.int(534, "elevation units code"))

	// Bytes 540-545: polygon sides
	h.PolygonSides = p.int(540, "polygon sides")
	if p.err != nil {
		return nil, p.err
	}
	if h.PolygonSides != 4 {
		return nil, newError(CodeInvariant, ErrPolygon, "DEM polygon has %d sides", h.PolygonSides)
	}

	// Bytes 546-737: four (x, y) corner pairs
	for i := range h.Corners {
		h.Corners[i] = model.Corner{
			X: p.double(546+(2*i)*fixed.DoubleWidth, "corner longitude"),
			Y: p.double(546+(2*i+1)*fixed.DoubleWidth, "corner latitude"),
		}
	}

	// Bytes 738-785: minimum and maximum elevation
	h.MinElevation = p.double(738, "minimum elevation")
	h.MaxElevation = p.double(762, "maximum elevation")
	if p.err != nil {
		return nil, p.err
	}
	if h.ElevationRange() < 0 {
		return nil, newError(CodeInvariant, ErrNegativeRange,
			"elevation range %.2f to %.2f is negative", h.MinElevation, h.MaxElevation)
	}

	// Bytes 786-815: rotation angle and accuracy code
	h.RotationAngle = p.optDouble(786)
	h.AccuracyCode = p.optInt(810)

	// Bytes 816-851: x, y, z spatial resolution
	h.Resolution = model.Resolution{
		X: p.float(816, "x resolution"),
		Y: p.optFloat(828),
		Z: p.optFloat(840),
	}

	// Bytes 852-863: profile array rows and columns
	h.ProfileDimension = p.int(852, "profile rows")
	h.ProfileCount = p.int(858, "profile columns")
	if p.err != nil {
		return nil, p.err
	}

	if h.ProfileDimension != 1 {
		return nil, newError(CodeInvariant, ErrDimension,
			"can't handle %d dimensional DEM files", h.ProfileDimension)
	}

	if !(h.Resolution.X > 0) {
		return nil, newError(CodeInvariant, ErrResolution,
			"x resolution is %g", h.Resolution.X)
	}
	if h.ProfileCount < 1 {
		return nil, newError(CodeInvariant, ErrProfileCount,
			"header declares %d profiles", h.ProfileCount)
	}

	expected := ExpectedProfiles(h)
	if h.ProfileCount != expected {
		return nil, newError(CodeInvariant, ErrProfileCount,
			"header declares %d profiles, corners and resolution give %d", h.ProfileCount, expected)
	}

	return h, nil
}

// ExpectedProfiles derives the profile count from the polygon height and
// the x resolution: ceil(height / xres) + 1. A quotient within 1e-6 of an
// integer is snapped first so float noise in the corners does not add a
// profile. It returns -1 when the x resolution is not positive.
func ExpectedProfiles(h *model.Header) int {
	if h.Resolution.X <= 0 {
		return -1
	}
	q := h.Height() / float64(h.Resolution.X)
	if r := math.Round(q); math.Abs(q-r) < 1e-6 {
		q = r
	}
	return int(math.Ceil(q)) + 1
}

// decodeText converts an ISO-8859-1 text field to UTF-8, dropping
// trailing blanks and NUL padding.
func decodeText(field []byte) string {
	field = bytes.TrimRight(field, " \t\r\n\x00")
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(field)
	if err != nil {
		return string(field)
	}
	return string(text)
}

// fieldParser decodes fixed fields and keeps the first failure.
type fieldParser struct {
	buf []byte
	err error
}

func (p *fieldParser) fail(name string, err error) {
	if p.err != nil {
		return
	}
	kind := ErrFieldParse
	if isShort(err) {
		kind = ErrUnexpectedEOF
	}
	p.err = wrapError(CodeFormat, kind, err, "decode %s", name)
}

func (p *fieldParser) int(off int, name string) int {
	v, err := fixed.Int(p.buf, off)
	if err != nil {
		p.fail(name, err)
	}
	return v
}

func (p *fieldParser) float(off int, name string) float32 {
	v, err := fixed.Float(p.buf, off)
	if err != nil {
		p.fail(name, err)
	}
	return v
}

func (p *fieldParser) double(off int, name string) float64 {
	v, err := fixed.Double(p.buf, off)
	if err != nil {
		p.fail(name, err)
	}
	return v
}

func (p *fieldParser) optInt(off int) int {
	v, _ := fixed.Int(p.buf, off)
	return v
}

func (p *fieldParser) optFloat(off int) float32 {
	v, _ := fixed.Float(p.buf, off)
	return v
}

func (p *fieldParser) optDouble(off int) float64 {
	v, _ := fixed.Double(p.buf, off)
	return v
}

// isShort reports whether a field error was caused by a truncated record.
func isShort(err error) bool {
	return errors.Is(err, fixed.ErrShortField)
}
