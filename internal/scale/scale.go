// Package scale maps raw DEM elevations to 8-bit gray levels.
package scale

import (
	"fmt"
	"math"
)

// Policy supplies the origin and multiplier of the elevation mapping.
type Policy interface {
	Min() float64
	Factor() float64
}

// Computed derives the factor from the elevation range of the data so the
// full range spans 0..255.
type Computed struct {
	MinElevation float64
	Range        float64
}

// Min returns the elevation mapped to gray level 0.
func (c Computed) Min() float64 { return c.MinElevation }

// Factor returns 255/range, or 0 when the range is empty.
func (c Computed) Factor() float64 {
	if c.Range == 0 {
		return 0
	}
	return 255.0 / c.Range
}

func (c Computed) String() string {
	return fmt.Sprintf("computed (min %g, range %g, scale %g)", c.MinElevation, c.Range, c.Factor())
}

// Override is a mapping supplied by the caller, typically shared by a set
// of adjacent DEMs so their gray levels match.
type Override struct {
	MinElevation float64
	Scale        float64
}

// Min returns the elevation mapped to gray level 0.
func (o Override) Min() float64 { return o.MinElevation }

// Factor returns the supplied scale.
func (o Override) Factor() float64 { return o.Scale }

func (o Override) String() string {
	return fmt.Sprintf("override (min %g, scale %g)", o.MinElevation, o.Scale)
}

// Mapper converts elevations with a fixed policy.
type Mapper struct {
	min    float64
	factor float64
	clamp  bool
}

// NewMapper returns a mapper for p. With clamp set, values outside 0..255
// saturate; otherwise they wrap modulo 256.
func NewMapper(p Policy, clamp bool) Mapper {
	return Mapper{min: p.Min(), factor: p.Factor(), clamp: clamp}
}

// Pixel returns the gray level of elev, truncated toward zero.
func (m Mapper) Pixel(elev int) byte {
	v := math.Trunc((float64(elev) - m.min) * m.factor)
	if m.clamp {
		switch {
		case math.IsNaN(v), v <= 0:
			return 0
		case v >= 255:
			return 255
		}
		return byte(v)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return 0
	}
	return byte(int32(v))
}
