package model

import (
	"fmt"
	"iter"
	"math"

	"github.com/paulmach/orb"
)

// Header is the decoded Type A record of a DEM file.
// It is parsed once and not modified afterwards.
type Header struct {
	Name     string // Quadrangle name (bytes 0-39), right-trimmed
	FreeText string // Remaining descriptive text (bytes 40-143), trimmed

	LevelCode          int         // DEM level code (3 = processed by DMA)
	PatternCode        int         // Elevation pattern (1 = regular)
	PlanimetricCode    int         // Reference system (0 = geographic)
	ZoneCode           int         // Zone in the reference system
	ProjectionParams   [15]float64 // Map projection parameters
	GroundUnits        GroundUnit  // Unit of the corner coordinates
	ElevationUnits     ElevationUnit
	PolygonSides       int       // Always 4 for supported files
	Corners            [4]Corner // Ground coordinates of the DEM polygon
	MinElevation       float64
	MaxElevation       float64
	RotationAngle      float64    // CCW angle from the primary axis
	AccuracyCode       int        // 0 = no Type C record follows
	Resolution         Resolution // Spatial resolution
	ProfileDimension   int        // Rows in the profile array, must be 1
	ProfileCount       int        // Columns in the profile array
	ElevationCount     int        // Samples per profile, taken from the first profile
}

// Corner is one vertex of the DEM polygon in ground units (arc-seconds).
type Corner struct {
	X float64 // Longitude
	Y float64 // Latitude
}

// Point returns the corner as an orb point.
func (c Corner) Point() orb.Point {
	return orb.Point{c.X, c.Y}
}

// Degrees converts an arc-second corner to decimal degrees.
func (c Corner) Degrees() orb.Point {
	return orb.Point{c.X / 3600, c.Y / 3600}
}

// Resolution is the DEM spatial resolution
type Resolution struct {
	X, Y, Z float32
}

// ElevationRange returns max - min elevation.
func (h *Header) ElevationRange() float64 {
	return h.MaxElevation - h.MinElevation
}

// Width returns the ground distance between the first and third corner
// along the x axis.
func (h *Header) Width() float64 {
	return math.Abs(h.Corners[0].X - h.Corners[2].X)
}

// Height returns the ground distance between the first and second corner
// along the y axis.
func (h *Header) Height() float64 {
	return math.Abs(h.Corners[0].Y - h.Corners[1].Y)
}

// Ring returns the DEM polygon as a closed ring in ground units.
func (h *Header) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(h.Corners)+1)
	for _, c := range h.Corners {
		ring = append(ring, c.Point())
	}
	return append(ring, h.Corners[0].Point())
}

// Bound returns the bounding box of the DEM polygon in degrees.
func (h *Header) Bound() orb.Bound {
	b := orb.Bound{Min: h.Corners[0].Degrees(), Max: h.Corners[0].Degrees()}
	for _, c := range h.Corners[1:] {
		b = b.Extend(c.Degrees())
	}
	return b
}

// GroundUnit is the DEM ground units code
type GroundUnit int

const (
	GroundRadians    GroundUnit = iota // Radians
	GroundFeet                         // Feet
	GroundMeters                       // Meters
	GroundArcSeconds                   // Arc-seconds
)

func (u GroundUnit) String() string {
	switch u {
	case GroundRadians:
		return "radians"
	case GroundFeet:
		return "feet"
	case GroundMeters:
		return "meters"
	case GroundArcSeconds:
		return "arc-seconds"
	default:
		return fmt.Sprintf("unknown (%d)", int(u))
	}
}

// ElevationUnit is the DEM elevation units code
type ElevationUnit int

const (
	ElevationFeet   ElevationUnit = 1
	ElevationMeters ElevationUnit = 2
)

func (u ElevationUnit) String() string {
	switch u {
	case ElevationFeet:
		return "feet"
	case ElevationMeters:
		return "meters"
	default:
		return fmt.Sprintf("unknown (%d)", int(u))
	}
}

// Profile is one decoded Type B record.
//
// The elevation samples are decoded lazily from the record buffer, which
// belongs to the reader that produced the profile. A profile is only valid
// until the next record is read.
type Profile struct {
	ID             int // 1-based sequence number
	Dimension      int // Row of the profile array
	ElevationCount int
	Columns        int
	Start          Corner  // Ground coordinate of the first sample
	LocalDatum     float64 // Always 0.0 for one-degree DEMs
	MinElevation   float64
	MaxElevation   float64

	// Sample decodes elevation i; it is set by the reader.
	Sample func(i int) (int, error)

	err error
}

// Elevations yields (index, elevation) pairs in order. Iteration stops at
// the first sample that cannot be decoded; see Err.
func (p *Profile) Elevations() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for i := 0; i < p.ElevationCount; i++ {
			elev, err := p.Sample(i)
			if err != nil {
				p.err = err
				return
			}
			if !yield(i, elev) {
				return
			}
		}
	}
}

// Err returns the error that stopped the last Elevations iteration.
func (p *Profile) Err() error {
	return p.err
}
