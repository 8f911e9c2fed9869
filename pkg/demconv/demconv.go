// Package demconv converts USGS one-degree DEM files into 8-bit grayscale
// TGA images.
//
// This package can be used as a library to convert single files, compute a
// shared elevation scale across adjacent DEMs, and inspect DEM headers.
//
// Example usage:
//
//	in, _ := os.Open("lake_placid-w.dem")
//	defer in.Close()
//	out, _ := os.Create("lake_placid-w.tga")
//	defer out.Close()
//
//	res, err := demconv.Convert(in, out, demconv.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Width, res.Height, res.Policy)
package demconv

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/demconv/internal/dem"
	"github.com/dyuri/demconv/internal/model"
	"github.com/dyuri/demconv/internal/scale"
)

// Header is the decoded Type A record of a DEM file
type Header = model.Header

// Range is the elevation extent of one or more DEM files
type Range = scale.Range

// Error is returned by every failing operation. Code classifies it.
type Error = dem.Error

// Code classifies an Error
type Code = dem.Code

const (
	CodeIO        = dem.CodeIO
	CodeFormat    = dem.CodeFormat
	CodeInvariant = dem.CodeInvariant
	CodeConfig    = dem.CodeConfig
)

// Common errors, matched with errors.Is
var (
	ErrUnexpectedEOF    = dem.ErrUnexpectedEOF
	ErrFieldParse       = dem.ErrFieldParse
	ErrSequenceMismatch = dem.ErrSequenceMismatch
	ErrLocalDatum       = dem.ErrLocalDatum
	ErrPolygon          = dem.ErrPolygon
	ErrNegativeRange    = dem.ErrNegativeRange
	ErrDimension        = dem.ErrDimension
	ErrResolution       = dem.ErrResolution
	ErrProfileCount     = dem.ErrProfileCount
	ErrImageSize        = dem.ErrImageSize
	ErrOverride         = dem.ErrOverride
	ErrScale            = dem.ErrScale
	ErrNoFiles          = errors.New("no input files")
)

// CodeOf returns the code of the first Error in err's chain, or "".
func CodeOf(err error) Code {
	return dem.CodeOf(err)
}

// Options controls a conversion. The zero value scales each file by its
// own elevation range.
type Options struct {
	// MinElevation and Scale override the computed scaling. They must be
	// set together and Scale must be positive.
	MinElevation *float64
	Scale        *float64

	// Clamp saturates out-of-range gray levels at 0 and 255 instead of
	// wrapping them modulo 256.
	Clamp bool

	// OnHeader is called once the header has been validated, before the
	// output is opened.
	OnHeader func(h *Header, p scale.Policy)

	// Logger receives progress messages. Nil discards them.
	Logger logrus.FieldLogger
}

// Validate checks the scaling override without touching any input.
func (o Options) Validate() error {
	if (o.MinElevation == nil) != (o.Scale == nil) {
		return dem.ConfigError(dem.ErrOverride, "invalid scale override")
	}
	if o.Scale != nil && !(*o.Scale > 0) {
		return dem.ConfigError(dem.ErrScale, "invalid scale %g", *o.Scale)
	}
	return nil
}

// policy picks the override when given, the header range otherwise.
func (o Options) policy(h *Header) scale.Policy {
	if o.Scale != nil {
		return scale.Override{MinElevation: *o.MinElevation, Scale: *o.Scale}
	}
	return scale.Computed{MinElevation: h.MinElevation, Range: h.ElevationRange()}
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Result describes a finished conversion
type Result struct {
	Header *Header
	Policy scale.Policy
	Width  int // Elevations per profile
	Height int // Profiles
}
