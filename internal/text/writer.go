package text

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dyuri/demconv/internal/model"
	"github.com/dyuri/demconv/internal/scale"
)

// Writer prints the plain text reports of the auxiliary commands
type Writer struct {
	w io.Writer
}

// NewWriter creates a new report writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteName writes a shell-sourceable NAME line and, when normalize is
// set, the name with spaces folded into a file-name-friendly form.
func (w *Writer) WriteName(h *model.Header, normalize bool) error {
	name := h.Name
	if normalize {
		name = NormalizeName(name)
	}
	_, err := fmt.Fprintf(w.w, "NAME=\"%s\";\n", name)
	return err
}

// WriteLocation writes the LOC line built from the fourth corner, e.g.
// LOC="44.00N,74.00W";
func (w *Writer) WriteLocation(h *model.Header) error {
	c := h.Corners[3].Degrees()

	ns := 'N'
	if c.Lat() < 0 {
		ns = 'S'
	}
	ew := 'E'
	if c.Lon() < 0 {
		ew = 'W'
	}

	_, err := fmt.Fprintf(w.w, "LOC=\"%.2f%c,%.2f%c\";\n", math.Abs(c.Lat()), ns, math.Abs(c.Lon()), ew)
	return err
}

// WriteDEMName writes the normalized quadrangle name.
func (w *Writer) WriteDEMName(h *model.Header) error {
	_, err := fmt.Fprintf(w.w, "DEM Name:\"%s\"\n", NormalizeName(h.Name))
	return err
}

// WriteBounds writes the first and third corner in degrees.
func (w *Writer) WriteBounds(h *model.Header) error {
	a := h.Corners[0].Degrees()
	b := h.Corners[2].Degrees()
	_, err := fmt.Fprintf(w.w, "DEM Location:(%.4f,%.4f)-(%.4f,%.4f)\n", a.Lon(), a.Lat(), b.Lon(), b.Lat())
	return err
}

// WriteScale writes the global minimum elevation and the scale that maps
// the whole range onto 0..255, in the format read back by ReadScale.
func (w *Writer) WriteScale(r scale.Range) error {
	_, err := fmt.Fprintf(w.w, "%g %g\n", r.Min, r.Policy().Factor())
	return err
}

// WriteInfo writes a human readable dump of the header.
func (w *Writer) WriteInfo(path string, h *model.Header) error {
	var b strings.Builder

	fmt.Fprintf(&b, "DEM File: %s\n", path)
	b.WriteString(strings.Repeat("=", 50))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Name:               %s\n", h.Name)
	if h.FreeText != "" {
		fmt.Fprintf(&b, "Description:        %s\n", h.FreeText)
	}
	fmt.Fprintf(&b, "Level code:         %d%s\n", h.LevelCode, describe(h.LevelCode == 3, " (processed by DMA)"))
	fmt.Fprintf(&b, "Pattern code:       %d%s\n", h.PatternCode, describe(h.PatternCode == 1, " (regular elevation pattern)"))
	fmt.Fprintf(&b, "Reference system:   %d%s\n", h.PlanimetricCode, describe(h.PlanimetricCode == 0, " (geographic)"))
	fmt.Fprintf(&b, "Zone code:          %d\n", h.ZoneCode)
	fmt.Fprintf(&b, "Ground units:       %s\n", h.GroundUnits)
	fmt.Fprintf(&b, "Elevation units:    %s\n", h.ElevationUnits)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Corners (degrees):\n")
	for i, c := range h.Corners {
		d := c.Degrees()
		fmt.Fprintf(&b, "  %d: (%.4f, %.4f)\n", i+1, d.Lon(), d.Lat())
	}
	fmt.Fprintf(&b, "Ground width/height: %.2f, %.2f\n", h.Width(), h.Height())
	b.WriteString("\n")

	fmt.Fprintf(&b, "Elevation:          %.2f to %.2f (range %.2f)\n", h.MinElevation, h.MaxElevation, h.ElevationRange())
	fmt.Fprintf(&b, "Rotation angle:     %.2f\n", h.RotationAngle)
	fmt.Fprintf(&b, "Accuracy code:      %d%s\n", h.AccuracyCode, describe(h.AccuracyCode != 0, " (type C records follow)"))
	fmt.Fprintf(&b, "Resolution x/y/z:   %.2f, %.2f, %.2f\n", h.Resolution.X, h.Resolution.Y, h.Resolution.Z)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Profiles:           %d (dimension %d)\n", h.ProfileCount, h.ProfileDimension)
	if h.ElevationCount > 0 {
		fmt.Fprintf(&b, "Elevations/profile: %d\n", h.ElevationCount)
		fmt.Fprintf(&b, "Image size:         %d x %d\n", h.ElevationCount, h.ProfileCount)
	}

	_, err := io.WriteString(w.w, b.String())
	return err
}

func describe(cond bool, text string) string {
	if cond {
		return text
	}
	return ""
}
