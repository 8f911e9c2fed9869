// Package demtest builds synthetic DEM files for tests.
package demtest

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	typeASize = 1024
	typeBSize = 8192
)

// File describes a synthetic one-degree DEM.
type File struct {
	Name         string
	PolygonSides int
	Corners      [4][2]float64 // (x, y) in arc-seconds
	MinElevation float64
	MaxElevation float64
	Resolution   [3]float64
	ProfileRows  int
	ProfileCount int // Declared in the header; 0 means len(Profiles)

	Profiles [][]int

	// Optional per-profile overrides, indexed like Profiles
	IDs         []int
	Dimensions  []int
	Counts      []int
	LocalDatums []float64
}

// Small returns a 2 x 2 DEM with elevations 0..255: the profiles are
// [0 255] and [128 64].
func Small() *File {
	return &File{
		Name:         "TEST QUAD",
		PolygonSides: 4,
		Corners:      [4][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}},
		MinElevation: 0,
		MaxElevation: 255,
		Resolution:   [3]float64{1, 1, 1},
		ProfileRows:  1,
		Profiles:     [][]int{{0, 255}, {128, 64}},
	}
}

// Grid returns a DEM with the given number of profiles and samples per
// profile. Sample j of profile i is (i*samples + j) % 256.
func Grid(profiles, samples int) *File {
	f := Small()
	f.Corners = [4][2]float64{{0, 0}, {0, float64(profiles - 1)}, {float64(samples - 1), float64(profiles - 1)}, {float64(samples - 1), 0}}
	f.Profiles = make([][]int, profiles)
	for i := range f.Profiles {
		row := make([]int, samples)
		for j := range row {
			row[j] = (i*samples + j) % 256
		}
		f.Profiles[i] = row
	}
	return f
}

// Int formats a 6 character integer field.
func Int(v int) string {
	return fmt.Sprintf("%6d", v)
}

// Double formats a 24 character Fortran real field.
func Double(v float64) string {
	s := strings.Replace(strconv.FormatFloat(v, 'E', 15, 64), "E", "D", 1)
	return fmt.Sprintf("%24s", s)
}

// Float formats a 12 character Fortran real field.
func Float(v float64) string {
	s := strings.Replace(strconv.FormatFloat(v, 'E', 5, 32), "E", "D", 1)
	return fmt.Sprintf("%12s", s)
}

// Header returns the Type A record.
func (f *File) Header() []byte {
	buf := bytes.Repeat([]byte(" "), typeASize)
	put := func(off int, s string) { copy(buf[off:], s) }

	name := f.Name
	if len(name) > 40 {
		name = name[:40]
	}
	put(0, name)
	put(144, Int(3))
	put(150, Int(1))
	put(156, Int(0))
	put(162, Int(0))
	for i := 0; i < 15; i++ {
		put(168+i*24, Double(0))
	}
	put(528, Int(3))
	put(534, Int(2))
	put(540, Int(f.PolygonSides))
	for i, c := range f.Corners {
		put(546+(2*i)*24, Double(c[0]))
		put(546+(2*i+1)*24, Double(c[1]))
	}
	put(738, Double(f.MinElevation))
	put(762, Double(f.MaxElevation))
	put(786, Double(0))
	put(810, Int(0))
	put(816, Float(f.Resolution[0]))
	put(828, Float(f.Resolution[1]))
	put(840, Float(f.Resolution[2]))
	put(852, Int(f.ProfileRows))
	count := f.ProfileCount
	if count == 0 {
		count = len(f.Profiles)
	}
	put(858, Int(count))
	return buf
}

// sampleOffset mirrors the record packing of real DEM files.
func sampleOffset(i int) int {
	off := 144 + i*6
	if i >= 146 {
		off += 4 * ((i-146)/170 + 1)
	}
	return off
}

// Profile returns the Type B record of profile i (0-based).
func (f *File) Profile(i int) []byte {
	buf := bytes.Repeat([]byte(" "), typeBSize)
	put := func(off int, s string) { copy(buf[off:], s) }
	samples := f.Profiles[i]

	pick := func(over []int, def int) int {
		if i < len(over) {
			return over[i]
		}
		return def
	}

	lo, hi := 0, 0
	for j, s := range samples {
		if j == 0 || s < lo {
			lo = s
		}
		if j == 0 || s > hi {
			hi = s
		}
	}

	put(0, Int(pick(f.Dimensions, 1)))
	put(6, Int(pick(f.IDs, i+1)))
	put(12, Int(pick(f.Counts, len(samples))))
	put(18, Int(1))
	put(24, Double(f.Corners[0][0]+float64(i)))
	put(48, Double(f.Corners[0][1]))
	datum := 0.0
	if i < len(f.LocalDatums) {
		datum = f.LocalDatums[i]
	}
	put(72, Double(datum))
	put(96, Double(float64(lo)))
	put(120, Double(float64(hi)))
	for j, s := range samples {
		put(sampleOffset(j), Int(s))
	}
	return buf
}

// Bytes returns the complete DEM file.
func (f *File) Bytes() []byte {
	var out bytes.Buffer
	out.Write(f.Header())
	for i := range f.Profiles {
		out.Write(f.Profile(i))
	}
	return out.Bytes()
}
