package dem

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/dyuri/demconv/internal/demtest"
	"github.com/dyuri/demconv/internal/model"
)

func readAll(t *testing.T, r *Reader) [][]int {
	t.Helper()
	var rows [][]int
	for {
		p, err := r.Next()
		if err == io.EOF {
			return rows
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		var row []int
		for _, elev := range p.Elevations() {
			row = append(row, elev)
		}
		if err := p.Err(); err != nil {
			t.Fatalf("profile %d: %v", p.ID, err)
		}
		rows = append(rows, row)
	}
}

// TestParseHeader tests Type A decoding of a minimal header
func TestParseHeader(t *testing.T) {
	f := demtest.Small()
	f.Name = "LAKE  PLACID - WEST"

	h, err := ParseHeader(f.Header())
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}

	if h.Name != "LAKE  PLACID - WEST" {
		t.Errorf("Name = %q, want %q", h.Name, "LAKE  PLACID - WEST")
	}
	if h.GroundUnits != model.GroundArcSeconds {
		t.Errorf("GroundUnits = %v, want arc-seconds", h.GroundUnits)
	}
	if h.ElevationUnits != model.ElevationMeters {
		t.Errorf("ElevationUnits = %v, want meters", h.ElevationUnits)
	}
	if h.PolygonSides != 4 {
		t.Errorf("PolygonSides = %d, want 4", h.PolygonSides)
	}
	if h.Corners[2] != (model.Corner{X: 1, Y: 1}) {
		t.Errorf("Corners[2] = %+v, want {1 1}", h.Corners[2])
	}
	if h.MinElevation != 0 || h.MaxElevation != 255 {
		t.Errorf("elevation = %v..%v, want 0..255", h.MinElevation, h.MaxElevation)
	}
	if h.Resolution.X != 1 {
		t.Errorf("Resolution.X = %v, want 1", h.Resolution.X)
	}
	if h.ProfileDimension != 1 {
		t.Errorf("ProfileDimension = %d, want 1", h.ProfileDimension)
	}
	if h.ProfileCount != 2 {
		t.Errorf("ProfileCount = %d, want 2", h.ProfileCount)
	}
	if h.LevelCode != 3 {
		t.Errorf("LevelCode = %d, want 3", h.LevelCode)
	}
	if h.ElevationCount != 0 {
		t.Errorf("ElevationCount = %d, want 0 before probing", h.ElevationCount)
	}
}

func TestParseHeaderRejectsPolygon(t *testing.T) {
	for _, sides := range []int{3, 5} {
		f := demtest.Small()
		f.PolygonSides = sides

		_, err := ParseHeader(f.Header())
		if !errors.Is(err, ErrPolygon) {
			t.Errorf("sides=%d: error = %v, want ErrPolygon", sides, err)
		}
		if CodeOf(err) != CodeInvariant {
			t.Errorf("sides=%d: code = %q, want %q", sides, CodeOf(err), CodeInvariant)
		}
	}
}

func TestParseHeaderInvariants(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *demtest.File)
		want   error
	}{
		{"negative range", func(f *demtest.File) { f.MinElevation, f.MaxElevation = 10, 5 }, ErrNegativeRange},
		{"two dimensional", func(f *demtest.File) { f.ProfileRows = 2 }, ErrDimension},
		{"profile count", func(f *demtest.File) { f.ProfileCount = 3 }, ErrProfileCount},
		{"resolution", func(f *demtest.File) { f.Resolution[0] = 0.5 }, ErrProfileCount},
		{"zero resolution", func(f *demtest.File) { f.Resolution[0], f.ProfileCount = 0, -1 }, ErrResolution},
		{"negative resolution", func(f *demtest.File) { f.Resolution[0] = -1 }, ErrResolution},
		{"negative profile count", func(f *demtest.File) { f.ProfileCount = -1 }, ErrProfileCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := demtest.Small()
			tt.modify(f)
			_, err := ParseHeader(f.Header())
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if CodeOf(err) != CodeInvariant {
				t.Errorf("code = %q, want %q", CodeOf(err), CodeInvariant)
			}
		})
	}
}

func TestParseHeaderShortInput(t *testing.T) {
	f := demtest.Small()
	_, err := ParseHeader(f.Header()[:800])
	if !errors.Is(err, ErrFieldParse) {
		t.Fatalf("error = %v, want ErrFieldParse", err)
	}
	if CodeOf(err) != CodeFormat {
		t.Errorf("code = %q, want %q", CodeOf(err), CodeFormat)
	}
}

func TestExpectedProfiles(t *testing.T) {
	tests := []struct {
		height float64
		xres   float32
		want   int
	}{
		{3600, 3, 1201},
		{3600.0000001, 3, 1201},
		{3599.9999999, 3, 1201},
		{10, 4, 4},
		{0, 1, 1},
	}
	for _, tt := range tests {
		h := &model.Header{Resolution: model.Resolution{X: tt.xres}}
		h.Corners[1].Y = tt.height
		if got := ExpectedProfiles(h); got != tt.want {
			t.Errorf("ExpectedProfiles(height=%v, xres=%v) = %d, want %d", tt.height, tt.xres, got, tt.want)
		}
	}
}

func TestSampleOffset(t *testing.T) {
	tests := []struct {
		i, want int
	}{
		{0, 144},
		{1, 150},
		{145, 144 + 145*6},
		{146, 1024},
		{315, 144 + 315*6 + 4},
		{316, 2048},
		{486, 3072},
		{1200, 144 + 1200*6 + 28},
	}
	for _, tt := range tests {
		if got := SampleOffset(tt.i); got != tt.want {
			t.Errorf("SampleOffset(%d) = %d, want %d", tt.i, got, tt.want)
		}
	}
}

func TestReadProfiles(t *testing.T) {
	f := demtest.Small()
	r := NewReader(bytes.NewReader(f.Bytes()))

	h, err := r.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	if h.ElevationCount != 2 {
		t.Errorf("ElevationCount = %d, want 2", h.ElevationCount)
	}

	rows := readAll(t, r)
	want := [][]int{{0, 255}, {128, 64}}
	if len(rows) != len(want) {
		t.Fatalf("got %d profiles, want %d", len(rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("profile %d sample %d = %d, want %d", i+1, j, rows[i][j], want[i][j])
			}
		}
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next after last profile = %v, want io.EOF", err)
	}
}

func TestReadProfilesAcrossPhysicalRecords(t *testing.T) {
	f := demtest.Grid(3, 1201)
	r := NewReader(bytes.NewReader(f.Bytes()))
	if _, err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}

	rows := readAll(t, r)
	if len(rows) != 3 {
		t.Fatalf("got %d profiles, want 3", len(rows))
	}
	for i, row := range rows {
		if len(row) != 1201 {
			t.Fatalf("profile %d has %d samples, want 1201", i+1, len(row))
		}
		for j, elev := range row {
			if want := f.Profiles[i][j]; elev != want {
				t.Fatalf("profile %d sample %d = %d, want %d", i+1, j, elev, want)
			}
		}
	}
}

func TestReadProfileMetadata(t *testing.T) {
	f := demtest.Small()
	r := NewReader(bytes.NewReader(f.Bytes()))
	if _, err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}

	p, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if p.ID != 1 || p.Dimension != 1 || p.Columns != 1 {
		t.Errorf("ID/Dimension/Columns = %d/%d/%d, want 1/1/1", p.ID, p.Dimension, p.Columns)
	}
	if p.MinElevation != 0 || p.MaxElevation != 255 {
		t.Errorf("profile elevation = %v..%v, want 0..255", p.MinElevation, p.MaxElevation)
	}
	if _, err := p.Sample(2); err == nil {
		t.Error("Sample(2) succeeded on a 2 sample profile")
	}
}

func TestReadRejectsRepeatedID(t *testing.T) {
	f := demtest.Grid(3, 2)
	f.IDs = []int{1, 1, 3}
	r := NewReader(bytes.NewReader(f.Bytes()))
	if _, err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}

	if _, err := r.Next(); err != nil {
		t.Fatalf("first profile failed: %v", err)
	}
	_, err := r.Next()
	if !errors.Is(err, ErrSequenceMismatch) {
		t.Fatalf("error = %v, want ErrSequenceMismatch", err)
	}
	if CodeOf(err) != CodeInvariant {
		t.Errorf("code = %q, want %q", CodeOf(err), CodeInvariant)
	}

	// The reader stays failed.
	if _, err := r.Next(); !errors.Is(err, ErrSequenceMismatch) {
		t.Errorf("third Next = %v, want the sticky ErrSequenceMismatch", err)
	}
}

func TestReadRejectsMismatches(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *demtest.File)
		want   error
	}{
		{"skipped id", func(f *demtest.File) { f.IDs = []int{1, 3} }, ErrSequenceMismatch},
		{"dimension", func(f *demtest.File) { f.Dimensions = []int{1, 2} }, ErrSequenceMismatch},
		{"elevation count", func(f *demtest.File) { f.Counts = []int{2, 3} }, ErrSequenceMismatch},
		{"local datum", func(f *demtest.File) { f.LocalDatums = []float64{0, 12.5} }, ErrLocalDatum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := demtest.Small()
			tt.modify(f)
			r := NewReader(bytes.NewReader(f.Bytes()))
			if _, err := r.ReadHeader(); err != nil {
				t.Fatalf("ReadHeader failed: %v", err)
			}
			if _, err := r.Next(); err != nil {
				t.Fatalf("first profile failed: %v", err)
			}
			_, err := r.Next()
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			if CodeOf(err) != CodeInvariant {
				t.Errorf("code = %q, want %q", CodeOf(err), CodeInvariant)
			}
		})
	}
}

func TestReadTruncated(t *testing.T) {
	f := demtest.Small()
	data := f.Bytes()

	t.Run("missing profile", func(t *testing.T) {
		r := NewReader(bytes.NewReader(data[:TypeASize+TypeBSize]))
		if _, err := r.ReadHeader(); err != nil {
			t.Fatalf("ReadHeader failed: %v", err)
		}
		if _, err := r.Next(); err != nil {
			t.Fatalf("first profile failed: %v", err)
		}
		_, err := r.Next()
		if !errors.Is(err, ErrUnexpectedEOF) {
			t.Fatalf("error = %v, want ErrUnexpectedEOF", err)
		}
		if CodeOf(err) != CodeFormat {
			t.Errorf("code = %q, want %q", CodeOf(err), CodeFormat)
		}
	})

	t.Run("short final record", func(t *testing.T) {
		end := TypeASize + TypeBSize + SampleOffset(1) + 6
		r := NewReader(bytes.NewReader(data[:end]))
		if _, err := r.ReadHeader(); err != nil {
			t.Fatalf("ReadHeader failed: %v", err)
		}
		rows := readAll(t, r)
		if len(rows) != 2 || rows[1][1] != 64 {
			t.Errorf("rows = %v, want two profiles ending in 64", rows)
		}
	})

	t.Run("record cut inside samples", func(t *testing.T) {
		end := TypeASize + TypeBSize + SampleOffset(1) + 3
		r := NewReader(bytes.NewReader(data[:end]))
		if _, err := r.ReadHeader(); err != nil {
			t.Fatalf("ReadHeader failed: %v", err)
		}
		if _, err := r.Next(); err != nil {
			t.Fatalf("first profile failed: %v", err)
		}
		if _, err := r.Next(); !errors.Is(err, ErrUnexpectedEOF) {
			t.Fatalf("error = %v, want ErrUnexpectedEOF", err)
		}
	})

	t.Run("header only", func(t *testing.T) {
		r := NewReader(bytes.NewReader(data[:TypeASize]))
		_, err := r.ReadHeader()
		if !errors.Is(err, ErrUnexpectedEOF) {
			t.Fatalf("error = %v, want ErrUnexpectedEOF", err)
		}
	})
}

func TestReadBadSample(t *testing.T) {
	f := demtest.Small()
	data := f.Bytes()
	copy(data[TypeASize+SampleOffset(1):], "  x12 ")

	r := NewReader(bytes.NewReader(data))
	if _, err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	p, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	n := 0
	for range p.Elevations() {
		n++
	}
	if n != 1 {
		t.Errorf("yielded %d samples before the bad one, want 1", n)
	}
	if !errors.Is(p.Err(), ErrFieldParse) {
		t.Errorf("Err() = %v, want ErrFieldParse", p.Err())
	}
	if _, err := r.Next(); !errors.Is(err, ErrFieldParse) {
		t.Errorf("Next after bad sample = %v, want sticky ErrFieldParse", err)
	}
}
