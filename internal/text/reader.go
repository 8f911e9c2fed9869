package text

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dyuri/demconv/internal/scale"
)

// ErrNoScale is returned when a scale file holds no scale line.
var ErrNoScale = errors.New("no scale line found")

// Reader reads the "min_elevation scale" pair printed by the extract
// command, so a set of DEMs can be converted with a shared mapping.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a new scale file reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		line:    0,
	}
}

// ReadScale returns the first scale line as an override policy.
func (r *Reader) ReadScale() (scale.Override, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return scale.Override{}, fmt.Errorf("line %d: want \"min_elevation scale\", got %q", r.line, line)
		}

		minElev, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return scale.Override{}, fmt.Errorf("line %d: min elevation: %w", r.line, err)
		}
		factor, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return scale.Override{}, fmt.Errorf("line %d: scale: %w", r.line, err)
		}

		return scale.Override{MinElevation: minElev, Scale: factor}, nil
	}

	if err := r.scanner.Err(); err != nil {
		return scale.Override{}, fmt.Errorf("scanner error: %w", err)
	}

	return scale.Override{}, ErrNoScale
}
