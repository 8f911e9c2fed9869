package demconv

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dyuri/demconv/internal/dem"
	"github.com/dyuri/demconv/internal/scale"
	"github.com/dyuri/demconv/internal/source"
)

// ReadHeaderFile decodes and validates the Type A record of the DEM at
// path. Profile records are not read, so Header.ElevationCount is 0.
func ReadHeaderFile(path string) (*Header, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, dem.IOError(err, "open input file")
	}
	defer f.Close()
	return ReadHeader(f)
}

// ReadHeader decodes and validates the Type A record read from r.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, dem.TypeASize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, dem.IOError(err, "read header record")
	}
	return dem.ParseHeader(buf[:n])
}

// InspectFile is ReadHeaderFile plus the elevation count, which is taken
// from the first profile record.
func InspectFile(path string) (*Header, error) {
	f, err := source.Open(path)
	if err != nil {
		return nil, dem.IOError(err, "open input file")
	}
	defer f.Close()
	return dem.NewReader(f).ReadHeader()
}

// ExtractRange reads the headers of all paths, at most parallel at a
// time, and returns their combined elevation range. The first failure
// cancels the remaining reads.
func ExtractRange(ctx context.Context, paths []string, parallel int, log logrus.FieldLogger) (Range, error) {
	if len(paths) == 0 {
		return Range{}, dem.ConfigError(ErrNoFiles, "extract")
	}
	if parallel < 1 {
		parallel = 1
	}
	if log == nil {
		log = Options{}.logger()
	}

	ranges := make([]scale.Range, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := ReadHeaderFile(path)
			if err != nil {
				return &dem.Error{Code: dem.CodeOf(err), Message: path, Cause: err}
			}
			ranges[i] = scale.Of(h.MinElevation, h.MaxElevation)
			log.WithFields(logrus.Fields{
				"path": path,
				"min":  h.MinElevation,
				"max":  h.MaxElevation,
			}).Debug("read elevation range")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Range{}, err
	}
	return scale.Fold(ranges...), nil
}

// countingRows discards rows
type countingRows struct {
	rows int
}

func (c *countingRows) WriteRow(row []byte) error {
	c.rows++
	return nil
}

func (c *countingRows) Close() error { return nil }

// ValidateFile decodes every profile of the DEM at path without writing
// any output.
func ValidateFile(path string, opts Options) (*Result, error) {
	c, err := NewConverter(opts)
	if err != nil {
		return nil, err
	}

	f, err := source.Open(path)
	if err != nil {
		return nil, c.fail(dem.IOError(err, "open input file"))
	}
	defer f.Close()

	return c.Run(f, func(h *Header) (RowWriter, error) {
		return &countingRows{}, nil
	})
}
