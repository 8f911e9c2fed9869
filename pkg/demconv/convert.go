package demconv

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/dyuri/demconv/internal/dem"
	"github.com/dyuri/demconv/internal/scale"
	"github.com/dyuri/demconv/internal/source"
	"github.com/dyuri/demconv/internal/tga"
)

// State is a step of a conversion
type State int

const (
	StateStart State = iota
	StateHeaderParsed
	StateStreaming
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateHeaderParsed:
		return "header_parsed"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RowWriter consumes the converted image one row at a time, bottom row
// first. *tga.Writer is the usual implementation.
type RowWriter interface {
	WriteRow(row []byte) error
	Close() error
}

// Converter runs a single conversion. It is not safe for concurrent use.
type Converter struct {
	opts  Options
	log   logrus.FieldLogger
	state State
}

// NewConverter validates opts and returns a converter in StateStart.
func NewConverter(opts Options) (*Converter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Converter{opts: opts, log: opts.logger()}, nil
}

// State returns the current state.
func (c *Converter) State() State {
	return c.state
}

func (c *Converter) transition(s State, fields logrus.Fields) {
	c.log.WithFields(fields).WithField("state", s).Debug("conversion state changed")
	c.state = s
}

func (c *Converter) fail(err error) error {
	c.log.WithError(err).WithField("from", c.state).Debug("conversion failed")
	c.state = StateFailed
	return err
}

// Convert reads a DEM from src and writes the TGA image to dst.
func (c *Converter) Convert(src io.Reader, dst io.Writer) (*Result, error) {
	return c.Run(src, func(h *Header) (RowWriter, error) {
		return tga.NewWriter(dst, h.ElevationCount, h.ProfileCount)
	})
}

// Run reads a DEM from src and streams its rows into the writer returned
// by open. open is called after the header has been validated, so an
// invalid input never creates output.
func (c *Converter) Run(src io.Reader, open func(h *Header) (RowWriter, error)) (*Result, error) {
	if c.state != StateStart {
		return nil, fmt.Errorf("converter already used (state %s)", c.state)
	}

	r := dem.NewReader(src)
	h, err := r.ReadHeader()
	if err != nil {
		return nil, c.fail(err)
	}

	policy := c.opts.policy(h)
	c.transition(StateHeaderParsed, logrus.Fields{
		"name":       h.Name,
		"profiles":   h.ProfileCount,
		"elevations": h.ElevationCount,
		"min":        h.MinElevation,
		"max":        h.MaxElevation,
		"policy":     policy,
	})
	if c.opts.OnHeader != nil {
		c.opts.OnHeader(h, policy)
	}

	w, err := open(h)
	if err != nil {
		var de *dem.Error
		if errors.As(err, &de) {
			return nil, c.fail(err)
		}
		return nil, c.fail(dem.IOError(err, "open output"))
	}

	c.transition(StateStreaming, nil)
	mapper := scale.NewMapper(policy, c.opts.Clamp)
	row := make([]byte, h.ElevationCount)
	for {
		p, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			w.Close()
			return nil, c.fail(err)
		}

		for i, elev := range p.Elevations() {
			row[i] = mapper.Pixel(elev)
		}
		if err := p.Err(); err != nil {
			w.Close()
			return nil, c.fail(err)
		}

		if err := w.WriteRow(row); err != nil {
			w.Close()
			return nil, c.fail(dem.IOError(err, "write row %d", p.ID))
		}
		if p.ID%100 == 0 {
			c.log.WithField("profile", p.ID).Debug("converted profiles")
		}
	}

	if err := w.Close(); err != nil {
		return nil, c.fail(dem.IOError(err, "finish image"))
	}

	c.transition(StateDone, logrus.Fields{"rows": h.ProfileCount})
	return &Result{
		Header: h,
		Policy: policy,
		Width:  h.ElevationCount,
		Height: h.ProfileCount,
	}, nil
}

// Convert reads a DEM from src and writes the TGA image to dst.
func Convert(src io.Reader, dst io.Writer, opts Options) (*Result, error) {
	c, err := NewConverter(opts)
	if err != nil {
		return nil, err
	}
	return c.Convert(src, dst)
}

// ConvertFile converts the DEM at inPath, which may be compressed, into a
// TGA file at outPath. The output is created only after the header has
// been validated. A failure while streaming leaves a partial file behind.
func ConvertFile(inPath, outPath string, opts Options) (*Result, error) {
	c, err := NewConverter(opts)
	if err != nil {
		return nil, err
	}

	in, err := source.Open(inPath)
	if err != nil {
		return nil, c.fail(dem.IOError(err, "open input file"))
	}
	defer in.Close()
	c.log.WithFields(logrus.Fields{"path": inPath, "format": in.Format}).Debug("opened input")

	var out *os.File
	defer func() {
		if out != nil {
			out.Close()
		}
	}()

	res, err := c.Run(in, func(h *Header) (RowWriter, error) {
		f, err := os.Create(outPath)
		if err != nil {
			return nil, dem.IOError(err, "create output file")
		}
		out = f
		return tga.NewWriter(f, h.ElevationCount, h.ProfileCount)
	})
	if err != nil {
		return nil, err
	}

	if err := out.Close(); err != nil {
		out = nil
		return nil, dem.IOError(err, "close output file")
	}
	out = nil
	return res, nil
}
