package demconv

import (
	"os"

	"github.com/dyuri/demconv/internal/dem"
	"github.com/dyuri/demconv/internal/raster"
	"github.com/dyuri/demconv/internal/source"
)

// PreviewFile renders the DEM at inPath into a PNG, TIFF or BMP image
// chosen by the extension of outPath. A non-zero size scales the image so
// its longer side is size pixels. Unlike ConvertFile the whole image is
// held in memory.
func PreviewFile(inPath, outPath string, size uint, opts Options) (*Result, error) {
	format, err := raster.FormatFromPath(outPath)
	if err != nil {
		return nil, &dem.Error{Code: dem.CodeConfig, Message: "preview", Cause: err}
	}
	c, err := NewConverter(opts)
	if err != nil {
		return nil, err
	}

	in, err := source.Open(inPath)
	if err != nil {
		return nil, c.fail(dem.IOError(err, "open input file"))
	}
	defer in.Close()

	var canvas *raster.Canvas
	res, err := c.Run(in, func(h *Header) (RowWriter, error) {
		canvas = raster.NewCanvas(h.ElevationCount, h.ProfileCount)
		return canvas, nil
	})
	if err != nil {
		return nil, err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return nil, dem.IOError(err, "create preview file")
	}
	if err := raster.Encode(out, raster.Fit(canvas.Image(), size), format); err != nil {
		out.Close()
		return nil, dem.IOError(err, "encode %s preview", format)
	}
	if err := out.Close(); err != nil {
		return nil, dem.IOError(err, "close preview file")
	}
	c.log.WithField("path", outPath).Debug("wrote preview")
	return res, nil
}
