package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dyuri/demconv/internal/scale"
	"github.com/dyuri/demconv/internal/text"
	"github.com/dyuri/demconv/pkg/demconv"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var logger = logrus.New()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "demconv",
	Short: "Convert USGS DEM files to grayscale TGA images",
	Long: `demconv converts USGS one-degree Digital Elevation Model files
(fixed-width ASCII, optionally gzip, zstd, xz, lz4 or bzip2 compressed)
into 8-bit color-mapped TGA images, one image row per elevation profile.

Adjacent DEMs can share a gray scale: run extract over all of them and
pass the result to convert with --scale-file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		configureLogger(logger, cmd.ErrOrStderr(), verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)
}

func configureLogger(l *logrus.Logger, w io.Writer, verbose bool) {
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.WarnLevel)
	}
}

// convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input.dem> <output.tga>",
	Short: "Convert a DEM file to a TGA image",
	Long: `Convert a DEM file to an 8-bit grayscale TGA image.

By default the elevation range of the file is stretched over 0..255.
Use --min-elev and --scale together, or --scale-file, to apply a scale
shared with other files.`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Float64P("min-elev", "m", 0, "Elevation mapped to gray level 0")
	convertCmd.Flags().Float64P("scale", "s", 0, "Gray levels per elevation unit")
	convertCmd.Flags().String("scale-file", "", "Read min elevation and scale from an extract output file")
	convertCmd.Flags().BoolP("name", "n", false, "Print the normalized DEM name")
	convertCmd.Flags().BoolP("location", "l", false, "Print the DEM corner coordinates")
	convertCmd.Flags().Bool("clamp", false, "Saturate out-of-range gray levels instead of wrapping")
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]
	flags := cmd.Flags()
	scaleFile, _ := flags.GetString("scale-file")
	showName, _ := flags.GetBool("name")
	showLocation, _ := flags.GetBool("location")
	clamp, _ := flags.GetBool("clamp")

	opts := demconv.Options{Clamp: clamp, Logger: logger}

	opts.MinElevation = changedFloat(flags, "min-elev")
	opts.Scale = changedFloat(flags, "scale")
	if scaleFile != "" {
		if opts.MinElevation != nil || opts.Scale != nil {
			return fmt.Errorf("--scale-file cannot be combined with --min-elev or --scale")
		}
		o, err := readScaleFile(scaleFile)
		if err != nil {
			return err
		}
		opts.MinElevation, opts.Scale = &o.MinElevation, &o.Scale
	}

	report := text.NewWriter(cmd.ErrOrStderr())
	opts.OnHeader = func(h *demconv.Header, p scale.Policy) {
		if showName {
			report.WriteDEMName(h)
		}
		if showLocation {
			report.WriteBounds(h)
		}
	}

	res, err := demconv.ConvertFile(inputPath, outputPath, opts)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"input":  inputPath,
		"output": outputPath,
		"width":  res.Width,
		"height": res.Height,
	}).Infof("converted with %v", res.Policy)
	return nil
}

// changedFloat returns the flag value only if it was given on the command
// line, so an explicit 0 is still an override.
func changedFloat(flags *pflag.FlagSet, name string) *float64 {
	if !flags.Changed(name) {
		return nil
	}
	v, err := flags.GetFloat64(name)
	if err != nil {
		return nil
	}
	return &v
}

func readScaleFile(path string) (scale.Override, error) {
	f, err := os.Open(path)
	if err != nil {
		return scale.Override{}, fmt.Errorf("open scale file: %w", err)
	}
	defer f.Close()

	o, err := text.NewReader(f).ReadScale()
	if err != nil {
		return scale.Override{}, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// extract command
var extractCmd = &cobra.Command{
	Use:   "extract <input.dem>...",
	Short: "Print the scale shared by a set of DEM files",
	Long: `Read the headers of all given DEM files and print the lowest minimum
elevation and the scale that maps the combined range onto 0..255.

The output can be passed to convert with --scale-file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().IntP("parallel", "j", 4, "Number of files read concurrently")
}

func runExtract(cmd *cobra.Command, args []string) error {
	parallel, _ := cmd.Flags().GetInt("parallel")

	r, err := demconv.ExtractRange(cmd.Context(), args, parallel, logger)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"files": r.Files, "min": r.Min, "max": r.Max}).Info("combined elevation range")
	return text.NewWriter(cmd.OutOrStdout()).WriteScale(r)
}

// names command
var namesCmd = &cobra.Command{
	Use:   "names <input.dem>...",
	Short: "Print DEM names and locations",
	Long: `Print the quadrangle name and the location of each DEM file as
shell-sourceable NAME="..."; and LOC="..."; lines.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNames,
}

func init() {
	namesCmd.Flags().Bool("normalize", false, "Fold spaces in names into file-name-friendly form")
}

func runNames(cmd *cobra.Command, args []string) error {
	normalize, _ := cmd.Flags().GetBool("normalize")
	w := text.NewWriter(cmd.OutOrStdout())

	for _, path := range args {
		h, err := demconv.ReadHeaderFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := w.WriteName(h, normalize); err != nil {
			return err
		}
		if err := w.WriteLocation(h); err != nil {
			return err
		}
	}
	return nil
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.dem>",
	Short: "Display DEM header information",
	Long: `Display the decoded header of a DEM file.

Shows the name, reference system, corners, elevation range, resolution
and the size of the image convert would produce.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	h, err := demconv.InspectFile(inputPath)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputInfoJSON(cmd.OutOrStdout(), inputPath, h)
	}
	return text.NewWriter(cmd.OutOrStdout()).WriteInfo(inputPath, h)
}

func outputInfoJSON(w io.Writer, path string, h *demconv.Header) error {
	corners := make([][2]float64, len(h.Corners))
	for i, c := range h.Corners {
		d := c.Degrees()
		corners[i] = [2]float64{d.Lon(), d.Lat()}
	}
	bound := h.Bound()

	info := map[string]interface{}{
		"file": path,
		"name": h.Name,
		"codes": map[string]int{
			"level":       h.LevelCode,
			"pattern":     h.PatternCode,
			"planimetric": h.PlanimetricCode,
			"zone":        h.ZoneCode,
			"accuracy":    h.AccuracyCode,
		},
		"units": map[string]string{
			"ground":    h.GroundUnits.String(),
			"elevation": h.ElevationUnits.String(),
		},
		"corners": corners,
		"bounds": map[string]float64{
			"west":  bound.Left(),
			"south": bound.Bottom(),
			"east":  bound.Right(),
			"north": bound.Top(),
		},
		"elevation": map[string]float64{
			"min":   h.MinElevation,
			"max":   h.MaxElevation,
			"range": h.ElevationRange(),
		},
		"resolution": []float32{h.Resolution.X, h.Resolution.Y, h.Resolution.Z},
		"image": map[string]int{
			"width":  h.ElevationCount,
			"height": h.ProfileCount,
		},
	}
	if h.FreeText != "" {
		info["description"] = h.FreeText
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <input.dem>",
	Short: "Validate DEM file structure",
	Long: `Decode every profile of a DEM file and check it against the header
without writing an image.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating: %s\n", inputPath)
	fmt.Fprintln(out, strings.Repeat("=", 50))

	res, err := demconv.ValidateFile(inputPath, demconv.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(out, "✗ %s: %v\n", demconv.CodeOf(err), err)
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintf(out, "✓ Valid DEM file - %d profiles of %d elevations\n", res.Height, res.Width)
	return nil
}

// preview command
var previewCmd = &cobra.Command{
	Use:   "preview <input.dem> <output.png|.tif|.bmp>",
	Short: "Render a DEM file as a PNG, TIFF or BMP image",
	Long: `Render a DEM file with the same gray scale as convert into a common
image format, optionally scaled down.`,
	Args: cobra.ExactArgs(2),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().Uint("size", 0, "Longer side of the image in pixels (default: original size)")
	previewCmd.Flags().Bool("clamp", false, "Saturate out-of-range gray levels instead of wrapping")
}

func runPreview(cmd *cobra.Command, args []string) error {
	size, _ := cmd.Flags().GetUint("size")
	clamp, _ := cmd.Flags().GetBool("clamp")

	res, err := demconv.PreviewFile(args[0], args[1], size, demconv.Options{Clamp: clamp, Logger: logger})
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"width": res.Width, "height": res.Height}).Info("rendered preview")
	return nil
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("demconv version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
