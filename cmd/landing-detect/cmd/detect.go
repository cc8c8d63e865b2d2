package cmd

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/landing-detect/internal/config"
	"github.com/ironsheep/landing-detect/internal/imaging"
	"github.com/ironsheep/landing-detect/internal/metrics"
	"github.com/ironsheep/landing-detect/internal/overlay"
	"github.com/ironsheep/landing-detect/internal/pipeline"
	"github.com/ironsheep/landing-detect/internal/report"
)

func (a *app) detectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <file|dir>...",
		Short: "Detect landing-pad shapes in images",
		Long: `Runs detection on each image and prints one report per image to stdout.

Directories are expanded to the image files directly inside them, in name
order. Images that cannot be decoded are logged and skipped.

With --overlays the annotated images are written to --out-dir as
<name>_shapes.png, <name>_composites.png, <name>_fiducials.png,
<name>_edges.png and <name>_mask_<color>.png. Images that share a file
name are written as <name>_2_shapes.png and so on.

Examples:
  landing-detect detect frame.png
  landing-detect detect frames/ --workers 4 --format yaml
  landing-detect detect frames/ --overlays --out-dir annotated --threshold-distance 80`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDetect(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	f := cmd.Flags()
	f.String("format", config.FormatJSON, "report format (json or yaml)")
	f.String("out-dir", "", "directory for overlay images (default: current directory)")
	f.Bool("overlays", false, "write annotated overlay images")
	f.String("metrics-file", "", "write Prometheus counters to this textfile")
	f.Int("workers", 1, "images processed in parallel")
	f.Float64("threshold-distance", 100, "maximum centroid distance in pixels for a composite pair")
	f.Int("canny-low", 100, "lower Canny hysteresis threshold")
	f.Int("canny-high", 200, "upper Canny hysteresis threshold")
	f.Int("kernel-size", 5, "morphological closing kernel size")
	return cmd
}

func (a *app) runDetect(ctx context.Context, out io.Writer, paths []string) (err error) {
	cfg := a.cfg
	m := metrics.New()

	p, err := pipeline.New(*cfg, pipeline.WithLogger(a.log), pipeline.WithMetrics(m))
	if err != nil {
		return err
	}

	var renderer *overlay.Renderer
	dir := cfg.Output.Dir
	if cfg.Output.Overlays {
		if renderer, err = overlay.NewRenderer(cfg.Overlay); err != nil {
			return err
		}
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	enc, err := report.NewEncoder(out, cfg.Output.Format)
	if err != nil {
		return err
	}
	// YAML streams are only complete once closed.
	defer func() {
		if cerr := enc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("finish reports: %w", cerr)
		}
	}()

	results, runErr := pipeline.NewRunner(p, cfg.Workers, a.log, m).ProcessPaths(ctx, paths)
	if path := cfg.Output.MetricsFile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			a.log.WithError(err).Warn("failed to write metrics")
		}
	}
	if runErr != nil {
		return runErr
	}

	var bases []string
	if renderer != nil {
		bases = overlayBases(results)
	}

	var pairs int
	for i, res := range results {
		rep := report.FromResult(res)
		if renderer != nil {
			files, err := writeOverlays(dir, bases[i], res, renderer)
			if err != nil {
				return err
			}
			rep.Overlays = files
		}
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		pairs += len(res.Composites)
	}

	a.log.WithFields(logrus.Fields{
		"images":     len(results),
		"composites": pairs,
	}).Info("detection finished")
	return nil
}

// overlayBases names the overlay files of each result after its image. When
// two images share a file name, later ones get a _2, _3, ... suffix so their
// overlays do not overwrite each other.
func overlayBases(results []*pipeline.Result) []string {
	bases := make([]string, len(results))
	taken := make(map[string]bool, len(results))
	for i, res := range results {
		stem := strings.TrimSuffix(filepath.Base(res.Path), filepath.Ext(res.Path))
		base := stem
		for n := 2; taken[base]; n++ {
			base = fmt.Sprintf("%s_%d", stem, n)
		}
		taken[base] = true
		bases[i] = base
	}
	return bases
}

// writeOverlays saves every rendering of res into dir as <base>_<kind>.png
// and returns the file paths in a fixed order.
func writeOverlays(dir, base string, res *pipeline.Result, renderer *overlay.Renderer) ([]string, error) {
	ov := res.Overlays(renderer)

	type rendering struct {
		suffix string
		img    image.Image
	}
	renderings := []rendering{
		{"shapes", ov.Shapes},
		{"composites", ov.Composites},
		{"fiducials", ov.Fiducials},
		{"edges", res.Edges},
	}
	for _, cm := range res.ColorMasks {
		name := strings.ReplaceAll(strings.ToLower(cm.Range.Name), " ", "_")
		renderings = append(renderings, rendering{"mask_" + name, cm.Mask})
	}

	files := make([]string, 0, len(renderings))
	for _, r := range renderings {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", base, r.suffix))
		if err := imaging.Save(r.img, path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}
