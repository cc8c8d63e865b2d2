package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/landing-detect/internal/imaging"
	"github.com/ironsheep/landing-detect/internal/logging"
	"github.com/ironsheep/landing-detect/internal/metrics"
)

// ErrNoImages is returned when none of the given paths produced a result.
var ErrNoImages = errors.New("no images could be processed")

// Runner processes many files with bounded parallelism.
type Runner struct {
	pipeline *Pipeline
	workers  int
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
}

// NewRunner creates a runner. workers below 1 means sequential processing.
func NewRunner(p *Pipeline, workers int, log logrus.FieldLogger, m *metrics.Metrics) *Runner {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Runner{pipeline: p, workers: workers, log: log, metrics: m}
}

// ExpandPaths replaces each directory with the image files directly inside
// it, sorted by name. Files named explicitly are kept as given.
func ExpandPaths(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", p, err)
		}
		var files []string
		for _, e := range entries {
			if e.IsDir() || !imaging.IsImageFile(e.Name()) {
				continue
			}
			files = append(files, filepath.Join(p, e.Name()))
		}
		sort.Strings(files)
		out = append(out, files...)
	}
	return out, nil
}

// ProcessPaths expands paths and processes every image, returning results
// in input order. Files that fail to load or process are logged and
// skipped. ErrNoImages is returned when nothing succeeded; a cancelled
// context aborts the run with ctx.Err().
func (r *Runner) ProcessPaths(ctx context.Context, paths []string) ([]*Result, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.pipeline.ProcessFile(gctx, file)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				r.metrics.ImageFailed()
				r.log.WithError(err).WithField("path", file).Warn("skipping image")
				return nil
			}
			r.log.WithFields(logrus.Fields{
				"path":       file,
				"shapes":     len(res.Shapes),
				"composites": len(res.Composites),
				"fiducials":  len(res.Fiducials),
			}).Info("image processed")
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ordered := make([]*Result, 0, len(results))
	for _, res := range results {
		if res != nil {
			ordered = append(ordered, res)
		}
	}
	if len(ordered) == 0 {
		return nil, ErrNoImages
	}
	return ordered, nil
}
