// Package pipeline runs the full per-image detection flow and batches it
// over files and folders.
//
// A single image goes through:
//
//	preprocess → color masks → Canny → close → contours → classify → group
//	           → dark mask → contours → fiducials
//
// Contours for classification come from the closed edge image, or from the
// closed union of the color masks when edges.source is "mask".
package pipeline

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/landing-detect/internal/config"
	"github.com/ironsheep/landing-detect/internal/detection"
	"github.com/ironsheep/landing-detect/internal/geometry"
	"github.com/ironsheep/landing-detect/internal/imaging"
	"github.com/ironsheep/landing-detect/internal/logging"
	"github.com/ironsheep/landing-detect/internal/metrics"
	"github.com/ironsheep/landing-detect/internal/overlay"
)

// AutoRangeName names the color range derived from the hue histogram.
const AutoRangeName = "Auto"

// Saturation and value floors of the automatic hue band.
const (
	autoMinSaturation = 100
	autoMinValue      = 100
)

// ColorMask is one color range and the pixels it selected.
type ColorMask struct {
	Range imaging.HSVRange
	Mask  *image.Gray
}

// Result is everything produced for one image. All coordinates refer to
// Frame.Image.
type Result struct {
	// Path is the source file, empty for in-memory images.
	Path string

	// Source describes the file as loaded, nil for in-memory images.
	Source *imaging.ImageInfo

	Frame      *imaging.Frame
	ColorMasks []ColorMask

	// Edges is the closed binary image contours were traced from.
	Edges    *image.Gray
	DarkMask *image.Gray

	// Contours is how many contours were traced before any cap.
	Contours        int
	SkippedContours int

	Shapes     []detection.ClassifiedShape
	Composites []detection.CompositePair
	Fiducials  []detection.FiducialSquare

	// Params are the caption lines describing the detection settings.
	Params []string

	Duration time.Duration
}

// Overlays are the annotated renderings of a Result.
type Overlays struct {
	Shapes     *image.NRGBA
	Composites *image.NRGBA
	Fiducials  *image.NRGBA
}

// Overlays renders the shape, composite and fiducial views. The composite
// view carries the parameter caption when the renderer asks for it.
func (r *Result) Overlays(renderer *overlay.Renderer) Overlays {
	img := r.Frame.Image
	composites := renderer.Composites(img, r.Composites)
	if renderer.ShowParams() {
		composites = renderer.Params(composites, r.Params...)
	}
	return Overlays{
		Shapes:     renderer.Shapes(img, r.Shapes),
		Composites: composites,
		Fiducials:  renderer.Fiducials(img, r.Fiducials),
	}
}

// Pipeline processes images with a fixed configuration. It holds no
// per-image state and is safe for concurrent use.
type Pipeline struct {
	cfg        config.Config
	classifier *detection.Classifier
	fiducials  *detection.FiducialDetector
	grouper    *detection.Grouper
	finder     imaging.ContourFinder
	metrics    *metrics.Metrics
	log        logrus.FieldLogger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithContourFinder replaces the build's default contour finder.
func WithContourFinder(f imaging.ContourFinder) Option {
	return func(p *Pipeline) { p.finder = f }
}

// WithMetrics records every processed image.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger; the default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New validates cfg and builds the detection stages.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grouper, err := detection.NewGrouperFromConfig(cfg.Grouper)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:        cfg,
		classifier: detection.NewClassifier(cfg.Classifier),
		fiducials:  detection.NewFiducialDetector(cfg.Fiducial),
		grouper:    grouper,
		finder:     imaging.NewContourFinder(),
		log:        logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Derive builds a pipeline from a copy of p's configuration modified by
// mutate. The contour finder, metrics and logger are shared.
func (p *Pipeline) Derive(mutate func(*config.Config)) (*Pipeline, error) {
	cfg := p.cfg
	cfg.Colors = append([]imaging.HSVRange(nil), p.cfg.Colors...)
	mutate(&cfg)
	return New(cfg, WithContourFinder(p.finder), WithMetrics(p.metrics), WithLogger(p.log))
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// ProcessFile loads path and processes it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := p.Process(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Path = path
	if info, err := imaging.DescribeImage(img, path); err == nil {
		res.Source = info
	}
	return res, nil
}

// Process runs detection on img. Cancellation is checked between stages.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Result, error) {
	start := time.Now()
	cfg := p.cfg

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame := imaging.Preprocess(img, cfg.Preprocess.MaxWidth, cfg.Preprocess.MaxHeight, cfg.Preprocess.Equalize)
	res := &Result{Frame: frame, Params: p.paramLines()}

	res.ColorMasks = p.colorMasks(frame.HSV)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var source *image.Gray
	if cfg.Edges.Source == config.SourceMask {
		masks := make([]*image.Gray, 0, len(res.ColorMasks))
		for _, m := range res.ColorMasks {
			masks = append(masks, m.Mask)
		}
		source = imaging.UnionMasks(masks...)
		if source == nil {
			source = image.NewGray(frame.Image.Bounds())
		}
	} else {
		source = imaging.Canny(frame.Image, cfg.Edges.CannyLow, cfg.Edges.CannyHigh)
	}
	res.Edges = imaging.MorphClose(source, cfg.Edges.KernelSize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contours, err := p.finder.FindContours(res.Edges)
	if err != nil {
		return nil, fmt.Errorf("find contours: %w", err)
	}
	res.Contours = len(contours)
	if limit := cfg.Edges.MaxContours; limit > 0 && len(contours) > limit {
		p.log.WithFields(logrus.Fields{"contours": len(contours), "limit": limit}).Debug("contour cap reached")
		contours = contours[:limit]
	}

	res.Shapes, res.SkippedContours = p.classifier.ClassifyAll(contours)
	res.Composites = p.grouper.Group(res.Shapes)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.DarkMask = imaging.DarkMask(frame.Image, cfg.Fiducial.DarkThreshold)
	dark, err := p.finder.FindContours(res.DarkMask)
	if err != nil {
		return nil, fmt.Errorf("find fiducial contours: %w", err)
	}
	res.Fiducials = p.fiducials.Detect(dark)

	res.Duration = time.Since(start)
	p.metrics.ObserveImage(metrics.Observation{
		Shapes:          res.Shapes,
		Composites:      len(res.Composites),
		Fiducials:       len(res.Fiducials),
		SkippedContours: res.SkippedContours,
		Duration:        res.Duration,
	})
	p.log.WithFields(logrus.Fields{
		"contours":   res.Contours,
		"shapes":     len(res.Shapes),
		"composites": len(res.Composites),
		"fiducials":  len(res.Fiducials),
		"elapsed":    res.Duration.String(),
	}).Debug("image processed")

	return res, nil
}

// ProcessContours runs only the core stages on contours supplied by the
// caller.
func (p *Pipeline) ProcessContours(contours []geometry.Contour) ([]detection.ClassifiedShape, []detection.CompositePair, int) {
	shapes, skipped := p.classifier.ClassifyAll(contours)
	return shapes, p.grouper.Group(shapes), skipped
}

// Fiducials runs only the dark-marker branch on img at its native size.
func (p *Pipeline) Fiducials(img image.Image) ([]detection.FiducialSquare, error) {
	dark := imaging.DarkMask(img, p.cfg.Fiducial.DarkThreshold)
	contours, err := p.finder.FindContours(dark)
	if err != nil {
		return nil, fmt.Errorf("find fiducial contours: %w", err)
	}
	return p.fiducials.Detect(contours), nil
}

// ContourFinder returns the finder in use.
func (p *Pipeline) ContourFinder() imaging.ContourFinder {
	return p.finder
}

func (p *Pipeline) colorMasks(hsv *imaging.HSVImage) []ColorMask {
	ranges := append([]imaging.HSVRange(nil), p.cfg.Colors...)
	if p.cfg.AutoHue.Enabled {
		lo, hi := imaging.AdjustHueLimits(imaging.HueHistogram(hsv), p.cfg.AutoHue.Margin)
		ranges = append(ranges, imaging.HSVRange{
			Name:  AutoRangeName,
			Lower: [3]uint8{lo, autoMinSaturation, autoMinValue},
			Upper: [3]uint8{hi, 255, 255},
		})
	}

	masks := make([]ColorMask, 0, len(ranges))
	for _, r := range ranges {
		masks = append(masks, ColorMask{Range: r, Mask: imaging.SegmentColors(hsv, r)})
	}
	return masks
}

func (p *Pipeline) paramLines() []string {
	e := p.cfg.Edges
	lines := []string{
		fmt.Sprintf("Canny Threshold1: %d | Canny Threshold2: %d", e.CannyLow, e.CannyHigh),
		fmt.Sprintf("Kernel Size: %d | Proximity: %g px", e.KernelSize, p.cfg.Grouper.ThresholdDistance),
	}
	if len(p.cfg.Colors) > 0 {
		names := make([]string, 0, len(p.cfg.Colors))
		for _, c := range p.cfg.Colors {
			names = append(names, c.Name)
		}
		lines = append(lines, "Colors: "+strings.Join(names, ", "))
	}
	return lines
}
