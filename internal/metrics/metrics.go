// Package metrics counts detection results in a private Prometheus registry
// and exports them as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ironsheep/landing-detect/internal/detection"
)

// Observation summarizes one processed image.
type Observation struct {
	Shapes          []detection.ClassifiedShape
	Composites      int
	Fiducials       int
	SkippedContours int
	Duration        time.Duration
}

// Metrics holds the detection collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	imagesProcessed prometheus.Counter
	imagesFailed    prometheus.Counter
	shapesDetected  *prometheus.CounterVec
	composites      prometheus.Counter
	fiducials       prometheus.Counter
	contoursSkipped prometheus.Counter
	processSeconds  prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		imagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_images_processed_total",
			Help: "Total number of images run through detection",
		}),
		imagesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_images_failed_total",
			Help: "Total number of images that could not be loaded or processed",
		}),
		shapesDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "landing_shapes_detected_total",
			Help: "Total number of classified shapes by label",
		}, []string{"label"}),
		composites: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_composites_detected_total",
			Help: "Total number of composite shape pairs",
		}),
		fiducials: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_fiducials_detected_total",
			Help: "Total number of black fiducial squares",
		}),
		contoursSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "landing_contours_skipped_total",
			Help: "Total number of contours too small to classify",
		}),
		processSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "landing_process_seconds",
			Help:    "Per-image processing time in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
	}

	for _, l := range detection.Labels() {
		m.shapesDetected.WithLabelValues(l.String())
	}
	return m
}

// Registry exposes the registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveImage records one successfully processed image.
func (m *Metrics) ObserveImage(o Observation) {
	if m == nil {
		return
	}
	m.imagesProcessed.Inc()
	for _, s := range o.Shapes {
		m.shapesDetected.WithLabelValues(s.Label.String()).Inc()
	}
	m.composites.Add(float64(o.Composites))
	m.fiducials.Add(float64(o.Fiducials))
	m.contoursSkipped.Add(float64(o.SkippedContours))
	m.processSeconds.Observe(o.Duration.Seconds())
}

// ImageFailed records an image that was skipped because of an error.
func (m *Metrics) ImageFailed() {
	if m == nil {
		return
	}
	m.imagesFailed.Inc()
}

// WriteTextfile writes all metrics in the Prometheus text format, atomically
// replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
