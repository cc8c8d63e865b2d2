// Package config holds the landing-detect configuration and its loader.
//
// Values are resolved in increasing priority from built-in defaults, a YAML
// config file, LANDING_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ironsheep/landing-detect/internal/detection"
	"github.com/ironsheep/landing-detect/internal/imaging"
	"github.com/ironsheep/landing-detect/internal/overlay"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Edge sources for contour extraction.
const (
	SourceEdges = "edges"
	SourceMask  = "mask"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config is the complete configuration for detection runs and the server.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file" json:"log_file"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Workers bounds how many images are processed at once in folder mode.
	Workers int `mapstructure:"workers" yaml:"workers" json:"workers"`

	Preprocess PreprocessConfig           `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	Colors     []imaging.HSVRange         `mapstructure:"colors" yaml:"colors" json:"colors"`
	AutoHue    AutoHueConfig              `mapstructure:"auto_hue" yaml:"auto_hue" json:"auto_hue"`
	Edges      EdgeConfig                 `mapstructure:"edges" yaml:"edges" json:"edges"`
	Classifier detection.ClassifierConfig `mapstructure:"classifier" yaml:"classifier" json:"classifier"`
	Fiducial   detection.FiducialConfig   `mapstructure:"fiducial" yaml:"fiducial" json:"fiducial"`
	Grouper    detection.GrouperConfig    `mapstructure:"grouper" yaml:"grouper" json:"grouper"`
	Overlay    overlay.Style              `mapstructure:"overlay" yaml:"overlay" json:"overlay"`
	Output     OutputConfig               `mapstructure:"output" yaml:"output" json:"output"`
}

// PreprocessConfig controls the working resolution and illumination
// normalization.
type PreprocessConfig struct {
	MaxWidth  int  `mapstructure:"max_width" yaml:"max_width" json:"max_width"`
	MaxHeight int  `mapstructure:"max_height" yaml:"max_height" json:"max_height"`
	Equalize  bool `mapstructure:"equalize" yaml:"equalize" json:"equalize"`
}

// AutoHueConfig enables a color range centred on the dominant hue.
type AutoHueConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Margin  int  `mapstructure:"margin" yaml:"margin" json:"margin"`
}

// EdgeConfig controls edge detection and contour extraction.
type EdgeConfig struct {
	CannyLow   int `mapstructure:"canny_low" yaml:"canny_low" json:"canny_low"`
	CannyHigh  int `mapstructure:"canny_high" yaml:"canny_high" json:"canny_high"`
	KernelSize int `mapstructure:"kernel_size" yaml:"kernel_size" json:"kernel_size"`

	// Source is "edges" to trace the closed Canny image or "mask" to trace
	// the union of the color masks.
	Source string `mapstructure:"source" yaml:"source" json:"source"`

	// MaxContours caps contours classified per image; 0 means no cap.
	MaxContours int `mapstructure:"max_contours" yaml:"max_contours" json:"max_contours"`
}

// OutputConfig controls what a detection run writes.
type OutputConfig struct {
	Format      string `mapstructure:"format" yaml:"format" json:"format"`
	Dir         string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Overlays    bool   `mapstructure:"overlays" yaml:"overlays" json:"overlays"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Workers:  1,
		Preprocess: PreprocessConfig{
			MaxWidth:  800,
			MaxHeight: 600,
			Equalize:  true,
		},
		Colors:  imaging.DefaultColorRanges(),
		AutoHue: AutoHueConfig{Margin: 15},
		Edges: EdgeConfig{
			CannyLow:   100,
			CannyHigh:  200,
			KernelSize: 5,
			Source:     SourceEdges,
		},
		Classifier: detection.DefaultClassifierConfig(),
		Fiducial:   detection.DefaultFiducialConfig(),
		Grouper:    detection.DefaultGrouperConfig(),
		Overlay:    overlay.DefaultStyle(),
		Output:     OutputConfig{Format: FormatJSON},
	}
}

// EffectiveLogLevel returns "debug" when Verbose is set, otherwise LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Verbose {
		return "debug"
	}
	return c.LogLevel
}

// Validate reports the first inconsistent setting. Errors wrap
// ErrInvalidConfig.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return invalid("log_level %q (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.Workers < 1 {
		return invalid("workers %d (must be at least 1)", c.Workers)
	}

	if c.Preprocess.MaxWidth < 0 || c.Preprocess.MaxHeight < 0 {
		return invalid("preprocess limits %dx%d must not be negative", c.Preprocess.MaxWidth, c.Preprocess.MaxHeight)
	}

	for i, r := range c.Colors {
		if r.Name == "" {
			return invalid("colors[%d] has no name", i)
		}
		for ch := range 3 {
			if r.Lower[ch] > r.Upper[ch] {
				return invalid("colors[%d] %s: lower %v exceeds upper %v", i, r.Name, r.Lower, r.Upper)
			}
		}
	}
	if c.AutoHue.Margin < 0 || c.AutoHue.Margin > 255 {
		return invalid("auto_hue.margin %d (must be between 0 and 255)", c.AutoHue.Margin)
	}

	if c.Edges.CannyLow < 0 || c.Edges.CannyHigh < 0 {
		return invalid("canny thresholds %d/%d must not be negative", c.Edges.CannyLow, c.Edges.CannyHigh)
	}
	if c.Edges.Source != SourceEdges && c.Edges.Source != SourceMask {
		return invalid("edges.source %q (must be %s or %s)", c.Edges.Source, SourceEdges, SourceMask)
	}
	if c.Edges.MaxContours < 0 {
		return invalid("edges.max_contours %d must not be negative", c.Edges.MaxContours)
	}

	if err := validateClassifier(c.Classifier); err != nil {
		return err
	}
	if c.Fiducial.ApproxEpsilon <= 0 {
		return invalid("fiducial.approx_epsilon %g must be positive", c.Fiducial.ApproxEpsilon)
	}
	if c.Grouper.ThresholdDistance <= 0 {
		return invalid("grouper.threshold_distance %g must be positive", c.Grouper.ThresholdDistance)
	}
	if _, err := detection.NewProximityIndex(c.Grouper.Index); err != nil {
		return invalid("grouper.index: %v", err)
	}

	if _, err := overlay.NewRenderer(c.Overlay); err != nil {
		return invalid("overlay: %v", err)
	}

	if c.Output.Format != FormatJSON && c.Output.Format != FormatYAML {
		return invalid("output.format %q (must be %s or %s)", c.Output.Format, FormatJSON, FormatYAML)
	}
	return nil
}

func validateClassifier(cc detection.ClassifierConfig) error {
	switch {
	case cc.ApproxEpsilon <= 0:
		return invalid("classifier.approx_epsilon %g must be positive", cc.ApproxEpsilon)
	case cc.SquareAspectMin > cc.SquareAspectMax:
		return invalid("classifier square aspect band [%g, %g] is empty", cc.SquareAspectMin, cc.SquareAspectMax)
	case cc.CircularityMin >= cc.CircularityMax:
		return invalid("classifier circularity band (%g, %g) is empty", cc.CircularityMin, cc.CircularityMax)
	case cc.RightAngleMin < 0 || cc.RightAngleMax > 180 || cc.RightAngleMin > cc.RightAngleMax:
		return invalid("classifier right angle band [%g, %g] must lie within [0, 180]", cc.RightAngleMin, cc.RightAngleMax)
	case cc.CrossMinRightAngles < 1:
		return invalid("classifier.cross_min_right_angles %d must be at least 1", cc.CrossMinRightAngles)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
