package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of the config file, without extension.
	ConfigFileName = "landing-detect"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "LANDING"
)

// Loader resolves a Config from defaults, a config file, the environment and
// bound flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance, which is where
// cobra flag bindings live.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on a caller-owned viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Viper returns the underlying viper instance.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// ConfigFileUsed returns the path of the file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load resolves and validates the configuration. When configFile is empty
// the standard search paths are tried and a missing file is not an error.
func (l *Loader) Load(configFile string) (*Config, error) {
	cfg, err := l.LoadWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation is Load minus the Validate step.
func (l *Loader) LoadWithoutValidation(configFile string) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		for _, p := range SearchPaths() {
			l.v.AddConfigPath(p)
		}
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// SearchPaths lists the directories searched for landing-detect.yaml, in
// order.
func SearchPaths() []string {
	paths := []string{"."}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}
	return append(paths, filepath.Join("/etc", ConfigFileName))
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("log_file", d.LogFile)
	l.v.SetDefault("verbose", d.Verbose)
	l.v.SetDefault("workers", d.Workers)

	l.v.SetDefault("preprocess.max_width", d.Preprocess.MaxWidth)
	l.v.SetDefault("preprocess.max_height", d.Preprocess.MaxHeight)
	l.v.SetDefault("preprocess.equalize", d.Preprocess.Equalize)

	l.v.SetDefault("colors", d.Colors)
	l.v.SetDefault("auto_hue.enabled", d.AutoHue.Enabled)
	l.v.SetDefault("auto_hue.margin", d.AutoHue.Margin)

	l.v.SetDefault("edges.canny_low", d.Edges.CannyLow)
	l.v.SetDefault("edges.canny_high", d.Edges.CannyHigh)
	l.v.SetDefault("edges.kernel_size", d.Edges.KernelSize)
	l.v.SetDefault("edges.source", d.Edges.Source)
	l.v.SetDefault("edges.max_contours", d.Edges.MaxContours)

	l.v.SetDefault("classifier.approx_epsilon", d.Classifier.ApproxEpsilon)
	l.v.SetDefault("classifier.square_aspect_min", d.Classifier.SquareAspectMin)
	l.v.SetDefault("classifier.square_aspect_max", d.Classifier.SquareAspectMax)
	l.v.SetDefault("classifier.circularity_min", d.Classifier.CircularityMin)
	l.v.SetDefault("classifier.circularity_max", d.Classifier.CircularityMax)
	l.v.SetDefault("classifier.right_angle_min", d.Classifier.RightAngleMin)
	l.v.SetDefault("classifier.right_angle_max", d.Classifier.RightAngleMax)
	l.v.SetDefault("classifier.cross_min_right_angles", d.Classifier.CrossMinRightAngles)

	l.v.SetDefault("fiducial.approx_epsilon", d.Fiducial.ApproxEpsilon)
	l.v.SetDefault("fiducial.dark_threshold", d.Fiducial.DarkThreshold)

	l.v.SetDefault("grouper.threshold_distance", d.Grouper.ThresholdDistance)
	l.v.SetDefault("grouper.index", d.Grouper.Index)

	l.v.SetDefault("overlay.shape_color", d.Overlay.ShapeColor)
	l.v.SetDefault("overlay.composite_first_color", d.Overlay.CompositeFirstColor)
	l.v.SetDefault("overlay.composite_second_color", d.Overlay.CompositeSecondColor)
	l.v.SetDefault("overlay.fiducial_color", d.Overlay.FiducialColor)
	l.v.SetDefault("overlay.fiducial_text_color", d.Overlay.FiducialTextColor)
	l.v.SetDefault("overlay.thickness", d.Overlay.Thickness)
	l.v.SetDefault("overlay.show_params", d.Overlay.ShowParams)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.dir", d.Output.Dir)
	l.v.SetDefault("output.overlays", d.Output.Overlays)
	l.v.SetDefault("output.metrics_file", d.Output.MetricsFile)
}
