// Package cmd implements the landing-detect command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironsheep/landing-detect/internal/config"
	"github.com/ironsheep/landing-detect/internal/logging"
)

// BuildInfo identifies the binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// app is the state shared by the commands of one invocation.
type app struct {
	info    BuildInfo
	loader  *config.Loader
	cfgFile string

	cfg *config.Config
	log *logrus.Logger
}

func newApp(info BuildInfo) *app {
	return &app{info: info, loader: config.NewLoaderWithViper(viper.New())}
}

// Execute runs the root command and exits non-zero on failure. SIGINT and
// SIGTERM cancel the running command.
func Execute(info BuildInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(info)
	if err := a.rootCommand().ExecuteContext(ctx); err != nil {
		a.logger().WithError(err).Error("landing-detect failed")
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds a fresh command tree. Each tree owns its
// configuration, so tests can execute several side by side.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newApp(info).rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "landing-detect",
		Short: "Drone landing-pad shape recognition",
		Long: `Detects painted drone landing pads in camera images.

Each image is segmented by color and edges, its contours are classified as
Triangle, Square, Rectangle, Circle or Cross, nearby shapes are paired into
composite pads, and black fiducial squares are located.

Examples:
  landing-detect detect frame.png
  landing-detect detect frames/ --workers 4 --format yaml
  landing-detect detect frames/ --overlays --out-dir annotated
  landing-detect serve`,
		Version:           a.info.String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is search in ., $HOME/.config/landing-detect, /etc/landing-detect)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write logs to this file, rotated")

	root.AddCommand(a.detectCommand(), a.serveCommand(), a.versionCommand())
	return root
}

// flagKeys maps command line flags to the configuration keys they
// override.
var flagKeys = map[string]string{
	"verbose":            "verbose",
	"log-level":          "log_level",
	"log-file":           "log_file",
	"workers":            "workers",
	"format":             "output.format",
	"out-dir":            "output.dir",
	"overlays":           "output.overlays",
	"metrics-file":       "output.metrics_file",
	"threshold-distance": "grouper.threshold_distance",
	"canny-low":          "edges.canny_low",
	"canny-high":         "edges.canny_high",
	"kernel-size":        "edges.kernel_size",
}

// bindFlags binds the flags of the command being run. Binding late lets
// several commands define the same flag.
func (a *app) bindFlags(cmd *cobra.Command) error {
	v := a.loader.Viper()
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// setup loads the configuration and builds the logger before any command
// runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.bindFlags(cmd); err != nil {
		return err
	}
	cfg, err := a.loader.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(logging.Options{
		Level:  cfg.EffectiveLogLevel(),
		File:   cfg.LogFile,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.log = log

	if used := a.loader.ConfigFileUsed(); used != "" {
		log.WithField("file", used).Debug("configuration loaded")
	}
	return nil
}

// logger returns the configured logger, or a default stderr logger when
// setup never completed.
func (a *app) logger() *logrus.Logger {
	if a.log != nil {
		return a.log
	}
	log, _ := logging.New(logging.Options{})
	return log
}
