package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/landing-detect/internal/metrics"
	"github.com/ironsheep/landing-detect/internal/overlay"
	"github.com/ironsheep/landing-detect/internal/pipeline"
	"github.com/ironsheep/landing-detect/internal/server"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the detection tools over MCP on stdin/stdout",
		Long: `Runs a Model Context Protocol server speaking JSON-RPC 2.0 on stdin and
stdout. Logs go to stderr.

Configure it in your MCP client, for example:

  {"command": "landing-detect", "args": ["serve"]}`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	cmd.Flags().String("metrics-file", "", "write Prometheus counters to this textfile on exit")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	m := metrics.New()
	p, err := pipeline.New(*a.cfg, pipeline.WithLogger(a.log), pipeline.WithMetrics(m))
	if err != nil {
		return err
	}
	renderer, err := overlay.NewRenderer(a.cfg.Overlay)
	if err != nil {
		return err
	}

	a.log.WithFields(logrus.Fields{
		"version": a.info.Version,
		"finder":  p.ContourFinder().Name(),
	}).Info("MCP server starting")

	srv := server.New(p, renderer, a.log, a.info.Version)
	runErr := srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())

	if path := a.cfg.Output.MetricsFile; path != "" {
		if err := m.WriteTextfile(path); err != nil {
			a.log.WithError(err).Warn("failed to write metrics")
		}
	}
	return runErr
}
