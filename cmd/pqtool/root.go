package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/VanDung-dev/parquet-core/engine"
)

type globalFlags struct {
	verbose     bool
	metricsAddr string
}

// env is the per invocation state shared by subcommands.
type env struct {
	flags   globalFlags
	log     *zap.Logger
	metrics *engine.Metrics
	server  *engine.MetricsServer
}

func (e *env) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if e.flags.verbose {
		e.log, err = zap.NewDevelopment()
	} else {
		e.log, err = zap.NewProduction(zap.IncreaseLevel(zap.WarnLevel))
	}
	if err != nil {
		return err
	}
	if e.flags.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		e.metrics = engine.NewMetrics("pqtool", reg)
		e.server = engine.NewMetricsServer(e.flags.metricsAddr, reg)
		e.server.StartAsync()
		e.log.Info("serving metrics", zap.String("addr", e.flags.metricsAddr))
	}
	return nil
}

func (e *env) teardown(cmd *cobra.Command, _ []string) error {
	if e.server != nil {
		_ = e.server.Stop()
	}
	_ = e.log.Sync()
	return nil
}

func (e *env) openReader(path string) (*engine.Reader, error) {
	src, err := engine.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return engine.NewReader(src,
		engine.WithReaderLogger(e.log.With(zap.String("file", path))),
		engine.WithReaderMetrics(e.metrics)), nil
}

func newRootCmd() *cobra.Command {
	e := &env{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "pqtool",
		Short: "inspect and rewrite Parquet files",
		Long: `
  Prints the schema, footer metadata and rows of Parquet files, rewrites them
  with another codec or row group size, and converts to and from Arrow IPC
  streams.
`,
		SilenceUsage:       true,
		PersistentPreRunE:  e.setup,
		PersistentPostRunE: e.teardown,
	}
	root.PersistentFlags().BoolVarP(&e.flags.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().StringVar(&e.flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	root.AddCommand(
		newSchemaCmd(e),
		newMetaCmd(e),
		newCountCmd(e),
		newCatCmd(e),
		newConvertCmd(e),
		newExportCmd(e),
		newImportCmd(e),
	)
	return root
}
