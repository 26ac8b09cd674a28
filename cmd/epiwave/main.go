package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/epiwave/epiwave/internal/config"
	"github.com/epiwave/epiwave/internal/logging"
	"github.com/epiwave/epiwave/internal/pipeline"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "epiwave",
		Short:         "COVID-19 wave detection and forecasting for one country",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	v := config.NewViper()
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load the dataset, analyse the configured country and write the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, configPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file")
	flags.String("country", "", "Country to analyse (analysis.country)")
	flags.String("data", "", "Dataset path (source.path)")
	flags.String("output", "", "Output directory (report.output_dir)")

	for key, flag := range map[string]string{
		"analysis.country":  "country",
		"source.path":       "data",
		"report.output_dir": "output",
	} {
		// Only errors on a nil flag
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper, configPath string) error {
	// 1. Load configuration
	cfg, err := config.LoadWith(v, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return err
	}

	// 2. Initialize logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return err
	}
	logging.SetGlobal(logger)

	logger.Info("epiwave starting",
		"version", Version, "commit", GitCommit, "build time", BuildTime,
		"country", cfg.Analysis.Country, "source", cfg.Source.Path)

	// 3. Cancel between stages on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Run the pipeline
	runner := pipeline.NewRunner(cfg, logger, cmd.OutOrStdout())
	res, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Run failed", "error", err)
		return err
	}

	logger.Info("Run completed", "run_id", res.RunID, "csv", res.CSVPath, "charts", len(res.Charts))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "epiwave %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}
}
