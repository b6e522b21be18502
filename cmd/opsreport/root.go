package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"opsdash/internal/app"
	"opsdash/internal/config"
	"opsdash/internal/infrastructure"
	"opsdash/internal/services"
	"opsdash/internal/session"
)

// cliSession is the single session a CLI run loads its dataset into
const cliSession = "opsreport"

type rootOptions struct {
	configFile string
	logLevel   string
}

// inputOptions select the dataset a command works on
type inputOptions struct {
	sample bool
	seed   uint64
}

func (o *inputOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.sample, "sample", true, "fall back to the generated sample when no file is given")
	cmd.Flags().Uint64Var(&o.seed, "seed", config.DefaultSampleSeed, "seed for the generated sample")
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "opsreport",
		Short:         "Operations dashboard figures and exports from the command line",
		Long:          `opsreport loads an operations CSV or XLSX file (or the generated sample) and prints the dashboard KPIs and rollups, or writes the workbook and CSV exports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	cmd.AddCommand(newKPIsCmd(opts), newExportCmd(opts))
	return cmd
}

// runner is the dashboard pipeline of one CLI invocation
type runner struct {
	cfg    *config.Config
	svc    *services.DashboardService
	logger *slog.Logger
}

func newRunner(opts *rootOptions, stderr io.Writer) (*runner, error) {
	cfg, err := config.LoadFrom(opts.configFile)
	if err != nil {
		return nil, err
	}
	cfg.Logging.Level = opts.logLevel
	logger := infrastructure.NewLogger(cfg.Logging, stderr)

	sample, err := app.SampleConfig(cfg.Sample)
	if err != nil {
		return nil, err
	}

	svc := services.NewDashboardService(session.NewMemoryStore(0), services.DashboardOptions{
		Sample:         sample,
		FilenamePrefix: cfg.Export.FilenamePrefix,
	}, logger)

	return &runner{cfg: cfg, svc: svc, logger: logger}, nil
}

// load puts the input file into the CLI session. Without a file, an explicit
// seed loads the sample; otherwise the service falls back to the sample on
// its own when in.sample is set.
func (r *runner) load(ctx context.Context, cmd *cobra.Command, args []string, in inputOptions) error {
	if len(args) == 0 {
		if cmd.Flags().Changed("seed") {
			seed := in.seed
			_, err := r.svc.LoadSample(ctx, cliSession, &seed)
			return err
		}
		return nil
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	_, err = r.svc.Load(ctx, cliSession, filepath.Base(path), f)
	return err
}
