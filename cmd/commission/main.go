/*
main.go - Command-line entry point

PURPOSE:
  Runs the commission engine as an HTTP service or as a one-shot
  calculation over a workbook or a directory of CSV sheets.

COMMANDS:
  serve       Start the HTTP API (uploads, runs, admin, metrics)
  calculate   Calculate an .xlsx workbook or a CSV directory and print
              the summaries
  seed        Insert default settings and commission brackets

CONFIGURATION:
  --config    Path to a TOML file. Without it commission.toml is looked
              up in the working directory and /etc/commission.
  Environment variables with the COMMISSION_ prefix override the file.

EXAMPLES:
  commission serve
  COMMISSION_DATABASE_PATH=:memory: commission serve
  commission calculate --file ./commissions-1404.xlsx
  commission calculate --dir ./sheets --json
  commission seed --config ./commission.toml
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/commission-engine/config"
	"github.com/warp/commission-engine/logger"
	"github.com/warp/commission-engine/seed"
	"github.com/warp/commission-engine/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "commission",
		Short:         "Sales commission engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: ./commission.toml)")

	root.AddCommand(
		newServeCmd(opts),
		newCalculateCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

// load reads configuration and builds the logger. stderrOnly moves a
// stdout logger to stderr so command output stays parseable.
func (o *rootOptions) load(stderrOnly bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	lc := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	if stderrOnly && lc.Output == "stdout" {
		lc.Output = "stderr"
	}
	log, err := logger.New(lc)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

// openStore opens path and seeds it when asked.
func openStore(ctx context.Context, path string, withSeed bool, log *zap.Logger) (*sqlite.Store, error) {
	store, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if withSeed {
		if _, err := seed.Run(ctx, store, log); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert default settings and brackets that are not stored yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(true)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := openStore(cmd.Context(), cfg.Database.Path, false, log)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := seed.Run(cmd.Context(), store, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "settings inserted: %d\nrules inserted: %d\n",
				res.SettingsInserted, res.RulesInserted)
			return nil
		},
	}
}
