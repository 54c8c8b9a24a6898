package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/commission-engine/calculation"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/dataset"
	"github.com/warp/commission-engine/settings"
)

type calculateOptions struct {
	file   string
	dir    string
	db     string
	save   bool
	asJSON bool
}

func newCalculateCmd(opts *rootOptions) *cobra.Command {
	co := &calculateOptions{}
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate an .xlsx workbook or a directory of CSV sheets",
		Long: "Reads the workbook given with --file, or sales.csv and the optional\n" +
			"employees.csv, targets.csv and payments.csv from --dir, runs the engine\n" +
			"and prints one line per person.\n" +
			"Without --db the run uses an in-memory database seeded with defaults.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalculate(cmd, opts, co)
		},
	}
	cmd.Flags().StringVar(&co.file, "file", "", "workbook (.xlsx) with the named sheets")
	cmd.Flags().StringVar(&co.dir, "dir", ".", "directory holding the CSV sheets")
	cmd.MarkFlagsMutuallyExclusive("file", "dir")
	cmd.Flags().StringVar(&co.db, "db", "", "database for settings, brackets and saved runs")
	cmd.Flags().BoolVar(&co.save, "save", false, "store the run (requires --db)")
	cmd.Flags().BoolVar(&co.asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func runCalculate(cmd *cobra.Command, opts *rootOptions, co *calculateOptions) error {
	if co.save && co.db == "" {
		return errors.New("--save needs --db")
	}
	cfg, log, err := opts.load(true)
	if err != nil {
		return err
	}
	defer log.Sync()

	path, withSeed := ":memory:", true
	if co.db != "" {
		path, withSeed = co.db, cfg.Database.Seed
	}
	store, err := openStore(cmd.Context(), path, withSeed, log)
	if err != nil {
		return err
	}
	defer store.Close()

	source, load := co.dir, dataset.Load
	if co.file != "" {
		source, load = co.file, dataset.LoadWorkbook
	}
	ds, err := load(source)
	if err != nil {
		if problems, ok := dataset.AsValidationErrors(err); ok {
			for _, p := range problems {
				fmt.Fprintln(cmd.ErrOrStderr(), p.Error())
			}
			return fmt.Errorf("%d problems in %s", len(problems), source)
		}
		return err
	}

	svc := &calculation.Service{
		Config:  settings.NewProvider(store, settings.WithLogger(log)),
		Rules:   store,
		Targets: store,
		Runs:    store,
		Log:     log,
	}
	out, err := svc.Calculate(cmd.Context(), calculation.Request{
		Dataset:  ds,
		Filename: source,
		Persist:  co.save,
	})
	if err != nil {
		return err
	}

	if co.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run_id":           out.RunID,
			"summaries":        out.Summaries,
			"detailed_results": out.Details,
		})
	}
	printSummaries(cmd.OutOrStdout(), out)
	return nil
}

func printSummaries(w io.Writer, out *calculation.Outcome) {
	fmt.Fprintf(w, "Period: %s\n", out.Details.Period)
	if out.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", out.RunID)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Person\tModel\tCommission\tBonus\tPayable\tPaid\tRemaining\tPending\t")
	for _, s := range out.Summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			s.PersonName, s.CommissionModel,
			s.OriginalCommission, s.Bonus, s.Payable, s.Paid, s.Remaining, s.PendingCommission)
	}
	tw.Flush()

	if n := len(out.Details.Diagnostics); n > 0 {
		fmt.Fprintf(w, "\n%d diagnostics:\n", n)
		for _, d := range out.Details.Diagnostics {
			fmt.Fprintf(w, "  %s\n", describe(d))
		}
	}
}

func describe(d commission.Diagnostic) string {
	prefix := string(d.Code)
	if d.Line > 0 {
		prefix = fmt.Sprintf("%s line %d", prefix, d.Line)
	}
	if d.Month != "" {
		prefix += " " + d.Month
	}
	return prefix + ": " + d.Message
}
