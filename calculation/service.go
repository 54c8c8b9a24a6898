/*
Package calculation runs one commission calculation end to end.

PURPOSE:
  The HTTP API and the CLI both turn a validated dataset into a report.
  This package owns that sequence so both entry points behave the same.

SEQUENCE:
  1. Take one Config snapshot from the settings provider (fatal if none)
  2. Load the bracket table
  3. Use the dataset's targets, or the stored targets when the dataset
     carried no targets sheet
  4. Run the engine (pass 1, 2, 3, summarizer)
  5. Optionally persist the run with a public UUID

The snapshot taken in step 1 is used for the whole run even if settings
are edited meanwhile.
*/
package calculation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/dataset"
	"github.com/warp/commission-engine/store/sqlite"
	"go.uber.org/zap"
)

// ConfigSource hands out the Config snapshot for a run.
type ConfigSource interface {
	Snapshot(ctx context.Context) (*commission.Config, error)
}

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *sqlite.Run) error
}

// Observer is told about every finished run.
type Observer interface {
	ObserveRun(elapsed time.Duration, salesRows int, res *commission.Results, err error)
}

// Service wires the collaborators of a run.
type Service struct {
	Config  ConfigSource
	Rules   commission.RuleStore
	Targets commission.TargetStore // may be nil
	Runs    RunStore               // may be nil; Persist then fails
	Observe Observer               // may be nil
	Log     *zap.Logger

	now func() time.Time
}

// Request is one calculation.
type Request struct {
	Dataset  *dataset.Dataset
	Filename string
	Persist  bool
}

// Outcome is what a run produced.
type Outcome struct {
	RunID     string
	CreatedAt time.Time
	Report    *commission.Report
	Summaries []*commission.Summary
	Details   commission.DetailedResults
	Targets   []commission.MonthlyTarget
}

// Calculate runs req. Row-level problems are in the outcome's
// diagnostics; errors are configuration, store or persistence failures.
func (s *Service) Calculate(ctx context.Context, req Request) (out *Outcome, err error) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	salesRows := len(req.Dataset.Input.Sales)
	defer func() {
		if s.Observe == nil {
			return
		}
		var res *commission.Results
		if out != nil {
			res = out.Report.Results
		}
		s.Observe.ObserveRun(time.Since(start), salesRows, res, err)
	}()

	cfg, err := s.Config.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	rules, err := commission.LoadRuleTable(ctx, s.Rules)
	if err != nil {
		return nil, fmt.Errorf("load commission rules: %w", err)
	}

	input := req.Dataset.Input
	if !req.Dataset.HasTargets && s.Targets != nil {
		stored, err := s.Targets.ListTargets(ctx)
		if err != nil {
			return nil, fmt.Errorf("load stored targets: %w", err)
		}
		input.Targets = stored
		log.Info("no targets sheet supplied, using stored targets", zap.Int("targets", len(stored)))
	}

	report, err := commission.NewEngine(cfg, rules, log).Run(input)
	if err != nil {
		return nil, err
	}

	out = &Outcome{
		Report:    report,
		Summaries: commission.SortedSummaries(report.Summaries),
		Details:   report.Results.Detailed(),
		Targets:   input.Targets,
	}

	if req.Persist {
		if err := s.persist(ctx, req.Filename, out); err != nil {
			return nil, err
		}
		log.Info("calculation run saved",
			zap.String("run_id", out.RunID),
			zap.String("period", out.Details.Period),
			zap.Int("people", len(out.Summaries)),
		)
	}
	return out, nil
}

func (s *Service) persist(ctx context.Context, filename string, out *Outcome) error {
	if s.Runs == nil {
		return fmt.Errorf("persist run: no run store configured")
	}

	details, err := json.Marshal(out.Details)
	if err != nil {
		return fmt.Errorf("encode detailed results: %w", err)
	}
	var targets json.RawMessage
	if len(out.Targets) > 0 {
		if targets, err = json.Marshal(out.Targets); err != nil {
			return fmt.Errorf("encode targets: %w", err)
		}
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	run := &sqlite.Run{
		PublicID:        uuid.NewString(),
		Filename:        filename,
		ReportPeriod:    out.Details.Period,
		CreatedAt:       now().UTC(),
		DetailedResults: details,
		Targets:         targets,
	}
	for _, sum := range out.Summaries {
		run.People = append(run.People, sqlite.PersonResultFrom(sum))
	}

	if err := s.Runs.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	out.RunID = run.PublicID
	out.CreatedAt = run.CreatedAt
	return nil
}
