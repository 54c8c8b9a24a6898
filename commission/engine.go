package commission

import (
	"go.uber.org/zap"
)

// =============================================================================
// ENGINE - runs the passes in order over one Config snapshot
// =============================================================================

// Engine holds the read-only inputs shared by every pass of a run. It keeps
// no per-run state, so the same Engine can run any number of datasets.
type Engine struct {
	config     *Config
	rules      *RuleTable
	normalizer *Normalizer
	log        *zap.Logger
}

// NewEngine builds an engine. A nil logger discards output.
func NewEngine(cfg *Config, rules *RuleTable, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if rules == nil {
		rules = NewRuleTable(nil)
	}
	return &Engine{
		config:     cfg,
		rules:      rules,
		normalizer: NewNormalizer(cfg),
		log:        log,
	}
}

// Config returns the snapshot the engine was built with.
func (e *Engine) Config() *Config { return e.config }

// Report is the output of a full run.
type Report struct {
	Results   *Results
	Summaries map[string]*Summary
}

// Run executes pass 1, 2, 3 and the summarizer. Each step finishes over
// the whole dataset before the next starts. Row-level problems end up in
// Results.Diagnostics; an error here means a pass was misused.
func (e *Engine) Run(in Input) (*Report, error) {
	e.log.Info("starting commission calculation",
		zap.Int("sales_rows", len(in.Sales)),
		zap.Int("employee_models", len(in.EmployeeModels)),
		zap.Int("targets", len(in.Targets)),
		zap.Int("payments", len(in.Payments)),
	)

	res := e.Accumulate(in.Sales, in.EmployeeModels)
	if err := e.Calculate(res); err != nil {
		return nil, err
	}
	if err := e.ApplyBonuses(res, in.Targets); err != nil {
		return nil, err
	}
	summaries, err := e.Summarize(res, in.Payments)
	if err != nil {
		return nil, err
	}
	return &Report{Results: res, Summaries: summaries}, nil
}
