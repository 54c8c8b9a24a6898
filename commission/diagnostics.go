package commission

import (
	"go.uber.org/zap"
)

// DiagnosticCode classifies a non-fatal anomaly found during a run.
type DiagnosticCode string

const (
	DiagRowSkipped     DiagnosticCode = "row_skipped"     // bad month/year, row ignored
	DiagNoParticipants DiagnosticCode = "no_participants" // nobody in any role column
	DiagNoBracket      DiagnosticCode = "no_bracket"      // base matched no bracket, rates are 0
	DiagZeroTargets    DiagnosticCode = "zero_targets"    // no bonus for the month
)

// Diagnostic is a warning recorded during a run. The run always continues.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Line    int            `json:"line,omitempty"`
	Month   string         `json:"month,omitempty"`
	Person  string         `json:"person,omitempty"`
	Message string         `json:"message"`
}

// warn records d and logs it.
func (r *Results) warn(log *zap.Logger, d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
	log.Warn(d.Message,
		zap.String("code", string(d.Code)),
		zap.Int("line", d.Line),
		zap.String("month", d.Month),
		zap.String("person", d.Person),
	)
}

// CountDiagnostics returns how many diagnostics carry code.
func (r *Results) CountDiagnostics(code DiagnosticCode) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}
