package dataset

import (
	"strings"

	"github.com/warp/commission-engine/commission"
)

// FromInput validates rows that did not come from a sheet, such as a JSON
// request, with the numeric column rules ReadSheet applies. Sales lines are
// taken from the rows; payments are numbered from 2 in order.
func FromInput(in commission.Input, hasTargets bool) (*Dataset, error) {
	var problems ValidationErrors

	for _, row := range in.Sales {
		problems = append(problems, checkCells(SalesSchema, row.Line, map[string]string{
			ColNetAmount:      row.NetAmount,
			ColCollected:      row.CollectedAmount,
			ColCommissionBase: row.CommissionBase,
		})...)
	}
	for i, p := range in.Payments {
		problems = append(problems, checkCells(PaymentsSchema, i+2, map[string]string{
			ColAmountPaid: p.Amount,
		})...)
	}

	if len(problems) > 0 {
		return nil, problems
	}
	if in.EmployeeModels == nil {
		in.EmployeeModels = make(map[string]string)
	}
	return &Dataset{Input: in, HasTargets: hasTargets}, nil
}

// checkCells runs checkNumber over the numeric columns present in cells,
// in schema order.
func checkCells(schema Schema, line int, cells map[string]string) []ValidationError {
	var out []ValidationError
	for _, col := range schema.Columns {
		v, ok := cells[col.Key]
		if !col.Numeric || !ok {
			continue
		}
		if ve, bad := checkNumber(schema, col, line, strings.TrimSpace(v)); bad {
			out = append(out, ve)
		}
	}
	return out
}
