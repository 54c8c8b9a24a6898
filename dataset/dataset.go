package dataset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/warp/commission-engine/commission"
)

// Files holds one reader per sheet. Only Sales is required.
type Files struct {
	Sales     io.Reader
	Employees io.Reader
	Targets   io.Reader
	Payments  io.Reader
}

// Dataset is a validated set of input sheets.
type Dataset struct {
	Input commission.Input

	// HasTargets is false when no targets sheet was supplied; callers then
	// fall back to stored targets.
	HasTargets bool
}

// sheetSet holds one parsed sheet per schema; nil means it was not supplied.
type sheetSet struct {
	sales, employees, targets, payments *Sheet
}

// Read parses and validates every supplied sheet. All validation problems
// across all sheets are returned together as ValidationErrors.
func Read(files Files) (*Dataset, error) {
	var problems ValidationErrors

	read := func(schema Schema, r io.Reader) (*Sheet, error) {
		if r == nil {
			return nil, nil
		}
		sheet, err := ReadSheet(schema, r)
		if ve, ok := AsValidationErrors(err); ok {
			problems = append(problems, ve...)
			return sheet, nil
		}
		return sheet, err
	}

	if files.Sales == nil {
		problems = append(problems, missingSheet(SalesSchema))
	}
	var set sheetSet
	var err error
	if set.sales, err = read(SalesSchema, files.Sales); err != nil {
		return nil, err
	}
	if set.employees, err = read(EmployeeModelsSchema, files.Employees); err != nil {
		return nil, err
	}
	if set.targets, err = read(TargetsSchema, files.Targets); err != nil {
		return nil, err
	}
	if set.payments, err = read(PaymentsSchema, files.Payments); err != nil {
		return nil, err
	}
	return assemble(set, problems)
}

func missingSheet(schema Schema) ValidationError {
	return ValidationError{Sheet: schema.Name, Message: "required sheet is missing"}
}

// assemble converts parsed sheets into a Dataset, adding conversion
// problems to those already found.
func assemble(set sheetSet, problems ValidationErrors) (*Dataset, error) {
	ds := &Dataset{Input: commission.Input{EmployeeModels: make(map[string]string)}}

	if set.sales != nil {
		ds.Input.Sales = salesRows(set.sales)
	}
	if employees := set.employees; employees != nil {
		for _, row := range employees.Rows {
			name := employees.Value(row, ColName)
			if commission.IsMissing(name) {
				continue
			}
			ds.Input.EmployeeModels[name] = employees.Value(row, ColModel)
		}
	}
	if set.targets != nil {
		ds.HasTargets = true
		var targetProblems []ValidationError
		ds.Input.Targets, targetProblems = monthlyTargets(set.targets)
		problems = append(problems, targetProblems...)
	}
	if payments := set.payments; payments != nil {
		for _, row := range payments.Rows {
			ds.Input.Payments = append(ds.Input.Payments, commission.Payment{
				Name:   payments.Value(row, ColName),
				Amount: payments.Value(row, ColAmountPaid),
			})
		}
	}

	if len(problems) > 0 {
		return nil, problems
	}
	return ds, nil
}

// Load reads a directory holding the sheets under their Schema.File names.
// Missing optional files are skipped.
func Load(dir string) (*Dataset, error) {
	var files Files
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	open := func(schema Schema) (io.Reader, error) {
		f, err := os.Open(filepath.Join(dir, schema.File))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", schema.Name, err)
		}
		closers = append(closers, f)
		return f, nil
	}

	var err error
	if files.Sales, err = open(SalesSchema); err != nil {
		return nil, err
	}
	if files.Employees, err = open(EmployeeModelsSchema); err != nil {
		return nil, err
	}
	if files.Targets, err = open(TargetsSchema); err != nil {
		return nil, err
	}
	if files.Payments, err = open(PaymentsSchema); err != nil {
		return nil, err
	}
	return Read(files)
}

// =============================================================================
// CONVERSION
// =============================================================================

func salesRows(s *Sheet) []commission.SalesRow {
	rows := make([]commission.SalesRow, 0, len(s.Rows))
	for _, row := range s.Rows {
		rows = append(rows, commission.SalesRow{
			Line:               row.Line,
			Marketer:           s.Value(row, ColMarketer),
			SeniorNegotiator:   s.Value(row, ColSeniorNegotiator),
			SalesCoordinator:   s.Value(row, ColSalesCoordinator),
			BuyerCompany:       s.Value(row, ColBuyerCompany),
			NetAmount:          s.Value(row, ColNetAmount),
			CollectedAmount:    s.Value(row, ColCollected),
			CommissionBase:     s.Value(row, ColCommissionBase),
			Month:              s.Value(row, ColMonth),
			Year:               s.Value(row, ColYear),
			Renewal:            s.Value(row, ColRenewal),
			PlanVersion:        s.Value(row, ColPlanVersion),
			AsanitoPlanPercent: s.Value(row, ColAsanitoPercent),
			InvoiceLink:        s.Value(row, ColInvoiceLink),
		})
	}
	return rows
}

func monthlyTargets(s *Sheet) ([]commission.MonthlyTarget, []ValidationError) {
	var targets []commission.MonthlyTarget
	var problems []ValidationError

	for _, row := range s.Rows {
		year, yearOK := commission.ParseWholeNumber(s.Value(row, ColYear))
		month, monthOK := commission.ParseWholeNumber(s.Value(row, ColMonth))
		if !yearOK || !monthOK {
			col := ColYear
			if yearOK {
				col = ColMonth
			}
			column, _ := s.Schema.Column(col)
			problems = append(problems, ValidationError{
				Sheet:   s.Schema.Name,
				Line:    row.Line,
				Column:  column.Header,
				Value:   s.Value(row, col),
				Message: "value must be a whole number",
			})
			continue
		}
		targets = append(targets, commission.MonthlyTarget{
			Year:       year,
			Month:      month,
			Collective: optionalNumber(s.Value(row, ColCollectiveTarget)),
			Individual: optionalNumber(s.Value(row, ColIndividualTarget)),
		})
	}
	return targets, problems
}

// optionalNumber returns nil for an empty cell so the previous month's
// target carries forward.
func optionalNumber(text string) *decimal.Decimal {
	d, ok := commission.ParseNumber(text)
	if !ok {
		return nil
	}
	return &d
}
