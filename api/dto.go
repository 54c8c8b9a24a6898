/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures of the HTTP API. Domain types that already
  carry json tags (commission.Summary, commission.Rule, settings.Setting,
  commission.DetailedResults) are returned as-is; everything else goes
  through a DTO here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request types carry go-playground/validator tags. Cross-field rules
  (min < max, rates within [0, 1]) live in each request's check method.

SEE ALSO:
  - handlers.go: writeJSON, writeError, validation
  - runs.go, admin.go: Handlers using these types
*/
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/commission-engine/calculation"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/dataset"
	"github.com/warp/commission-engine/settings"
	"github.com/warp/commission-engine/store/sqlite"
)

// =============================================================================
// CALCULATION
// =============================================================================

// SalesRowDTO is one sales row in a JSON calculation request. Cells are
// text, exactly as they appear in the export.
type SalesRowDTO struct {
	Marketer           string `json:"marketer"`
	SeniorNegotiator   string `json:"senior_negotiator"`
	SalesCoordinator   string `json:"sales_coordinator"`
	BuyerCompany       string `json:"buyer_company"`
	NetAmount          string `json:"net_amount"`
	CollectedAmount    string `json:"collected_amount"`
	CommissionBase     string `json:"commission_base"`
	Month              string `json:"month"`
	Year               string `json:"year"`
	Renewal            string `json:"renewal"`
	PlanVersion        string `json:"plan_version"`
	AsanitoPlanPercent string `json:"asanito_plan_percent,omitempty"`
	InvoiceLink        string `json:"invoice_link,omitempty"`
}

type PaymentDTO struct {
	Name   string `json:"name" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

// CalculationRequest runs a calculation from JSON instead of CSV sheets.
// Omitting targets (null) uses the stored targets; an empty list means none.
type CalculationRequest struct {
	Sales          []SalesRowDTO     `json:"sales" validate:"required,dive"`
	EmployeeModels map[string]string `json:"employee_models"`
	Targets        []TargetRequest   `json:"targets" validate:"omitempty,dive"`
	Payments       []PaymentDTO      `json:"payments" validate:"omitempty,dive"`
	Save           bool              `json:"save"`
}

// Dataset converts the request into engine input and checks numeric cells
// the way an uploaded sheet is checked. Row lines count from 2, as if the
// rows followed a header line.
func (r CalculationRequest) Dataset() (*dataset.Dataset, error) {
	in := commission.Input{
		EmployeeModels: make(map[string]string, len(r.EmployeeModels)),
	}
	for i, s := range r.Sales {
		in.Sales = append(in.Sales, commission.SalesRow{
			Line:               i + 2,
			Marketer:           s.Marketer,
			SeniorNegotiator:   s.SeniorNegotiator,
			SalesCoordinator:   s.SalesCoordinator,
			BuyerCompany:       s.BuyerCompany,
			NetAmount:          s.NetAmount,
			CollectedAmount:    s.CollectedAmount,
			CommissionBase:     s.CommissionBase,
			Month:              s.Month,
			Year:               s.Year,
			Renewal:            s.Renewal,
			PlanVersion:        s.PlanVersion,
			AsanitoPlanPercent: s.AsanitoPlanPercent,
			InvoiceLink:        s.InvoiceLink,
		})
	}
	for name, model := range r.EmployeeModels {
		in.EmployeeModels[name] = model
	}
	for _, t := range r.Targets {
		in.Targets = append(in.Targets, t.target())
	}
	for _, p := range r.Payments {
		in.Payments = append(in.Payments, commission.Payment{Name: p.Name, Amount: p.Amount})
	}
	return dataset.FromInput(in, r.Targets != nil)
}

// CalculationResponse is the result of one run.
type CalculationResponse struct {
	RunID           string                     `json:"run_id,omitempty"`
	CreatedAt       string                     `json:"created_at,omitempty"`
	ReportPeriod    string                     `json:"report_period"`
	Summaries       []*commission.Summary      `json:"summaries"`
	DetailedResults commission.DetailedResults `json:"detailed_results"`
	DiagnosticCount int                        `json:"diagnostic_count"`
}

func toCalculationResponse(out *calculation.Outcome) CalculationResponse {
	resp := CalculationResponse{
		RunID:           out.RunID,
		ReportPeriod:    out.Details.Period,
		Summaries:       out.Summaries,
		DetailedResults: out.Details,
		DiagnosticCount: len(out.Details.Diagnostics),
	}
	if resp.Summaries == nil {
		resp.Summaries = []*commission.Summary{}
	}
	if !out.CreatedAt.IsZero() {
		resp.CreatedAt = out.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

// =============================================================================
// RUNS
// =============================================================================

// RunDTO is a stored run in list responses.
type RunDTO struct {
	RunID        string `json:"run_id"`
	Filename     string `json:"filename"`
	ReportPeriod string `json:"report_period"`
	CreatedAt    string `json:"created_at"`
}

// RunDetailDTO is a stored run with everything it produced.
type RunDetailDTO struct {
	RunDTO
	People          []sqlite.PersonResult `json:"people"`
	DetailedResults json.RawMessage       `json:"detailed_results"`
	Targets         json.RawMessage       `json:"targets,omitempty"`
}

func toRunDTO(r sqlite.Run) RunDTO {
	return RunDTO{
		RunID:        r.PublicID,
		Filename:     r.Filename,
		ReportPeriod: r.ReportPeriod,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// ADMIN
// =============================================================================

// RuleRequest creates or replaces a bracket. A null max_sales means the
// bracket is open-ended.
type RuleRequest struct {
	Model           string           `json:"model" validate:"required"`
	MinSales        decimal.Decimal  `json:"min_sales"`
	MaxSales        *decimal.Decimal `json:"max_sales"`
	MarketerRate    decimal.Decimal  `json:"marketer_rate"`
	NegotiatorRate  decimal.Decimal  `json:"negotiator_rate"`
	CoordinatorRate decimal.Decimal  `json:"coordinator_rate"`
}

func (r RuleRequest) check() error {
	if r.MinSales.IsNegative() {
		return fmt.Errorf("min_sales must not be negative")
	}
	if r.MaxSales != nil && !r.MaxSales.GreaterThan(r.MinSales) {
		return fmt.Errorf("max_sales must be greater than min_sales")
	}
	for name, rate := range map[string]decimal.Decimal{
		"marketer_rate":    r.MarketerRate,
		"negotiator_rate":  r.NegotiatorRate,
		"coordinator_rate": r.CoordinatorRate,
	} {
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s must be between 0 and 1, got %s", name, rate)
		}
	}
	return nil
}

func (r RuleRequest) rule(id int64) commission.Rule {
	max := commission.UnboundedSales
	if r.MaxSales != nil {
		max = *r.MaxSales
	}
	return commission.Rule{
		ID:              id,
		Model:           r.Model,
		MinSales:        r.MinSales,
		MaxSales:        max,
		MarketerRate:    r.MarketerRate,
		NegotiatorRate:  r.NegotiatorRate,
		CoordinatorRate: r.CoordinatorRate,
	}
}

// RuleDTO is a bracket with its display label.
type RuleDTO struct {
	commission.Rule
	Label string `json:"label"`
}

// TargetRequest stores the targets of one month, in export currency.
// A null target carries the previous month's value forward.
type TargetRequest struct {
	Year       int              `json:"year" validate:"required,gt=0"`
	Month      int              `json:"month" validate:"required,min=1,max=12"`
	Collective *decimal.Decimal `json:"collective_target"`
	Individual *decimal.Decimal `json:"individual_target"`
}

func (t TargetRequest) target() commission.MonthlyTarget {
	return commission.MonthlyTarget{Year: t.Year, Month: t.Month, Collective: t.Collective, Individual: t.Individual}
}

// SettingRequest replaces the value of one setting. An empty value_type
// keeps the stored (or default) type.
type SettingRequest struct {
	Value       string             `json:"value" validate:"required"`
	ValueType   settings.ValueType `json:"value_type" validate:"omitempty,oneof=float int string json"`
	Description string             `json:"description"`
}

// SettingDTO is a stored setting with its decoded value.
type SettingDTO struct {
	settings.Setting
	Typed any `json:"typed_value,omitempty"`
}

func toSettingDTO(s settings.Setting) SettingDTO {
	typed, _ := s.Typed()
	return SettingDTO{Setting: s, Typed: typed}
}

// =============================================================================
// SCHEMAS
// =============================================================================

// ColumnDTO describes one expected column of an upload sheet.
type ColumnDTO struct {
	Key      string   `json:"key"`
	Header   string   `json:"header"`
	Aliases  []string `json:"aliases,omitempty"`
	Required bool     `json:"required"`
	Numeric  bool     `json:"numeric"`
}

// SchemaDTO describes one upload sheet and its multipart field.
type SchemaDTO struct {
	Field   string      `json:"field"`
	Name    string      `json:"name"`
	File    string      `json:"file"`
	Columns []ColumnDTO `json:"columns"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// FieldErrorDTO is one failed validation rule of a request body.
type FieldErrorDTO struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RunScenarioRequest calculates a demo dataset. Save stores the run.
type RunScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	Save       bool   `json:"save"`
}
