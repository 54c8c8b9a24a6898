package commission

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLES
// =============================================================================

// Role is the part a person played on a deal.
type Role string

const (
	RoleMarketer    Role = "marketer"
	RoleNegotiator  Role = "senior_negotiator"
	RoleCoordinator Role = "sales_coordinator"
)

// Roles lists the role columns in row order. Fan-out follows this order.
var Roles = []Role{RoleMarketer, RoleNegotiator, RoleCoordinator}

// BracketRole is the only role whose qualifying sales build bracket base.
const BracketRole = RoleNegotiator

// RenewalMarker is the exact renewal-column text that marks a renewal ("yes").
const RenewalMarker = "بله"

// AgentPlanPercent is the Asanito-plan percentage that marks an agent sale.
var AgentPlanPercent = decimal.NewFromInt(50)

// =============================================================================
// INPUT - produced by the dataset package, consumed by the passes
// =============================================================================

// SalesRow is one row of the sales export, as text. Parsing happens in the
// Normalizer so that every default is applied in one place.
type SalesRow struct {
	Line               int // source line, header is line 1
	Marketer           string
	SeniorNegotiator   string
	SalesCoordinator   string
	BuyerCompany       string
	NetAmount          string
	CollectedAmount    string
	CommissionBase     string
	Month              string
	Year               string
	Renewal            string
	PlanVersion        string
	AsanitoPlanPercent string
	InvoiceLink        string
}

// PersonFor returns the cell of a role column.
func (r SalesRow) PersonFor(role Role) string {
	switch role {
	case RoleMarketer:
		return r.Marketer
	case RoleNegotiator:
		return r.SeniorNegotiator
	case RoleCoordinator:
		return r.SalesCoordinator
	}
	return ""
}

// MonthlyTarget is one row of the targets table. Amounts are raw export
// currency; nil means the cell was empty and the previous value carries.
type MonthlyTarget struct {
	ID         int64            `json:"id,omitempty"`
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Collective *decimal.Decimal `json:"collective_target,omitempty"`
	Individual *decimal.Decimal `json:"individual_target,omitempty"`
}

func (t MonthlyTarget) Key() MonthKey { return NewMonthKey(t.Year, t.Month) }

// Payment is an amount already paid to a person, raw export currency.
type Payment struct {
	Name   string
	Amount string
}

// Input is everything one run consumes besides Config and rules.
type Input struct {
	Sales          []SalesRow
	EmployeeModels map[string]string // person name -> commission model
	Targets        []MonthlyTarget
	Payments       []Payment
}

// =============================================================================
// TRANSACTION - a normalized sales row
// =============================================================================

// Qualification records the three bracket-qualification checks.
type Qualification struct {
	NotRenewal        bool
	CollectionRatio   decimal.Decimal // paid/net, 0 when net is 0
	CollectionRatioOK bool
	MinValue          decimal.Decimal
	MinValueOK        bool
}

// Qualifies reports whether all three checks pass.
func (q Qualification) Qualifies() bool {
	return q.NotRenewal && q.CollectionRatioOK && q.MinValueOK
}

// Participant is one role registration on a transaction.
type Participant struct {
	Name string
	Role Role
}

// Transaction is a SalesRow after parsing. Amounts are in the working unit.
type Transaction struct {
	Line           int
	Month          MonthKey
	Company        string
	InvoiceLink    string
	NetValue       decimal.Decimal
	CommissionBase decimal.Decimal
	PaidAmount     decimal.Decimal
	IsRenewal      bool
	IsAgentSale    bool
	PlanVersion    string
	Qualification  Qualification
	Participants   []Participant
}

// QualifiesForBracket reports whether the transaction counts toward bracket base.
func (t Transaction) QualifiesForBracket() bool { return t.Qualification.Qualifies() }

// BracketValue is what a qualifying transaction adds to bracket base.
func (t Transaction) BracketValue(cfg *Config) decimal.Decimal {
	if t.IsAgentSale {
		return t.CommissionBase.Mul(cfg.AgentMultiplier)
	}
	return t.CommissionBase
}
