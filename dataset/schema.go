/*
Package dataset reads the tabular input of a calculation run.

PURPOSE:
  A run consumes four sheets of the sales spreadsheet. They arrive either
  as one .xlsx workbook with sheets named after the schemas, or as one CSV
  file per sheet. Header rows use the spreadsheet's Persian column names;
  English aliases are accepted too. This package binds headers to a fixed
  schema, validates every row and converts the result into
  commission.Input. Rows built in code (the JSON API) go through the same
  numeric checks via FromInput.

SHEETS:
  Sales data              required   one row per sale
  Employee Models         optional   person -> commission model
  Additional commissions  optional   monthly collective / individual targets
  Commissions paid        optional   amounts already paid per person

VALIDATION:
  - A required column missing from the header is one error per column
  - A non-empty cell in a numeric column that is not a number is one
    error per cell, addressed by sheet, line and column
  Every problem is collected; validation never stops at the first one.
*/
package dataset

// Column is one schema column.
type Column struct {
	Key      string   // canonical name used in code
	Header   string   // spreadsheet header
	Aliases  []string // other accepted headers
	Required bool
	Numeric  bool
}

// Names returns every header the column accepts.
func (c Column) Names() []string {
	return append([]string{c.Header, c.Key}, c.Aliases...)
}

// Schema describes one sheet.
type Schema struct {
	Name    string // workbook sheet name
	File    string // file name inside a dataset directory
	Columns []Column
}

// Column returns the schema column with key.
func (s Schema) Column(key string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// =============================================================================
// COLUMN KEYS
// =============================================================================

const (
	ColMarketer         = "marketer"
	ColSeniorNegotiator = "senior_negotiator"
	ColSalesCoordinator = "sales_coordinator"
	ColBuyerCompany     = "buyer_company"
	ColNetAmount        = "net_amount"
	ColCollected        = "collected"
	ColCommissionBase   = "commission_base"
	ColMonth            = "month"
	ColYear             = "year"
	ColRenewal          = "renewal"
	ColPlanVersion      = "plan_version"
	ColAsanitoPercent   = "asanito_plan_percent"
	ColInvoiceLink      = "invoice_link"

	ColName             = "name"
	ColModel            = "commission_model"
	ColCollectiveTarget = "collective_target"
	ColIndividualTarget = "individual_target"
	ColCollectivePct    = "collective_percent"
	ColIndividualPct    = "individual_percent"
	ColTopSellerPct     = "top_seller_percent"
	ColAmountPaid       = "amount_paid"
)

// =============================================================================
// SHEETS
// =============================================================================

var SalesSchema = Schema{
	Name: "Sales data",
	File: "sales.csv",
	Columns: []Column{
		{Key: ColMarketer, Header: "بازاریاب", Required: true},
		{Key: ColSeniorNegotiator, Header: "مذاکره کننده ارشد", Aliases: []string{"negotiator"}, Required: true},
		{Key: ColSalesCoordinator, Header: "هماهنگ کننده فروش", Aliases: []string{"coordinator"}, Required: true},
		{Key: ColBuyerCompany, Header: "شرکت خریدار", Aliases: []string{"company"}, Required: true},
		{Key: ColNetAmount, Header: "مبلغ کل خالص فاکتور", Aliases: []string{"net"}, Required: true, Numeric: true},
		{Key: ColCollected, Header: "وصول شده", Aliases: []string{"paid"}, Required: true, Numeric: true},
		{Key: ColCommissionBase, Header: "کل مبلغ مبنای پورسانت", Aliases: []string{"base"}, Required: true, Numeric: true},
		{Key: ColMonth, Header: "ماه", Required: true},
		{Key: ColYear, Header: "سال", Required: true},
		{Key: ColRenewal, Header: "تمدید اشتراک", Aliases: []string{"is_renewal"}, Required: true},
		{Key: ColPlanVersion, Header: "نسخه پلن", Aliases: []string{"plan"}, Required: true},
		{Key: ColAsanitoPercent, Header: "درصد پلن های آسانیتویی"},
		{Key: ColInvoiceLink, Header: "لینک فاکتور"},
	},
}

var EmployeeModelsSchema = Schema{
	Name: "Employee Models",
	File: "employees.csv",
	Columns: []Column{
		{Key: ColName, Header: "نام", Required: true},
		{Key: ColModel, Header: "مدل همکاری", Aliases: []string{"model"}, Required: true},
	},
}

var TargetsSchema = Schema{
	Name: "Additional commissions",
	File: "targets.csv",
	Columns: []Column{
		{Key: ColYear, Header: "سال", Required: true},
		{Key: ColMonth, Header: "ماه", Required: true},
		{Key: ColCollectiveTarget, Header: "تارگت جمعی", Required: true, Numeric: true},
		{Key: ColIndividualTarget, Header: "تارگت فرعی", Required: true, Numeric: true},
		{Key: ColCollectivePct, Header: "درصد اضافه جمعی", Numeric: true},
		{Key: ColIndividualPct, Header: "درصد اضافه فرعی", Numeric: true},
		{Key: ColTopSellerPct, Header: "درصد تاپ سلر", Numeric: true},
	},
}

var PaymentsSchema = Schema{
	Name: "Commissions paid",
	File: "payments.csv",
	Columns: []Column{
		{Key: ColName, Header: "نام", Required: true},
		{Key: ColAmountPaid, Header: "مبلغ پرداخت شده", Aliases: []string{"amount"}, Required: true, Numeric: true},
	},
}

// Schemas lists every sheet in load order.
var Schemas = []Schema{SalesSchema, EmployeeModelsSchema, TargetsSchema, PaymentsSchema}
