package dataset_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/dataset"
	"github.com/xuri/excelize/v2"
)

type worksheet struct {
	name string
	rows [][]any
}

var salesColumns = []any{
	"بازاریاب", "مذاکره کننده ارشد", "هماهنگ کننده فروش", "شرکت خریدار",
	"مبلغ کل خالص فاکتور", "وصول شده", "کل مبلغ مبنای پورسانت",
	"ماه", "سال", "تمدید اشتراک", "نسخه پلن", "درصد پلن های آسانیتویی",
}

// workbook builds an .xlsx file holding sheets in order.
func workbook(t *testing.T, sheets ...worksheet) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for _, ws := range sheets {
		_, err := f.NewSheet(ws.name)
		require.NoError(t, err)
		for i, row := range ws.rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(ws.name, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadWorkbook_BindsNamedSheets(t *testing.T) {
	// GIVEN: A workbook with numeric cells, a blank row and an
	//        unrelated sheet
	// WHEN: Reading it
	// THEN: Sheets bind by name and numbers arrive as their raw values

	buf := workbook(t,
		worksheet{name: "Sales data", rows: [][]any{
			salesColumns,
			{"", "Amanj", "Amanj", "Acme", 500000000, 500000000, 500000000, 1, 1404, "خیر", "استاندارد", 50},
			{},
			{"", "Sara", "", "Beta", 1000000000, 400000000, 1000000000, 2, 1404, "خیر", "VIP"},
		}},
		worksheet{name: "Employee Models", rows: [][]any{
			{"نام", "مدل همکاری"},
			{"Amanj", "پورسانت خالص"},
		}},
		worksheet{name: "Commissions paid", rows: [][]any{
			{"نام", "مبلغ پرداخت شده"},
			{"Amanj", 10000000},
		}},
		worksheet{name: "Renew", rows: [][]any{{"سال", "ماه", "درصد تمدید"}}},
	)

	ds, err := dataset.ReadWorkbook(buf)
	require.NoError(t, err)
	assert.False(t, ds.HasTargets)

	in := ds.Input
	require.Len(t, in.Sales, 2)
	assert.Equal(t, 2, in.Sales[0].Line)
	assert.Equal(t, "500000000", in.Sales[0].NetAmount)
	assert.Equal(t, "50", in.Sales[0].AsanitoPlanPercent)
	assert.Equal(t, 4, in.Sales[1].Line, "blank rows keep spreadsheet numbering")
	assert.Equal(t, "400000000", in.Sales[1].CollectedAmount)
	assert.Equal(t, "", in.Sales[1].AsanitoPlanPercent)
	assert.Equal(t, map[string]string{"Amanj": "پورسانت خالص"}, in.EmployeeModels)
	assert.Equal(t, []commission.Payment{{Name: "Amanj", Amount: "10000000"}}, in.Payments)
}

func TestReadWorkbook_CollectsProblems(t *testing.T) {
	// GIVEN: A workbook without a sales sheet and a payments sheet with text
	//        in its amount column
	// THEN: Both problems come back together, addressed by spreadsheet row

	buf := workbook(t, worksheet{name: "Commissions paid", rows: [][]any{
		{"نام", "مبلغ پرداخت شده"},
		{"Amanj", 1},
		{"Sara", "lots"},
	}})

	_, err := dataset.ReadWorkbook(buf)
	ve, ok := dataset.AsValidationErrors(err)
	require.True(t, ok, err)
	require.Len(t, ve, 2)
	assert.Equal(t, dataset.SalesSchema.Name, ve[0].Sheet)
	assert.Equal(t, "required sheet is missing", ve[0].Message)
	assert.Equal(t, dataset.ValidationError{
		Sheet: dataset.PaymentsSchema.Name, Line: 3, Column: "مبلغ پرداخت شده", Value: "lots", Message: "value must be a number",
	}, ve[1])
}

func TestReadWorkbook_EmptySheetHasNoHeader(t *testing.T) {
	buf := workbook(t, worksheet{name: "Sales data"})
	_, err := dataset.ReadWorkbook(buf)
	assert.ErrorIs(t, err, dataset.ErrMissingHeader)
}

func TestReadWorkbook_NotAWorkbook(t *testing.T) {
	_, err := dataset.ReadWorkbook(strings.NewReader("a,b\n1,2\n"))
	assert.True(t, errors.Is(err, dataset.ErrInvalidWorkbook))
}

func TestLoadWorkbook_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	buf := workbook(t, worksheet{name: "Sales data", rows: [][]any{
		salesColumns,
		{"", "Amanj", "", "Acme", 1, 1, 1, 1, 1404, "", ""},
	}})
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	ds, err := dataset.LoadWorkbook(path)
	require.NoError(t, err)
	assert.Len(t, ds.Input.Sales, 1)
	assert.True(t, dataset.IsWorkbook(path))
	assert.False(t, dataset.IsWorkbook("sales.csv"))
}
