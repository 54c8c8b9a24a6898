package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidWorkbook is returned when the upload is not a readable .xlsx file.
var ErrInvalidWorkbook = errors.New("file is not a readable .xlsx workbook")

// WorkbookExt is the file extension accepted for workbook uploads.
const WorkbookExt = ".xlsx"

// ReadWorkbook reads an .xlsx workbook whose sheets are named after the
// schemas ("Sales data", "Employee Models", ...). Sheet names match after
// trimming. Other sheets are ignored. Cells are read raw, so number
// formatting in the workbook does not change values; row numbers in
// problems are the spreadsheet's own.
func ReadWorkbook(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer f.Close()
	return readWorkbook(f)
}

// LoadWorkbook reads the workbook at path.
func LoadWorkbook(path string) (*Dataset, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer fh.Close()
	return ReadWorkbook(fh)
}

// IsWorkbook reports whether filename has the workbook extension.
func IsWorkbook(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), WorkbookExt)
}

func readWorkbook(f *excelize.File) (*Dataset, error) {
	names := make(map[string]string)
	for _, name := range f.GetSheetList() {
		names[strings.TrimSpace(name)] = name
	}

	var problems ValidationErrors
	read := func(schema Schema) (*Sheet, error) {
		name, ok := names[schema.Name]
		if !ok {
			return nil, nil
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.Name, err)
		}
		sheet, ve, err := sheetFromRows(schema, rows)
		problems = append(problems, ve...)
		return sheet, err
	}

	if _, ok := names[SalesSchema.Name]; !ok {
		problems = append(problems, missingSheet(SalesSchema))
	}
	var set sheetSet
	var err error
	if set.sales, err = read(SalesSchema); err != nil {
		return nil, err
	}
	if set.employees, err = read(EmployeeModelsSchema); err != nil {
		return nil, err
	}
	if set.targets, err = read(TargetsSchema); err != nil {
		return nil, err
	}
	if set.payments, err = read(PaymentsSchema); err != nil {
		return nil, err
	}
	return assemble(set, problems)
}

// sheetFromRows binds a worksheet's rows. The first row is the header;
// row i of the slice is spreadsheet row i+1.
func sheetFromRows(schema Schema, rows [][]string) (*Sheet, ValidationErrors, error) {
	if len(rows) == 0 || blank(rows[0]) {
		return nil, nil, fmt.Errorf("%s: %w", schema.Name, ErrMissingHeader)
	}
	sheet, problems, err := bindHeader(schema, rows[0])
	if err != nil {
		return nil, nil, err
	}
	for i, record := range rows[1:] {
		problems = append(problems, sheet.add(i+2, record)...)
	}
	return sheet, problems, nil
}
