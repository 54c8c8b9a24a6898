package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/warp/commission-engine/commission"
)

// Sheet is a CSV file or workbook sheet bound to a Schema.
type Sheet struct {
	Schema  Schema
	Headers []string
	Rows    []Row

	index map[string]int // column key -> cell position
}

// Row is one data row; Line is the 1-based line (or spreadsheet row) of
// the source.
type Row struct {
	Line  int
	cells []string
}

// Has reports whether the sheet's header contains the column.
func (s *Sheet) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Value returns the trimmed cell of row under key, or "" when the column is
// absent or the row is short.
func (s *Sheet) Value(row Row, key string) string {
	i, ok := s.index[key]
	if !ok || i >= len(row.cells) {
		return ""
	}
	return strings.TrimSpace(row.cells[i])
}

// ReadSheet parses r as CSV, binds its header to schema and validates
// every row. Structural problems come back as ValidationErrors together
// with whatever could be read.
func ReadSheet(schema Schema, r io.Reader) (*Sheet, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", schema.Name, ErrMissingHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", schema.Name, err)
	}

	sheet, problems, err := bindHeader(schema, header)
	if err != nil {
		return nil, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.Name, err)
		}
		line, _ := reader.FieldPos(0)
		problems = append(problems, sheet.add(line, record)...)
	}

	if len(problems) > 0 {
		return sheet, problems
	}
	return sheet, nil
}

// bindHeader maps schema columns onto header positions. A missing required
// column is a problem, not an error.
func bindHeader(schema Schema, header []string) (*Sheet, ValidationErrors, error) {
	sheet := &Sheet{Schema: schema, index: make(map[string]int)}
	var problems ValidationErrors

	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if !utf8.ValidString(h) {
			return nil, nil, fmt.Errorf("%s: %w", schema.Name, ErrInvalidEncoding)
		}
		sheet.Headers = append(sheet.Headers, h)
		if _, dup := positions[h]; !dup {
			positions[h] = i
		}
	}
	for _, col := range schema.Columns {
		for _, name := range col.Names() {
			if i, ok := positions[name]; ok {
				sheet.index[col.Key] = i
				break
			}
		}
		if col.Required && !sheet.Has(col.Key) {
			problems = append(problems, ValidationError{
				Sheet:   schema.Name,
				Column:  col.Header,
				Message: "required column is missing",
			})
		}
	}
	return sheet, problems, nil
}

// add appends a non-blank record and returns its cell problems.
func (s *Sheet) add(line int, record []string) []ValidationError {
	if blank(record) {
		return nil
	}
	row := Row{Line: line, cells: record}
	s.Rows = append(s.Rows, row)
	return s.checkNumeric(row)
}

func (s *Sheet) checkNumeric(row Row) []ValidationError {
	var out []ValidationError
	for _, col := range s.Schema.Columns {
		if !col.Numeric || !s.Has(col.Key) {
			continue
		}
		if ve, bad := checkNumber(s.Schema, col, row.Line, s.Value(row, col.Key)); bad {
			out = append(out, ve)
		}
	}
	return out
}

// checkNumber reports a non-empty cell that is not a number.
func checkNumber(schema Schema, col Column, line int, v string) (ValidationError, bool) {
	if commission.IsMissing(v) {
		return ValidationError{}, false
	}
	if _, ok := commission.ParseNumber(v); ok {
		return ValidationError{}, false
	}
	return ValidationError{
		Sheet:   schema.Name,
		Line:    line,
		Column:  col.Header,
		Value:   v,
		Message: "value must be a number",
	}, true
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
