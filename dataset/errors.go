package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingHeader   = errors.New("sheet has no header row")
	ErrInvalidEncoding = errors.New("sheet is not valid UTF-8")
)

// ValidationError is one problem found in an input sheet. Line is 0 for
// header-level problems.
type ValidationError struct {
	Sheet   string `json:"sheet"`
	Line    int    `json:"line,omitempty"`
	Column  string `json:"column,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("sheet %q, line %d, column %q: %s", e.Sheet, e.Line, e.Column, e.Message)
	}
	if e.Column != "" {
		return fmt.Sprintf("sheet %q, column %q: %s", e.Sheet, e.Column, e.Message)
	}
	return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Message)
}

// ValidationErrors collects every problem of a dataset. A run does not
// start while any are present.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%d validation error(s): %s", len(e), strings.Join(msgs, "; "))
}

// AsValidationErrors extracts ValidationErrors from err.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
