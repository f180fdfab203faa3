package extract

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("malformed cell reference")

// ErrInvalidWorkbook indicates the document is not a readable spreadsheet package
// or carries no workbook content.
var ErrInvalidWorkbook = errors.New("invalid Excel file")

// ParseError reports a cell reference that could not be split into column and row.
type ParseError struct {
	Ref    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse cell reference %q: %s", e.Ref, e.Reason)
}

// Is reports ErrParse so callers can use errors.Is without a type assertion.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ExtractionError wraps a handler failure with the sheet it happened on.
type ExtractionError struct {
	Sheet string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error in sheet %q: %v", e.Sheet, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
