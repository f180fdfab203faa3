package extract

import (
	"strconv"

	"github.com/hyperjump/crmsheet/internal/models"
)

// ParseCoordinate splits a reference such as "C3" into its column and row.
//
// Only the first character is taken as the column. Multi-letter columns are
// truncated, so "AA5" parses as column 'A', row 5; ranges spanning more than
// 26 columns are not supported. The row is the decimal number following the
// leading letters and must be at least 1.
func ParseCoordinate(ref string) (models.CellCoordinate, error) {
	if ref == "" {
		return models.CellCoordinate{}, &ParseError{Ref: ref, Reason: "empty reference"}
	}
	i := 0
	for i < len(ref) && isLetter(ref[i]) {
		i++
	}
	if i == 0 {
		return models.CellCoordinate{}, &ParseError{Ref: ref, Reason: "missing column letter"}
	}
	if i == len(ref) {
		return models.CellCoordinate{}, &ParseError{Ref: ref, Reason: "missing row number"}
	}
	for _, ch := range []byte(ref[i:]) {
		if ch < '0' || ch > '9' {
			return models.CellCoordinate{}, &ParseError{Ref: ref, Reason: "row is not numeric"}
		}
	}
	row, err := strconv.Atoi(ref[i:])
	if err != nil {
		return models.CellCoordinate{}, &ParseError{Ref: ref, Reason: err.Error()}
	}
	if row < 1 {
		return models.CellCoordinate{}, &ParseError{Ref: ref, Reason: "row must be positive"}
	}
	return models.CellCoordinate{Column: ref[0], Row: row}, nil
}

// Within reports whether cell lies inside the inclusive rectangle start:end.
// Rows compare numerically and columns by character code.
func Within(cell, start, end string) (bool, error) {
	s, err := ParseCoordinate(start)
	if err != nil {
		return false, err
	}
	e, err := ParseCoordinate(end)
	if err != nil {
		return false, err
	}
	c, err := ParseCoordinate(cell)
	if err != nil {
		return false, err
	}
	return within(c, s, e), nil
}

func within(c, s, e models.CellCoordinate) bool {
	return c.Row >= s.Row && c.Row <= e.Row && c.Column >= s.Column && c.Column <= e.Column
}

func isLetter(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}
