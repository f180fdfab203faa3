package models

import (
	"fmt"
	"strings"
)

// CellCoordinate is a single-letter column and a 1-based row, e.g. C3.
type CellCoordinate struct {
	Column byte
	Row    int
}

// String returns the canonical "<col><row>" form.
func (c CellCoordinate) String() string {
	return fmt.Sprintf("%c%d", c.Column, c.Row)
}

// Cell is one cell as read from a worksheet. Value is the literal cell text,
// empty when the cell carries no content.
type Cell struct {
	Ref   string `json:"ref"`
	Value string `json:"value"`
}

// Row is a worksheet row and the cells present in it.
type Row struct {
	Number int    `json:"number"`
	Cells  []Cell `json:"cells"`
}

// RangeBoundary is an inclusive rectangle between two corner coordinates.
type RangeBoundary struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// String returns the range in "C3:D15" form.
func (r RangeBoundary) String() string {
	return r.Start + ":" + r.End
}

// ParseRange splits "C3:D15" into a RangeBoundary. Corner coordinates are not
// validated here; the extractor reports malformed corners when it uses them.
func ParseRange(s string) (RangeBoundary, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || start == "" || end == "" {
		return RangeBoundary{}, fmt.Errorf("invalid range %q: want <start>:<end>", s)
	}
	return RangeBoundary{
		Start: strings.ToUpper(strings.ReplaceAll(start, "$", "")),
		End:   strings.ToUpper(strings.ReplaceAll(end, "$", "")),
	}, nil
}

// ExtractedTable is the result of extracting one range from one sheet.
// Cells maps coordinate strings to cell text and carries no ordering.
type ExtractedTable struct {
	RecordID string            `json:"record_id,omitempty"`
	Sheet    string            `json:"sheet"`
	Range    string            `json:"range"`
	Cells    map[string]string `json:"cells"`
}
