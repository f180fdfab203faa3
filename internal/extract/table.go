package extract

import "github.com/hyperjump/crmsheet/internal/models"

// ExtractTable returns every cell of rows that falls inside boundary, keyed by
// its reference. Cells without content map to "". A malformed reference anywhere
// in rows fails the whole extraction and no partial mapping is returned.
func ExtractTable(rows []models.Row, boundary models.RangeBoundary) (map[string]string, error) {
	start, err := ParseCoordinate(boundary.Start)
	if err != nil {
		return nil, err
	}
	end, err := ParseCoordinate(boundary.End)
	if err != nil {
		return nil, err
	}
	table := make(map[string]string)
	for _, row := range rows {
		for _, cell := range row.Cells {
			c, err := ParseCoordinate(cell.Ref)
			if err != nil {
				return nil, err
			}
			if within(c, start, end) {
				table[cell.Ref] = cell.Value
			}
		}
	}
	return table, nil
}
