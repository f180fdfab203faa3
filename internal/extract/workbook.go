package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/crmsheet/internal/models"
)

const (
	officeDocumentRel = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	defaultWorkbook   = "xl/workbook.xml"
)

// Worksheet is one named tab of a spreadsheet document.
type Worksheet interface {
	Name() string
	Rows() ([]models.Row, error)
}

// Workbook is an opened spreadsheet document. Callers must Close it.
type Workbook struct {
	f     *excelize.File
	zr    *zip.Reader
	parts map[string]string // sheet name -> worksheet part path
}

// OpenWorkbook parses an OOXML spreadsheet package held in content.
// Returns ErrInvalidWorkbook when the package cannot be read or holds no sheets.
func OpenWorkbook(content []byte) (*Workbook, error) {
	if len(content) == 0 {
		return nil, ErrInvalidWorkbook
	}
	f, err := excelize.OpenReader(bytes.NewReader(content), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	if len(f.GetSheetList()) == 0 {
		_ = f.Close()
		return nil, ErrInvalidWorkbook
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	parts, err := sheetParts(zr)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	return &Workbook{f: f, zr: zr, parts: parts}, nil
}

// Sheets returns the worksheets in the order the document lists them.
func (w *Workbook) Sheets() []Worksheet {
	names := w.f.GetSheetList()
	sheets := make([]Worksheet, 0, len(names))
	for _, name := range names {
		sheets = append(sheets, &sheet{wb: w, name: name})
	}
	return sheets
}

// Close releases the underlying package.
func (w *Workbook) Close() error {
	return w.f.Close()
}

type sheet struct {
	wb   *Workbook
	name string
}

func (s *sheet) Name() string {
	return s.name
}

// Rows reports one cell per <c> element the sheet part contains, in document
// order, with its literal text. Elements without a value are reported with an
// empty value; positions with no element are not reported.
func (s *sheet) Rows() ([]models.Row, error) {
	part, ok := s.wb.parts[s.name]
	if !ok {
		return nil, fmt.Errorf("sheet %q: no worksheet part", s.name)
	}
	rows, err := s.wb.cellRefs(part)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", s.name, err)
	}
	for i := range rows {
		for j := range rows[i].Cells {
			c := &rows[i].Cells[j]
			v, err := s.wb.f.GetCellValue(s.name, c.Ref, excelize.Options{RawCellValue: true})
			if err != nil {
				return nil, fmt.Errorf("cell %s of sheet %q: %w", c.Ref, s.name, err)
			}
			c.Value = v
		}
	}
	return rows, nil
}

// cellRefs streams a worksheet part and collects the reference of every cell
// element. Elements without an r attribute take the position after the
// previous cell of the row.
func (w *Workbook) cellRefs(part string) ([]models.Row, error) {
	zf, err := w.open(part)
	if err != nil {
		return nil, err
	}
	defer zf.Close()

	var (
		rows   []models.Row
		cur    *models.Row
		rowNum int
		col    int
	)
	flush := func() {
		if cur != nil && len(cur.Cells) > 0 {
			rows = append(rows, *cur)
		}
		cur = nil
	}
	dec := xml.NewDecoder(zf)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "row":
				flush()
				rowNum++
				if r := attr(el, "r"); r != "" {
					n, err := strconv.Atoi(r)
					if err != nil {
						return nil, fmt.Errorf("row number %q: %w", r, err)
					}
					rowNum = n
				}
				col = 0
				cur = &models.Row{Number: rowNum}
			case "c":
				if cur == nil {
					continue
				}
				ref := attr(el, "r")
				if ref == "" {
					col++
					if ref, err = excelize.CoordinatesToCellName(col, rowNum); err != nil {
						return nil, err
					}
				} else if c, _, err := excelize.CellNameToCoordinates(ref); err == nil {
					col = c
				}
				cur.Cells = append(cur.Cells, models.Cell{Ref: ref})
			}
		case xml.EndElement:
			if el.Name.Local == "sheetData" {
				flush()
			}
		}
	}
	flush()
	return rows, nil
}

func (w *Workbook) open(name string) (io.ReadCloser, error) {
	for _, zf := range w.zr.File {
		if strings.EqualFold(strings.TrimPrefix(zf.Name, "/"), name) {
			return zf.Open()
		}
	}
	return nil, fmt.Errorf("part %s not found", name)
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value
		}
	}
	return ""
}

type xmlRelationships struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type xmlWorkbook struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

// sheetParts maps sheet names to their part paths through the package and
// workbook relationships.
func sheetParts(zr *zip.Reader) (map[string]string, error) {
	w := &Workbook{zr: zr}
	wbPath := defaultWorkbook
	var root xmlRelationships
	if err := w.decode("_rels/.rels", &root); err == nil {
		for _, r := range root.Relationships {
			if r.Type == officeDocumentRel {
				wbPath = resolvePart("", r.Target)
				break
			}
		}
	}

	var wb xmlWorkbook
	if err := w.decode(wbPath, &wb); err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	dir, base := path.Split(wbPath)
	var rels xmlRelationships
	if err := w.decode(path.Join(dir, "_rels", base+".rels"), &rels); err != nil {
		return nil, fmt.Errorf("workbook relationships: %w", err)
	}
	targets := make(map[string]string, len(rels.Relationships))
	for _, r := range rels.Relationships {
		targets[r.ID] = resolvePart(dir, r.Target)
	}
	parts := make(map[string]string, len(wb.Sheets))
	for _, s := range wb.Sheets {
		if t, ok := targets[s.RID]; ok {
			parts[s.Name] = t
		}
	}
	return parts, nil
}

func (w *Workbook) decode(name string, v any) error {
	rc, err := w.open(name)
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// resolvePart turns a relationship target into a package part path.
func resolvePart(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join(dir, target))
}
