package sheetmagic

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/xuri/excelize/v2"
)

// region is the rectangle of a sheet holding the header row and data rows.
// Coordinates are 1-based and inclusive.
type region struct {
	firstCol, firstRow int
	lastCol, lastRow   int
}

func (r region) String() string {
	first, _ := excelize.CoordinatesToCellName(r.firstCol, r.firstRow)
	last, _ := excelize.CoordinatesToCellName(r.lastCol, r.lastRow)
	return first + ":" + last
}

// GetList reads a sheet into records of type T. Rows read as empty yield nil
// entries. See GetExtendedList for how the sheet and columns are resolved.
func GetList[T any](s *Spreadsheet, sheetName string) ([]*T, error) {
	extended, err := GetExtendedList[T](s, sheetName)
	if err != nil {
		return nil, err
	}
	items := make([]*T, len(extended))
	for i, e := range extended {
		items[i] = e.Item
	}
	return items, nil
}

// GetExtendedList reads a sheet into records of type T and keeps the cells
// of unmatched columns in Properties.
//
// A workbook with a single sheet is always read from that sheet. Otherwise
// sheetName selects the sheet, or, when empty, the one sheet whose name
// matches the type name (e.g. "Animals" for Animal). When the sheet holds one
// table only its range is read.
func GetExtendedList[T any](s *Spreadsheet, sheetName string) ([]Extended[T], error) {
	if s.closed {
		return nil, ErrClosed
	}
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct || t == timeType {
		return nil, fmt.Errorf("%w: cannot read items of type %s", ErrUnsupportedKind, t)
	}

	sheet, err := s.locateSheet(sheetName, t.Name())
	if err != nil {
		return nil, err
	}
	area, ok, err := s.sheetRegion(sheet)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Debug("sheet located", "sheet", sheet, "region", "")
		return []Extended[T]{}, nil
	}
	s.logger.Debug("sheet located", "sheet", sheet, "region", area.String())

	r := newCellReader(s, sheet)
	headers := make([]string, 0, area.lastCol-area.firstCol+1)
	for col := area.firstCol; col <= area.lastCol; col++ {
		c, err := r.read(col, area.firstRow)
		if err != nil {
			return nil, err
		}
		headers = append(headers, c.text())
	}

	fields := describe(t).flat()
	columns, err := matchColumns(headers, fields)
	if err != nil {
		return nil, err
	}
	if err := checkReadable(columns); err != nil {
		return nil, err
	}
	if !s.opts.IgnoreUnmappedProperties {
		if err := checkCoverage(columns, fields); err != nil {
			return nil, err
		}
	}
	mappedCount := 0
	for _, c := range columns {
		if c.mapped() {
			mappedCount++
		}
	}
	s.logger.Debug("columns matched", "sheet", sheet, "mapped", mappedCount, "dynamic", len(columns)-mappedCount)

	policy := newEmptyRowPolicy(s.opts)
	items := make([]Extended[T], 0, area.lastRow-area.firstRow)
	cells := make([]cellValue, len(columns))
	values := make([]any, len(columns))
	for row := area.firstRow + 1; row <= area.lastRow; row++ {
		rowIndex := row - area.firstRow
		for i := range columns {
			c, err := r.read(area.firstCol+i, row)
			if err != nil {
				return nil, err
			}
			cells[i], values[i] = c, r.direct(c)
		}

		if isEmptyRow(values) {
			emitNull, stop, err := policy.handle(rowIndex)
			if err != nil {
				return nil, err
			}
			s.logger.Debug("empty row", "sheet", sheet, "row", rowIndex, "policy", policy.String())
			if emitNull {
				items = append(items, Extended[T]{Properties: make(map[string]any)})
			}
			if stop {
				break
			}
			continue
		}

		item, err := readRow[T](s, r, rowIndex, columns, cells, values)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// readRow builds one record from the cells of a non-empty row.
func readRow[T any](s *Spreadsheet, r *cellReader, rowIndex int, columns []column, cells []cellValue, values []any) (Extended[T], error) {
	item := new(T)
	record := reflect.ValueOf(item).Elem()
	properties := make(map[string]any)
	for i, c := range columns {
		cell := cells[i]
		if !c.mapped() {
			properties[c.key] = values[i]
			continue
		}

		if !cell.present {
			if s.opts.LoadNullExtendedProperties {
				return Extended[T]{}, &CellError{Field: c.field.name, Row: rowIndex, Err: fmt.Errorf("%w %s", errNullCell, c.label)}
			}
			if c.field.kind == kindStringList && !c.field.nullable {
				c.field.field(record).Set(reflect.MakeSlice(c.field.typ, 0, 0))
			}
			continue
		}
		if err := r.assign(c.field.field(record), c.field, cell); err != nil {
			return Extended[T]{}, &CellError{Field: c.field.name, Row: rowIndex, Err: err}
		}
	}
	return Extended[T]{Item: item, Properties: properties}, nil
}

// locateSheet picks the sheet to read.
func (s *Spreadsheet) locateSheet(name, typeName string) (string, error) {
	sheets := s.SheetNames()
	if len(sheets) == 1 {
		return sheets[0], nil
	}
	if name != "" {
		for _, sheet := range sheets {
			if sheet == name {
				return sheet, nil
			}
		}
		return "", &SheetNotFoundError{Name: name, Available: sheets}
	}

	var found []string
	for _, sheet := range sheets {
		if Matches(sheet, typeName) {
			found = append(found, sheet)
		}
	}
	if len(found) != 1 {
		return "", &SheetNotFoundError{TypeName: typeName, Available: sheets}
	}
	return found[0], nil
}

// sheetRegion returns the area to read: the range of the sheet's only table,
// or every used row and column. It reports false for a sheet without rows.
func (s *Spreadsheet) sheetRegion(sheet string) (region, bool, error) {
	tables, err := s.file.GetTables(sheet)
	if err != nil {
		return region{}, false, fmt.Errorf("failed to read tables of sheet %s: %w", sheet, err)
	}
	switch len(tables) {
	case 0:
	case 1:
		area, err := parseRange(tables[0].Range)
		if err != nil {
			return region{}, false, fmt.Errorf("failed to read range of table %s: %w", tables[0].Name, err)
		}
		return area, true, nil
	default:
		names := make([]string, len(tables))
		for i, t := range tables {
			names[i] = t.Name
		}
		return region{}, false, &ValidationError{
			Field:  "sheet " + sheet,
			Reason: fmt.Sprintf("sheet contains more than one table: %s", strings.Join(names, ", ")),
		}
	}

	rows, err := s.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return region{}, false, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	lastCol := 0
	for _, row := range rows {
		lastCol = max(lastCol, len(row))
	}
	if len(rows) == 0 || lastCol == 0 {
		return region{}, false, nil
	}
	return region{firstCol: 1, firstRow: 1, lastCol: lastCol, lastRow: len(rows)}, true, nil
}

// parseRange parses a range reference such as "B2:E10".
func parseRange(ref string) (region, error) {
	first, last, ok := strings.Cut(ref, ":")
	if !ok {
		last = first
	}
	firstCol, firstRow, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return region{}, err
	}
	lastCol, lastRow, err := excelize.CellNameToCoordinates(last)
	if err != nil {
		return region{}, err
	}
	return region{
		firstCol: min(firstCol, lastCol),
		firstRow: min(firstRow, lastRow),
		lastCol:  max(firstCol, lastCol),
		lastRow:  max(firstRow, lastRow),
	}, nil
}
