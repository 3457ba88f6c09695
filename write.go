package sheetmagic

import (
	"fmt"
	"reflect"
	"strings"
)

// maxDefaultSheetBase is the length of the type name kept in a default sheet
// name before the plural "s" is appended.
const maxDefaultSheetBase = maxSheetNameLength - 1

// AddSheet writes items to a new sheet. Items may be structs, pointers to
// structs or Extended values. An empty or blank sheetName names the sheet
// after the item type, e.g. "Animals" for Animal. A nil opts uses a copy of
// Options.DefaultAddSheetOptions.
//
// The first row holds the column labels and every item adds one row. A nil
// item leaves its mapped cells empty.
func AddSheet[T any](s *Spreadsheet, items []T, sheetName string, opts *AddSheetOptions) error {
	if err := s.writable(); err != nil {
		return err
	}
	if opts == nil {
		opts = &s.opts.DefaultAddSheetOptions
	}
	if err := validateAddSheetOptions(opts, s.opts.TableStyles); err != nil {
		return err
	}
	o, err := opts.clone()
	if err != nil {
		return err
	}

	if len(items) == 0 {
		if o.ShouldFailOnEmptyList() {
			return ErrEmptyList
		}
		s.logger.Debug("empty list skipped", "sheet", sheetName)
		return nil
	}

	recordType, extended, err := recordTypeOf(reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = defaultSheetNameFor(recordType)
	}

	desc := describe(recordType)
	records := make([]reflect.Value, len(items))
	var bags []map[string]any
	if extended {
		bags = make([]map[string]any, len(items))
	}
	for i, item := range items {
		v := reflect.ValueOf(item)
		if extended {
			e := v.Interface().(extendedItem)
			records[i], bags[i] = e.itemValue(), e.properties()
			continue
		}
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}
		records[i] = v
	}

	var keys []string
	if extended {
		keys = extensionKeys(bags, o)
	}
	columns, err := planColumns(desc, o, keys)
	if err != nil {
		return err
	}

	if err := s.createSheet(sheetName); err != nil {
		return err
	}

	enumerable := s.opts.EnumerableCellOptions
	if o.EnumerableCellOptions != nil {
		enumerable = *o.EnumerableCellOptions
	}
	sw := &sheetWriter{
		s:          s,
		sheet:      sheetName,
		enumerable: enumerable,
		rows:       len(items) + 1,
		columns:    len(columns),
		dateCells:  make(map[[2]int]bool),
	}
	if err := sw.writeHeader(columns); err != nil {
		return err
	}
	for i, record := range records {
		var bag map[string]any
		if extended {
			bag = bags[i]
		}
		if err := sw.writeRow(i+2, columns, record, bag); err != nil {
			return err
		}
	}

	if o.TableOptions != nil && len(columns) > 0 {
		if err := s.attachTable(sw, o.TableOptions); err != nil {
			return err
		}
	}
	s.logger.Debug("sheet added", "sheet", sheetName, "rows", len(items), "columns", len(columns), "extensionColumns", len(keys))
	return nil
}

// recordTypeOf returns the struct type written for item type t and whether
// t is an Extended type.
func recordTypeOf(t reflect.Type) (reflect.Type, bool, error) {
	extended := t.Kind() != reflect.Pointer && t.Implements(extendedItemType)
	record := t
	switch {
	case extended:
		record = reflect.Zero(t).Interface().(extendedItem).innerType()
	case t.Kind() == reflect.Pointer:
		record = t.Elem()
	}
	if record.Kind() != reflect.Struct || record == timeType || (!extended && record.Implements(extendedItemType)) {
		return nil, false, fmt.Errorf("%w: cannot write items of type %s", ErrUnsupportedKind, t)
	}
	return record, extended, nil
}

// defaultSheetNameFor returns the type name cut to 30 characters plus "s".
func defaultSheetNameFor(t reflect.Type) string {
	name := []rune(t.Name())
	if len(name) == 0 {
		return "Items"
	}
	if len(name) > maxDefaultSheetBase {
		name = name[:maxDefaultSheetBase]
	}
	return string(name) + "s"
}

func (w *sheetWriter) writeHeader(columns []column) error {
	for i, c := range columns {
		if err := w.writeValue(i+1, 1, kindString, reflect.ValueOf(c.label)); err != nil {
			return fmt.Errorf("failed to write header %s: %w", c.label, err)
		}
	}
	return nil
}

// writeRow writes one item. record is invalid for a nil item; bag is nil for
// items that are not Extended or carry no properties.
func (w *sheetWriter) writeRow(row int, columns []column, record reflect.Value, bag map[string]any) error {
	for i, c := range columns {
		col := i + 1
		if c.mapped() {
			if !record.IsValid() {
				continue
			}
			v, ok := c.field.get(record)
			if !ok {
				v = reflect.Value{}
			}
			if err := w.writeValue(col, row, c.field.kind, v); err != nil {
				return fmt.Errorf("failed to write %s on row %d: %w", c.field.name, row, err)
			}
			continue
		}

		if bag == nil {
			continue
		}
		value, ok := bag[c.key]
		if ok && value == nil {
			continue
		}
		if !ok {
			value = ""
		}
		if err := w.writeValue(col, row, kindAny, reflect.ValueOf(value)); err != nil {
			return fmt.Errorf("failed to write %s on row %d: %w", c.key, row, err)
		}
	}
	return nil
}
