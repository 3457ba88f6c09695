package sheetmagic

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	textInfinity         = "Infinity"
	textNegativeInfinity = "-Infinity"
	textNaN              = "NaN"
	// textNullElement stands for a nil element of an expanded slice.
	textNullElement = "NULL"
)

// sheetWriter writes typed values into one sheet and remembers the extent
// of what it wrote.
type sheetWriter struct {
	s          *Spreadsheet
	sheet      string
	enumerable EnumerableCellOptions
	rows       int
	columns    int
	// dateCells holds the {col, row} coordinates of date cells.
	dateCells map[[2]int]bool
}

// writeValue converts v to a cell at (col, row). kind is the planned kind of
// the field; values of kindAny and kindUnsupported fields are classified by
// their dynamic type.
func (w *sheetWriter) writeValue(col, row int, kind valueKind, v reflect.Value) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	f := w.s.file

	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return f.SetCellStr(w.sheet, cell, "")
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return f.SetCellStr(w.sheet, cell, "")
	}
	if kind == kindAny || kind == kindUnsupported {
		kind, _ = kindOf(v.Type())
	}

	switch kind {
	case kindString:
		return f.SetCellStr(w.sheet, cell, v.String())
	case kindBool:
		return f.SetCellBool(w.sheet, cell, v.Bool())
	case kindInt:
		return f.SetCellInt(w.sheet, cell, v.Int())
	case kindUint:
		return f.SetCellUint(w.sheet, cell, v.Uint())
	case kindFloat:
		return w.writeFloat(cell, v)
	case kindTime:
		return w.writeTime(col, row, cell, v.Interface().(time.Time))
	case kindEnum:
		name, ok := enumName(v)
		if !ok {
			return f.SetCellStr(w.sheet, cell, integerText(v))
		}
		return f.SetCellStr(w.sheet, cell, name)
	case kindStringList, kindList:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return f.SetCellStr(w.sheet, cell, "")
		}
		return f.SetCellStr(w.sheet, cell, w.listText(v))
	default:
		return f.SetCellStr(w.sheet, cell, fmt.Sprint(v.Interface()))
	}
}

func (w *sheetWriter) writeFloat(cell string, v reflect.Value) error {
	f := w.s.file
	x := v.Float()
	switch {
	case math.IsNaN(x):
		return f.SetCellStr(w.sheet, cell, "")
	case math.IsInf(x, 1):
		return f.SetCellStr(w.sheet, cell, textInfinity)
	case math.IsInf(x, -1):
		return f.SetCellStr(w.sheet, cell, textNegativeInfinity)
	}
	bitSize := 64
	if v.Kind() == reflect.Float32 {
		bitSize = 32
	}
	return f.SetCellFloat(w.sheet, cell, x, -1, bitSize)
}

func (w *sheetWriter) writeTime(col, row int, cell string, t time.Time) error {
	style, err := w.s.dateStyleID()
	if err != nil {
		return err
	}
	if err := w.s.file.SetCellValue(w.sheet, cell, t.UTC()); err != nil {
		return err
	}
	if err := w.s.file.SetCellStyle(w.sheet, cell, cell, style); err != nil {
		return err
	}
	w.dateCells[[2]int{col, row}] = true
	return nil
}

// listText renders a slice or array as one cell.
func (w *sheetWriter) listText(v reflect.Value) string {
	if !w.enumerable.Expand {
		return fmt.Sprint(v.Interface())
	}
	parts := make([]string, v.Len())
	for i := range v.Len() {
		parts[i] = elementText(v.Index(i))
	}
	return strings.Join(parts, w.enumerable.CellDelimiter)
}

func elementText(v reflect.Value) string {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return textNullElement
		}
		v = v.Elem()
	}
	if name, ok := enumName(v); ok {
		return name
	}
	return fmt.Sprint(v.Interface())
}

// enumName returns the member name of an Enum value.
func enumName(v reflect.Value) (string, bool) {
	e, ok := v.Interface().(Enum)
	if !ok || !isIntegerKind(v.Kind()) {
		return "", false
	}
	names := e.EnumNames()
	var i int64
	if v.CanInt() {
		i = v.Int()
	} else {
		u := v.Uint()
		if u > math.MaxInt64 {
			return "", false
		}
		i = int64(u)
	}
	if i < 0 || i >= int64(len(names)) {
		return "", false
	}
	return names[i], true
}

func integerText(v reflect.Value) string {
	if v.CanInt() {
		return strconv.FormatInt(v.Int(), 10)
	}
	return strconv.FormatUint(v.Uint(), 10)
}

// cellValue is one cell as stored: its type tag and raw text.
type cellValue struct {
	ref string
	typ excelize.CellType
	raw string
	// present is false when the worksheet has no such cell or it holds no value.
	present bool
}

// text returns the cell content as plain text. Booleans read as "true" or "false".
func (c cellValue) text() string {
	if c.typ == excelize.CellTypeBool {
		switch c.raw {
		case "1":
			return "true"
		case "0":
			return "false"
		}
	}
	return c.raw
}

// errNullCell is returned for an absent cell in a mapped column when
// LoadNullExtendedProperties is set.
var errNullCell = errors.New("null cell found for column")

// assign converts c into the field dst according to the plan f. dst must be settable.
func (r *cellReader) assign(dst reflect.Value, f *fieldPlan, c cellValue) error {
	t := f.typ
	if f.nullable {
		t = t.Elem()
	}
	v, null, err := r.convert(c, f.kind, t, f.nullable)
	if err != nil {
		return err
	}
	if null {
		dst.SetZero()
		return nil
	}
	if f.nullable {
		p := reflect.New(t)
		p.Elem().Set(v)
		dst.Set(p)
		return nil
	}
	dst.Set(v)
	return nil
}

// convert returns c as a value of type t. null is true when a nullable
// target should stay nil.
func (r *cellReader) convert(c cellValue, kind valueKind, t reflect.Type, nullable bool) (v reflect.Value, null bool, err error) {
	text := c.text()
	textual := kind == kindString || kind == kindStringList || kind == kindAny
	if nullable && !textual && strings.TrimSpace(text) == "" {
		return reflect.Value{}, true, nil
	}
	if text == "" && !textual {
		switch {
		case kind == kindFloat:
			return reflect.ValueOf(math.NaN()).Convert(t), false, nil
		default:
			return reflect.Value{}, false, r.conversionError(c, kind)
		}
	}

	switch kind {
	case kindString:
		if nullable && text == "" {
			return reflect.Value{}, true, nil
		}
		return reflect.ValueOf(text).Convert(t), false, nil

	case kindAny:
		d := r.direct(c)
		if d == nil {
			return reflect.Value{}, true, nil
		}
		return reflect.ValueOf(d), false, nil

	case kindInt, kindUint:
		v := reflect.New(t).Elem()
		if !setInteger(v, text) {
			return reflect.Value{}, false, r.conversionError(c, kind)
		}
		return v, false, nil

	case kindFloat:
		x, ok := parseFloat(text)
		v := reflect.New(t).Elem()
		if !ok || (!math.IsInf(x, 0) && v.OverflowFloat(x)) {
			return reflect.Value{}, false, r.conversionError(c, kind)
		}
		v.SetFloat(x)
		return v, false, nil

	case kindBool:
		switch strings.ToLower(text) {
		case "1", "true":
			return reflect.ValueOf(true).Convert(t), false, nil
		case "0", "false":
			return reflect.ValueOf(false).Convert(t), false, nil
		}
		return reflect.Value{}, false, r.conversionError(c, kind)

	case kindTime:
		tm, ok := r.parseTime(c)
		if !ok {
			return reflect.Value{}, false, r.conversionError(c, kind)
		}
		return reflect.ValueOf(tm), false, nil

	case kindEnum:
		v := reflect.New(t).Elem()
		names := v.Interface().(Enum).EnumNames()
		for i, name := range names {
			if strings.EqualFold(name, text) {
				if v.CanInt() {
					v.SetInt(int64(i))
				} else {
					v.SetUint(uint64(i))
				}
				return v, false, nil
			}
		}
		if !setInteger(v, text) {
			return reflect.Value{}, false, r.conversionError(c, kind)
		}
		return v, false, nil

	case kindStringList:
		list := reflect.MakeSlice(t, 0, 0)
		for _, part := range strings.Split(text, r.listSeparator) {
			if part != "" {
				list = reflect.Append(list, reflect.ValueOf(part).Convert(t.Elem()))
			}
		}
		return list, false, nil

	default:
		return reflect.Value{}, false, fmt.Errorf("%w: %s", ErrUnsupportedKind, t)
	}
}

func (r *cellReader) conversionError(c cellValue, kind valueKind) error {
	return &ConversionError{Cell: c.ref, Target: kind.String(), Value: c.text()}
}

// setInteger parses text into the integer value v. Integral floats such as
// "42.0" or "4.2E1" are accepted. It reports false on syntax errors and overflow.
func setInteger(v reflect.Value, text string) bool {
	if v.CanInt() {
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			x, ok := integralFloat(text)
			if !ok || x < math.MinInt64 || x >= math.MaxInt64 {
				return false
			}
			i = int64(x)
		}
		if v.OverflowInt(i) {
			return false
		}
		v.SetInt(i)
		return true
	}

	u, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		x, ok := integralFloat(text)
		if !ok || x < 0 || x >= math.MaxUint64 {
			return false
		}
		u = uint64(x)
	}
	if v.OverflowUint(u) {
		return false
	}
	v.SetUint(u)
	return true
}

func integralFloat(text string) (float64, bool) {
	x, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(x, 0) || math.IsNaN(x) || x != math.Trunc(x) {
		return 0, false
	}
	return x, true
}

// parseFloat parses text, including the Infinity, -Infinity and NaN sentinels.
func parseFloat(text string) (float64, bool) {
	switch text {
	case textInfinity:
		return math.Inf(1), true
	case textNegativeInfinity:
		return math.Inf(-1), true
	case textNaN:
		return math.NaN(), true
	}
	x, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return x, true
}

// isoDateLayouts parse cells of type "d".
var isoDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseTime reads a date serial, an ISO 8601 date cell or date text. The
// result is in UTC.
func (r *cellReader) parseTime(c cellValue) (time.Time, bool) {
	text := strings.TrimSpace(c.raw)
	if c.typ == excelize.CellTypeDate {
		if t, ok := parseLayouts(text, isoDateLayouts); ok {
			return t.UTC(), true
		}
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(text, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, r.date1904)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	if t, ok := parseLayouts(text, datetimeLayouts); ok {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func parseLayouts(text string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// direct returns the value of c without a target type: strings, float64,
// bool, time.Time or nil.
func (r *cellReader) direct(c cellValue) any {
	if !c.present {
		return ""
	}
	switch c.typ {
	case excelize.CellTypeUnset:
		if s, ok := r.formatted(c); ok {
			return s
		}
		return c.raw
	case excelize.CellTypeBool:
		switch c.raw {
		case "1", "true":
			return true
		case "0", "false":
			return false
		default:
			return nil
		}
	case excelize.CellTypeNumber:
		if x, ok := parseFloat(c.raw); ok {
			return x
		}
		return c.raw
	case excelize.CellTypeDate:
		if t, ok := parseLayouts(c.raw, isoDateLayouts); ok {
			return t.UTC()
		}
		return c.raw
	default:
		switch c.raw {
		case textInfinity:
			return math.Inf(1)
		case textNegativeInfinity:
			return math.Inf(-1)
		}
		return c.raw
	}
}

// blank reports whether a direct value counts as empty for the empty-row check.
func blank(v any) bool {
	s, ok := v.(string)
	return v == nil || (ok && s == "")
}
