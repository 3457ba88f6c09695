package sheetmagic

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/xuri/nfp"
)

// formatKind tags a built-in number format.
type formatKind int

const (
	formatGeneral formatKind = iota
	formatText
	formatNumber
	formatDateTime
)

// customFormatStart is the first number format id available for custom codes.
const customFormatStart = 164

type builtInFormat struct {
	code string
	kind formatKind
}

// builtInFormats are the built-in number formats. Scientific and fraction
// formats are returned as text.
var builtInFormats = map[int]builtInFormat{
	0:  {"", formatGeneral},
	1:  {"0", formatNumber},
	2:  {"0.00", formatNumber},
	3:  {"#,##0", formatNumber},
	4:  {"#,##0.00", formatNumber},
	9:  {"0%", formatNumber},
	10: {"0.00%", formatNumber},
	11: {"0.00E+00", formatText},
	12: {"# ?/?", formatText},
	13: {"# ??/??", formatText},
	14: {"dd/mm/yyyy", formatDateTime},
	15: {"d/mmm/yy", formatDateTime},
	16: {"d/mmm", formatDateTime},
	17: {"mmm/yy", formatDateTime},
	18: {"h:mm AM/PM", formatDateTime},
	19: {"h:mm:ss AM/PM", formatDateTime},
	20: {"h:mm", formatDateTime},
	21: {"h:mm:ss", formatDateTime},
	22: {"m/d/yy h:mm", formatDateTime},
	37: {"#,##0", formatNumber},
	38: {"#,##0", formatNumber},
	39: {"#,##0.00", formatNumber},
	40: {"#,##0.00", formatNumber},
	45: {"mm:ss", formatDateTime},
	46: {"[h]:mm:ss", formatDateTime},
	47: {"mmss.0", formatDateTime},
	48: {"##0.0E+0", formatText},
	49: {"@", formatText},
}

// cellReader reads cells of one sheet.
type cellReader struct {
	file          *excelize.File
	sheet         string
	date1904      bool
	listSeparator string
	// formats caches the number format code of each style id; "" means none.
	formats map[int]string
}

func newCellReader(s *Spreadsheet, sheet string) *cellReader {
	return &cellReader{
		file:          s.file,
		sheet:         sheet,
		date1904:      s.date1904,
		listSeparator: s.opts.ListSeparator,
		formats:       make(map[int]string),
	}
}

// read returns the cell at (col, row).
func (r *cellReader) read(col, row int) (cellValue, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return cellValue{}, err
	}
	typ, err := r.file.GetCellType(r.sheet, ref)
	if err != nil {
		return cellValue{}, fmt.Errorf("failed to read cell %s: %w", ref, err)
	}
	raw, err := r.file.GetCellValue(r.sheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		return cellValue{}, fmt.Errorf("failed to read cell %s: %w", ref, err)
	}
	return cellValue{ref: ref, typ: typ, raw: raw, present: raw != "" || typ != excelize.CellTypeUnset}, nil
}

// formatted applies the number format of an untyped cell. It reports false
// when the cell has no usable format or formatting fails.
func (r *cellReader) formatted(c cellValue) (string, bool) {
	code, err := r.formatCode(c.ref)
	if err != nil || code == "" {
		return "", false
	}
	if isDateFormat(code) {
		return formatSerialDate(c.raw, code)
	}
	s, err := r.file.GetCellValue(r.sheet, c.ref)
	if err != nil {
		return "", false
	}
	return s, true
}

// formatCode returns the number format code of the cell, or "" for General,
// Text and unknown formats.
func (r *cellReader) formatCode(ref string) (string, error) {
	id, err := r.file.GetCellStyle(r.sheet, ref)
	if err != nil || id == 0 {
		return "", err
	}
	if code, ok := r.formats[id]; ok {
		return code, nil
	}
	style, err := r.file.GetStyle(id)
	if err != nil {
		return "", err
	}
	var code string
	switch {
	case style.CustomNumFmt != nil:
		code = *style.CustomNumFmt
	case style.NumFmt < customFormatStart:
		if f, ok := builtInFormats[style.NumFmt]; ok && (f.kind == formatNumber || f.kind == formatDateTime) {
			code = f.code
		}
	}
	r.formats[id] = code
	return code, nil
}

// isDateFormat reports whether a format code shows a date. Any d, m or y counts.
func isDateFormat(code string) bool {
	return strings.ContainsAny(code, "dmyDMY")
}

// serialEpoch is day 0 of the serial arithmetic below. Serial n is rendered
// as serialEpoch plus n-2 days.
var serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// formatSerialDate renders an integer day serial with a date format code.
// Every "m" token renders the month, including one next to an hour or second.
func formatSerialDate(raw, code string) (string, bool) {
	days, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	date := serialEpoch.AddDate(0, 0, days-2)

	parser := nfp.NumberFormatParser()
	sections := parser.Parse(code)
	if len(sections) == 0 {
		return "", false
	}
	tokens := sections[0].Items
	twelveHour := false
	for _, tk := range tokens {
		if tk.TType == nfp.TokenTypeDateTimes && isAmPm(tk.TValue) {
			twelveHour = true
		}
	}

	var b strings.Builder
	for _, tk := range tokens {
		switch tk.TType {
		case nfp.TokenTypeDateTimes:
			b.WriteString(renderDatePart(date, tk.TValue, twelveHour))
		case nfp.TokenTypeElapsedDateTimes:
			b.WriteString(renderElapsed(days, tk.TValue))
		case nfp.TokenTypeTextPlaceHolder, nfp.TokenTypeColor, nfp.TokenTypeCondition,
			nfp.TokenTypeCurrencyLanguage, nfp.TokenTypeAlignment, nfp.TokenTypeRepeatsChar,
			nfp.TokenTypeSwitchArgument:
		default:
			b.WriteString(tk.TValue)
		}
	}
	return strings.TrimSpace(b.String()), true
}

func isAmPm(value string) bool {
	for _, ampm := range nfp.AmPm {
		if strings.EqualFold(value, ampm) {
			return true
		}
	}
	return false
}

// renderDatePart renders one date/time token.
func renderDatePart(date time.Time, token string, twelveHour bool) string {
	if isAmPm(token) {
		parts := strings.Split(token, "/")
		if date.Hour() < 12 {
			return parts[0]
		}
		return parts[len(parts)-1]
	}
	lower := strings.ToLower(token)
	n := len(lower)
	switch lower[0] {
	case 'y':
		if n <= 2 {
			return fmt.Sprintf("%02d", date.Year()%100)
		}
		return fmt.Sprintf("%04d", date.Year())
	case 'm':
		switch {
		case n == 1:
			return strconv.Itoa(int(date.Month()))
		case n == 2:
			return fmt.Sprintf("%02d", int(date.Month()))
		case n == 3:
			return date.Month().String()[:3]
		default:
			return date.Month().String()
		}
	case 'd':
		switch {
		case n == 1:
			return strconv.Itoa(date.Day())
		case n == 2:
			return fmt.Sprintf("%02d", date.Day())
		case n == 3:
			return date.Weekday().String()[:3]
		default:
			return date.Weekday().String()
		}
	case 'h':
		hour := date.Hour()
		if twelveHour {
			hour %= 12
			if hour == 0 {
				hour = 12
			}
		}
		if n == 1 {
			return strconv.Itoa(hour)
		}
		return fmt.Sprintf("%02d", hour)
	case 's':
		if n == 1 {
			return strconv.Itoa(date.Second())
		}
		return fmt.Sprintf("%02d", date.Second())
	default:
		return token
	}
}

// renderElapsed renders [h], [m] and [s] for a whole number of days.
func renderElapsed(days int, token string) string {
	unit := strings.ToLower(strings.Trim(token, "[]"))
	if unit == "" {
		return token
	}
	switch unit[0] {
	case 'h':
		return strconv.Itoa(days * 24)
	case 'm':
		return strconv.Itoa(days * 24 * 60)
	case 's':
		return strconv.Itoa(days * 24 * 60 * 60)
	default:
		return token
	}
}
