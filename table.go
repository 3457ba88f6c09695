package sheetmagic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TableStyle is a built-in Excel table style.
type TableStyle int

const (
	// TableStyleDefault resolves to TableStyleMedium9.
	TableStyleDefault TableStyle = iota
	// TableStyleNone attaches a table without a style.
	TableStyleNone
	TableStyleLight1
	TableStyleLight2
	TableStyleLight3
	TableStyleLight4
	TableStyleLight5
	TableStyleLight6
	TableStyleLight7
	TableStyleLight8
	TableStyleLight9
	TableStyleLight10
	TableStyleLight11
	TableStyleLight12
	TableStyleLight13
	TableStyleLight14
	TableStyleLight15
	TableStyleLight16
	TableStyleLight17
	TableStyleLight18
	TableStyleLight19
	TableStyleLight20
	TableStyleLight21
	TableStyleMedium1
	TableStyleMedium2
	TableStyleMedium3
	TableStyleMedium4
	TableStyleMedium5
	TableStyleMedium6
	TableStyleMedium7
	TableStyleMedium8
	TableStyleMedium9
	TableStyleMedium10
	TableStyleMedium11
	TableStyleMedium12
	TableStyleMedium13
	TableStyleMedium14
	TableStyleMedium15
	TableStyleMedium16
	TableStyleMedium17
	TableStyleMedium18
	TableStyleMedium19
	TableStyleMedium20
	TableStyleMedium21
	TableStyleMedium22
	TableStyleMedium23
	TableStyleMedium24
	TableStyleMedium25
	TableStyleMedium26
	TableStyleMedium27
	TableStyleMedium28
	TableStyleDark1
	TableStyleDark2
	TableStyleDark3
	TableStyleDark4
	TableStyleDark5
	TableStyleDark6
	TableStyleDark7
	TableStyleDark8
	TableStyleDark9
	TableStyleDark10
	TableStyleDark11
)

// String returns the style name Excel uses, e.g. "TableStyleMedium9".
// TableStyleNone returns an empty string.
func (s TableStyle) String() string {
	switch {
	case s == TableStyleDefault:
		return TableStyleMedium9.String()
	case s == TableStyleNone:
		return ""
	case s >= TableStyleLight1 && s <= TableStyleLight21:
		return fmt.Sprintf("TableStyleLight%d", s-TableStyleLight1+1)
	case s >= TableStyleMedium1 && s <= TableStyleMedium28:
		return fmt.Sprintf("TableStyleMedium%d", s-TableStyleMedium1+1)
	case s >= TableStyleDark1 && s <= TableStyleDark11:
		return fmt.Sprintf("TableStyleDark%d", s-TableStyleDark1+1)
	default:
		return TableStyleMedium9.String()
	}
}

var tableNameReplacer = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// sanitizeTableName makes name usable as an Excel defined name.
func sanitizeTableName(name string) string {
	name = strings.ReplaceAll(tableNameReplacer.ReplaceAllString(name, "_"), " ", "")
	if name == "" {
		return DefaultTableDisplayName
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// reserveTableName returns a display name unused in this workbook and records it.
// A taken name gets a "_<n>" suffix where n is the number of names in use.
func (s *Spreadsheet) reserveTableName(name string) string {
	name = sanitizeTableName(name)
	base := name
	for n := len(s.tableNames); ; n++ {
		if _, used := s.tableNames[strings.ToLower(name)]; !used {
			break
		}
		name = fmt.Sprintf("%s_%d", base, n)
	}
	s.tableNames[strings.ToLower(name)] = struct{}{}
	return name
}

// attachTable adds an Excel table over the written range and applies a
// custom table style when one is requested.
func (s *Spreadsheet) attachTable(sw *sheetWriter, o *TableOptions) error {
	lastCell, err := excelize.CoordinatesToCellName(sw.columns, sw.rows)
	if err != nil {
		return fmt.Errorf("failed to compute table range: %w", err)
	}
	name := s.reserveTableName(o.DisplayName)
	rowStripes := o.ShouldShowRowStripes()
	table := &excelize.Table{
		Range:             "A1:" + lastCell,
		Name:              name,
		StyleName:         o.TableStyle.String(),
		ShowFirstColumn:   o.ShowFirstColumn,
		ShowLastColumn:    o.ShowLastColumn,
		ShowRowStripes:    &rowStripes,
		ShowColumnStripes: o.ShowColumnStripes,
	}

	if o.CustomTableStyle != "" {
		style, ok := s.customTableStyle(o.CustomTableStyle)
		if !ok {
			return &ValidationError{Field: "TableOptions.CustomTableStyle", Reason: fmt.Sprintf("undefined custom table style %q was requested", o.CustomTableStyle)}
		}
		// Cell styles carry the look, so the built-in style must not paint over it.
		table.StyleName = ""
		if err := s.paintTable(sw, style); err != nil {
			return err
		}
	}

	if err := s.file.AddTable(sw.sheet, table); err != nil {
		return fmt.Errorf("failed to add table %s: %w", name, err)
	}
	s.logger.Debug("table attached", "sheet", sw.sheet, "table", name, "range", table.Range, "style", o.TableStyle.String(), "customStyle", o.CustomTableStyle)
	return nil
}

func (s *Spreadsheet) customTableStyle(name string) (CustomTableStyle, bool) {
	for _, style := range s.opts.TableStyles {
		if style.Name == name {
			return style, true
		}
	}
	return CustomTableStyle{}, false
}

// tableRole is the part of a table a row belongs to.
type tableRole int

const (
	roleHeader tableRole = iota
	roleOdd
	roleEven
)

// cellStyleKey identifies one emulated custom style variant.
type cellStyleKey struct {
	style                    string
	role                     tableRole
	top, bottom, left, right bool
	date                     bool
}

// paintTable emulates a custom table style with per-cell styles, since
// excelize cannot register table style parts.
func (s *Spreadsheet) paintTable(sw *sheetWriter, style CustomTableStyle) error {
	for row := 1; row <= sw.rows; row++ {
		role := roleHeader
		if row > 1 {
			role = roleEven
			if (row-1)%2 == 1 {
				role = roleOdd
			}
		}
		for col := 1; col <= sw.columns; col++ {
			key := cellStyleKey{
				style:  style.Name,
				role:   role,
				top:    row == 1,
				bottom: row == sw.rows,
				left:   col == 1,
				right:  col == sw.columns,
				date:   sw.dateCells[[2]int{col, row}],
			}
			id, err := s.tableCellStyle(key, style)
			if err != nil {
				return err
			}
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return err
			}
			if err := s.file.SetCellStyle(sw.sheet, cell, cell, id); err != nil {
				return fmt.Errorf("failed to style cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func (s *Spreadsheet) tableCellStyle(key cellStyleKey, style CustomTableStyle) (int, error) {
	if id, ok := s.styleCache[key]; ok {
		return id, nil
	}

	rs := mergeRowStyles(style.WholeTableStyle, roleStyle(style, key.role))
	xs := &excelize.Style{}
	if rs.BackgroundColor != "" {
		xs.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{rs.BackgroundColor}}
	}
	if rs.FontColor != "" || rs.FontWeight == FontWeightBold {
		xs.Font = &excelize.Font{Color: rs.FontColor, Bold: rs.FontWeight == FontWeightBold}
	}
	for _, edge := range []struct {
		side  string
		outer bool
	}{
		{"top", key.top}, {"bottom", key.bottom}, {"left", key.left}, {"right", key.right},
	} {
		color := rs.InnerBorderColor
		if edge.outer {
			color = rs.OuterBorderColor
		}
		if color != "" {
			xs.Border = append(xs.Border, excelize.Border{Type: edge.side, Color: color, Style: 1})
		}
	}
	if key.date {
		format := dateTimeFormatCode
		xs.CustomNumFmt = &format
	}

	id, err := s.file.NewStyle(xs)
	if err != nil {
		return 0, fmt.Errorf("failed to create table style %q: %w", style.Name, err)
	}
	s.styleCache[key] = id
	return id, nil
}

func roleStyle(style CustomTableStyle, role tableRole) *TableRowStyle {
	switch role {
	case roleHeader:
		return style.HeaderRowStyle
	case roleOdd:
		return style.OddRowStyle
	default:
		return style.EvenRowStyle
	}
}

// mergeRowStyles overlays the non-empty settings of top onto base.
func mergeRowStyles(base, top *TableRowStyle) TableRowStyle {
	var merged TableRowStyle
	if base != nil {
		merged = *base
	}
	if top == nil {
		return merged
	}
	if top.BackgroundColor != "" {
		merged.BackgroundColor = top.BackgroundColor
	}
	if top.FontColor != "" {
		merged.FontColor = top.FontColor
	}
	if top.InnerBorderColor != "" {
		merged.InnerBorderColor = top.InnerBorderColor
	}
	if top.OuterBorderColor != "" {
		merged.OuterBorderColor = top.OuterBorderColor
	}
	if top.FontWeight != FontWeightRegular {
		merged.FontWeight = top.FontWeight
	}
	return merged
}
