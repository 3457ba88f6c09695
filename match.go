package sheetmagic

import (
	"fmt"
	"strings"
)

// matchColumns maps header texts onto fields. Headers that match no field
// become dynamic columns keyed by the header text.
func matchColumns(headers []string, fields []*fieldPlan) ([]column, error) {
	columns := make([]column, len(headers))
	for i, header := range headers {
		f, err := matchField(header, fields)
		if err != nil {
			return nil, err
		}
		if f == nil {
			columns[i] = column{label: header, key: header}
			continue
		}
		columns[i] = column{label: header, field: f}
	}
	return columns, nil
}

// matchField finds the field whose label matches one header. Several
// normalized matches are narrowed to the one whose name or label equals the
// header ignoring case.
func matchField(header string, fields []*fieldPlan) (*fieldPlan, error) {
	var candidates []*fieldPlan
	for _, f := range fields {
		if Matches(header, f.label) {
			candidates = append(candidates, f)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, nil
	case 1:
		return candidates[0], nil
	}

	var exact []*fieldPlan
	for _, f := range candidates {
		if strings.EqualFold(header, f.name) || strings.EqualFold(header, f.label) {
			exact = append(exact, f)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	names := make([]string, len(candidates))
	for i, f := range candidates {
		names[i] = f.name
	}
	return nil, &ColumnMatchError{Column: header, Candidates: names}
}

// checkCoverage returns a *CoverageError naming the fields without a column.
func checkCoverage(columns []column, fields []*fieldPlan) error {
	matched := make(map[*fieldPlan]bool, len(columns))
	for _, c := range columns {
		if c.mapped() {
			matched[c.field] = true
		}
	}
	var missing []string
	for _, f := range fields {
		if !matched[f] {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &CoverageError{Missing: missing}
	}
	return nil
}

// checkReadable rejects mapped columns whose field kind has no cell conversion.
func checkReadable(columns []column) error {
	for _, c := range columns {
		if c.mapped() && !c.field.kind.readable() {
			return fmt.Errorf("%w: field %s has type %s", ErrUnsupportedKind, c.field.name, c.field.typ)
		}
	}
	return nil
}
