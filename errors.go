package sheetmagic

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every error returned by this package wraps one of these,
// so callers can branch with errors.Is.
var (
	// ErrValidation reports options that can never be honoured, such as
	// setting both IncludeProperties and ExcludeProperties.
	ErrValidation = errors.New("validation failed")
	// ErrArgument reports a bad argument at sheet creation time.
	ErrArgument = errors.New("invalid argument")
	// ErrCoverage reports that the header row cannot be mapped onto the target type.
	ErrCoverage = errors.New("column mapping failed")
	// ErrEmptyRow reports a blank data row under the default empty-row policy.
	ErrEmptyRow = errors.New("empty row")
	// ErrCoercion reports a cell that cannot be converted to its target field.
	ErrCoercion = errors.New("cell conversion failed")
	// ErrUnsupportedKind reports a field type that has no cell conversion.
	ErrUnsupportedKind = errors.New("unsupported field type")
	// ErrNotFound reports a missing sheet or property path.
	ErrNotFound = errors.New("not found")
	// ErrEmptyList is returned by AddSheet for an empty batch unless
	// AddSheetOptions.FailOnEmptyList is set to false.
	ErrEmptyList = errors.New("no items to add; set FailOnEmptyList to false to allow empty lists")
	// ErrClosed is returned when a Spreadsheet is used after Save or Close.
	ErrClosed = errors.New("spreadsheet is closed")
	// ErrReadOnly is returned by AddSheet on a loaded workbook unless
	// Options.IsLoadedFileEditable is set.
	ErrReadOnly = errors.New("loaded spreadsheet is not editable")
)

// ValidationError describes a rejected option.
type ValidationError struct {
	// Field is the option path, e.g. "TableOptions.DisplayName". It may be empty.
	Field string
	// Reason explains the rejection.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// ArgumentError describes a bad argument, e.g. an over-long sheet name.
type ArgumentError struct {
	Argument string
	Reason   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Argument, e.Reason)
}

// Unwrap returns ErrArgument.
func (e *ArgumentError) Unwrap() error { return ErrArgument }

// EmptyRowError is returned when a blank data row is found and neither
// StopProcessingOnFirstEmptyRow nor EmptyRowInterpretedAsNull is set.
type EmptyRowError struct {
	// RowIndex is the 1-based index of the data row, not counting the header.
	RowIndex int
}

func (e *EmptyRowError) Error() string {
	return fmt.Sprintf("row with index %d is empty; if this is permissible, set EmptyRowInterpretedAsNull or LoadNullExtendedProperties in the options", e.RowIndex)
}

// Unwrap returns ErrEmptyRow.
func (e *EmptyRowError) Unwrap() error { return ErrEmptyRow }

// PropertyNotFoundError is returned when a PropertyOrder path does not resolve.
// Segment is the first part of Path that could not be resolved.
type PropertyNotFoundError struct {
	Path    string
	Segment string
}

func (e *PropertyNotFoundError) Error() string {
	if e.Segment == "" || e.Segment == e.Path {
		return fmt.Sprintf("property %q not found", e.Path)
	}
	return fmt.Sprintf("property %q not found: no %q segment", e.Path, e.Segment)
}

// Unwrap returns ErrNotFound.
func (e *PropertyNotFoundError) Unwrap() error { return ErrNotFound }

// SheetNotFoundError is returned when no sheet can be located for a read.
type SheetNotFoundError struct {
	// Name is the requested sheet name, empty when the sheet was looked up by type.
	Name string
	// TypeName is the target type name used for fuzzy lookup.
	TypeName string
	// Available lists the workbook's sheets in document order.
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	available := strings.Join(e.Available, ", ")
	if e.Name != "" {
		return fmt.Sprintf("could not find sheet %q; available options: %s", e.Name, available)
	}
	return fmt.Sprintf("could not find sheet with a name matching type %s; try specifying the name explicitly; available options: %s", e.TypeName, available)
}

// Unwrap returns ErrNotFound.
func (e *SheetNotFoundError) Unwrap() error { return ErrNotFound }

// ColumnMatchError is returned when a header matches several fields and no
// field name equals the header exactly.
type ColumnMatchError struct {
	Column     string
	Candidates []string
}

func (e *ColumnMatchError) Error() string {
	return fmt.Sprintf("more than one column matches %s: %s", e.Column, strings.Join(e.Candidates, "; "))
}

// Unwrap returns ErrCoverage.
func (e *ColumnMatchError) Unwrap() error { return ErrCoverage }

// CoverageError is returned when fields of the target type have no column.
type CoverageError struct {
	Missing []string
}

func (e *CoverageError) Error() string {
	return "not all properties are mapped; missing: " + strings.Join(e.Missing, ", ")
}

// Unwrap returns ErrCoverage.
func (e *CoverageError) Unwrap() error { return ErrCoverage }

// ConversionError reports a cell whose content does not fit the target kind.
type ConversionError struct {
	// Cell is the cell reference, e.g. "B7".
	Cell string
	// Target is the kind the cell was converted to.
	Target string
	// Value is the offending cell text.
	Value string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("could not convert cell %s to %s: %q", e.Cell, e.Target, e.Value)
}

// Unwrap returns ErrCoercion.
func (e *ConversionError) Unwrap() error { return ErrCoercion }

// CellError carries the field and row context of a per-cell read failure.
type CellError struct {
	Field string
	// Row is the 1-based data row index.
	Row int
	Err error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("issue with property %q on row %d: %v", e.Field, e.Row, e.Err)
}

// Unwrap returns the underlying conversion error.
func (e *CellError) Unwrap() error { return e.Err }
