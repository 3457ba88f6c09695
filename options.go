package sheetmagic

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tiendc/go-deepcopy"
)

const (
	// DefaultListSeparator separates the elements of a []string field in a single cell.
	DefaultListSeparator = ", "
	// DefaultCellDelimiter joins expanded slice elements on write.
	DefaultCellDelimiter = ", "
	// DefaultTableDisplayName is used when TableOptions.DisplayName is empty.
	DefaultTableDisplayName = "Table"
	// DefaultCustomTableStyleName is the conventional name of a single custom style.
	DefaultCustomTableStyleName = "Custom Table Style"
)

// Options configures a Spreadsheet. The zero value is not ready for use;
// start from DefaultOptions or pass Option values to New, Open or Load.
type Options struct {
	// StopProcessingOnFirstEmptyRow ends a read at the first blank data row.
	// Combined with EmptyRowInterpretedAsNull, that row still yields one entry
	// with a nil item before the read ends.
	StopProcessingOnFirstEmptyRow bool
	// EmptyRowInterpretedAsNull turns a blank data row into an entry with a nil item.
	EmptyRowInterpretedAsNull bool
	// IgnoreUnmappedProperties allows fields of the target type to have no column.
	IgnoreUnmappedProperties bool
	// LoadNullExtendedProperties makes a structurally absent cell in a mapped
	// column an error instead of leaving the field at its zero value.
	LoadNullExtendedProperties bool
	// IsLoadedFileEditable allows AddSheet on a workbook returned by Open or Load.
	IsLoadedFileEditable bool
	// ListSeparator splits []string cells on read.
	ListSeparator string `validate:"required"`
	// TableStyles registers custom table styles that TableOptions.CustomTableStyle may name.
	TableStyles []CustomTableStyle `validate:"dive"`
	// DefaultAddSheetOptions is copied for every AddSheet call that passes nil options.
	DefaultAddSheetOptions AddSheetOptions
	// EnumerableCellOptions controls how slice fields are written unless
	// AddSheetOptions.EnumerableCellOptions overrides it.
	EnumerableCellOptions EnumerableCellOptions
	// Logger receives debug records. Defaults to a discarding logger.
	Logger *slog.Logger `validate:"-"`
}

// DefaultOptions returns the default Spreadsheet options.
func DefaultOptions() Options {
	return Options{
		ListSeparator:         DefaultListSeparator,
		EnumerableCellOptions: DefaultEnumerableCellOptions(),
		Logger:                slog.New(slog.DiscardHandler),
	}
}

// Option configures a Spreadsheet.
type Option func(*Options)

// WithStopOnFirstEmptyRow ends reads at the first blank data row.
func WithStopOnFirstEmptyRow(stop bool) Option {
	return func(o *Options) { o.StopProcessingOnFirstEmptyRow = stop }
}

// WithEmptyRowAsNull turns blank data rows into entries with a nil item.
func WithEmptyRowAsNull(asNull bool) Option {
	return func(o *Options) { o.EmptyRowInterpretedAsNull = asNull }
}

// WithIgnoreUnmappedProperties allows target fields without a column.
func WithIgnoreUnmappedProperties(ignore bool) Option {
	return func(o *Options) { o.IgnoreUnmappedProperties = ignore }
}

// WithLoadNullExtendedProperties fails reads on absent cells in mapped columns.
func WithLoadNullExtendedProperties(load bool) Option {
	return func(o *Options) { o.LoadNullExtendedProperties = load }
}

// WithLoadedFileEditable allows AddSheet on an opened workbook.
func WithLoadedFileEditable(editable bool) Option {
	return func(o *Options) { o.IsLoadedFileEditable = editable }
}

// WithListSeparator sets the separator for []string cells (default: ", ").
func WithListSeparator(sep string) Option {
	return func(o *Options) { o.ListSeparator = sep }
}

// WithTableStyles registers custom table styles.
func WithTableStyles(styles ...CustomTableStyle) Option {
	return func(o *Options) { o.TableStyles = append(o.TableStyles, styles...) }
}

// WithDefaultAddSheetOptions sets the options used by AddSheet calls that pass nil.
func WithDefaultAddSheetOptions(opts AddSheetOptions) Option {
	return func(o *Options) { o.DefaultAddSheetOptions = opts }
}

// WithEnumerableCellOptions sets the default slice expansion behaviour.
func WithEnumerableCellOptions(opts EnumerableCellOptions) Option {
	return func(o *Options) { o.EnumerableCellOptions = opts }
}

// WithLogger sets the logger for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// EnumerableCellOptions controls how slice fields are written.
type EnumerableCellOptions struct {
	// Expand joins the string form of each element with CellDelimiter. When
	// false the slice is written with its fmt representation.
	Expand bool
	// CellDelimiter separates expanded elements.
	CellDelimiter string
}

// DefaultEnumerableCellOptions returns expansion with ", " as delimiter.
func DefaultEnumerableCellOptions() EnumerableCellOptions {
	return EnumerableCellOptions{Expand: true, CellDelimiter: DefaultCellDelimiter}
}

// AddSheetOptions configures a single AddSheet call.
type AddSheetOptions struct {
	// IncludeProperties keeps only the named fields and extension keys
	// (case-insensitive). It cannot be combined with ExcludeProperties.
	IncludeProperties []string `validate:"excluded_with=ExcludeProperties"`
	// ExcludeProperties drops the named fields and extension keys (case-insensitive).
	ExcludeProperties []string
	// SortExtendedProperties sorts extension keys. If nil, defaults to true.
	SortExtendedProperties *bool
	// PropertyOrder lists the columns to write, in order. Entries may be
	// dotted paths into nested structs, e.g. "Owner.Name".
	PropertyOrder []string `validate:"dive,required"`
	// PropertyHeaders overrides the mapped column labels. It is used only when
	// its length equals the number of mapped columns.
	PropertyHeaders []string
	// EnumerableCellOptions overrides Options.EnumerableCellOptions.
	EnumerableCellOptions *EnumerableCellOptions
	// FailOnEmptyList makes AddSheet return ErrEmptyList for an empty batch.
	// If nil, defaults to true.
	FailOnEmptyList *bool
	// TableOptions attaches a table to the written range when set.
	TableOptions *TableOptions
}

// ShouldSortExtendedProperties returns whether extension keys are sorted.
func (o AddSheetOptions) ShouldSortExtendedProperties() bool {
	if o.SortExtendedProperties != nil {
		return *o.SortExtendedProperties
	}
	return true
}

// ShouldFailOnEmptyList returns whether an empty batch is an error.
func (o AddSheetOptions) ShouldFailOnEmptyList() bool {
	if o.FailOnEmptyList != nil {
		return *o.FailOnEmptyList
	}
	return true
}

// clone returns a deep copy so that defaults shared between calls are never mutated.
func (o *AddSheetOptions) clone() (*AddSheetOptions, error) {
	var dst AddSheetOptions
	if err := deepcopy.Copy(&dst, o); err != nil {
		return nil, fmt.Errorf("failed to copy add sheet options: %w", err)
	}
	return &dst, nil
}

// TableOptions attaches an Excel table to a written sheet.
type TableOptions struct {
	// DisplayName names the table. Runs of characters other than ASCII
	// letters and digits are replaced by "_". Defaults to "Table".
	DisplayName string `validate:"max=255"`
	// TableStyle selects a built-in style. The zero value is TableStyleMedium9.
	TableStyle TableStyle `validate:"gte=0,lte=61"`
	// ShowFirstColumn highlights the first column.
	ShowFirstColumn bool
	// ShowLastColumn highlights the last column.
	ShowLastColumn bool
	// ShowRowStripes bands rows. If nil, defaults to true.
	ShowRowStripes *bool
	// ShowColumnStripes bands columns.
	ShowColumnStripes bool
	// CustomTableStyle names a style registered in Options.TableStyles.
	CustomTableStyle string
}

// ShouldShowRowStripes returns whether rows are banded.
func (o TableOptions) ShouldShowRowStripes() bool {
	if o.ShowRowStripes != nil {
		return *o.ShowRowStripes
	}
	return true
}

// FontWeight is the weight of a custom table row font.
type FontWeight int

const (
	// FontWeightRegular is the normal weight.
	FontWeightRegular FontWeight = iota
	// FontWeightBold is the bold weight.
	FontWeightBold
)

// String returns the weight name.
func (w FontWeight) String() string {
	switch w {
	case FontWeightBold:
		return "Bold"
	default:
		return "Regular"
	}
}

// TableRowStyle styles one part of a custom table. Colors are hex strings
// such as "#1F4E78".
type TableRowStyle struct {
	BackgroundColor  string `validate:"omitempty,hexcolor"`
	FontColor        string `validate:"omitempty,hexcolor"`
	InnerBorderColor string `validate:"omitempty,hexcolor"`
	OuterBorderColor string `validate:"omitempty,hexcolor"`
	FontWeight       FontWeight
}

// CustomTableStyle is a named set of row styles applied to a table.
type CustomTableStyle struct {
	Name            string `validate:"required,max=255"`
	HeaderRowStyle  *TableRowStyle
	OddRowStyle     *TableRowStyle
	EvenRowStyle    *TableRowStyle
	WholeTableStyle *TableRowStyle
}

func (s CustomTableStyle) hasStyle() bool {
	return s.HeaderRowStyle != nil || s.OddRowStyle != nil || s.EvenRowStyle != nil || s.WholeTableStyle != nil
}

// validate is shared by all option checks; validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateOptions checks the Spreadsheet level options.
func validateOptions(o *Options) error {
	for _, style := range o.TableStyles {
		if strings.TrimSpace(style.Name) == "" {
			return &ValidationError{Field: "TableStyles", Reason: "custom table style with no name is present"}
		}
		if !style.hasStyle() {
			return &ValidationError{Field: "TableStyles", Reason: fmt.Sprintf("no style set in custom table style %q", style.Name)}
		}
	}
	if err := validate.Struct(o); err != nil {
		return translateValidationError(err)
	}
	return nil
}

// validateAddSheetOptions checks per-call options against the registered table styles.
func validateAddSheetOptions(o *AddSheetOptions, styles []CustomTableStyle) error {
	if err := validate.Struct(o); err != nil {
		return translateValidationError(err)
	}
	if o.TableOptions == nil || o.TableOptions.CustomTableStyle == "" {
		return nil
	}
	for _, style := range styles {
		if style.Name == o.TableOptions.CustomTableStyle {
			return nil
		}
	}
	return &ValidationError{
		Field:  "TableOptions.CustomTableStyle",
		Reason: fmt.Sprintf("undefined custom table style %q was requested; define it with WithTableStyles", o.TableOptions.CustomTableStyle),
	}
}

// translateValidationError turns validator output into a *ValidationError
// naming the first failing field.
func translateValidationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}
	fe := errs[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	var reason string
	switch fe.Tag() {
	case "excluded_with":
		return &ValidationError{Reason: "cannot set both IncludeProperties and ExcludeProperties"}
	case "required":
		reason = "must not be empty"
	case "hexcolor":
		reason = fmt.Sprintf("%q is not a hex color", fe.Value())
	case "max":
		reason = "must be at most " + fe.Param() + " characters"
	case "gte", "lte":
		reason = "is out of range"
	default:
		reason = fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
	return &ValidationError{Field: field, Reason: reason}
}
