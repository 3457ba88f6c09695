// Package sheetmagic maps lists of Go structs to xlsx sheets and back.
//
// A Spreadsheet owns one in-memory workbook. AddSheet writes a header row and
// one data row per item; GetList and GetExtendedList read a sheet back into
// typed records, matching headers to fields with a forgiving normalization
// ("Leg Count", "leg_count" and "LegCounts" all match a field named LegCount).
// Columns that match no field are kept in the Properties map of an
// [Extended] item.
//
// # Field mapping
//
// Every exported field becomes a column. The header is the field name unless a
// `sheet` tag gives a label; `sheet:"-"` skips the field.
//
//	type Animal struct {
//	    Name     string
//	    LegCount int    `sheet:"Leg Count"`
//	    Notes    string `sheet:"-"`
//	}
//
// Supported field types are strings, booleans, all integer and float widths,
// time.Time, integer types implementing [Enum], []string and pointers to
// any of these (a nil pointer is an empty cell). Other slices are written as
// delimited text but cannot be read back.
//
// # Example usage
//
//	s, err := sheetmagic.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//	if err := sheetmagic.AddSheet(s, animals, "Animals", nil); err != nil {
//	    log.Fatal(err)
//	}
//	if err := s.Save("animals.xlsx"); err != nil {
//	    log.Fatal(err)
//	}
//
//	r, err := sheetmagic.Open("animals.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	list, err := sheetmagic.GetList[Animal](r, "Animals")
//
// # Compression
//
// Open and Save pick gzip, bzip2 (read only), xz, zstd or lz4 compression from the
// file extension, e.g. "report.xlsx.zst".
//
// # Memory Considerations
//
// The whole workbook and every item batch are held in memory. There is no
// streaming API.
package sheetmagic

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// maxSheetNameLength is the Excel limit on sheet names.
	maxSheetNameLength = 31
	// defaultSheetName is the sheet excelize creates in a new workbook.
	defaultSheetName = "Sheet1"
	// dateTimeFormatCode is the number format of written time.Time cells.
	dateTimeFormatCode = "yyyy-mm-dd hh:mm:ss"

	placeholderHeader  = "Error"
	placeholderMessage = "No data was output."
)

// Spreadsheet is one workbook being written or read. It is not safe for
// concurrent use.
type Spreadsheet struct {
	file   *excelize.File
	opts   Options
	logger *slog.Logger

	// loaded is set for workbooks returned by Open or Load.
	loaded bool
	// pristine is set while a new workbook still only holds excelize's default sheet.
	pristine  bool
	committed bool
	closed    bool
	date1904  bool

	tableNames map[string]struct{}
	dateStyle  int
	styleCache map[cellStyleKey]int

	cleanup runtime.Cleanup
}

// New returns an empty Spreadsheet for writing.
func New(opts ...Option) (*Spreadsheet, error) {
	return newSpreadsheet(excelize.NewFile(), false, opts)
}

// Open reads a workbook from path. Compressed workbooks are detected by
// extension, e.g. "data.xlsx.gz".
func Open(path string, opts ...Option) (s *Spreadsheet, err error) {
	format := DetectFormat(path)
	if format.Type != XLSX {
		return nil, &ArgumentError{Argument: "path", Reason: fmt.Sprintf("%s is not an xlsx workbook", path)}
	}
	f, err := os.Open(path) //nolint:gosec // path is provided by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()
	return Load(f, format.Compression, opts...)
}

// Load reads a workbook from r, decompressing it first when c is not NoCompression.
func Load(r io.Reader, c Compression, opts ...Option) (s *Spreadsheet, err error) {
	if r == nil {
		return nil, errors.New("reader cannot be nil")
	}
	decompressed, closeFunc, err := createDecompressedReader(r, c)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	if closeFunc != nil {
		defer func() {
			if closeErr := closeFunc(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close decompressor: %w", closeErr)
			}
		}()
	}

	// excelize needs random access to the zip container.
	data, err := io.ReadAll(decompressed)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook data: %w", err)
	}
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	s, err = newSpreadsheet(file, true, opts)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return s, nil
}

func newSpreadsheet(file *excelize.File, loaded bool, opts []Option) (*Spreadsheet, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if err := validateOptions(&o); err != nil {
		_ = file.Close()
		return nil, err
	}

	s := &Spreadsheet{
		file:       file,
		opts:       o,
		logger:     o.Logger,
		loaded:     loaded,
		pristine:   !loaded,
		tableNames: make(map[string]struct{}),
		styleCache: make(map[cellStyleKey]int),
	}
	if loaded {
		if err := s.inspectLoaded(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}
	// Release temporary files if the caller never calls Close.
	s.cleanup = runtime.AddCleanup(s, func(f *excelize.File) { _ = f.Close() }, file)
	return s, nil
}

// inspectLoaded reads the workbook settings and existing table names of a loaded workbook.
func (s *Spreadsheet) inspectLoaded() error {
	props, err := s.file.GetWorkbookProps()
	if err != nil {
		return fmt.Errorf("failed to read workbook properties: %w", err)
	}
	if props.Date1904 != nil {
		s.date1904 = *props.Date1904
	}
	for _, sheet := range s.file.GetSheetList() {
		tables, err := s.file.GetTables(sheet)
		if err != nil {
			return fmt.Errorf("failed to read tables of sheet %s: %w", sheet, err)
		}
		for _, t := range tables {
			s.tableNames[strings.ToLower(t.Name)] = struct{}{}
		}
	}
	s.logger.Debug("workbook loaded", "sheets", s.file.GetSheetList(), "date1904", s.date1904)
	return nil
}

// SheetNames returns the sheet names in document order.
func (s *Spreadsheet) SheetNames() []string {
	if s.pristine {
		return []string{}
	}
	return s.file.GetSheetList()
}

// Save commits the workbook to path. The compression is chosen from the
// extension. A workbook without sheets gets a placeholder sheet, since an
// empty workbook is not a valid xlsx file.
func (s *Spreadsheet) Save(path string) (err error) {
	format := DetectFormat(path)
	if format.Type != XLSX {
		return &ArgumentError{Argument: "path", Reason: fmt.Sprintf("%s is not an xlsx workbook", path)}
	}
	f, err := os.Create(path) //nolint:gosec // path is provided by the caller
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()
	if err := s.Write(f, format.Compression); err != nil {
		return err
	}
	s.logger.Debug("workbook saved", "path", path, "compression", format.Compression.String())
	return nil
}

// Write commits the workbook to w with the given compression. No sheets can
// be added afterwards.
func (s *Spreadsheet) Write(w io.Writer, c Compression) (err error) {
	if s.closed {
		return ErrClosed
	}
	if s.pristine {
		if err := s.writePlaceholder(); err != nil {
			return err
		}
	}

	compressed, closeFunc, err := createCompressedWriter(w, c)
	if err != nil {
		return err
	}
	if err := s.file.Write(compressed); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if closeFunc != nil {
		if err := closeFunc(); err != nil {
			return fmt.Errorf("failed to close compressor: %w", err)
		}
	}
	s.committed = true
	return nil
}

func (s *Spreadsheet) writePlaceholder() error {
	if err := s.file.SetCellStr(defaultSheetName, "A1", placeholderHeader); err != nil {
		return fmt.Errorf("failed to write placeholder sheet: %w", err)
	}
	if err := s.file.SetCellStr(defaultSheetName, "A2", placeholderMessage); err != nil {
		return fmt.Errorf("failed to write placeholder sheet: %w", err)
	}
	s.pristine = false
	return nil
}

// Close releases the workbook. It is safe to call Close more than once.
func (s *Spreadsheet) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cleanup.Stop()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	return nil
}

// writable reports why no sheet can be added, if any.
func (s *Spreadsheet) writable() error {
	switch {
	case s.closed, s.committed:
		return ErrClosed
	case s.loaded && !s.opts.IsLoadedFileEditable:
		return ErrReadOnly
	default:
		return nil
	}
}

// createSheet validates name and adds an empty sheet for it.
func (s *Spreadsheet) createSheet(name string) error {
	if len([]rune(name)) > maxSheetNameLength {
		return &ArgumentError{Argument: "sheet name", Reason: fmt.Sprintf("sheet name %q cannot be more than %d characters", name, maxSheetNameLength)}
	}
	for _, existing := range s.SheetNames() {
		if strings.EqualFold(existing, name) {
			return &ArgumentError{Argument: "sheet name", Reason: fmt.Sprintf("sheet name %s already exists; sheet names must be unique per workbook", name)}
		}
	}

	if s.pristine {
		if err := s.file.SetSheetName(defaultSheetName, name); err != nil {
			return &ArgumentError{Argument: "sheet name", Reason: err.Error()}
		}
		s.pristine = false
		return nil
	}
	if _, err := s.file.NewSheet(name); err != nil {
		return &ArgumentError{Argument: "sheet name", Reason: err.Error()}
	}
	return nil
}

// dateStyleID returns the style used for time.Time cells, creating it on first use.
func (s *Spreadsheet) dateStyleID() (int, error) {
	if s.dateStyle != 0 {
		return s.dateStyle, nil
	}
	format := dateTimeFormatCode
	id, err := s.file.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, fmt.Errorf("failed to create date style: %w", err)
	}
	s.dateStyle = id
	return id, nil
}
