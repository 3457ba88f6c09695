package sheetmagic

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// tableData contains the parsed data of an imported file.
type tableData struct {
	// headers contains the column names in order.
	headers []string
	// records contains the data rows as text. Empty text means no value.
	records [][]string
	// columnTypes holds one type per header.
	columnTypes []columnType
}

// ImportTable parses a CSV, TSV, LTSV or Parquet file from r and writes it to
// a new sheet. Column types are inferred from the values (taken from the
// schema for Parquet), so numbers, dates and booleans are stored as typed
// cells that GetList can read back.
//
//	f, _ := os.Open("animals.csv.gz")
//	defer f.Close()
//	err := s.ImportTable(f, sheetmagic.DetectFormat("animals.csv.gz"), "Animals")
func (s *Spreadsheet) ImportTable(r io.Reader, format Format, sheetName string) (err error) {
	if r == nil {
		return errors.New("reader cannot be nil")
	}
	if err := s.writable(); err != nil {
		return err
	}
	if sheetName == "" {
		return &ArgumentError{Argument: "sheet name", Reason: "sheet name cannot be empty"}
	}

	decompressedReader, closeFunc, err := createDecompressedReader(r, format.Compression)
	if err != nil {
		return fmt.Errorf("failed to decompress: %w", err)
	}
	if closeFunc != nil {
		defer func() {
			if closeErr := closeFunc(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close decompressor: %w", closeErr)
			}
		}()
	}

	var data *tableData
	switch format.Type {
	case CSV:
		data, err = parseDelimited(decompressedReader, ',', "CSV")
	case TSV:
		data, err = parseDelimited(decompressedReader, '\t', "TSV")
	case LTSV:
		data, err = parseLTSV(decompressedReader)
	case Parquet:
		data, err = parseParquet(decompressedReader)
	default:
		return &ArgumentError{Argument: "format", Reason: fmt.Sprintf("%s cannot be imported", format)}
	}
	if err != nil {
		return err
	}

	if err := s.createSheet(sheetName); err != nil {
		return err
	}
	if err := s.writeTable(sheetName, data); err != nil {
		return err
	}
	s.logger.Debug("table imported", "sheet", sheetName, "format", format.String(), "rows", len(data.records), "columns", len(data.headers))
	return nil
}

// writeTable writes parsed data with typed cells.
func (s *Spreadsheet) writeTable(sheet string, data *tableData) error {
	sw := &sheetWriter{
		s:         s,
		sheet:     sheet,
		rows:      len(data.records) + 1,
		columns:   len(data.headers),
		dateCells: make(map[[2]int]bool),
	}
	for i, header := range data.headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := s.file.SetCellStr(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
	}
	for r, record := range data.records {
		row := r + 2
		for i := range data.headers {
			if i >= len(record) || record[i] == "" {
				continue
			}
			if err := sw.writeTyped(i+1, row, data.columnTypes[i], record[i]); err != nil {
				return fmt.Errorf("failed to write %s on row %d: %w", data.headers[i], row, err)
			}
		}
	}
	return nil
}

// writeTyped writes text as the given column type, falling back to text
// for values that do not parse.
func (w *sheetWriter) writeTyped(col, row int, ct columnType, text string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	f := w.s.file
	value := strings.TrimSpace(text)
	switch ct {
	case typeInteger:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return f.SetCellInt(w.sheet, cell, i)
		}
	case typeReal:
		if x, err := strconv.ParseFloat(value, 64); err == nil {
			return f.SetCellFloat(w.sheet, cell, x, -1, 64)
		}
	case typeBoolean:
		if b, err := strconv.ParseBool(value); err == nil {
			return f.SetCellBool(w.sheet, cell, b)
		}
	case typeDatetime:
		if t, ok := parseLayouts(value, datetimeLayouts); ok {
			return w.writeTime(col, row, cell, t)
		}
	}
	return f.SetCellStr(w.sheet, cell, text)
}

// parseDelimited parses CSV or TSV data.
func parseDelimited(reader io.Reader, delimiter rune, fileTypeName string) (*tableData, error) {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileTypeName, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty %s data", fileTypeName)
	}

	headers := records[0]
	if err := validateColumnNames(headers); err != nil {
		return nil, err
	}
	dataRecords := records[1:]
	return &tableData{
		headers:     headers,
		records:     dataRecords,
		columnTypes: inferColumnTypes(headers, dataRecords),
	}, nil
}

// parseLTSV parses LTSV (Labeled Tab-Separated Values) data.
// Column order is preserved as first-seen order for deterministic output.
func parseLTSV(reader io.Reader) (*tableData, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read LTSV: %w", err)
	}

	var headers []string
	headerSeen := make(map[string]bool)
	var parsedRecords []map[string]string
	for line := range strings.SplitSeq(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		recordMap := make(map[string]string)
		for pair := range strings.SplitSeq(line, "\t") {
			key, value, ok := strings.Cut(pair, ":")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			recordMap[key] = strings.TrimSpace(value)
			if !headerSeen[key] {
				headerSeen[key] = true
				headers = append(headers, key)
			}
		}
		if len(recordMap) > 0 {
			parsedRecords = append(parsedRecords, recordMap)
		}
	}
	if len(parsedRecords) == 0 {
		return nil, errors.New("no valid LTSV records found")
	}

	records := make([][]string, 0, len(parsedRecords))
	for _, recordMap := range parsedRecords {
		row := make([]string, len(headers))
		for i, key := range headers {
			row[i] = recordMap[key]
		}
		records = append(records, row)
	}
	return &tableData{
		headers:     headers,
		records:     records,
		columnTypes: inferColumnTypes(headers, records),
	}, nil
}

// validateColumnNames checks for duplicate column names.
func validateColumnNames(columns []string) error {
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if seen[col] {
			return fmt.Errorf("duplicate column name: %s", col)
		}
		seen[col] = true
	}
	return nil
}

// formatImportedTime renders a timestamp so that writeTyped parses it back.
func formatImportedTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
