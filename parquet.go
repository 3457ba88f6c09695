package sheetmagic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
)

// parseParquet parses Parquet data from reader. Column types come from the
// Arrow schema rather than from sampling.
func parseParquet(reader io.Reader) (*tableData, error) {
	// The footer is read first, so the whole file is buffered.
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty parquet file")
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}
	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	headers := make([]string, schema.NumFields())
	columnTypes := make([]columnType, schema.NumFields())
	for i, field := range schema.Fields() {
		headers[i] = field.Name
		columnTypes[i] = arrowColumnType(field.Type)
	}
	if err := validateColumnNames(headers); err != nil {
		return nil, err
	}

	records := [][]string{}
	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()
	for tableReader.Next() {
		batch := tableReader.Record()
		for i := range batch.NumRows() {
			row := make([]string, batch.NumCols())
			for j, col := range batch.Columns() {
				row[j] = parquetCellText(col, int(i))
			}
			records = append(records, row)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading table records: %w", err)
	}

	return &tableData{
		headers:     headers,
		records:     records,
		columnTypes: columnTypes,
	}, nil
}

// arrowColumnType maps an Arrow data type to the cell type of its column.
func arrowColumnType(dt arrow.DataType) columnType {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return typeInteger
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return typeReal
	case arrow.BOOL:
		return typeBoolean
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return typeDatetime
	default:
		return typeText
	}
}

// parquetCellText returns row i of an Arrow column as import text. Nulls are
// empty; dates and timestamps are RFC 3339 in UTC.
func parquetCellText(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}

	switch a := col.(type) {
	case *array.Boolean:
		return strconv.FormatBool(a.Value(i))
	case *array.Int8:
		return signedText(a.Value(i))
	case *array.Int16:
		return signedText(a.Value(i))
	case *array.Int32:
		return signedText(a.Value(i))
	case *array.Int64:
		return signedText(a.Value(i))
	case *array.Uint8:
		return unsignedText(a.Value(i))
	case *array.Uint16:
		return unsignedText(a.Value(i))
	case *array.Uint32:
		return unsignedText(a.Value(i))
	case *array.Uint64:
		return unsignedText(a.Value(i))
	case *array.Float32:
		return strconv.FormatFloat(float64(a.Value(i)), 'g', -1, 32)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'g', -1, 64)
	case *array.String:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	case *array.Date32:
		return formatImportedTime(a.Value(i).ToTime())
	case *array.Date64:
		return formatImportedTime(a.Value(i).ToTime())
	case *array.Timestamp:
		return formatImportedTime(a.Value(i).ToTime(a.DataType().(*arrow.TimestampType).Unit))
	default:
		return fmt.Sprint(col.GetOneForMarshal(i))
	}
}

func signedText[T int8 | int16 | int32 | int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

func unsignedText[T uint8 | uint16 | uint32 | uint64](v T) string {
	return strconv.FormatUint(uint64(v), 10)
}
