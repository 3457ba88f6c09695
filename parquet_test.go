package sheetmagic

import (
	"bytes"
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeParquet encodes the given columns as a single-batch parquet file.
func writeParquet(t *testing.T, schema *arrow.Schema, columns []arrow.Array, rows int64) []byte {
	t.Helper()

	record := array.NewRecord(schema, columns, rows)
	defer record.Release()
	table := array.NewTableFromRecords(schema, []arrow.Record{record})
	defer table.Release()

	var buf bytes.Buffer
	err := pqarrow.WriteTable(table, &buf, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	return buf.Bytes()
}

// productsParquet holds three products with an id, a name, a price, a stock
// flag and an arrival timestamp.
func productsParquet(t *testing.T) []byte {
	t.Helper()

	pool := memory.NewGoAllocator()
	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "id", Type: arrow.PrimitiveTypes.Int64},
			{Name: "name", Type: arrow.BinaryTypes.String},
			{Name: "price", Type: arrow.PrimitiveTypes.Float64},
			{Name: "in_stock", Type: arrow.FixedWidthTypes.Boolean},
			{Name: "arrived", Type: &arrow.TimestampType{Unit: arrow.Millisecond}, Nullable: true},
		},
		nil,
	)

	idBuilder := array.NewInt64Builder(pool)
	defer idBuilder.Release()
	idBuilder.AppendValues([]int64{1, 2, 3}, nil)

	nameBuilder := array.NewStringBuilder(pool)
	defer nameBuilder.Release()
	nameBuilder.AppendValues([]string{"Laptop", "Mouse", "Keyboard"}, nil)

	priceBuilder := array.NewFloat64Builder(pool)
	defer priceBuilder.Release()
	priceBuilder.AppendValues([]float64{999.99, 29.99, 79.99}, nil)

	stockBuilder := array.NewBooleanBuilder(pool)
	defer stockBuilder.Release()
	stockBuilder.AppendValues([]bool{true, false, true}, nil)

	arrivedBuilder := array.NewTimestampBuilder(pool, &arrow.TimestampType{Unit: arrow.Millisecond})
	defer arrivedBuilder.Release()
	arrivedBuilder.Append(1641024000000) // 2022-01-01T08:00:00Z
	arrivedBuilder.AppendNull()
	arrivedBuilder.Append(1641110400000) // 2022-01-02T08:00:00Z

	columns := []arrow.Array{
		idBuilder.NewArray(),
		nameBuilder.NewArray(),
		priceBuilder.NewArray(),
		stockBuilder.NewArray(),
		arrivedBuilder.NewArray(),
	}
	defer func() {
		for _, c := range columns {
			c.Release()
		}
	}()
	return writeParquet(t, schema, columns, 3)
}

func TestParseParquet(t *testing.T) {
	t.Parallel()

	t.Run("parses values and takes column types from the schema", func(t *testing.T) {
		t.Parallel()

		result, err := parseParquet(bytes.NewReader(productsParquet(t)))

		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name", "price", "in_stock", "arrived"}, result.headers)
		assert.Equal(t, []columnType{typeInteger, typeText, typeReal, typeBoolean, typeDatetime}, result.columnTypes)
		require.Len(t, result.records, 3)
		assert.Equal(t, []string{"1", "Laptop", "999.99", "true", "2022-01-01T08:00:00Z"}, result.records[0])
		assert.Equal(t, []string{"2", "Mouse", "29.99", "false", ""}, result.records[1])
	})

	t.Run("parses parquet with empty records", func(t *testing.T) {
		t.Parallel()

		pool := memory.NewGoAllocator()
		schema := arrow.NewSchema(
			[]arrow.Field{
				{Name: "col1", Type: arrow.PrimitiveTypes.Int64},
				{Name: "col2", Type: arrow.BinaryTypes.String},
			},
			nil,
		)
		col1Builder := array.NewInt64Builder(pool)
		defer col1Builder.Release()
		col1Arr := col1Builder.NewArray()
		defer col1Arr.Release()
		col2Builder := array.NewStringBuilder(pool)
		defer col2Builder.Release()
		col2Arr := col2Builder.NewArray()
		defer col2Arr.Release()

		data := writeParquet(t, schema, []arrow.Array{col1Arr, col2Arr}, 0)
		result, err := parseParquet(bytes.NewReader(data))

		require.NoError(t, err)
		assert.Equal(t, []string{"col1", "col2"}, result.headers)
		assert.Empty(t, result.records)
	})

	t.Run("returns error for empty data", func(t *testing.T) {
		t.Parallel()

		_, err := parseParquet(bytes.NewReader([]byte{}))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "empty parquet file")
	})

	t.Run("returns error for invalid parquet data", func(t *testing.T) {
		t.Parallel()

		_, err := parseParquet(bytes.NewReader([]byte("not a parquet file")))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create parquet reader")
	})
}

func TestParquetCellText(t *testing.T) {
	t.Parallel()

	pool := memory.NewGoAllocator()

	testCases := []struct {
		name     string
		build    func() arrow.Array
		expected string
	}{
		{
			name: "int8",
			build: func() arrow.Array {
				b := array.NewInt8Builder(pool)
				defer b.Release()
				b.Append(-128)
				return b.NewArray()
			},
			expected: "-128",
		},
		{
			name: "uint64",
			build: func() arrow.Array {
				b := array.NewUint64Builder(pool)
				defer b.Release()
				b.Append(18446744073709551615)
				return b.NewArray()
			},
			expected: "18446744073709551615",
		},
		{
			name: "float32 in shortest form",
			build: func() arrow.Array {
				b := array.NewFloat32Builder(pool)
				defer b.Release()
				b.Append(1.1)
				return b.NewArray()
			},
			expected: "1.1",
		},
		{
			name: "binary",
			build: func() arrow.Array {
				b := array.NewBinaryBuilder(pool, arrow.BinaryTypes.Binary)
				defer b.Release()
				b.Append([]byte("hello"))
				return b.NewArray()
			},
			expected: "hello",
		},
		{
			name: "date32",
			build: func() arrow.Array {
				b := array.NewDate32Builder(pool)
				defer b.Release()
				b.Append(19000)
				return b.NewArray()
			},
			expected: "2022-01-08T00:00:00Z",
		},
		{
			name: "date64",
			build: func() arrow.Array {
				b := array.NewDate64Builder(pool)
				defer b.Release()
				b.Append(1641081600000)
				return b.NewArray()
			},
			expected: "2022-01-02T00:00:00Z",
		},
		{
			name: "timestamp in seconds",
			build: func() arrow.Array {
				b := array.NewTimestampBuilder(pool, &arrow.TimestampType{Unit: arrow.Second})
				defer b.Release()
				b.Append(1641024000)
				return b.NewArray()
			},
			expected: "2022-01-01T08:00:00Z",
		},
		{
			name: "null",
			build: func() arrow.Array {
				b := array.NewInt64Builder(pool)
				defer b.Release()
				b.AppendNull()
				return b.NewArray()
			},
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			col := tc.build()
			defer col.Release()

			assert.Equal(t, tc.expected, parquetCellText(col, 0))
		})
	}
}

func TestArrowColumnType(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		dataType arrow.DataType
		expected columnType
	}{
		{name: "int32", dataType: arrow.PrimitiveTypes.Int32, expected: typeInteger},
		{name: "uint16", dataType: arrow.PrimitiveTypes.Uint16, expected: typeInteger},
		{name: "float32", dataType: arrow.PrimitiveTypes.Float32, expected: typeReal},
		{name: "boolean", dataType: arrow.FixedWidthTypes.Boolean, expected: typeBoolean},
		{name: "date32", dataType: arrow.FixedWidthTypes.Date32, expected: typeDatetime},
		{name: "timestamp", dataType: &arrow.TimestampType{Unit: arrow.Second}, expected: typeDatetime},
		{name: "string", dataType: arrow.BinaryTypes.String, expected: typeText},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, arrowColumnType(tc.dataType))
		})
	}
}
