package sheetmagic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_isInteger(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected bool
	}{
		{"42", true},
		{"-42", true},
		{"  42  ", true},
		{"3.14", false},
		{"1e10", false},
		{"abc", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, isInteger(tc.input))
		})
	}
}

func Test_isFloat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected bool
	}{
		{"3.14", true},
		{"-0.5", true},
		{"1E-5", true},
		{"42", false},
		{"abc", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, isFloat(tc.input))
		})
	}
}

func Test_isDatetime(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected bool
	}{
		{"2024-01-15", true},
		{"2024/01/15 10:30:00", true},
		{"2024-01-15T10:30:00Z", true},
		{"January 2, 2024", true},
		{"42", false},
		{"abc", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, isDatetime(tc.input))
		})
	}
}

func TestInferColumnTypes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		records  [][]string
		expected columnType
	}{
		{name: "integer", records: [][]string{{"1"}, {"2"}, {"3"}}, expected: typeInteger},
		{name: "real", records: [][]string{{"1.99"}, {"2"}, {"3.14"}}, expected: typeReal},
		{name: "datetime", records: [][]string{{"2024-01-15"}, {""}, {"2024-01-16"}}, expected: typeDatetime},
		{name: "mixed is text", records: [][]string{{"hello"}, {"42"}, {"world"}}, expected: typeText},
		{name: "empty column is text", records: [][]string{{""}, {""}}, expected: typeText},
		{name: "short rows are skipped", records: [][]string{{}, {"7"}}, expected: typeInteger},
		{name: "booleans stay text", records: [][]string{{"true"}, {"false"}}, expected: typeText},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			types := inferColumnTypes([]string{"col"}, tc.records)

			assert.Equal(t, []columnType{tc.expected}, types)
		})
	}
}

func TestColumnType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "INTEGER", typeInteger.String())
	assert.Equal(t, "REAL", typeReal.String())
	assert.Equal(t, "DATETIME", typeDatetime.String())
	assert.Equal(t, "BOOLEAN", typeBoolean.String())
	assert.Equal(t, "TEXT", typeText.String())
}
