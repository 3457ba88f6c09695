package sheetmagic

import (
	"strconv"
	"strings"
	"time"
)

// Type inference constants
const (
	maxSampleSize          = 1000
	minConfidenceThreshold = 0.8
	minDatetimeLength      = 4
	maxDatetimeLength      = 35
)

// columnType is the inferred type of an imported column.
type columnType int

const (
	typeText columnType = iota
	typeInteger
	typeReal
	typeDatetime
	typeBoolean
)

// String returns the string representation of columnType.
func (ct columnType) String() string {
	switch ct {
	case typeInteger:
		return "INTEGER"
	case typeReal:
		return "REAL"
	case typeDatetime:
		return "DATETIME"
	case typeBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// datetimeLayouts are tried in order when text is read as a date, both for
// column inference and for time.Time fields.
var datetimeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"01-02-2006",
	"02/01/2006",
	"02-01-2006",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// inferColumnTypes infers the type of each column based on the data.
func inferColumnTypes(headers []string, records [][]string) []columnType {
	columnTypes := make([]columnType, len(headers))
	for i := range headers {
		columnTypes[i] = inferColumnType(records, i)
	}
	return columnTypes
}

// inferColumnType infers the type of a single column from up to
// maxSampleSize non-empty values. A type wins when at least 80% of the
// values have it; integers also count towards real.
func inferColumnType(records [][]string, colIndex int) columnType {
	var values []string
	sampleSize := min(len(records), maxSampleSize)
	for i := range sampleSize {
		if colIndex < len(records[i]) {
			if val := strings.TrimSpace(records[i][colIndex]); val != "" {
				values = append(values, val)
			}
		}
	}
	if len(values) == 0 {
		return typeText
	}

	var intCount, floatCount, datetimeCount int
	for _, val := range values {
		switch classifyValue(val) {
		case typeInteger:
			intCount++
		case typeReal:
			floatCount++
		case typeDatetime:
			datetimeCount++
		}
	}

	total := float64(len(values))
	switch {
	case float64(intCount)/total >= minConfidenceThreshold:
		return typeInteger
	case float64(intCount+floatCount)/total >= minConfidenceThreshold:
		return typeReal
	case float64(datetimeCount)/total >= minConfidenceThreshold:
		return typeDatetime
	default:
		return typeText
	}
}

// classifyValue determines the type of a single value.
func classifyValue(value string) columnType {
	switch {
	case isInteger(value):
		return typeInteger
	case isFloat(value):
		return typeReal
	case isDatetime(value):
		return typeDatetime
	default:
		return typeText
	}
}

func isInteger(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isFloat requires a decimal point or an exponent so that integers are not counted twice.
func isFloat(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if !strings.Contains(s, ".") && !strings.ContainsAny(s, "eE") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isDatetime(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < minDatetimeLength || len(s) > maxDatetimeLength {
		return false
	}
	_, ok := parseLayouts(s, datetimeLayouts)
	return ok
}
