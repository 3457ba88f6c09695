package sheetmagic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		expected string
	}{
		{"Leg_Count", "legcount"},
		{"Leg Count", "legcount"},
		{"LegCounts", "legcount"},
		{"Status", "statu"},
		{"Address", "address"},
		{"123Name", "name"},
		{"Name 2", "name2"},
		{"Größe", "gre"},
		{"s", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		a, b     string
		expected bool
	}{
		{"Leg Count", "LegCount", true},
		{"Animals", "Animal", true},
		{"first-name", "FirstName", true},
		{"1. Name", "name", true},
		{"Name", "Names2", false},
		{"Class", "Clas", false},
	}

	for _, tc := range testCases {
		t.Run(tc.a+"/"+tc.b, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, Matches(tc.a, tc.b))
			assert.Equal(t, tc.expected, Matches(tc.b, tc.a))
		})
	}
}
