package sheetmagic

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type planBase struct {
	ID int
}

type planAddress struct {
	City string
}

type planOwner struct {
	Name    string
	Address *planAddress
}

type planRecord struct {
	planBase
	Name   string `sheet:"Full Name"`
	Secret string `sheet:"-"`
	Owner  planOwner
	Tags   []string
	Score  *float64
}

type planColor int

func (planColor) EnumNames() []string { return []string{"Red", "Green", "Blue"} }

func fieldNames(fields []*fieldPlan) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
	}
	return names
}

func columnLabels(columns []column) []string {
	labels := make([]string, len(columns))
	for i, c := range columns {
		labels[i] = c.label
	}
	return labels
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		typ          reflect.Type
		wantKind     valueKind
		wantNullable bool
	}{
		{name: "string", typ: reflect.TypeFor[string](), wantKind: kindString},
		{name: "nullable int", typ: reflect.TypeFor[*int32](), wantKind: kindInt, wantNullable: true},
		{name: "uint8", typ: reflect.TypeFor[uint8](), wantKind: kindUint},
		{name: "float32", typ: reflect.TypeFor[float32](), wantKind: kindFloat},
		{name: "bool", typ: reflect.TypeFor[bool](), wantKind: kindBool},
		{name: "time", typ: reflect.TypeFor[time.Time](), wantKind: kindTime},
		{name: "nullable time", typ: reflect.TypeFor[*time.Time](), wantKind: kindTime, wantNullable: true},
		{name: "enum", typ: reflect.TypeFor[planColor](), wantKind: kindEnum},
		{name: "string slice", typ: reflect.TypeFor[[]string](), wantKind: kindStringList},
		{name: "int slice", typ: reflect.TypeFor[[]int](), wantKind: kindList},
		{name: "enum slice", typ: reflect.TypeFor[[]planColor](), wantKind: kindList},
		{name: "array", typ: reflect.TypeFor[[2]string](), wantKind: kindList},
		{name: "any", typ: reflect.TypeFor[any](), wantKind: kindAny},
		{name: "struct", typ: reflect.TypeFor[planOwner](), wantKind: kindStruct},
		{name: "map", typ: reflect.TypeFor[map[string]int](), wantKind: kindUnsupported},
		{name: "error interface", typ: reflect.TypeFor[error](), wantKind: kindUnsupported},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			kind, nullable := kindOf(tc.typ)

			assert.Equal(t, tc.wantKind, kind)
			assert.Equal(t, tc.wantNullable, nullable)
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	t.Run("lists exported fields with promoted embedded fields", func(t *testing.T) {
		t.Parallel()

		d := describe(reflect.TypeFor[planRecord]())

		assert.Equal(t, []string{"ID", "Name", "Owner", "Tags", "Score"}, fieldNames(d.fields))
		assert.Equal(t, []string{"ID", "Name", "Tags", "Score"}, fieldNames(d.flat()))
	})

	t.Run("uses the tag as label", func(t *testing.T) {
		t.Parallel()

		d := describe(reflect.TypeFor[planRecord]())
		f := d.lookup("name", d.fields)

		require.NotNil(t, f)
		assert.Equal(t, "Full Name", f.label)
	})

	t.Run("marks pointer fields as nullable", func(t *testing.T) {
		t.Parallel()

		d := describe(reflect.TypeFor[planRecord]())
		f := d.lookup("Score", d.fields)

		require.NotNil(t, f)
		assert.Equal(t, kindFloat, f.kind)
		assert.True(t, f.nullable)
	})
}

func TestFieldPlan_getAndField(t *testing.T) {
	t.Parallel()

	d := describe(reflect.TypeFor[planRecord]())
	city, err := resolvePath(d, d.fields, "Owner.Address.City")
	require.NoError(t, err)

	t.Run("get reports false for a nil pointer on the path", func(t *testing.T) {
		t.Parallel()

		record := planRecord{}
		_, ok := city.get(reflect.ValueOf(record))

		assert.False(t, ok)
	})

	t.Run("get follows pointers", func(t *testing.T) {
		t.Parallel()

		record := planRecord{Owner: planOwner{Address: &planAddress{City: "Lyon"}}}
		v, ok := city.get(reflect.ValueOf(record))

		require.True(t, ok)
		assert.Equal(t, "Lyon", v.String())
	})

	t.Run("field allocates nil pointers", func(t *testing.T) {
		t.Parallel()

		record := &planRecord{}
		city.field(reflect.ValueOf(record).Elem()).SetString("Oslo")

		require.NotNil(t, record.Owner.Address)
		assert.Equal(t, "Oslo", record.Owner.Address.City)
	})

	t.Run("promoted field reads through the embedded struct", func(t *testing.T) {
		t.Parallel()

		id := d.lookup("ID", d.fields)
		v, ok := id.get(reflect.ValueOf(planRecord{planBase: planBase{ID: 7}}))

		require.True(t, ok)
		assert.Equal(t, int64(7), v.Int())
	})
}

func TestPlanColumns(t *testing.T) {
	t.Parallel()

	d := describe(reflect.TypeFor[planRecord]())

	testCases := []struct {
		name     string
		opts     AddSheetOptions
		keys     []string
		expected []string
	}{
		{
			name:     "writes flat fields then keys",
			keys:     []string{"Extra"},
			expected: []string{"ID", "Full Name", "Tags", "Score", "Extra"},
		},
		{
			name:     "keeps included fields only",
			opts:     AddSheetOptions{IncludeProperties: []string{"name", "TAGS", "extra"}},
			keys:     []string{"extra"},
			expected: []string{"Full Name", "Tags", "extra"},
		},
		{
			name:     "drops excluded fields",
			opts:     AddSheetOptions{ExcludeProperties: []string{"id", "score"}},
			expected: []string{"Full Name", "Tags"},
		},
		{
			name:     "follows property order with nested paths",
			opts:     AddSheetOptions{PropertyOrder: []string{"Owner.Address.City", "Owner.Name", "id"}},
			expected: []string{"City", "Name", "ID"},
		},
		{
			name:     "applies headers of matching length",
			opts:     AddSheetOptions{PropertyHeaders: []string{"A", "B", "C", "D"}},
			keys:     []string{"Extra"},
			expected: []string{"A", "B", "C", "D", "Extra"},
		},
		{
			name:     "ignores headers of other length",
			opts:     AddSheetOptions{PropertyHeaders: []string{"A", "B"}},
			expected: []string{"ID", "Full Name", "Tags", "Score"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			columns, err := planColumns(d, &tc.opts, tc.keys)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, columnLabels(columns))
		})
	}

	t.Run("marks extension keys as dynamic", func(t *testing.T) {
		t.Parallel()

		columns, err := planColumns(d, &AddSheetOptions{}, []string{"Extra"})

		require.NoError(t, err)
		last := columns[len(columns)-1]
		assert.False(t, last.mapped())
		assert.Equal(t, "Extra", last.key)
	})
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	d := describe(reflect.TypeFor[planRecord]())

	testCases := []struct {
		name    string
		path    string
		segment string
	}{
		{name: "unknown field", path: "Missing", segment: "Missing"},
		{name: "unknown nested field", path: "Owner.Missing", segment: "Missing"},
		{name: "unknown first segment", path: "Keeper.Name", segment: "Keeper"},
		{name: "path through a non-struct", path: "Name.First", segment: "First"},
		{name: "skipped field", path: "Secret", segment: "Secret"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := resolvePath(d, d.fields, tc.path)

			var notFound *PropertyNotFoundError
			require.True(t, errors.As(err, &notFound))
			assert.Equal(t, tc.path, notFound.Path)
			assert.Equal(t, tc.segment, notFound.Segment)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}

	t.Run("names the unresolved segment", func(t *testing.T) {
		t.Parallel()

		_, err := resolvePath(d, d.fields, "Owner.Address.Zip")

		assert.EqualError(t, err, `property "Owner.Address.Zip" not found: no "Zip" segment`)
	})

	t.Run("keeps the full index", func(t *testing.T) {
		t.Parallel()

		f, err := resolvePath(d, d.fields, "owner.address.city")

		require.NoError(t, err)
		assert.Equal(t, []int{3, 1, 0}, f.index)
		assert.Equal(t, kindString, f.kind)
	})
}

func TestExtensionKeys(t *testing.T) {
	t.Parallel()

	bags := []map[string]any{
		{"zeta": 1},
		nil,
		{"beta": 1, "alpha": 2, "zeta": 3},
	}

	testCases := []struct {
		name     string
		opts     AddSheetOptions
		expected []string
	}{
		{
			name:     "sorts by default",
			expected: []string{"alpha", "beta", "zeta"},
		},
		{
			name:     "keeps first-seen order when unsorted",
			opts:     AddSheetOptions{SortExtendedProperties: new(bool)},
			expected: []string{"zeta", "alpha", "beta"},
		},
		{
			name:     "drops excluded keys",
			opts:     AddSheetOptions{ExcludeProperties: []string{"ZETA"}},
			expected: []string{"alpha", "beta"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, extensionKeys(bags, &tc.opts))
		})
	}
}
