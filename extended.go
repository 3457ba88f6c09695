package sheetmagic

import "reflect"

// Extended pairs a record with the cells of columns that match none of its
// fields, keyed by header text.
//
// On write, every distinct key across the batch becomes a column after the
// mapped fields. On read, Item is nil for a row read as empty and Properties
// is never nil.
type Extended[T any] struct {
	Item       *T
	Properties map[string]any
}

// NewExtended returns an Extended wrapping item with an empty property bag.
func NewExtended[T any](item *T) Extended[T] {
	return Extended[T]{Item: item, Properties: make(map[string]any)}
}

// extendedItem lets AddSheet recognise Extended batches without knowing T.
type extendedItem interface {
	itemValue() reflect.Value
	properties() map[string]any
	innerType() reflect.Type
}

func (e Extended[T]) itemValue() reflect.Value {
	if e.Item == nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(e.Item).Elem()
}

func (e Extended[T]) properties() map[string]any { return e.Properties }

func (Extended[T]) innerType() reflect.Type { return reflect.TypeFor[T]() }

var extendedItemType = reflect.TypeFor[extendedItem]()
