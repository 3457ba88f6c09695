package sheetmagic

// emptyRowPolicy decides what a blank data row produces.
type emptyRowPolicy struct {
	asNull bool
	stop   bool
}

func newEmptyRowPolicy(o Options) emptyRowPolicy {
	return emptyRowPolicy{asNull: o.EmptyRowInterpretedAsNull, stop: o.StopProcessingOnFirstEmptyRow}
}

// handle returns whether to emit an entry with a nil item and whether to
// stop reading. rowIndex is the 1-based data row index.
func (p emptyRowPolicy) handle(rowIndex int) (emitNull, stop bool, err error) {
	if !p.asNull && !p.stop {
		return false, false, &EmptyRowError{RowIndex: rowIndex}
	}
	return p.asNull, p.stop, nil
}

func (p emptyRowPolicy) String() string {
	switch {
	case p.asNull && p.stop:
		return "null-then-stop"
	case p.asNull:
		return "null"
	case p.stop:
		return "stop"
	default:
		return "error"
	}
}

// isEmptyRow reports whether every direct value of a row is empty.
func isEmptyRow(values []any) bool {
	for _, v := range values {
		if !blank(v) {
			return false
		}
	}
	return true
}
