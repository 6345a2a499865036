package vector

import "math/big"

// Long holds integer-family rows: booleans, bytes, shorts, ints, longs and
// dates all decode into int64 slots.
type Long struct {
	Column
	Values []int64
}

// NewLong returns a Long vector with capacity for rows entries.
func NewLong(rows int) *Long {
	return &Long{
		Column: Column{IsNull: make([]bool, rows), NoNulls: true},
		Values: make([]int64, rows),
	}
}

func (v *Long) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Values) < rows {
		old := v.Values
		v.Values = make([]int64, rows)
		if preserve {
			copy(v.Values, old)
		}
	}
}

// Double holds floating point rows. Both float and double columns decode
// into float64 slots.
type Double struct {
	Column
	Values []float64
}

// NewDouble returns a Double vector with capacity for rows entries.
func NewDouble(rows int) *Double {
	return &Double{
		Column: Column{IsNull: make([]bool, rows), NoNulls: true},
		Values: make([]float64, rows),
	}
}

func (v *Double) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Values) < rows {
		old := v.Values
		v.Values = make([]float64, rows)
		if preserve {
			copy(v.Values, old)
		}
	}
}

// Bytes holds variable-length byte rows: binary, string, char and varchar
// columns. Each row is a subslice of a payload buffer owned by the reader,
// so rows are references, not copies.
type Bytes struct {
	Column
	Values [][]byte
}

// NewBytes returns a Bytes vector with capacity for rows entries.
func NewBytes(rows int) *Bytes {
	return &Bytes{
		Column: Column{IsNull: make([]bool, rows), NoNulls: true},
		Values: make([][]byte, rows),
	}
}

func (v *Bytes) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Values) < rows {
		old := v.Values
		v.Values = make([][]byte, rows)
		if preserve {
			copy(v.Values, old)
		}
	}
}

// Decimal holds arbitrary-precision decimal rows. Each row is an unscaled
// integer; Scale applies uniformly to every row after the reader has
// rescaled physical values to the column's declared scale.
type Decimal struct {
	Column
	Values    []*big.Int
	Precision int
	Scale     int
}

// NewDecimal returns a Decimal vector with capacity for rows entries.
func NewDecimal(rows, precision, scale int) *Decimal {
	return &Decimal{
		Column:    Column{IsNull: make([]bool, rows), NoNulls: true},
		Values:    make([]*big.Int, rows),
		Precision: precision,
		Scale:     scale,
	}
}

func (v *Decimal) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Values) < rows {
		old := v.Values
		v.Values = make([]*big.Int, rows)
		if preserve {
			copy(v.Values, old)
		}
	}
}

// Decimal64 holds decimal rows whose precision fits an int64. Each row is
// an unscaled integer at the column's declared Scale.
type Decimal64 struct {
	Column
	Values    []int64
	Precision int
	Scale     int
}

// NewDecimal64 returns a Decimal64 vector with capacity for rows entries.
func NewDecimal64(rows, precision, scale int) *Decimal64 {
	return &Decimal64{
		Column:    Column{IsNull: make([]bool, rows), NoNulls: true},
		Values:    make([]int64, rows),
		Precision: precision,
		Scale:     scale,
	}
}

func (v *Decimal64) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Values) < rows {
		old := v.Values
		v.Values = make([]int64, rows)
		if preserve {
			copy(v.Values, old)
		}
	}
}

// Timestamp holds timestamp rows as milliseconds since the Unix epoch plus
// a separate sub-second nanosecond remainder.
type Timestamp struct {
	Column
	Millis []int64
	Nanos  []int32

	// IsUTC records whether the values were reconciled to UTC rather than
	// the local reader time zone.
	IsUTC bool
}

// NewTimestamp returns a Timestamp vector with capacity for rows entries.
func NewTimestamp(rows int) *Timestamp {
	return &Timestamp{
		Column: Column{IsNull: make([]bool, rows), NoNulls: true},
		Millis: make([]int64, rows),
		Nanos:  make([]int32, rows),
	}
}

func (v *Timestamp) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Millis) < rows {
		oldM, oldN := v.Millis, v.Nanos
		v.Millis = make([]int64, rows)
		v.Nanos = make([]int32, rows)
		if preserve {
			copy(v.Millis, oldM)
			copy(v.Nanos, oldN)
		}
	}
}
