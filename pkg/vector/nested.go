package vector

// Struct fans a row out over an ordered set of child vectors, one per
// schema field. All children share the struct's row count.
type Struct struct {
	Column
	Fields []Vector
}

// NewStruct returns a Struct vector over the given field vectors.
func NewStruct(rows int, fields []Vector) *Struct {
	return &Struct{
		Column: Column{IsNull: make([]bool, rows), NoNulls: true},
		Fields: fields,
	}
}

func (v *Struct) Reset() {
	v.Column.Reset()
	for _, f := range v.Fields {
		f.Reset()
	}
}

func (v *Struct) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	for _, f := range v.Fields {
		f.EnsureSize(rows, preserve)
	}
}

// List holds variable-length rows over one flat child vector. Row r owns
// the child sub-range [Offsets[r], Offsets[r]+Lengths[r]). ChildCount is
// the running watermark of child rows used by the batch.
type List struct {
	Column
	Offsets    []int64
	Lengths    []int64
	ChildCount int
	Child      Vector
}

// NewList returns a List vector over the given element vector.
func NewList(rows int, child Vector) *List {
	return &List{
		Column:  Column{IsNull: make([]bool, rows), NoNulls: true},
		Offsets: make([]int64, rows),
		Lengths: make([]int64, rows),
		Child:   child,
	}
}

func (v *List) Reset() {
	v.Column.Reset()
	v.ChildCount = 0
	v.Child.Reset()
}

func (v *List) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Offsets) < rows {
		oldO, oldL := v.Offsets, v.Lengths
		v.Offsets = make([]int64, rows)
		v.Lengths = make([]int64, rows)
		if preserve {
			copy(v.Offsets, oldO)
			copy(v.Lengths, oldL)
		}
	}
}

// Map is a list over two parallel children sharing one length stream: row
// r owns Keys[Offsets[r]:...] and Values[Offsets[r]:...] of equal length.
type Map struct {
	Column
	Offsets    []int64
	Lengths    []int64
	ChildCount int
	Keys       Vector
	Values     Vector
}

// NewMap returns a Map vector over the given key and value vectors.
func NewMap(rows int, keys, values Vector) *Map {
	return &Map{
		Column:  Column{IsNull: make([]bool, rows), NoNulls: true},
		Offsets: make([]int64, rows),
		Lengths: make([]int64, rows),
		Keys:    keys,
		Values:  values,
	}
}

func (v *Map) Reset() {
	v.Column.Reset()
	v.ChildCount = 0
	v.Keys.Reset()
	v.Values.Reset()
}

func (v *Map) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Offsets) < rows {
		oldO, oldL := v.Offsets, v.Lengths
		v.Offsets = make([]int64, rows)
		v.Lengths = make([]int64, rows)
		if preserve {
			copy(v.Offsets, oldO)
			copy(v.Lengths, oldL)
		}
	}
}

// Union selects exactly one branch per row: Tags[r] is the zero-based
// index of the active branch. Every branch vector spans the full batch;
// rows whose tag does not match a branch are ignored in that branch.
type Union struct {
	Column
	Tags   []int
	Fields []Vector
}

// NewUnion returns a Union vector over the given branch vectors.
func NewUnion(rows int, fields []Vector) *Union {
	return &Union{
		Column: Column{IsNull: make([]bool, rows), NoNulls: true},
		Tags:   make([]int, rows),
		Fields: fields,
	}
}

func (v *Union) Reset() {
	v.Column.Reset()
	for _, f := range v.Fields {
		f.Reset()
	}
}

func (v *Union) EnsureSize(rows int, preserve bool) {
	v.Column.EnsureSize(rows, preserve)
	if len(v.Tags) < rows {
		old := v.Tags
		v.Tags = make([]int, rows)
		if preserve {
			copy(v.Tags, old)
		}
	}
	for _, f := range v.Fields {
		f.EnsureSize(rows, preserve)
	}
}
