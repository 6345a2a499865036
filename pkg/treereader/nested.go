package treereader

import (
	"fmt"

	"github.com/columnobj/columnobj/pkg/encoding"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/vector"
)

// structReader fans rows out to one child reader per field. Fields of a
// null struct row are nulled through the ignore mask rather than their
// own presence bits.
type structReader struct {
	baseReader
	fields []TreeReader
}

func newStructReader(id int, ctx *Context, fields []TreeReader) *structReader {
	return &structReader{baseReader: newBaseReader(id, ctx), fields: fields}
}

// Fields exposes the child readers so a batch driver can fan a top-level
// struct's fields into separate batch columns.
func (r *structReader) Fields() []TreeReader { return r.fields }

func (r *structReader) StartStripe(planner StripePlanner) error {
	if err := checkEncoding(r.id, planner.Encoding(r.id),
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	for _, f := range r.fields {
		if err := f.StartStripe(planner); err != nil {
			return err
		}
	}
	return nil
}

func (r *structReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	sv := v.(*vector.Struct)
	col := sv.Base()
	if err := r.readNulls(col, ignore, rows); err != nil {
		return err
	}
	if !col.NoNulls && col.IsRepeating && col.IsNull[0] {
		return nil
	}
	col.IsRepeating = false

	var mask []bool
	if !col.NoNulls {
		mask = col.IsNull
	}
	for i, f := range r.fields {
		if err := f.NextVector(sv.Fields[i], mask, rows); err != nil {
			return err
		}
	}
	return nil
}

func (r *structReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	for _, f := range r.fields {
		if err := f.Seek(index); err != nil {
			return err
		}
	}
	return nil
}

func (r *structReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	for _, f := range r.fields {
		if err := f.SkipRows(n); err != nil {
			return err
		}
	}
	return nil
}

// listReader decodes variable-length collections: LENGTH sizes each row
// and the element reader is invoked once for the batch's aggregate child
// count. A list batch never repeats even when its lengths do.
type listReader struct {
	baseReader
	lengths encoding.IntReader
	element TreeReader
}

func newListReader(id int, ctx *Context, element TreeReader) *listReader {
	return &listReader{baseReader: newBaseReader(id, ctx), element: element}
}

func (r *listReader) StartStripe(planner StripePlanner) error {
	enc := planner.Encoding(r.id)
	if err := checkEncoding(r.id, enc,
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	s, err := openStream(planner, r.id, stripemd.StreamLength)
	if err != nil {
		return err
	}
	if r.lengths, err = encoding.NewIntReader(enc.Kind, s, false, r.ctx.SkipCorrupt); err != nil {
		return err
	}
	return r.element.StartStripe(planner)
}

func (r *listReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	lv := v.(*vector.List)
	col := lv.Base()
	if err := r.readNulls(col, ignore, rows); err != nil {
		return err
	}
	if !col.NoNulls && col.IsRepeating && col.IsNull[0] {
		return nil
	}
	if err := r.lengths.NextVector(col, lv.Lengths, rows); err != nil {
		return err
	}
	col.IsRepeating = false

	lv.ChildCount = 0
	for i := 0; i < rows; i++ {
		if col.NoNulls || !col.IsNull[i] {
			lv.Offsets[i] = int64(lv.ChildCount)
			lv.ChildCount += int(lv.Lengths[i])
		}
	}
	lv.Child.EnsureSize(lv.ChildCount, false)
	return r.element.NextVector(lv.Child, nil, lv.ChildCount)
}

func (r *listReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	if err := r.lengths.Seek(index[r.id]); err != nil {
		return err
	}
	return r.element.Seek(index)
}

func (r *listReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	var childSkip int64
	for i := int64(0); i < n; i++ {
		l, err := r.lengths.Next()
		if err != nil {
			return err
		}
		childSkip += l
	}
	return r.element.SkipRows(childSkip)
}

// mapReader decodes keyed collections: one LENGTH stream sizes both the
// key and value children, which are read in parallel over the batch's
// aggregate child count.
type mapReader struct {
	baseReader
	lengths encoding.IntReader
	keys    TreeReader
	values  TreeReader
}

func newMapReader(id int, ctx *Context, keys, values TreeReader) *mapReader {
	return &mapReader{baseReader: newBaseReader(id, ctx), keys: keys, values: values}
}

func (r *mapReader) StartStripe(planner StripePlanner) error {
	enc := planner.Encoding(r.id)
	if err := checkEncoding(r.id, enc,
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	s, err := openStream(planner, r.id, stripemd.StreamLength)
	if err != nil {
		return err
	}
	if r.lengths, err = encoding.NewIntReader(enc.Kind, s, false, r.ctx.SkipCorrupt); err != nil {
		return err
	}
	if err := r.keys.StartStripe(planner); err != nil {
		return err
	}
	return r.values.StartStripe(planner)
}

func (r *mapReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	mv := v.(*vector.Map)
	col := mv.Base()
	if err := r.readNulls(col, ignore, rows); err != nil {
		return err
	}
	if !col.NoNulls && col.IsRepeating && col.IsNull[0] {
		return nil
	}
	if err := r.lengths.NextVector(col, mv.Lengths, rows); err != nil {
		return err
	}
	col.IsRepeating = false

	mv.ChildCount = 0
	for i := 0; i < rows; i++ {
		if col.NoNulls || !col.IsNull[i] {
			mv.Offsets[i] = int64(mv.ChildCount)
			mv.ChildCount += int(mv.Lengths[i])
		}
	}
	mv.Keys.EnsureSize(mv.ChildCount, false)
	mv.Values.EnsureSize(mv.ChildCount, false)
	if err := r.keys.NextVector(mv.Keys, nil, mv.ChildCount); err != nil {
		return err
	}
	return r.values.NextVector(mv.Values, nil, mv.ChildCount)
}

func (r *mapReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	if err := r.lengths.Seek(index[r.id]); err != nil {
		return err
	}
	if err := r.keys.Seek(index); err != nil {
		return err
	}
	return r.values.Seek(index)
}

func (r *mapReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	var childSkip int64
	for i := int64(0); i < n; i++ {
		l, err := r.lengths.Next()
		if err != nil {
			return err
		}
		childSkip += l
	}
	if err := r.keys.SkipRows(childSkip); err != nil {
		return err
	}
	return r.values.SkipRows(childSkip)
}

// unionReader decodes tagged variants: DATA carries one byte tag per row
// selecting the active branch. Every branch reads the full batch with an
// ignore mask hiding rows that belong elsewhere, so each branch vector
// stays row-aligned with the union.
type unionReader struct {
	baseReader
	tags      *encoding.ByteRunReader
	fields    []TreeReader
	ignoreBuf []bool
}

func newUnionReader(id int, ctx *Context, fields []TreeReader) *unionReader {
	return &unionReader{baseReader: newBaseReader(id, ctx), fields: fields}
}

func (r *unionReader) StartStripe(planner StripePlanner) error {
	if err := checkEncoding(r.id, planner.Encoding(r.id),
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	s, err := openStream(planner, r.id, stripemd.StreamData)
	if err != nil {
		return err
	}
	r.tags = encoding.NewByteRunReader(s)
	for _, f := range r.fields {
		if err := f.StartStripe(planner); err != nil {
			return err
		}
	}
	return nil
}

func (r *unionReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	uv := v.(*vector.Union)
	col := uv.Base()
	if err := r.readNulls(col, ignore, rows); err != nil {
		return err
	}
	if !col.NoNulls && col.IsRepeating && col.IsNull[0] {
		return nil
	}
	col.IsRepeating = false

	var mask []bool
	if !col.NoNulls {
		mask = col.IsNull
	}
	if err := r.tags.NextTags(mask, uv.Tags, rows); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if (mask == nil || !mask[i]) && uv.Tags[i] >= len(r.fields) {
			return fmt.Errorf("column %d: union tag %d out of range [0,%d)",
				r.id, uv.Tags[i], len(r.fields))
		}
	}

	if cap(r.ignoreBuf) < rows {
		r.ignoreBuf = make([]bool, rows)
	}
	branchIgnore := r.ignoreBuf[:rows]
	for f, field := range r.fields {
		for i := 0; i < rows; i++ {
			branchIgnore[i] = (!col.NoNulls && col.IsNull[i]) || uv.Tags[i] != f
		}
		if err := field.NextVector(uv.Fields[f], branchIgnore, rows); err != nil {
			return err
		}
	}
	return nil
}

func (r *unionReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	if err := r.tags.Seek(index[r.id]); err != nil {
		return err
	}
	for _, f := range r.fields {
		if err := f.Seek(index); err != nil {
			return err
		}
	}
	return nil
}

func (r *unionReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	counts := make([]int64, len(r.fields))
	for i := int64(0); i < n; i++ {
		tag, err := r.tags.Next()
		if err != nil {
			return err
		}
		if int(tag) >= len(r.fields) {
			return fmt.Errorf("column %d: union tag %d out of range [0,%d)",
				r.id, tag, len(r.fields))
		}
		counts[tag]++
	}
	for i, f := range r.fields {
		if err := f.SkipRows(counts[i]); err != nil {
			return err
		}
	}
	return nil
}
