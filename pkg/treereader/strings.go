package treereader

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/columnobj/columnobj/pkg/encoding"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/vector"
)

// binaryReader decodes variable-length byte values: a LENGTH run-length
// stream sizing each row and a DATA stream of concatenated bodies.
type binaryReader struct {
	baseReader
	data    streamio.Stream
	lengths encoding.IntReader
	lenBuf  []int64
	blob    []byte
}

func newBinaryReader(id int, ctx *Context) *binaryReader {
	return &binaryReader{baseReader: newBaseReader(id, ctx)}
}

func (r *binaryReader) StartStripe(planner StripePlanner) error {
	enc := planner.Encoding(r.id)
	if err := checkEncoding(r.id, enc,
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	var err error
	if r.data, err = openStream(planner, r.id, stripemd.StreamData); err != nil {
		return err
	}
	s, err := openStream(planner, r.id, stripemd.StreamLength)
	if err != nil {
		return err
	}
	r.lengths, err = encoding.NewIntReader(enc.Kind, s, false, r.ctx.SkipCorrupt)
	return err
}

func (r *binaryReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	bv := v.(*vector.Bytes)
	if err := r.readNulls(bv.Base(), ignore, rows); err != nil {
		return err
	}
	return r.readContents(bv, rows)
}

// readContents reads each non-null row's length, then all bodies as one
// blob sliced back out per row. Values alias the batch blob and are valid
// until the next read.
func (r *binaryReader) readContents(bv *vector.Bytes, rows int) error {
	col := bv.Base()
	if cap(r.lenBuf) < rows {
		r.lenBuf = make([]int64, rows)
	}
	lens := r.lenBuf[:rows]

	var total int64
	for i := 0; i < rows; i++ {
		if !col.NoNulls && col.IsNull[i] {
			bv.Values[i] = nil
			continue
		}
		l, err := r.lengths.Next()
		if err != nil {
			return fmt.Errorf("column %d: reading length: %w", r.id, err)
		}
		if l < 0 {
			return fmt.Errorf("column %d: negative value length %d", r.id, l)
		}
		lens[i] = l
		total += l
	}

	if int64(cap(r.blob)) < total {
		r.blob = make([]byte, total)
	}
	blob := r.blob[:total]
	if _, err := io.ReadFull(r.data, blob); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("column %d: reading %d value bytes: %w", r.id, total, err)
	}

	var off int64
	for i := 0; i < rows; i++ {
		if !col.NoNulls && col.IsNull[i] {
			continue
		}
		bv.Values[i] = blob[off : off+lens[i]]
		off += lens[i]
	}
	return nil
}

func (r *binaryReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	if err := r.data.Seek(index[r.id]); err != nil {
		return err
	}
	return r.lengths.Seek(index[r.id])
}

func (r *binaryReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	var bytes int64
	for i := int64(0); i < n; i++ {
		l, err := r.lengths.Next()
		if err != nil {
			return err
		}
		bytes += l
	}
	return skipFully(r.data, bytes)
}

// stringDirectReader decodes direct-encoded strings; the wire layout is
// identical to binary.
type stringDirectReader struct {
	binaryReader
}

func newStringDirectReader(id int, ctx *Context) *stringDirectReader {
	return &stringDirectReader{binaryReader{baseReader: newBaseReader(id, ctx)}}
}

// stringDictionaryReader decodes dictionary-encoded strings: per-stripe
// blob and offset table, with DATA carrying one dictionary code per row.
type stringDictionaryReader struct {
	baseReader
	refs    encoding.IntReader
	offsets []int64
	blob    []byte
	refBuf  []int64
}

func newStringDictionaryReader(id int, ctx *Context) *stringDictionaryReader {
	return &stringDictionaryReader{baseReader: newBaseReader(id, ctx)}
}

func (r *stringDictionaryReader) StartStripe(planner StripePlanner) error {
	enc := planner.Encoding(r.id)
	if err := checkEncoding(r.id, enc,
		stripemd.EncodingDictionary, stripemd.EncodingDictionaryV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	if err := r.readDictionary(planner, enc); err != nil {
		return err
	}
	s, err := openStream(planner, r.id, stripemd.StreamData)
	if err != nil {
		return err
	}
	r.refs, err = encoding.NewIntReader(enc.Kind, s, false, r.ctx.SkipCorrupt)
	return err
}

// readDictionary rebuilds the stripe's dictionary: the LENGTH stream
// yields a size+1 offset table and DICTIONARY_DATA the backing blob. An
// all-null stripe may omit both.
func (r *stringDictionaryReader) readDictionary(planner StripePlanner, enc stripemd.ColumnEncoding) error {
	size := enc.DictionarySize
	r.offsets = make([]int64, size+1)
	r.blob = nil

	if size > 0 {
		s, err := openStream(planner, r.id, stripemd.StreamLength)
		if err != nil {
			return err
		}
		lengths, err := encoding.NewIntReader(enc.Kind, s, false, r.ctx.SkipCorrupt)
		if err != nil {
			return err
		}
		for i := 0; i < size; i++ {
			l, err := lengths.Next()
			if err != nil {
				return fmt.Errorf("column %d: reading dictionary lengths: %w", r.id, err)
			}
			if l < 0 {
				return fmt.Errorf("column %d: negative dictionary entry length %d", r.id, l)
			}
			r.offsets[i+1] = r.offsets[i] + l
		}
	}

	ds, err := planner.Stream(stripemd.StreamName{Column: r.id, Kind: stripemd.StreamDictionaryData})
	if err != nil {
		return err
	}
	if ds != nil {
		if r.blob, err = streamio.ReadAll(ds); err != nil {
			return err
		}
	}
	if size > 0 && r.offsets[size] > int64(len(r.blob)) {
		return fmt.Errorf("column %d: dictionary offsets span %d bytes but blob holds %d",
			r.id, r.offsets[size], len(r.blob))
	}
	return nil
}

func (r *stringDictionaryReader) lookup(code int64) ([]byte, error) {
	if code < 0 || code >= int64(len(r.offsets)-1) {
		return nil, fmt.Errorf("column %d: dictionary code %d out of range [0,%d)",
			r.id, code, len(r.offsets)-1)
	}
	return r.blob[r.offsets[code]:r.offsets[code+1]], nil
}

func (r *stringDictionaryReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	bv := v.(*vector.Bytes)
	col := bv.Base()
	if err := r.readNulls(col, ignore, rows); err != nil {
		return err
	}
	if rows == 0 {
		return nil
	}

	if len(r.offsets) <= 1 {
		// The whole stripe is null strings; leave a harmless empty
		// reference behind the repeating null.
		col.IsRepeating = true
		col.NoNulls = false
		col.IsNull[0] = true
		bv.Values[0] = []byte{}
		return nil
	}

	if cap(r.refBuf) < rows {
		r.refBuf = make([]int64, rows)
	}
	refs := r.refBuf[:rows]

	// Decode codes through a scratch column sharing the null mask so the
	// run decoder's repeat detection carries over to the strings.
	scratch := vector.Column{IsNull: col.IsNull, NoNulls: col.NoNulls}
	if err := r.refs.NextVector(&scratch, refs, rows); err != nil {
		return err
	}

	if scratch.IsRepeating {
		col.IsRepeating = true
		if col.NoNulls || !col.IsNull[0] {
			val, err := r.lookup(refs[0])
			if err != nil {
				return err
			}
			bv.Values[0] = val
		}
		return nil
	}
	col.IsRepeating = false
	for i := 0; i < rows; i++ {
		if !col.NoNulls && col.IsNull[i] {
			bv.Values[i] = nil
			continue
		}
		val, err := r.lookup(refs[i])
		if err != nil {
			return err
		}
		bv.Values[i] = val
	}
	return nil
}

func (r *stringDictionaryReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	return r.refs.Seek(index[r.id])
}

func (r *stringDictionaryReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	return r.refs.Skip(n)
}

// stringReader delegates to a direct or dictionary sub-reader chosen by
// each stripe's declared encoding; a file may switch between them from
// stripe to stripe.
type stringReader struct {
	id  int
	ctx *Context
	cur TreeReader
}

func newStringReader(id int, ctx *Context) *stringReader {
	return &stringReader{id: id, ctx: ctx}
}

func (r *stringReader) ColumnID() int { return r.id }

func (r *stringReader) StartStripe(planner StripePlanner) error {
	switch kind := planner.Encoding(r.id).Kind; kind {
	case stripemd.EncodingDirect, stripemd.EncodingDirectV2:
		r.cur = newStringDirectReader(r.id, r.ctx)
	case stripemd.EncodingDictionary, stripemd.EncodingDictionaryV2:
		r.cur = newStringDictionaryReader(r.id, r.ctx)
	default:
		return fmt.Errorf("column %d: encoding %s: %w", r.id, kind, ErrEncodingMismatch)
	}
	return r.cur.StartStripe(planner)
}

func (r *stringReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	return r.cur.NextVector(v, ignore, rows)
}

func (r *stringReader) Seek(index []*streamio.PositionProvider) error {
	return r.cur.Seek(index)
}

func (r *stringReader) SkipRows(rows int64) error {
	return r.cur.SkipRows(rows)
}

// charReader reads like a string column, then right-trims padding spaces
// and enforces the declared character length.
type charReader struct {
	*stringReader
	maxLength int
}

func newCharReader(id int, ctx *Context, maxLength int) *charReader {
	return &charReader{stringReader: newStringReader(id, ctx), maxLength: maxLength}
}

func (r *charReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	if err := r.stringReader.NextVector(v, ignore, rows); err != nil {
		return err
	}
	bv := v.(*vector.Bytes)
	applyLength(bv, rows, func(b []byte) []byte {
		return rightTrimSpaces(truncateChars(b, r.maxLength))
	})
	return nil
}

// varcharReader reads like a string column, then enforces the declared
// character length.
type varcharReader struct {
	*stringReader
	maxLength int
}

func newVarcharReader(id int, ctx *Context, maxLength int) *varcharReader {
	return &varcharReader{stringReader: newStringReader(id, ctx), maxLength: maxLength}
}

func (r *varcharReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	if err := r.stringReader.NextVector(v, ignore, rows); err != nil {
		return err
	}
	bv := v.(*vector.Bytes)
	applyLength(bv, rows, func(b []byte) []byte {
		return truncateChars(b, r.maxLength)
	})
	return nil
}

// applyLength rewrites each materialized value in place; a repeating
// vector only carries slot 0.
func applyLength(bv *vector.Bytes, rows int, fn func([]byte) []byte) {
	col := bv.Base()
	if col.IsRepeating {
		rows = 1
	}
	for i := 0; i < rows; i++ {
		if !col.NoNulls && col.IsNull[i] {
			continue
		}
		bv.Values[i] = fn(bv.Values[i])
	}
}

// truncateChars limits a UTF-8 value to maxChars code points.
func truncateChars(b []byte, maxChars int) []byte {
	count := 0
	for i := 0; i < len(b); {
		if count == maxChars {
			return b[:i]
		}
		_, size := utf8.DecodeRune(b[i:])
		i += size
		count++
	}
	return b
}

func rightTrimSpaces(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}
	return b
}
