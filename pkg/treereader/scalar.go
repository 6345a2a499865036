package treereader

import (
	"fmt"
	"io"
	"math"

	"github.com/columnobj/columnobj/pkg/encoding"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/vector"
)

// openStream opens a required stream for a column, failing when the
// stripe does not carry it.
func openStream(planner StripePlanner, column int, kind stripemd.StreamKind) (streamio.Stream, error) {
	s, err := planner.Stream(stripemd.StreamName{Column: column, Kind: kind})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("column %d: stripe has no %s stream: %w", column, kind, io.ErrUnexpectedEOF)
	}
	return s, nil
}

// skipFully discards exactly n bytes from a stream.
func skipFully(s streamio.Stream, n int64) error {
	for n > 0 {
		k, err := s.Skip(n)
		if err != nil {
			return err
		}
		if k == 0 {
			return io.ErrUnexpectedEOF
		}
		n -= k
	}
	return nil
}

// booleanReader decodes a bit-packed boolean column into a Long vector.
type booleanReader struct {
	baseReader
	data *encoding.BitFieldReader
}

func newBooleanReader(id int, ctx *Context) *booleanReader {
	return &booleanReader{baseReader: newBaseReader(id, ctx)}
}

func (r *booleanReader) StartStripe(planner StripePlanner) error {
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
	r.data = encoding.NewBitFieldReader(s)
	return nil
}

func (r *booleanReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	lv := v.(*vector.Long)
	if err := r.readNulls(lv.Base(), ignore, rows); err != nil {
		return err
	}
	return r.data.NextVector(lv.Base(), lv.Values, rows)
}

func (r *booleanReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	return r.data.Seek(index[r.id])
}

func (r *booleanReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	return r.data.Skip(n)
}

// byteReader decodes a byte run-length column into a Long vector.
type byteReader struct {
	baseReader
	data *encoding.ByteRunReader
}

func newByteReader(id int, ctx *Context) *byteReader {
	return &byteReader{baseReader: newBaseReader(id, ctx)}
}

func (r *byteReader) StartStripe(planner StripePlanner) error {
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
	r.data = encoding.NewByteRunReader(s)
	return nil
}

func (r *byteReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	lv := v.(*vector.Long)
	if err := r.readNulls(lv.Base(), ignore, rows); err != nil {
		return err
	}
	return r.data.NextVector(lv.Base(), lv.Values, rows)
}

func (r *byteReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	return r.data.Seek(index[r.id])
}

func (r *byteReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	return r.data.Skip(n)
}

// integerReader decodes short, int, long and date columns, which share
// the signed run-length integer format.
type integerReader struct {
	baseReader
	data encoding.IntReader
}

func newIntegerReader(id int, ctx *Context) *integerReader {
	return &integerReader{baseReader: newBaseReader(id, ctx)}
}

func (r *integerReader) StartStripe(planner StripePlanner) error {
	enc := planner.Encoding(r.id)
	if err := checkEncoding(r.id, enc,
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
	r.data, err = encoding.NewIntReader(enc.Kind, s, true, r.ctx.SkipCorrupt)
	return err
}

func (r *integerReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	lv := v.(*vector.Long)
	if err := r.readNulls(lv.Base(), ignore, rows); err != nil {
		return err
	}
	return r.data.NextVector(lv.Base(), lv.Values, rows)
}

func (r *integerReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	return r.data.Seek(index[r.id])
}

func (r *integerReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	return r.data.Skip(n)
}

// floatReader decodes raw little-endian 32-bit floats, widened to
// float64. Null slots are filled with NaN.
type floatReader struct {
	baseReader
	data streamio.Stream
	dec  encoding.FloatDecoder
}

func newFloatReader(id int, ctx *Context) *floatReader {
	return &floatReader{baseReader: newBaseReader(id, ctx)}
}

func (r *floatReader) StartStripe(planner StripePlanner) error {
	if err := checkEncoding(r.id, planner.Encoding(r.id),
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	var err error
	r.data, err = openStream(planner, r.id, stripemd.StreamData)
	return err
}

func (r *floatReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	dv := v.(*vector.Double)
	if err := r.readNulls(dv.Base(), ignore, rows); err != nil {
		return err
	}
	return readFloats(dv, rows, func() (float64, error) { return r.dec.ReadFloat(r.data) })
}

func (r *floatReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	return r.data.Seek(index[r.id])
}

func (r *floatReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	return skipFully(r.data, n*4)
}

// doubleReader decodes raw little-endian 64-bit floats.
type doubleReader struct {
	baseReader
	data streamio.Stream
	dec  encoding.FloatDecoder
}

func newDoubleReader(id int, ctx *Context) *doubleReader {
	return &doubleReader{baseReader: newBaseReader(id, ctx)}
}

func (r *doubleReader) StartStripe(planner StripePlanner) error {
	if err := checkEncoding(r.id, planner.Encoding(r.id),
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	var err error
	r.data, err = openStream(planner, r.id, stripemd.StreamData)
	return err
}

func (r *doubleReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	dv := v.(*vector.Double)
	if err := r.readNulls(dv.Base(), ignore, rows); err != nil {
		return err
	}
	return readFloats(dv, rows, func() (float64, error) { return r.dec.ReadDouble(r.data) })
}

func (r *doubleReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	return r.data.Seek(index[r.id])
}

func (r *doubleReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	return skipFully(r.data, n*8)
}

// readFloats fills a Double vector from a per-value read function. An
// all-null batch collapses to a repeating NaN; a batch with some nulls
// fills null slots with NaN and never repeats; a batch with no nulls
// detects repetition on bit-identical values in one pass.
func readFloats(dv *vector.Double, rows int, read func() (float64, error)) error {
	if rows == 0 {
		return nil
	}
	col := dv.Base()
	if col.NoNulls {
		first, err := read()
		if err != nil {
			return err
		}
		dv.Values[0] = first
		repeating := rows > 1
		firstBits := math.Float64bits(first)
		for i := 1; i < rows; i++ {
			f, err := read()
			if err != nil {
				return err
			}
			dv.Values[i] = f
			repeating = repeating && firstBits == math.Float64bits(f)
		}
		col.IsRepeating = repeating
		return nil
	}

	allNull := true
	for i := 0; i < rows; i++ {
		if !col.IsNull[i] {
			allNull = false
			break
		}
	}
	if allNull {
		dv.Values[0] = math.NaN()
		col.IsRepeating = true
		return nil
	}
	col.IsRepeating = false
	for i := 0; i < rows; i++ {
		if col.IsNull[i] {
			dv.Values[i] = math.NaN()
			continue
		}
		f, err := read()
		if err != nil {
			return err
		}
		dv.Values[i] = f
	}
	return nil
}
