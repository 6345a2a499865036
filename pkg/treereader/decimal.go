package treereader

import (
	"fmt"
	"math/big"

	"github.com/columnobj/columnobj/pkg/coltype"
	"github.com/columnobj/columnobj/pkg/encoding"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/vector"
)

// decimalReader decodes the wide decimal format: DATA carries zig-zag
// big integers and SECONDARY a per-value scale. Values that cannot be
// represented at the column's precision demote their row to null.
type decimalReader struct {
	baseReader
	precision int
	scale     int
	values    streamio.Stream
	scales    encoding.IntReader
	scaleBuf  []int64
	bound     *big.Int // 10^precision
}

func newDecimalReader(id int, ctx *Context, precision, scale int) *decimalReader {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil)
	return &decimalReader{
		baseReader: newBaseReader(id, ctx),
		precision:  precision,
		scale:      scale,
		bound:      bound,
	}
}

func (r *decimalReader) StartStripe(planner StripePlanner) error {
	enc := planner.Encoding(r.id)
	if err := checkEncoding(r.id, enc,
		stripemd.EncodingDirect, stripemd.EncodingDirectV2); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	var err error
	if r.values, err = openStream(planner, r.id, stripemd.StreamData); err != nil {
		return err
	}
	s, err := openStream(planner, r.id, stripemd.StreamSecondary)
	if err != nil {
		return err
	}
	r.scales, err = encoding.NewIntReader(enc.Kind, s, true, r.ctx.SkipCorrupt)
	return err
}

// readScales fills scaleBuf for the non-null rows.
func (r *decimalReader) readScales(col *vector.Column, rows int) error {
	if cap(r.scaleBuf) < rows {
		r.scaleBuf = make([]int64, rows)
	}
	for i := 0; i < rows; i++ {
		if !col.NoNulls && col.IsNull[i] {
			r.scaleBuf[i] = 0
			continue
		}
		s, err := r.scales.Next()
		if err != nil {
			return fmt.Errorf("column %d: reading scale: %w", r.id, err)
		}
		r.scaleBuf[i] = s
	}
	return nil
}

func (r *decimalReader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	switch dv := v.(type) {
	case *vector.Decimal:
		if err := r.readNulls(dv.Base(), ignore, rows); err != nil {
			return err
		}
		return r.readWide(dv, rows)
	case *vector.Decimal64:
		if err := r.readNulls(dv.Base(), ignore, rows); err != nil {
			return err
		}
		return r.readNarrow(dv, rows)
	}
	return fmt.Errorf("column %d: decimal read into %T", r.id, v)
}

func (r *decimalReader) readWide(dv *vector.Decimal, rows int) error {
	col := dv.Base()
	dv.Precision, dv.Scale = r.precision, r.scale
	if col.IsRepeating && !col.NoNulls && col.IsNull[0] {
		// All null, nothing was written.
		return nil
	}
	if err := r.readScales(col, rows); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if !col.NoNulls && col.IsNull[i] {
			continue
		}
		val, err := encoding.ReadBigInt(r.values)
		if err == encoding.ErrBigIntTooLong {
			col.IsNull[i] = true
			col.NoNulls = false
			continue
		}
		if err != nil {
			return fmt.Errorf("column %d: reading decimal: %w", r.id, err)
		}
		rescaleBig(val, int(r.scaleBuf[i]), r.scale)
		if val.CmpAbs(r.bound) >= 0 {
			col.IsNull[i] = true
			col.NoNulls = false
			continue
		}
		dv.Values[i] = val
	}
	return nil
}

func (r *decimalReader) readNarrow(dv *vector.Decimal64, rows int) error {
	if r.precision > coltype.MaxDecimal64Precision {
		return fmt.Errorf("column %d: precision %d too large for narrow decimals", r.id, r.precision)
	}
	col := dv.Base()
	dv.Precision, dv.Scale = r.precision, r.scale
	if col.IsRepeating && !col.NoNulls && col.IsNull[0] {
		return nil
	}
	if err := r.readScales(col, rows); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if !col.NoNulls && col.IsNull[i] {
			continue
		}
		val, err := encoding.ReadVslong(r.values)
		if err != nil {
			return fmt.Errorf("column %d: reading decimal: %w", r.id, err)
		}
		for s := int(r.scaleBuf[i]); s < r.scale; s++ {
			val *= 10
		}
		dv.Values[i] = val
	}
	return nil
}

func (r *decimalReader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	if err := r.values.Seek(index[r.id]); err != nil {
		return err
	}
	return r.scales.Seek(index[r.id])
}

func (r *decimalReader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	for i := int64(0); i < n; i++ {
		if _, err := encoding.ReadBigInt(r.values); err != nil && err != encoding.ErrBigIntTooLong {
			return err
		}
	}
	return r.scales.Skip(n)
}

// rescaleBig adjusts an unscaled value in place from one scale to
// another, rounding half away from zero when the scale shrinks.
func rescaleBig(v *big.Int, from, to int) {
	diff := to - from
	if diff == 0 {
		return
	}
	if diff > 0 {
		v.Mul(v, pow10Big(diff))
		return
	}
	d := pow10Big(-diff)
	rem := new(big.Int)
	v.QuoRem(v, d, rem)
	rem.Abs(rem)
	rem.Lsh(rem, 1)
	if rem.Cmp(d) >= 0 {
		if v.Sign() < 0 {
			v.Sub(v, bigOne)
		} else {
			v.Add(v, bigOne)
		}
	}
}

var bigOne = big.NewInt(1)

func pow10Big(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// decimal64Reader decodes the narrow decimal format used by pre-release
// files: DATA is a plain signed integer run at the column's fixed scale,
// with no per-value scale stream.
type decimal64Reader struct {
	baseReader
	precision int
	scale     int
	values    *encoding.IntReaderV2
}

func newDecimal64Reader(id int, ctx *Context, precision, scale int) *decimal64Reader {
	return &decimal64Reader{
		baseReader: newBaseReader(id, ctx),
		precision:  precision,
		scale:      scale,
	}
}

func (r *decimal64Reader) StartStripe(planner StripePlanner) error {
	if err := checkEncoding(r.id, planner.Encoding(r.id), stripemd.EncodingDirect); err != nil {
		return err
	}
	if err := r.startPresent(planner); err != nil {
		return err
	}
	s, err := openStream(planner, r.id, stripemd.StreamData)
	if err != nil {
		return err
	}
	r.values = encoding.NewIntReaderV2(s, true, r.ctx.SkipCorrupt)
	return nil
}

func (r *decimal64Reader) NextVector(v vector.Vector, ignore []bool, rows int) error {
	switch dv := v.(type) {
	case *vector.Decimal64:
		col := dv.Base()
		if err := r.readNulls(col, ignore, rows); err != nil {
			return err
		}
		dv.Precision, dv.Scale = r.precision, r.scale
		return r.values.NextVector(col, dv.Values, rows)
	case *vector.Decimal:
		col := dv.Base()
		if err := r.readNulls(col, ignore, rows); err != nil {
			return err
		}
		dv.Precision, dv.Scale = r.precision, r.scale
		if col.IsRepeating && !col.NoNulls && col.IsNull[0] {
			return nil
		}
		for i := 0; i < rows; i++ {
			if !col.NoNulls && col.IsNull[i] {
				continue
			}
			val, err := r.values.Next()
			if err != nil {
				return fmt.Errorf("column %d: reading decimal: %w", r.id, err)
			}
			dv.Values[i] = big.NewInt(val)
		}
		return nil
	}
	return fmt.Errorf("column %d: decimal read into %T", r.id, v)
}

func (r *decimal64Reader) Seek(index []*streamio.PositionProvider) error {
	if err := r.seekPresent(index); err != nil {
		return err
	}
	return r.values.Seek(index[r.id])
}

func (r *decimal64Reader) SkipRows(rows int64) error {
	n, err := r.countNonNulls(rows)
	if err != nil {
		return err
	}
	return r.values.Skip(n)
}
