package treereader_test

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/columnobj/columnobj/pkg/coltype"
	"github.com/columnobj/columnobj/pkg/encoding/encodetest"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/striperead"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/treereader"
	"github.com/columnobj/columnobj/pkg/vector"
)

func normalized(d *coltype.Description) *coltype.Description {
	d.Normalize()
	return d
}

// buildReader builds a tree for schema reading a file of the same schema.
func buildReader(t *testing.T, schema *coltype.Description, ctx *treereader.Context) treereader.TreeReader {
	t.Helper()
	if ctx == nil {
		ctx = &treereader.Context{}
	}
	r, err := treereader.NewTreeReader(schema, schema, ctx)
	require.NoError(t, err)
	return r
}

func directV2() stripemd.ColumnEncoding {
	return stripemd.ColumnEncoding{Kind: stripemd.EncodingDirectV2}
}

func name(column int, kind stripemd.StreamKind) stripemd.StreamName {
	return stripemd.StreamName{Column: column, Kind: kind}
}

func TestIntegerColumn(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Long))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendDirectV2(nil, true, 1, -2, 3, -4, 5))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	lv := vector.NewLong(5)
	require.NoError(t, r.NextVector(lv, nil, 5))
	require.True(t, lv.NoNulls)
	require.Equal(t, []int64{1, -2, 3, -4, 5}, lv.Values)
}

func TestIntegerColumnVersion1Encoding(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Int))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendIntRunV1(nil, 100, 10, 5, true))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	lv := vector.NewLong(5)
	require.NoError(t, r.NextVector(lv, nil, 5))
	require.Equal(t, []int64{100, 110, 120, 130, 140}, lv.Values)
}

func TestPresenceOverlay(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Long))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{1, 0, 1, 0, 1})).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendDirectV2(nil, true, 10, 20, 30))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	lv := vector.NewLong(5)
	require.NoError(t, r.NextVector(lv, nil, 5))
	require.False(t, lv.NoNulls)
	require.False(t, lv.IsRepeating)
	require.Equal(t, []bool{false, true, false, true, false}, lv.IsNull)
	require.Equal(t, int64(10), lv.Values[0])
	require.Equal(t, int64(20), lv.Values[2])
	require.Equal(t, int64(30), lv.Values[4])
}

func TestPresenceConsumedOnlyForUnignoredRows(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Long))
	// Three presence bits for the three rows the parent did not null.
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{1, 0, 1})).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendDirectV2(nil, true, 7, 9))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	lv := vector.NewLong(5)
	ignore := []bool{false, true, false, true, false}
	require.NoError(t, r.NextVector(lv, ignore, 5))
	require.Equal(t, []bool{false, true, true, true, false}, lv.IsNull)
	require.Equal(t, int64(7), lv.Values[0])
	require.Equal(t, int64(9), lv.Values[4])
}

func TestAllNullBatchRepeats(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Long))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{0, 0, 0, 0})).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendDirectV2(nil, true, 99))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	lv := vector.NewLong(4)
	require.NoError(t, r.NextVector(lv, nil, 4))
	require.False(t, lv.NoNulls)
	require.True(t, lv.IsRepeating)
	require.True(t, lv.IsNull[0])
}

func TestBooleanColumn(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Boolean))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendPackedBits(nil, []int{1, 0, 1, 1, 0, 0, 1, 0}))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	lv := vector.NewLong(8)
	require.NoError(t, r.NextVector(lv, nil, 8))
	require.Equal(t, []int64{1, 0, 1, 1, 0, 0, 1, 0}, lv.Values)
}

func TestByteColumn(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Byte))
	var data []byte
	data = encodetest.AppendByteRun(data, 0x11, 3)
	data = encodetest.AppendByteLiterals(data, 0x22, 0xff, 0x80)
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetStream(name(0, stripemd.StreamData), data)

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	// Tinyint is a signed category: high-bit bytes decode negative.
	lv := vector.NewLong(6)
	require.NoError(t, r.NextVector(lv, nil, 6))
	require.Equal(t, []int64{0x11, 0x11, 0x11, 0x22, -1, -128}, lv.Values)
}

func TestFloatColumn(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Float))
	var data []byte
	for _, f := range []float32{1.5, -2.25, 3.75} {
		data = encodetest.AppendFloat32LE(data, f)
	}
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{1, 1, 0, 1})).
		SetStream(name(0, stripemd.StreamData), data)

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDouble(4)
	require.NoError(t, r.NextVector(dv, nil, 4))
	require.False(t, dv.IsRepeating)
	require.Equal(t, 1.5, dv.Values[0])
	require.Equal(t, -2.25, dv.Values[1])
	require.True(t, math.IsNaN(dv.Values[2]))
	require.Equal(t, 3.75, dv.Values[3])
}

func TestDoubleColumnRepeatDetection(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Double))
	var data []byte
	for i := 0; i < 4; i++ {
		data = encodetest.AppendFloat64LE(data, 6.25)
	}
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetStream(name(0, stripemd.StreamData), data)

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDouble(4)
	require.NoError(t, r.NextVector(dv, nil, 4))
	require.True(t, dv.IsRepeating)
	require.Equal(t, 6.25, dv.Values[0])
}

func TestAllNullFloatBatch(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Double))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{0, 0, 0})).
		SetStream(name(0, stripemd.StreamData), nil)

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDouble(3)
	require.NoError(t, r.NextVector(dv, nil, 3))
	require.True(t, dv.IsRepeating)
	require.True(t, math.IsNaN(dv.Values[0]))
}

func TestSkipRowsWithNulls(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Long))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{1, 0, 1, 1, 1, 1})).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendDirectV2(nil, true, 10, 20, 30, 40, 50))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	// Rows 0..2 hold values 10 and 20 around a null; skipping them must
	// consume exactly two values.
	require.NoError(t, r.SkipRows(3))

	lv := vector.NewLong(3)
	require.NoError(t, r.NextVector(lv, nil, 3))
	require.Equal(t, []int64{30, 40, 50}, lv.Values[:3])
}

func TestSeekIntegerColumn(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Long))
	data := encodetest.AppendDirectV2(nil, true, 10, 20, 30, 40, 50)
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), data)

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	lv := vector.NewLong(5)
	require.NoError(t, r.NextVector(lv, nil, 5))

	// Rewind to row 3: run start offset 0, three values consumed.
	index := []*streamio.PositionProvider{
		streamio.NewPositionProvider([]uint64{0, 3}),
	}
	require.NoError(t, r.Seek(index))
	require.NoError(t, r.NextVector(lv, nil, 2))
	require.Equal(t, []int64{40, 50}, lv.Values[:2])
}

func TestEncodingMismatchFails(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Long))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, stripemd.ColumnEncoding{Kind: stripemd.EncodingDictionaryV2}).
		SetStream(name(0, stripemd.StreamData), nil)

	r := buildReader(t, schema, nil)
	require.ErrorIs(t, r.StartStripe(stripe), treereader.ErrEncodingMismatch)
}

func TestMissingDataStreamFails(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Long))
	stripe := striperead.NewStripe(streamio.CodecNone).SetEncoding(0, directV2())

	r := buildReader(t, schema, nil)
	require.ErrorIs(t, r.StartStripe(stripe), io.ErrUnexpectedEOF)
}
