package treereader_test

import (
	"math/big"
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

func appendScales(scales ...int64) []byte {
	return encodetest.AppendDirectV2(nil, true, scales...)
}

func TestDecimalWide(t *testing.T) {
	schema := normalized(coltype.NewDecimal(22, 2))
	var data []byte
	data = encodetest.AppendVslong(data, 12345)
	data = encodetest.AppendVslong(data, 1234)
	data = encodetest.AppendVslong(data, 123456)
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), data).
		SetStream(name(0, stripemd.StreamSecondary), appendScales(2, 1, 3))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDecimal(3, 22, 2)
	require.NoError(t, r.NextVector(dv, nil, 3))
	require.Equal(t, 2, dv.Scale)
	// 123.45 stays; 123.4 upscales to 12340; 123.456 rounds half away
	// from zero to 123.46.
	require.Equal(t, int64(12345), dv.Values[0].Int64())
	require.Equal(t, int64(12340), dv.Values[1].Int64())
	require.Equal(t, int64(12346), dv.Values[2].Int64())
}

func TestDecimalWideOverlongValueDemotesRow(t *testing.T) {
	schema := normalized(coltype.NewDecimal(22, 2))
	var data []byte
	for i := 0; i < 35; i++ {
		data = append(data, 0x81)
	}
	data = append(data, 0x00) // terminates the overlong value
	data = encodetest.AppendVslong(data, 200)
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), data).
		SetStream(name(0, stripemd.StreamSecondary), appendScales(2, 2))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDecimal(2, 22, 2)
	require.NoError(t, r.NextVector(dv, nil, 2))
	require.False(t, dv.NoNulls)
	require.True(t, dv.IsNull[0])
	require.False(t, dv.IsNull[1])
	require.Equal(t, int64(200), dv.Values[1].Int64())
}

func TestDecimalWideOverflowDemotesRow(t *testing.T) {
	schema := normalized(coltype.NewDecimal(22, 2))
	huge := new(big.Int).Exp(big.NewInt(10), big.NewInt(23), nil)
	var data []byte
	data = encodetest.AppendVslong(data, 100)
	data = appendBigZigzag(data, huge)
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), data).
		SetStream(name(0, stripemd.StreamSecondary), appendScales(2, 2))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDecimal(2, 22, 2)
	require.NoError(t, r.NextVector(dv, nil, 2))
	require.False(t, dv.IsNull[0])
	require.True(t, dv.IsNull[1])
}

// appendBigZigzag appends a non-negative big integer in the zig-zag
// 7-bit group form.
func appendBigZigzag(dst []byte, v *big.Int) []byte {
	z := new(big.Int).Lsh(v, 1)
	var groups []byte
	mask := big.NewInt(0x7f)
	for {
		g := new(big.Int).And(z, mask)
		groups = append(groups, byte(g.Int64()))
		z.Rsh(z, 7)
		if z.Sign() == 0 {
			break
		}
	}
	return encodetest.AppendBigIntGroups(dst, groups)
}

func TestDecimalNarrowVector(t *testing.T) {
	schema := normalized(coltype.NewDecimal(10, 2))
	var data []byte
	data = encodetest.AppendVslong(data, 150)
	data = encodetest.AppendVslong(data, 7)
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), data).
		SetStream(name(0, stripemd.StreamSecondary), appendScales(2, 0))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDecimal64(2, 10, 2)
	require.NoError(t, r.NextVector(dv, nil, 2))
	require.Equal(t, int64(150), dv.Values[0])
	require.Equal(t, int64(700), dv.Values[1]) // upscaled from scale 0
}

func TestDecimalAllNullBatchConsumesNothing(t *testing.T) {
	schema := normalized(coltype.NewDecimal(22, 2))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{0, 0, 0, 1})).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendVslong(nil, 42)).
		SetStream(name(0, stripemd.StreamSecondary), appendScales(2))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDecimal(3, 22, 2)
	require.NoError(t, r.NextVector(dv, nil, 3))
	require.True(t, dv.IsRepeating)
	require.True(t, dv.IsNull[0])

	// The all-null batch must not have consumed the value written for the
	// fourth row.
	dv2 := vector.NewDecimal(1, 22, 2)
	require.NoError(t, r.NextVector(dv2, nil, 1))
	require.Equal(t, int64(42), dv2.Values[0].Int64())
}

func TestDecimal64PreReleaseFormat(t *testing.T) {
	schema := normalized(coltype.NewDecimal(10, 2))
	ctx := &treereader.Context{Version: stripemd.UnstablePre2}
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendDirectV2(nil, true, 12345, -6789))

	r := buildReader(t, schema, ctx)
	require.NoError(t, r.StartStripe(stripe))

	dv := vector.NewDecimal64(2, 10, 2)
	require.NoError(t, r.NextVector(dv, nil, 2))
	require.Equal(t, []int64{12345, -6789}, dv.Values)
	require.Equal(t, 2, dv.Scale)
}

func TestDecimal64PreReleaseRejectsDictionary(t *testing.T) {
	schema := normalized(coltype.NewDecimal(10, 2))
	ctx := &treereader.Context{Version: stripemd.UnstablePre2}
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), nil)

	r := buildReader(t, schema, ctx)
	require.ErrorIs(t, r.StartStripe(stripe), treereader.ErrEncodingMismatch)
}
