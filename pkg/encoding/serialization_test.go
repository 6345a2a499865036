package encoding_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/columnobj/columnobj/pkg/encoding"
	"github.com/columnobj/columnobj/pkg/encoding/encodetest"
	"github.com/columnobj/columnobj/pkg/streamio"
)

func TestVulongRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16383, 16384, 1 << 40, math.MaxUint64}

	var buf []byte
	for _, v := range values {
		buf = encodetest.AppendVulong(buf, v)
	}

	in := streamio.NewMemoryStream(buf)
	for _, want := range values {
		got, err := encoding.ReadVulong(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.Equal(t, 0, in.Available())
}

func TestVslongRoundTrip(t *testing.T) {
	values := []int64{0, -1, 1, -64, 64, 8191, -8192, math.MaxInt64, math.MinInt64}

	var buf []byte
	for _, v := range values {
		buf = encodetest.AppendVslong(buf, v)
	}

	in := streamio.NewMemoryStream(buf)
	for _, want := range values {
		got, err := encoding.ReadVslong(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestZigzag(t *testing.T) {
	for _, v := range []int64{0, -1, 1, -2, 2, math.MinInt64, math.MaxInt64} {
		require.Equal(t, v, encoding.ZigzagDecode(encoding.ZigzagEncode(v)))
	}
	require.Equal(t, uint64(0), encoding.ZigzagEncode(0))
	require.Equal(t, uint64(1), encoding.ZigzagEncode(-1))
	require.Equal(t, uint64(2), encoding.ZigzagEncode(1))
}

// appendBigInt encodes a big integer the way the wide decimal writer
// does: zig-zag transform, then base-128 groups little-endian.
func appendBigInt(dst []byte, v *big.Int) []byte {
	u := new(big.Int)
	if v.Sign() < 0 {
		// -(v) - 1 reverses to (2*-v - 1)
		u.Neg(v)
		u.Lsh(u, 1)
		u.Sub(u, big.NewInt(1))
	} else {
		u.Lsh(v, 1)
	}
	mask := big.NewInt(0x7f)
	var groups []byte
	for {
		g := byte(new(big.Int).And(u, mask).Int64())
		groups = append(groups, g)
		u.Rsh(u, 7)
		if u.Sign() == 0 {
			break
		}
	}
	return encodetest.AppendBigIntGroups(dst, groups)
}

func TestReadBigInt(t *testing.T) {
	big10e30 := new(big.Int).Exp(big.NewInt(10), big.NewInt(30), nil)
	values := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(-1),
		big.NewInt(math.MaxInt64),
		big.NewInt(math.MinInt64),
		big10e30,
		new(big.Int).Neg(big10e30),
	}

	var buf []byte
	for _, v := range values {
		buf = appendBigInt(buf, v)
	}

	in := streamio.NewMemoryStream(buf)
	for _, want := range values {
		got, err := encoding.ReadBigInt(in)
		require.NoError(t, err)
		require.Zero(t, want.Cmp(got), "want %s got %s", want, got)
	}
}

func TestReadBigIntOverlong(t *testing.T) {
	// 40 continuation bytes then a terminator: far past any precision the
	// format supports, but still a terminated value.
	var buf []byte
	for i := 0; i < 40; i++ {
		buf = append(buf, 0x81)
	}
	buf = append(buf, 0x01)
	buf = encodetest.AppendVslong(buf, 42)

	in := streamio.NewMemoryStream(buf)
	_, err := encoding.ReadBigInt(in)
	require.ErrorIs(t, err, encoding.ErrBigIntTooLong)

	// The overlong value was fully consumed; the next value is intact.
	next, err := encoding.ReadBigInt(in)
	require.NoError(t, err)
	require.Zero(t, next.Cmp(big.NewInt(42)))
}

func TestReadBitPacked(t *testing.T) {
	// Width 8 degenerates to plain bytes.
	in := streamio.NewMemoryStream([]byte{0x00, 0x01, 0xff, 0x80})
	buf := make([]int64, 4)
	require.NoError(t, encoding.ReadBitPacked(in, buf, 0, 4, 8))
	require.Equal(t, []int64{0, 1, 255, 128}, buf)

	// Width 3, values 0..7 packed MSB first:
	// 00000101 00111001 01110111
	in = streamio.NewMemoryStream([]byte{0x05, 0x39, 0x77})
	buf = make([]int64, 8)
	require.NoError(t, encoding.ReadBitPacked(in, buf, 0, 8, 3))
	require.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7}, buf)
}

func TestBitWidthTables(t *testing.T) {
	for code := 0; code < 32; code++ {
		w := encoding.DecodeBitWidth(code)
		require.Equal(t, w, encoding.ClosestFixedBits(w), "code %d", code)
	}
	require.Equal(t, 1, encoding.DecodeBitWidth(0))
	require.Equal(t, 24, encoding.DecodeBitWidth(23))
	require.Equal(t, 26, encoding.DecodeBitWidth(24))
	require.Equal(t, 64, encoding.DecodeBitWidth(31))

	require.Equal(t, 1, encoding.ClosestFixedBits(0))
	require.Equal(t, 17, encoding.ClosestFixedBits(17))
	require.Equal(t, 26, encoding.ClosestFixedBits(25))
	require.Equal(t, 64, encoding.ClosestFixedBits(57))
}

func TestFloatDecoder(t *testing.T) {
	floats := []float32{0, 1.5, -2.25, float32(math.Inf(1)), math.MaxFloat32}
	doubles := []float64{0, math.Copysign(0, -1), 3.14159, math.Inf(-1), math.MaxFloat64}

	var buf []byte
	for _, v := range floats {
		buf = encodetest.AppendFloat32LE(buf, v)
	}
	for _, v := range doubles {
		buf = encodetest.AppendFloat64LE(buf, v)
	}

	var dec encoding.FloatDecoder
	in := streamio.NewMemoryStream(buf)
	for _, want := range floats {
		got, err := dec.ReadFloat(in)
		require.NoError(t, err)
		require.Equal(t, float64(want), got)
	}
	for _, want := range doubles {
		got, err := dec.ReadDouble(in)
		require.NoError(t, err)
		require.Equal(t, math.Float64bits(want), math.Float64bits(got))
	}
}

func TestFloatDecoderNaN(t *testing.T) {
	var dec encoding.FloatDecoder
	in := streamio.NewMemoryStream(encodetest.AppendFloat64LE(nil, math.NaN()))
	got, err := dec.ReadDouble(in)
	require.NoError(t, err)
	require.True(t, math.IsNaN(got))
}
