package treereader_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/columnobj/columnobj/pkg/coltype"
	"github.com/columnobj/columnobj/pkg/encoding/encodetest"
	"github.com/columnobj/columnobj/pkg/streamio"
	"github.com/columnobj/columnobj/pkg/striperead"
	"github.com/columnobj/columnobj/pkg/stripemd"
	"github.com/columnobj/columnobj/pkg/vector"
)

func bytesOf(bv *vector.Bytes, rows int) []string {
	out := make([]string, rows)
	for i := 0; i < rows; i++ {
		if !bv.NoNulls && bv.IsNull[i] {
			out[i] = "<null>"
			continue
		}
		out[i] = string(bv.Values[i])
	}
	return out
}

func TestStringDirect(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.String))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), []byte("helloabc")).
		SetStream(name(0, stripemd.StreamLength), encodetest.AppendDirectV2(nil, false, 5, 0, 3))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	bv := vector.NewBytes(3)
	require.NoError(t, r.NextVector(bv, nil, 3))
	require.Equal(t, []string{"hello", "", "abc"}, bytesOf(bv, 3))
}

func TestStringDirectWithNulls(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.String))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{1, 0, 1})).
		SetStream(name(0, stripemd.StreamData), []byte("aabb")).
		SetStream(name(0, stripemd.StreamLength), encodetest.AppendDirectV2(nil, false, 2, 2))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	bv := vector.NewBytes(3)
	require.NoError(t, r.NextVector(bv, nil, 3))
	require.Equal(t, []string{"aa", "<null>", "bb"}, bytesOf(bv, 3))
}

func TestStringDictionary(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.String))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, stripemd.ColumnEncoding{Kind: stripemd.EncodingDictionaryV2, DictionarySize: 3}).
		SetStream(name(0, stripemd.StreamDictionaryData), []byte("applebananacherry")).
		SetStream(name(0, stripemd.StreamLength), encodetest.AppendDirectV2(nil, false, 5, 6, 6)).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendDirectV2(nil, false, 0, 2, 1, 0))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	bv := vector.NewBytes(4)
	require.NoError(t, r.NextVector(bv, nil, 4))
	require.Equal(t, []string{"apple", "cherry", "banana", "apple"}, bytesOf(bv, 4))
}

func TestStringDictionaryRepeatingCodes(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.String))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, stripemd.ColumnEncoding{Kind: stripemd.EncodingDictionaryV2, DictionarySize: 2}).
		SetStream(name(0, stripemd.StreamDictionaryData), []byte("noyes")).
		SetStream(name(0, stripemd.StreamLength), encodetest.AppendDirectV2(nil, false, 2, 3)).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendShortRepeatV2(nil, 1, 5, false))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	bv := vector.NewBytes(5)
	require.NoError(t, r.NextVector(bv, nil, 5))
	require.True(t, bv.IsRepeating)
	require.Equal(t, "yes", string(bv.Values[0]))
}

func TestStringDictionaryOutOfRangeCode(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.String))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, stripemd.ColumnEncoding{Kind: stripemd.EncodingDictionaryV2, DictionarySize: 2}).
		SetStream(name(0, stripemd.StreamDictionaryData), []byte("noyes")).
		SetStream(name(0, stripemd.StreamLength), encodetest.AppendDirectV2(nil, false, 2, 3)).
		SetStream(name(0, stripemd.StreamData), encodetest.AppendDirectV2(nil, false, 0, 7))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	bv := vector.NewBytes(2)
	require.Error(t, r.NextVector(bv, nil, 2))
}

func TestStringEmptyDictionary(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.String))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, stripemd.ColumnEncoding{Kind: stripemd.EncodingDictionaryV2}).
		SetStream(name(0, stripemd.StreamPresent), encodetest.AppendPackedBits(nil, []int{0, 0, 0})).
		SetStream(name(0, stripemd.StreamData), nil)

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	bv := vector.NewBytes(3)
	require.NoError(t, r.NextVector(bv, nil, 3))
	require.True(t, bv.IsRepeating)
	require.True(t, bv.IsNull[0])
	require.NotNil(t, bv.Values[0])
	require.Empty(t, bv.Values[0])
}

func TestCharTrimsAndTruncates(t *testing.T) {
	schema := normalized(coltype.NewChar(4))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), []byte("ab  abcdef")).
		SetStream(name(0, stripemd.StreamLength), encodetest.AppendDirectV2(nil, false, 4, 6))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	bv := vector.NewBytes(2)
	require.NoError(t, r.NextVector(bv, nil, 2))
	require.Equal(t, []string{"ab", "abcd"}, bytesOf(bv, 2))
}

func TestVarcharTruncatesCodePoints(t *testing.T) {
	schema := normalized(coltype.NewVarchar(3))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), []byte("hello"+"h\xc3\xa9llo")).
		SetStream(name(0, stripemd.StreamLength), encodetest.AppendDirectV2(nil, false, 5, 6))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))

	bv := vector.NewBytes(2)
	require.NoError(t, r.NextVector(bv, nil, 2))
	// Truncation counts code points, not bytes.
	require.Equal(t, []string{"hel", "h\xc3\xa9l"}, bytesOf(bv, 2))
}

func TestBinarySkipRows(t *testing.T) {
	schema := normalized(coltype.NewPrimitive(coltype.Binary))
	stripe := striperead.NewStripe(streamio.CodecNone).
		SetEncoding(0, directV2()).
		SetStream(name(0, stripemd.StreamData), []byte("aabbbcccc")).
		SetStream(name(0, stripemd.StreamLength), encodetest.AppendDirectV2(nil, false, 2, 3, 4))

	r := buildReader(t, schema, nil)
	require.NoError(t, r.StartStripe(stripe))
	require.NoError(t, r.SkipRows(2))

	bv := vector.NewBytes(1)
	require.NoError(t, r.NextVector(bv, nil, 1))
	require.Equal(t, "cccc", string(bv.Values[0]))
}
