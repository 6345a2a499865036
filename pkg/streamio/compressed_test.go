package streamio_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"

	"github.com/columnobj/columnobj/pkg/streamio"
)

// appendChunk frames one chunk: a 3-byte little-endian header carrying
// the chunk length and a stored bit, then the body.
func appendChunk(dst, body []byte, stored bool) []byte {
	header := uint32(len(body)) << 1
	if stored {
		header |= 1
	}
	dst = append(dst, byte(header), byte(header>>8), byte(header>>16))
	return append(dst, body...)
}

func compressChunk(t *testing.T, codec streamio.Codec, data []byte) []byte {
	t.Helper()
	switch codec {
	case streamio.CodecSnappy:
		return snappy.Encode(nil, data)
	case streamio.CodecZstd:
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		defer enc.Close()
		return enc.EncodeAll(data, nil)
	}
	t.Fatalf("unexpected codec %s", codec)
	return nil
}

func TestChunkedStreamRead(t *testing.T) {
	for _, codec := range []streamio.Codec{streamio.CodecSnappy, streamio.CodecZstd} {
		t.Run(codec.String(), func(t *testing.T) {
			first := bytes.Repeat([]byte("abcd"), 100)
			second := bytes.Repeat([]byte{0x7f}, 256)

			var buf []byte
			buf = appendChunk(buf, compressChunk(t, codec, first), false)
			buf = appendChunk(buf, second, true) // stored chunk
			s, err := streamio.NewStream(buf, codec)
			require.NoError(t, err)

			got, err := streamio.ReadAll(s)
			require.NoError(t, err)
			require.Equal(t, append(append([]byte{}, first...), second...), got)
		})
	}
}

func TestChunkedStreamSeek(t *testing.T) {
	first := []byte("first chunk payload")
	second := []byte("second chunk payload")

	var buf []byte
	buf = appendChunk(buf, compressChunk(t, streamio.CodecSnappy, first), false)
	secondOffset := len(buf)
	buf = appendChunk(buf, compressChunk(t, streamio.CodecSnappy, second), false)

	s, err := streamio.NewStream(buf, streamio.CodecSnappy)
	require.NoError(t, err)

	// Two-entry position: chunk offset in the compressed buffer, then
	// the offset within the decompressed chunk.
	pos := streamio.NewPositionProvider([]uint64{uint64(secondOffset), 7})
	require.NoError(t, s.Seek(pos))

	got, err := streamio.ReadAll(s)
	require.NoError(t, err)
	require.Equal(t, []byte("chunk payload"), got)
}

func TestChunkedStreamTruncatedHeader(t *testing.T) {
	s, err := streamio.NewStream([]byte{0x08}, streamio.CodecSnappy)
	require.NoError(t, err)
	_, err = s.ReadByte()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestChunkedStreamOverrunningChunk(t *testing.T) {
	// Header claims 100 bytes but only 2 follow.
	s, err := streamio.NewStream([]byte{100 << 1 & 0xff, 0, 0, 1, 2}, streamio.CodecSnappy)
	require.NoError(t, err)
	_, err = s.ReadByte()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
