// Package stripemd holds the metadata enumerations shared by the stripe
// decoding packages: the per-column stream kinds, the advertised column
// encodings, and the file format versions that change decoding behavior.
package stripemd

import "fmt"

// StreamKind identifies one of the named byte streams a column may own
// within a stripe.
type StreamKind int

const (
	// StreamPresent is the packed null bitmap for a column.
	StreamPresent StreamKind = iota
	// StreamData is the primary value stream.
	StreamData
	// StreamLength holds per-row sizes for binary, string, list and map
	// columns, or dictionary entry lengths for dictionary-encoded strings.
	StreamLength
	// StreamSecondary is the auxiliary integer stream, used for decimal
	// scales and timestamp nanoseconds.
	StreamSecondary
	// StreamDictionaryData is the shared string blob for dictionary
	// encoding.
	StreamDictionaryData
)

func (k StreamKind) String() string {
	switch k {
	case StreamPresent:
		return "PRESENT"
	case StreamData:
		return "DATA"
	case StreamLength:
		return "LENGTH"
	case StreamSecondary:
		return "SECONDARY"
	case StreamDictionaryData:
		return "DICTIONARY_DATA"
	}
	return fmt.Sprintf("StreamKind(%d)", int(k))
}

// StreamName keys a stream by the physical column that owns it and the
// kind of data it carries.
type StreamName struct {
	Column int
	Kind   StreamKind
}

func (n StreamName) String() string {
	return fmt.Sprintf("column %d kind %s", n.Column, n.Kind)
}

// EncodingKind is the advertised encoding of one column within a stripe.
type EncodingKind int

const (
	// EncodingDirect uses the original byte-oriented run length encoding
	// for integer streams.
	EncodingDirect EncodingKind = iota
	// EncodingDictionary is dictionary encoding with the original integer
	// run length encoding for codes.
	EncodingDictionary
	// EncodingDirectV2 uses the richer integer encoding with short-repeat,
	// direct, patched-base and delta runs.
	EncodingDirectV2
	// EncodingDictionaryV2 is dictionary encoding with the richer integer
	// encoding for codes.
	EncodingDictionaryV2
)

func (k EncodingKind) String() string {
	switch k {
	case EncodingDirect:
		return "DIRECT"
	case EncodingDictionary:
		return "DICTIONARY"
	case EncodingDirectV2:
		return "DIRECT_V2"
	case EncodingDictionaryV2:
		return "DICTIONARY_V2"
	}
	return fmt.Sprintf("EncodingKind(%d)", int(k))
}

// ColumnEncoding describes how one column is encoded within a stripe.
type ColumnEncoding struct {
	Kind EncodingKind

	// DictionarySize is the number of dictionary entries for
	// dictionary-encoded columns. Zero otherwise.
	DictionarySize int
}

// Version is the file format version a stripe was written with. Decimal
// dispatch depends on it.
type Version int

const (
	// V0_11 is the original file format.
	V0_11 Version = iota
	// V0_12 is the current file format.
	V0_12
	// UnstablePre2 is the experimental pre-2.0 format that stores
	// small-precision decimals as run length encoded integers.
	UnstablePre2
)

func (v Version) String() string {
	switch v {
	case V0_11:
		return "0.11"
	case V0_12:
		return "0.12"
	case UnstablePre2:
		return "UNSTABLE-PRE-2.0"
	}
	return fmt.Sprintf("Version(%d)", int(v))
}
