// Package blob defines the DataBlob result value produced by one fetch and
// the word-packing helper used to interpret its byte stream.
package blob

import "io"

// WordSize is the width, in bytes, of one miniDAQ data word.
const WordSize = 5

// DefaultIdleWord is the filler word the DAQ emits between real data. A word
// matching this byte-for-byte is stripped from the emitted stream by a
// processor configured with it. Processors configured with a nil/empty idle
// word skip stripping entirely.
var DefaultIdleWord = [WordSize]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Word is one unpacked WordSize-byte big-endian integer, widened to 64 bits.
type Word uint64

// Blob is the immutable result of one fetch: the number of frames consumed
// to produce it, the word-aligned, idle-stripped data bytes, and any gap
// warnings observed since the previous fetch.
type Blob struct {
	packetCount int
	data        []byte
	warnings    []string
}

// New constructs a Blob. data must already be a multiple of WordSize; callers
// (the processor) are responsible for that invariant.
func New(packetCount int, data []byte, warnings []string) Blob {
	return Blob{packetCount: packetCount, data: data, warnings: warnings}
}

// PacketCount returns the number of frames consumed to produce this blob.
func (b Blob) PacketCount() int { return b.packetCount }

// Data returns the packed, idle-stripped byte stream. Its length is always a
// multiple of WordSize.
func (b Blob) Data() []byte { return b.data }

// Warnings returns the ordered, human-readable gap warnings observed while
// producing this blob. It may be empty but is never nil.
func (b Blob) Warnings() []string {
	if b.warnings == nil {
		return []string{}
	}
	return b.warnings
}

// WriteTo writes exactly Data() to w, with no padding, header, or footer.
func (b Blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data)
	return int64(n), err
}

// PackData reinterprets data as consecutive big-endian WordSize-byte
// integers, one Word per full group. A trailing partial group, if any, is
// dropped: the returned slice has length len(data)/WordSize.
func PackData(data []byte) []Word {
	n := len(data) / WordSize
	words := make([]Word, n)
	for i := 0; i < n; i++ {
		group := data[i*WordSize : (i+1)*WordSize]
		var w Word
		for _, b := range group {
			w = w<<8 | Word(b)
		}
		words[i] = w
	}
	return words
}
