package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniDAQ/miniDAQ-Go-Capture/internal/blob"
	"MiniDAQ/miniDAQ-Go-Capture/internal/frame"
)

const preambleLen = 14
const trailerLen = 4

func mkFrame(t *testing.T, payload []byte, seq uint16) frame.PacketFrame {
	t.Helper()
	raw := make([]byte, preambleLen+len(payload)+trailerLen)
	copy(raw[preambleLen:], payload)
	raw[len(raw)-2] = byte(seq >> 8)
	raw[len(raw)-1] = byte(seq)
	f, err := frame.New(raw)
	require.NoError(t, err)
	return f
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestProcess_SingleFrame(t *testing.T) {
	p := New(Options{})
	f := mkFrame(t, []byte{0x00, 0x01, 0x02, 0x03, 0x04}, 1)

	b := p.Process([]frame.PacketFrame{f})

	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03, 0x04}, b.Data())
	assert.Equal(t, 1, b.PacketCount())
	assert.Empty(t, b.Warnings())
}

func TestProcess_TwoFramesNoGap(t *testing.T) {
	p := New(Options{})
	f1 := mkFrame(t, repeat(0x01, 6), 1)
	f2 := mkFrame(t, repeat(0x02, 4), 2)

	b := p.Process([]frame.PacketFrame{f1, f2})

	expected := append(repeat(0x01, 6), repeat(0x02, 4)...)
	assert.Equal(t, expected, b.Data())
	assert.Equal(t, 2, b.PacketCount())
	assert.Empty(t, b.Warnings())
}

func TestProcess_GapWarning(t *testing.T) {
	p := New(Options{})
	f1 := mkFrame(t, repeat(0x11, 6), 1)
	f2 := mkFrame(t, repeat(0x22, 4), 5)

	b := p.Process([]frame.PacketFrame{f1, f2})

	expected := append(repeat(0x11, 6), repeat(0x22, 4)...)
	assert.Equal(t, expected, b.Data())
	assert.Equal(t, 2, b.PacketCount())
	assert.Equal(t, []string{"3 packets lost! Packet = 5, Last = 1"}, b.Warnings())
}

func TestProcess_IdleWordsStripped(t *testing.T) {
	p := New(Options{})
	frames := []frame.PacketFrame{
		mkFrame(t, repeat(0xFF, 5), 1),
		mkFrame(t, repeat(0xFF, 5), 2),
		mkFrame(t, repeat(0xFF, 5), 3),
	}

	b := p.Process(frames)

	assert.Empty(t, b.Data())
	assert.Equal(t, 3, b.PacketCount())
}

func TestProcess_CarryAcrossFetches(t *testing.T) {
	p := New(Options{})

	f1 := mkFrame(t, repeat(0xAA, 4), 10)
	b1 := p.Process([]frame.PacketFrame{f1})
	assert.Empty(t, b1.Data(), "4 bytes should be carried, not emitted yet")
	assert.Equal(t, 1, b1.PacketCount())
	assert.Empty(t, b1.Warnings())

	f2 := mkFrame(t, repeat(0xBB, 6), 11)
	b2 := p.Process([]frame.PacketFrame{f2})

	expected := append(repeat(0xAA, 4), repeat(0xBB, 6)...)
	assert.Equal(t, expected, b2.Data())
	assert.Equal(t, 1, b2.PacketCount())
	assert.Empty(t, b2.Warnings())
}

func TestProcess_GapAcrossFetchBoundary_Wraps(t *testing.T) {
	p := New(Options{})

	_ = p.Process([]frame.PacketFrame{mkFrame(t, nil, 0xFFFF)})
	b := p.Process([]frame.PacketFrame{mkFrame(t, nil, 0x0000)})

	assert.Empty(t, b.Data())
	assert.Equal(t, 1, b.PacketCount())
	assert.Empty(t, b.Warnings())
}

func TestProcess_Empty_LeavesStateUntouched(t *testing.T) {
	p := New(Options{})
	f1 := mkFrame(t, repeat(0xAA, 3), 1)
	_ = p.Process([]frame.PacketFrame{f1})

	b := p.Process(nil)
	assert.Equal(t, 0, b.PacketCount())
	assert.Empty(t, b.Data())
	assert.Empty(t, b.Warnings())

	// Confirm state was untouched: sequence continuity is unaffected by the
	// empty call, and the 3-byte carry is still pending.
	f2 := mkFrame(t, repeat(0xBB, 2), 2)
	b2 := p.Process([]frame.PacketFrame{f2})
	assert.Equal(t, append(repeat(0xAA, 3), 0xBB, 0xBB), b2.Data())
	assert.Empty(t, b2.Warnings())
}

func TestProcess_IncludeIdleWordsDisablesStripping(t *testing.T) {
	p := New(Options{IncludeIdleWords: true})
	f := mkFrame(t, repeat(0xFF, 5), 1)

	b := p.Process([]frame.PacketFrame{f})

	assert.Equal(t, repeat(0xFF, 5), b.Data())
}

func TestReset_ClearsAccumulator(t *testing.T) {
	p := New(Options{})
	_ = p.Process([]frame.PacketFrame{mkFrame(t, repeat(0xAA, 3), 5)})

	p.Reset()

	// After reset, no gap warning against the frame that preceded reset, and
	// the 3-byte carry is gone: this frame's 2 bytes alone can't complete a
	// word.
	b := p.Process([]frame.PacketFrame{mkFrame(t, repeat(0xBB, 2), 100)})
	assert.Empty(t, b.Warnings())
	assert.Empty(t, b.Data())
}

// TestInvariant_DataLenMultipleOfWordSize checks spec invariant 1.
func TestInvariant_DataLenMultipleOfWordSize(t *testing.T) {
	p := New(Options{})
	frames := []frame.PacketFrame{
		mkFrame(t, repeat(0x01, 7), 1),
		mkFrame(t, repeat(0x02, 13), 2),
	}
	b := p.Process(frames)
	assert.Zero(t, len(b.Data())%blob.WordSize)
}

func TestInvariant_NoDataLostOrInvented(t *testing.T) {
	p := New(Options{IncludeIdleWords: true})

	frames1 := []frame.PacketFrame{
		mkFrame(t, repeat(0x01, 3), 1),
		mkFrame(t, repeat(0x02, 4), 2),
	}
	frames2 := []frame.PacketFrame{
		mkFrame(t, repeat(0x03, 8), 3),
	}

	b1 := p.Process(frames1)
	b2 := p.Process(frames2)

	var allPayload []byte
	for _, f := range append(frames1, frames2...) {
		allPayload = append(allPayload, f.Payload()...)
	}

	got := append(append([]byte{}, b1.Data()...), b2.Data()...)
	got = append(got, p.carry...)
	assert.Equal(t, allPayload, got)
}
