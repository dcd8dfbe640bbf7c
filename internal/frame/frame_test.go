package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFrame(payload []byte, seq uint16) []byte {
	raw := make([]byte, preambleLen+len(payload)+trailerLen)
	copy(raw[preambleLen:], payload)
	raw[len(raw)-2] = byte(seq >> 8)
	raw[len(raw)-1] = byte(seq)
	return raw
}

func TestNew_Malformed(t *testing.T) {
	before := intakeCounter

	_, err := New(make([]byte, minFrameLen-1))
	require.ErrorIs(t, err, ErrMalformedFrame)
	assert.Equal(t, before, intakeCounter, "malformed frame must not consume an intake ID")
}

func TestNew_ParsesPayloadAndSequence(t *testing.T) {
	raw := rawFrame([]byte{0x00, 0x01, 0x02, 0x03, 0x04}, 42)

	f, err := New(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03, 0x04}, f.Payload())
	assert.Equal(t, uint16(42), f.Sequence())
	assert.True(t, f.Valid())
}

func TestNew_MinimumLengthAccepted(t *testing.T) {
	raw := rawFrame(nil, 7)
	f, err := New(raw)
	require.NoError(t, err)
	assert.Empty(t, f.Payload())
	assert.Equal(t, uint16(7), f.Sequence())
}

func TestNew_IntakeIDsStrictlyIncreasing(t *testing.T) {
	f1, err := New(rawFrame(nil, 1))
	require.NoError(t, err)
	f2, err := New(rawFrame(nil, 2))
	require.NoError(t, err)

	assert.Greater(t, f2.IntakeID(), f1.IntakeID())
}

func TestZeroValueIsInvalidSentinel(t *testing.T) {
	var f PacketFrame
	assert.False(t, f.Valid())
	assert.Equal(t, uint64(0), f.IntakeID())
}

func TestGap(t *testing.T) {
	mk := func(seq uint16) PacketFrame {
		f, err := New(rawFrame(nil, seq))
		require.NoError(t, err)
		return f
	}
	first, second := mk(1), mk(2)

	tests := []struct {
		name     string
		a, b     PacketFrame
		expected int
	}{
		{"consecutive", mk(1), mk(2), 0},
		{"consecutive reversed args", second, first, 0},
		{"identical sequence numbers wrap to max", mk(5), mk(5), 65535},
		{"three missing", mk(1), mk(5), 3},
		{"wraps at 65536", mk(0xFFFF), mk(0x0000), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Gap(tt.a, tt.b))
			assert.Equal(t, Gap(tt.a, tt.b), Gap(tt.b, tt.a), "gap must be symmetric")
		})
	}
}

func TestGap_UsesIntakeOrderNotSequenceOrder(t *testing.T) {
	// b is constructed after a, so b has the higher intake ID even though
	// its sequence number is numerically lower (post-wrap).
	a, err := New(rawFrame(nil, 0xFFFF))
	require.NoError(t, err)
	b, err := New(rawFrame(nil, 0x0000))
	require.NoError(t, err)

	assert.Equal(t, 0, Gap(a, b))
	assert.Equal(t, 0, Gap(b, a))
}
