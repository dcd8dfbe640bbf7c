package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniDAQ/miniDAQ-Go-Capture/internal/daq"
)

func TestSession_FetchWithoutStartFails(t *testing.T) {
	s := New(daq.NewRegistry(daq.Options{}))
	_, err := s.Fetch(0, daq.AllPackets)
	assert.ErrorIs(t, err, daq.ErrNotOpen)
}

func TestSession_StartRejectsUnknownDevice(t *testing.T) {
	s := New(daq.NewRegistry(daq.Options{}))
	unknown := daq.NewMockDevice("ghost0", "not in registry", daq.Options{})

	err := s.Start(unknown)
	assert.ErrorIs(t, err, ErrUnknownDevice)
}

// The remaining tests set Session.active directly, since Registry only
// yields PcapDevice instances (no live libpcap available under test) and
// Start's registry-membership contract is already covered above.
func TestSession_EndClosesActiveDevice(t *testing.T) {
	registry := daq.NewRegistry(daq.Options{})
	s := &Session{registry: registry}
	d := daq.NewMockDevice("mock0", "mock", daq.Options{})
	d.Open()
	s.active = d

	require.NoError(t, s.End())
	assert.False(t, d.IsOpen())

	// End is idempotent.
	require.NoError(t, s.End())
}

func TestSession_FetchForwardsToActiveDevice(t *testing.T) {
	registry := daq.NewRegistry(daq.Options{})
	s := &Session{registry: registry}
	d := daq.NewMockDevice("mock0", "mock", daq.Options{})
	d.Open()
	d.Deliver(rawFrame([]byte{1, 2, 3, 4, 5}, 1))
	s.active = d

	b, err := s.Fetch(time.Second, daq.AllPackets)
	require.NoError(t, err)
	assert.Equal(t, 1, b.PacketCount())
}

func TestSession_InterruptForwardsToActiveDevice(t *testing.T) {
	registry := daq.NewRegistry(daq.Options{})
	s := &Session{registry: registry}
	d := daq.NewMockDevice("mock0", "mock", daq.Options{})
	d.Open()
	s.active = d

	s.Interrupt()
	b, err := s.Fetch(time.Second, daq.AllPackets)
	require.NoError(t, err)
	assert.Equal(t, 0, b.PacketCount())
}

func TestSession_InterruptWithoutActiveDeviceIsNoop(t *testing.T) {
	s := New(daq.NewRegistry(daq.Options{}))
	assert.NotPanics(t, func() { s.Interrupt() })
}

func rawFrame(payload []byte, seq uint16) []byte {
	raw := make([]byte, 14+len(payload)+4)
	copy(raw[14:], payload)
	raw[len(raw)-2] = byte(seq >> 8)
	raw[len(raw)-1] = byte(seq)
	return raw
}
