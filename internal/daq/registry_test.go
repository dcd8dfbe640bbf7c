package daq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Registry.Enumerate calls pcap.FindAllDevs directly against the host, so it
// cannot be driven with a fake backend here the way PcapDevice's rawHandle
// seam allows. These tests cover what's reachable without a live libpcap
// install: Lookup's behavior before and after a device has been seen.

func TestRegistry_LookupUnknownNameFails(t *testing.T) {
	r := NewRegistry(Options{})
	_, ok := r.Lookup("nonexistent0")
	assert.False(t, ok)
}

func TestRegistry_DeviceForLockedReturnsSameHandle(t *testing.T) {
	r := NewRegistry(Options{})

	r.mu.Lock()
	d1 := r.deviceForLocked("eth0", "test nic")
	d2 := r.deviceForLocked("eth0", "test nic")
	r.mu.Unlock()

	assert.Same(t, d1, d2)
}

func TestRegistry_DeviceForLockedIsVisibleToLookup(t *testing.T) {
	r := NewRegistry(Options{})

	r.mu.Lock()
	created := r.deviceForLocked("eth1", "second nic")
	r.mu.Unlock()

	found, ok := r.Lookup("eth1")
	assert.True(t, ok)
	assert.Same(t, created, found)
}

func TestRegistry_DeviceForLockedAppliesOptions(t *testing.T) {
	opts := Options{SourceMAC: "AA:BB:CC:DD:EE:FF", IncludeIdleWords: true}
	r := NewRegistry(opts)

	r.mu.Lock()
	d := r.deviceForLocked("eth2", "")
	r.mu.Unlock()

	pd, ok := d.(*PcapDevice)
	assert.True(t, ok)
	assert.Equal(t, opts.SourceMAC, pd.opts.SourceMAC)
	assert.True(t, pd.opts.IncludeIdleWords)
}
