// Package daq defines CaptureDevice, the polymorphic handle over one network
// interface, and its two implementations: a live gopacket/pcap backend and
// an in-memory mock used by tests.
package daq

import (
	"errors"
	"time"

	"MiniDAQ/miniDAQ-Go-Capture/internal/blob"
)

// ForeverTimeout tells Fetch to block indefinitely.
const ForeverTimeout time.Duration = -1

// AllPackets tells Fetch to drain whatever the backend delivers in one
// dispatch cycle, with no cap on the frame count.
const AllPackets int = -1

// Errors surfaced by Device.Fetch. All other failures inside the library are
// absorbed (malformed frames are dropped; enumeration/open failures degrade
// silently, see Registry and Open).
var (
	// ErrNotOpen is returned by Fetch when called on a device that has not
	// been opened.
	ErrNotOpen = errors.New("daq: device is not open")
	// ErrTimeoutExceeded is returned by Fetch when the timeout elapses
	// before any frame is received.
	ErrTimeoutExceeded = errors.New("daq: fetch timed out")
)

// CaptureError wraps a failure returned by the underlying capture backend.
type CaptureError struct {
	Interface string
	Err       error
}

func (e *CaptureError) Error() string {
	return "daq: capture error on " + e.Interface + ": " + e.Err.Error()
}

func (e *CaptureError) Unwrap() error { return e.Err }

// Options configures how a Device filters and opens the underlying capture
// handle.
type Options struct {
	// SnapLen is the maximum number of bytes captured per packet.
	SnapLen int
	// Promiscuous enables promiscuous mode on the interface.
	Promiscuous bool
	// SourceMAC is the Ethernet source address the compiled BPF filter
	// restricts capture to, in "xx:xx:xx:xx:xx:xx" form. Defaults to the
	// miniDAQ's hardcoded address, DefaultSourceMAC, when empty.
	SourceMAC string
	// IncludeIdleWords disables idle-word stripping in the processor this
	// device drives, when true.
	IncludeIdleWords bool
}

// DefaultSourceMAC is the miniDAQ's hardware address.
const DefaultSourceMAC = "FF:FF:FF:C7:05:01"

// DefaultSnapLen is the snapshot length used when Options.SnapLen is unset.
const DefaultSnapLen = 65536

// Device is a capability set over one network interface: lifecycle
// (Open/Close), interrupt, and a bounded-timeout blocking fetch. The two
// concrete implementations are *PcapDevice (a live gopacket/pcap backend)
// and *MockDevice (an in-memory stand-in for tests).
type Device interface {
	// Name returns the interface name, stable for the device's lifetime.
	Name() string
	// Description returns a human-readable description, stable for the
	// device's lifetime.
	Description() string
	// Open acquires the underlying capture handle. It is a no-op if already
	// open, and fails silently (IsOpen stays false) if the backend rejects
	// the interface.
	Open()
	// IsOpen reports whether the device currently holds a live handle.
	IsOpen() bool
	// Close releases the handle, interrupting any in-flight Fetch first, and
	// resets accumulator state. Idempotent.
	Close()
	// Interrupt causes any blocked Fetch to return promptly with whatever it
	// has already received. Safe to call from any goroutine, including
	// concurrently with Fetch. No-op if Closed or if the backend does not
	// support interruption.
	Interrupt()
	// SupportsInterrupt reports whether Interrupt can deterministically
	// unblock a Fetch on this backend.
	SupportsInterrupt() bool
	// Fetch blocks up to timeout waiting for frames (ForeverTimeout waits
	// indefinitely, zero polls once) and returns up to limit frames
	// (AllPackets drains one dispatch cycle). It fails with ErrNotOpen,
	// ErrTimeoutExceeded, or *CaptureError; on Interrupt it returns a
	// well-formed partial-or-empty blob with a nil error.
	Fetch(timeout time.Duration, limit int) (blob.Blob, error)
}
