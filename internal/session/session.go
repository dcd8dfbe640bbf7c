// Package session provides a thin coordinator over one daq.Device at a time,
// backed by a daq.Registry for discovery.
package session

import (
	"errors"
	"sync"
	"time"

	"MiniDAQ/miniDAQ-Go-Capture/internal/blob"
	"MiniDAQ/miniDAQ-Go-Capture/internal/daq"
)

// ErrUnknownDevice is returned by Start when the device is not one the
// registry has handed out.
var ErrUnknownDevice = errors.New("session: device not known to registry")

// Session owns at most one open daq.Device. It is safe for concurrent use;
// Fetch and Interrupt may be called from different goroutines the same way
// daq.Device allows.
type Session struct {
	registry *daq.Registry

	mu     sync.Mutex
	active daq.Device
}

// New creates a Session backed by registry.
func New(registry *daq.Registry) *Session {
	return &Session{registry: registry}
}

// Start ends any prior session, then opens device. device must be one
// previously returned by the registry's Enumerate/Lookup.
func (s *Session) Start(device daq.Device) error {
	if known, ok := s.registry.Lookup(device.Name()); !ok || known != device {
		return ErrUnknownDevice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.active.Close()
	}
	device.Open()
	s.active = device
	return nil
}

// End closes the active device and resets its accumulator state, if a
// session is active. Idempotent.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil
	}
	s.active.Close()
	s.active = nil
	return nil
}

// Fetch forwards to the active device's Fetch. Fails with daq.ErrNotOpen if
// no session has been started.
func (s *Session) Fetch(timeout time.Duration, limit int) (blob.Blob, error) {
	s.mu.Lock()
	device := s.active
	s.mu.Unlock()

	if device == nil {
		return blob.Blob{}, daq.ErrNotOpen
	}
	return device.Fetch(timeout, limit)
}

// Interrupt forwards to the active device, if any. Safe to call from any
// goroutine, including concurrently with Fetch.
func (s *Session) Interrupt() {
	s.mu.Lock()
	device := s.active
	s.mu.Unlock()

	if device != nil {
		device.Interrupt()
	}
}

// DeviceByName delegates to the registry.
func (s *Session) DeviceByName(name string) (daq.Device, bool) {
	return s.registry.Lookup(name)
}

// AllDevices delegates to the registry.
func (s *Session) AllDevices() []daq.Device {
	return s.registry.Enumerate()
}
