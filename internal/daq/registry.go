package daq

import (
	"sync"

	"github.com/google/gopacket/pcap"

	"MiniDAQ/miniDAQ-Go-Capture/internal/logger"
)

// Registry enumerates the host's network interfaces and hands out stable
// Device handles keyed by interface name. It is safe for concurrent use.
// Each Registry keeps its own name-to-device map: handles are stable within
// one Registry, and two Registries hand out distinct handles for the same
// interface.
type Registry struct {
	mu      sync.Mutex
	devices map[string]Device
	opts    Options
}

// NewRegistry creates a Registry whose enumerated devices are opened with
// opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		devices: make(map[string]Device),
		opts:    opts,
	}
}

// Enumerate returns one handle per host interface. Repeated calls return the
// identical handle for a given name. On failure to enumerate (e.g. the
// caller lacks permission to list interfaces), it returns an empty slice,
// not an error.
func (r *Registry) Enumerate() []Device {
	ifaces, err := pcap.FindAllDevs()
	if err != nil {
		logger.GetLogger().Warn("daq: failed to enumerate interfaces: %v", err)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	devices := make([]Device, 0, len(ifaces))
	for _, iface := range ifaces {
		devices = append(devices, r.deviceForLocked(iface.Name, iface.Description))
	}
	return devices
}

// Lookup returns the handle for the exact interface name, if any earlier
// Enumerate has seen it. Handles are never removed, so a name seen once stays
// visible even after its interface disappears from the host.
func (r *Registry) Lookup(name string) (Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[name]
	return d, ok
}

// deviceForLocked returns the existing device for name, creating and
// recording one if this is the first time it has been seen. Must be called
// with r.mu held.
func (r *Registry) deviceForLocked(name, description string) Device {
	if d, ok := r.devices[name]; ok {
		return d
	}
	d := NewPcapDevice(name, description, r.opts)
	r.devices[name] = d
	return d
}
