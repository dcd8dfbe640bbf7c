package daq

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"MiniDAQ/miniDAQ-Go-Capture/internal/blob"
	"MiniDAQ/miniDAQ-Go-Capture/internal/frame"
	"MiniDAQ/miniDAQ-Go-Capture/internal/logger"
	"MiniDAQ/miniDAQ-Go-Capture/internal/processor"
)

// readPollInterval is the libpcap read timeout PcapDevice opens its handle
// with. It bounds how often the dispatch loop can notice an Interrupt or an
// elapsed Fetch deadline; it is not the caller-facing Fetch timeout.
const readPollInterval = 200 * time.Millisecond

// rawHandle is the subset of *pcap.Handle that PcapDevice depends on,
// narrowed so tests can substitute a fake without a live libpcap install.
type rawHandle interface {
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)
	SetBPFFilter(expr string) error
	Close()
}

// PcapDevice is a Device backed by a live github.com/google/gopacket/pcap
// capture handle, filtered to the miniDAQ's Ethernet source address.
type PcapDevice struct {
	name        string
	description string
	opts        Options

	mu     sync.Mutex
	handle rawHandle

	interrupted atomic.Bool
	proc        *processor.Processor
	log         *logger.Logger
}

// NewPcapDevice creates a Closed device over the named host interface.
func NewPcapDevice(name, description string, opts Options) *PcapDevice {
	return &PcapDevice{
		name:        name,
		description: description,
		opts:        opts,
		proc:        processor.New(processor.Options{IncludeIdleWords: opts.IncludeIdleWords}),
		log:         logger.GetLogger(),
	}
}

func (d *PcapDevice) Name() string        { return d.name }
func (d *PcapDevice) Description() string { return d.description }

// Open acquires a live capture handle with snapshot length 65536 (unless
// overridden), promiscuous mode as set by Options.Promiscuous (off when the
// option is left unset), immediate delivery, and a compiled BPF
// filter matching Options.SourceMAC (or DefaultSourceMAC). Failure leaves
// the device Closed; it is never surfaced to the caller.
func (d *PcapDevice) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != nil {
		return
	}

	snaplen := d.opts.SnapLen
	if snaplen == 0 {
		snaplen = DefaultSnapLen
	}

	inactive, err := pcap.NewInactiveHandle(d.name)
	if err != nil {
		d.log.Warn("daq: failed to prepare handle for %s: %v", d.name, err)
		return
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(snaplen); err != nil {
		d.log.Warn("daq: failed to set snaplen on %s: %v", d.name, err)
		return
	}
	if err := inactive.SetPromisc(d.opts.Promiscuous); err != nil {
		d.log.Warn("daq: failed to set promiscuous mode on %s: %v", d.name, err)
		return
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		d.log.Warn("daq: failed to set immediate mode on %s: %v", d.name, err)
		return
	}
	if err := inactive.SetTimeout(readPollInterval); err != nil {
		d.log.Warn("daq: failed to set read timeout on %s: %v", d.name, err)
		return
	}

	handle, err := inactive.Activate()
	if err != nil {
		d.log.Warn("daq: failed to activate handle on %s: %v", d.name, err)
		return
	}

	mac := d.opts.SourceMAC
	if mac == "" {
		mac = DefaultSourceMAC
	}
	if err := handle.SetBPFFilter("ether src " + mac); err != nil {
		d.log.Warn("daq: failed to compile BPF filter on %s: %v", d.name, err)
		handle.Close()
		return
	}

	d.handle = handle
	d.interrupted.Store(false)
	d.log.Info("daq: opened %s (filter: ether src %s)", d.name, mac)
}

// IsOpen reports whether the device currently holds a live handle.
func (d *PcapDevice) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle != nil
}

// Close interrupts any in-flight Fetch, releases the handle, and resets
// accumulator state. Idempotent.
func (d *PcapDevice) Close() {
	d.Interrupt()

	d.mu.Lock()
	handle := d.handle
	d.handle = nil
	d.mu.Unlock()

	if handle != nil {
		handle.Close()
		d.log.Info("daq: closed %s", d.name)
	}
	d.proc.Reset()
}

// Interrupt causes any blocked Fetch to return promptly. Safe to call from
// any goroutine. No-op if Closed.
func (d *PcapDevice) Interrupt() {
	if !d.IsOpen() {
		return
	}
	d.interrupted.Store(true)
}

// SupportsInterrupt is always true for PcapDevice: the handle is opened with
// a short libpcap read timeout specifically so the dispatch loop can observe
// an interrupt request between reads.
func (d *PcapDevice) SupportsInterrupt() bool { return true }

// Fetch blocks up to timeout collecting frames, then runs them through the
// device's Processor and returns the resulting blob.
func (d *PcapDevice) Fetch(timeout time.Duration, limit int) (blob.Blob, error) {
	d.mu.Lock()
	handle := d.handle
	d.mu.Unlock()
	if handle == nil {
		return blob.Blob{}, ErrNotOpen
	}

	var deadline time.Time
	hasDeadline := timeout != ForeverTimeout
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	var frames []frame.PacketFrame
	for {
		if limit >= 0 && len(frames) >= limit {
			break
		}
		if d.interrupted.Load() {
			break
		}

		data, _, err := handle.ReadPacketData()
		if err == pcap.NextErrorTimeoutExpired {
			if limit == AllPackets && len(frames) > 0 {
				break
			}
			if timeout == 0 {
				if len(frames) == 0 {
					return blob.Blob{}, ErrTimeoutExceeded
				}
				break
			}
			if hasDeadline && !time.Now().Before(deadline) {
				if len(frames) == 0 {
					return blob.Blob{}, ErrTimeoutExceeded
				}
				break
			}
			continue
		}
		if err != nil {
			return blob.Blob{}, &CaptureError{Interface: d.name, Err: err}
		}

		f, ferr := frame.New(data)
		if ferr != nil {
			continue
		}
		frames = append(frames, f)

		if hasDeadline && !time.Now().Before(deadline) {
			break
		}
	}

	return d.proc.Process(frames), nil
}
