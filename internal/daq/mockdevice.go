package daq

import (
	"sync"
	"time"

	"MiniDAQ/miniDAQ-Go-Capture/internal/blob"
	"MiniDAQ/miniDAQ-Go-Capture/internal/frame"
	"MiniDAQ/miniDAQ-Go-Capture/internal/processor"
)

// MockDevice is an in-memory Device used by tests to drive CaptureDevice and
// SessionFacade behaviour without a live capture backend. Raw frame bytes
// are queued with Deliver and drained by Fetch the way a real backend's
// dispatch loop would feed them.
//
//go:generate mockgen -destination=mock_device.go -package=daq . Device
type MockDevice struct {
	name        string
	description string
	proc        *processor.Processor

	mu          sync.Mutex
	open        bool
	queue       [][]byte
	interrupted chan struct{}
	failNext    error
}

// NewMockDevice creates a Closed mock device.
func NewMockDevice(name, description string, opts Options) *MockDevice {
	return &MockDevice{
		name:        name,
		description: description,
		proc:        processor.New(processor.Options{IncludeIdleWords: opts.IncludeIdleWords}),
		interrupted: make(chan struct{}, 1),
	}
}

func (d *MockDevice) Name() string        { return d.name }
func (d *MockDevice) Description() string { return d.description }

func (d *MockDevice) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true

	select {
	case <-d.interrupted:
	default:
	}
}

func (d *MockDevice) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *MockDevice) Close() {
	d.Interrupt()
	d.mu.Lock()
	d.open = false
	d.queue = nil
	d.mu.Unlock()
	d.proc.Reset()
}

func (d *MockDevice) Interrupt() {
	select {
	case d.interrupted <- struct{}{}:
	default:
	}
}

func (d *MockDevice) SupportsInterrupt() bool { return true }

// Deliver queues raw frame bytes as if the backend's dispatch callback had
// just received them. Safe to call concurrently with Fetch.
func (d *MockDevice) Deliver(raw ...[]byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, raw...)
}

// FailNextFetch makes the next Fetch call return a *CaptureError wrapping
// err instead of consuming the queue.
func (d *MockDevice) FailNextFetch(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = err
}

func (d *MockDevice) Fetch(timeout time.Duration, limit int) (blob.Blob, error) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return blob.Blob{}, ErrNotOpen
	}
	if d.failNext != nil {
		err := d.failNext
		d.failNext = nil
		d.mu.Unlock()
		return blob.Blob{}, &CaptureError{Interface: d.name, Err: err}
	}
	d.mu.Unlock()

	var deadline <-chan time.Time
	if timeout != ForeverTimeout {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	var frames []frame.PacketFrame
	for {
		if limit >= 0 && len(frames) >= limit {
			break
		}
		next, ok := d.popLocked()
		if ok {
			f, err := frame.New(next)
			if err == nil {
				frames = append(frames, f)
			}
			continue
		}

		select {
		case <-d.interrupted:
			goto done
		case <-deadline:
			if len(frames) == 0 {
				return blob.Blob{}, ErrTimeoutExceeded
			}
			goto done
		default:
			if limit == AllPackets && len(frames) > 0 {
				goto done
			}
			if timeout == 0 {
				if len(frames) == 0 {
					return blob.Blob{}, ErrTimeoutExceeded
				}
				goto done
			}
			time.Sleep(time.Millisecond)
		}
	}
done:
	return d.proc.Process(frames), nil
}

// popLocked removes and returns the next queued raw frame, if any.
func (d *MockDevice) popLocked() ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil, false
	}
	next := d.queue[0]
	d.queue = d.queue[1:]
	return next, true
}
