// Package processor implements the stateful stream accumulator that turns a
// batch of captured frames into a DataBlob: it detects sequence-number gaps
// across fetch boundaries, unpacks frame payloads into a word-aligned
// stream, and strips idle filler words.
package processor

import (
	"bytes"
	"fmt"
	"sync"

	"MiniDAQ/miniDAQ-Go-Capture/internal/blob"
	"MiniDAQ/miniDAQ-Go-Capture/internal/frame"
)

// Options configures a Processor's idle-word policy.
type Options struct {
	// IncludeIdleWords disables idle-word stripping when true. The zero
	// value (false) enables stripping, matching the DAQ's ".dat" file
	// convention of carrying no padding.
	IncludeIdleWords bool
}

// Processor accumulates state across successive Process calls: the last
// frame seen (to detect gaps across fetch boundaries) and any trailing bytes
// that did not complete a word (to avoid corrupting a word split across two
// fetches). It is safe for concurrent use, though the library's own contract
// never calls Process concurrently.
type Processor struct {
	mu       sync.Mutex
	lastSeen frame.PacketFrame
	carry    []byte
	idleWord []byte
}

// New creates a Processor with the given idle-word policy.
func New(opts Options) *Processor {
	p := &Processor{}
	if !opts.IncludeIdleWords {
		idle := blob.DefaultIdleWord
		p.idleWord = idle[:]
	}
	return p
}

// Process consumes frames in capture order (oldest first) and returns the
// resulting DataBlob. It never fails: malformed frames have already been
// filtered upstream. An empty input yields a zero-count, empty, warning-free
// blob and leaves all accumulator state untouched.
func (p *Processor) Process(frames []frame.PacketFrame) blob.Blob {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(frames) == 0 {
		return blob.New(0, nil, nil)
	}

	warnings := p.detectGaps(frames)
	data := p.unpack(frames)
	data = p.stripIdle(data)

	return blob.New(len(frames), data, warnings)
}

// Reset clears the accumulator: the last-seen frame reverts to the sentinel
// and any carried partial word is discarded. Callers reset a Processor when
// its owning session ends.
func (p *Processor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen = frame.PacketFrame{}
	p.carry = nil
}

func (p *Processor) detectGaps(frames []frame.PacketFrame) []string {
	var warnings []string
	prev := p.lastSeen
	for _, f := range frames {
		if prev.Valid() {
			if gap := frame.Gap(prev, f); gap != 0 {
				warnings = append(warnings, fmt.Sprintf(
					"%d packets lost! Packet = %d, Last = %d", gap, f.Sequence(), prev.Sequence()))
			}
		}
		prev = f
	}
	if prev.Valid() {
		p.lastSeen = prev
	}
	return warnings
}

func (p *Processor) unpack(frames []frame.PacketFrame) []byte {
	buf := p.carry
	p.carry = nil
	for _, f := range frames {
		buf = append(buf, f.Payload()...)
	}

	remainder := len(buf) % blob.WordSize
	if remainder > 0 {
		p.carry = append([]byte(nil), buf[len(buf)-remainder:]...)
		buf = buf[:len(buf)-remainder]
	}
	return buf
}

func (p *Processor) stripIdle(data []byte) []byte {
	if len(p.idleWord) == 0 {
		return data
	}

	out := make([]byte, 0, len(data))
	for off := 0; off < len(data); off += blob.WordSize {
		word := data[off : off+blob.WordSize]
		if bytes.Equal(word, p.idleWord) {
			continue
		}
		out = append(out, word...)
	}
	return out
}
