// Package frame parses raw captured Ethernet frames from the miniDAQ device
// into PacketFrame values and computes sequence-number gaps between them.
package frame

import (
	"encoding/binary"
	"errors"
	"sync/atomic"
)

// preambleLen is the number of opaque header bytes ignored at the start of
// every captured frame.
const preambleLen = 14

// trailerLen is the number of opaque + sequence-number bytes at the end of
// every captured frame. The sequence number is the last two of these bytes.
const trailerLen = 4

// minFrameLen is the smallest frame the miniDAQ can legally emit.
const minFrameLen = preambleLen + trailerLen

// ErrMalformedFrame is returned when a raw capture is shorter than the
// minimum frame length. The capture callback drops such frames silently;
// this error is only observed by direct callers of New.
var ErrMalformedFrame = errors.New("frame: malformed frame, length below minimum")

// intakeCounter assigns strictly increasing, process-wide intake IDs.
// 0 is reserved for the sentinel "no prior frame".
var intakeCounter uint64

// PacketFrame is an immutable, parsed capture frame: its payload, the
// device's 16-bit sequence number, and the monotonic order it was received in.
type PacketFrame struct {
	payload  []byte
	sequence uint16
	intakeID uint64
}

// New parses a raw captured frame. It fails with ErrMalformedFrame when raw
// is shorter than the minimum accepted length; callers upstream (the pcap
// dispatch callback) are expected to drop the frame and continue rather than
// propagate this error.
func New(raw []byte) (PacketFrame, error) {
	if len(raw) < minFrameLen {
		return PacketFrame{}, ErrMalformedFrame
	}

	payload := make([]byte, len(raw)-minFrameLen)
	copy(payload, raw[preambleLen:len(raw)-trailerLen])

	sequence := binary.BigEndian.Uint16(raw[len(raw)-2:])

	return PacketFrame{
		payload:  payload,
		sequence: sequence,
		intakeID: atomic.AddUint64(&intakeCounter, 1),
	}, nil
}

// Payload returns the frame's data bytes, exactly the bytes between the
// preamble and the trailer.
func (f PacketFrame) Payload() []byte { return f.payload }

// Sequence returns the frame's 16-bit big-endian sequence number.
func (f PacketFrame) Sequence() uint16 { return f.sequence }

// IntakeID returns the frame's process-wide, monotonically increasing
// construction order. 0 means the frame is the zero-value sentinel.
func (f PacketFrame) IntakeID() uint64 { return f.intakeID }

// Valid reports whether f was produced by New, as opposed to being the
// zero-value "no prior frame" sentinel.
func (f PacketFrame) Valid() bool { return f.intakeID != 0 }

// Gap reports the number of sequence values strictly between a and b: 0 for
// consecutive frames, 65535 when their sequence numbers are identical, and
// the wrapped difference otherwise. Gap is symmetric in its arguments: it
// always treats the frame with the lower intake ID as the older one.
func Gap(a, b PacketFrame) int {
	older, newer := a, b
	if b.intakeID < a.intakeID {
		older, newer = b, a
	}
	return int((uint32(newer.sequence) - uint32(older.sequence) - 1) & 0xFFFF)
}
