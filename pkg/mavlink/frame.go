// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Frame is one validated MAVLink v2 frame as it appeared on the wire,
// plus the time the decoder yielded it. The backing bytes are owned by the
// frame and never shared with the decoder buffer.
type Frame struct {
	raw       []byte
	timestamp time.Time
}

func newFrame(raw []byte) *Frame {
	return &Frame{
		raw:       raw,
		timestamp: time.Now(),
	}
}

// Bytes returns the complete frame, magic byte through checksum.
func (f *Frame) Bytes() []byte { return f.raw }

// Len returns the on-wire length of the frame.
func (f *Frame) Len() int { return len(f.raw) }

// PayloadLength returns the declared payload length from the header.
func (f *Frame) PayloadLength() int { return int(f.raw[offPayloadLen]) }

// IncompatFlags returns the incompatibility flag byte. A receiver that does
// not understand a set bit must drop the frame.
func (f *Frame) IncompatFlags() byte { return f.raw[offIncompat] }

// CompatFlags returns the compatibility flag byte. Unknown bits here are
// safe to ignore.
func (f *Frame) CompatFlags() byte { return f.raw[offCompat] }

// Sequence returns the sender's wrapping packet counter.
func (f *Frame) Sequence() byte { return f.raw[offSequence] }

// SystemID returns the sending system ID.
func (f *Frame) SystemID() byte { return f.raw[offSystemID] }

// ComponentID returns the sending component ID.
func (f *Frame) ComponentID() byte { return f.raw[offComponentID] }

// MessageID returns the 24-bit message ID.
func (f *Frame) MessageID() uint32 {
	return uint32(f.raw[offMessageID]) |
		uint32(f.raw[offMessageID+1])<<8 |
		uint32(f.raw[offMessageID+2])<<16
}

// Payload returns the message payload. MAVLink v2 senders trim trailing
// zero bytes, so this may be shorter than the dialect's full layout.
func (f *Frame) Payload() []byte {
	return f.raw[HeaderLen : HeaderLen+f.PayloadLength()]
}

// Checksum returns the CRC-16/MCRF4XX value carried by the frame.
func (f *Frame) Checksum() uint16 {
	return binary.LittleEndian.Uint16(f.raw[len(f.raw)-ChecksumLen:])
}

// IsSigned reports whether the signed-frame incompatibility bit is set.
func (f *Frame) IsSigned() bool { return f.raw[offIncompat]&IncompatFlagSigned != 0 }

// Timestamp returns the time the decoder yielded the frame.
func (f *Frame) Timestamp() time.Time { return f.timestamp }

// BuildFrame assembles an unstamped frame for the given message ID and
// payload. Sequence, system ID, component ID and checksum are zero; an
// Encoder fills them in on send. Payloads over MaxPayloadLen and message
// IDs over 24 bits are rejected.
func BuildFrame(msgID uint32, payload []byte) ([]byte, error) {
	if msgID > 0xFFFFFF {
		return nil, fmt.Errorf("message ID 0x%X exceeds the 24-bit field", msgID)
	}
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("payload length %d exceeds maximum %d", len(payload), MaxPayloadLen)
	}
	buf := make([]byte, HeaderLen+len(payload)+ChecksumLen)
	buf[0] = Magic
	buf[offPayloadLen] = byte(len(payload))
	buf[offMessageID] = byte(msgID)
	buf[offMessageID+1] = byte(msgID >> 8)
	buf[offMessageID+2] = byte(msgID >> 16)
	copy(buf[HeaderLen:], payload)
	return buf, nil
}
