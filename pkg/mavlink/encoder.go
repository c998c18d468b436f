// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

import "encoding/binary"

// Encoder finishes outgoing frames for the wire: it stamps the session's
// sequence counter and identity into the header and appends the checksum.
// Not safe for concurrent use.
type Encoder struct {
	systemID    byte
	componentID byte
	dialect     Dialect
	seq         byte
}

// NewEncoder returns an Encoder for the given session configuration.
func NewEncoder(cfg Config) *Encoder {
	cfg = cfg.withDefaults()
	return &Encoder{
		systemID:    cfg.SystemID,
		componentID: cfg.ComponentID,
		dialect:     cfg.Dialect,
	}
}

// Encode returns the finished on-wire bytes for a frame built by
// BuildFrame or assembled by hand. The sequence counter, system ID and
// component ID are written into the header, any stale bytes beyond the
// declared payload length are dropped, and the checksum is computed and
// appended. The input slice is not modified.
//
// Buffers that do not look like MAVLink v2 frames, shorter than a header
// or not starting with the magic byte, are returned unchanged and do not
// advance the sequence counter. The encoder never rejects input; producing
// well-formed frames is the caller's job.
func (e *Encoder) Encode(p []byte) []byte {
	if len(p) < HeaderLen || p[0] != Magic {
		return p
	}

	n := HeaderLen + int(p[offPayloadLen])
	if n > len(p) {
		n = len(p)
	}
	out := make([]byte, n, n+ChecksumLen)
	copy(out, p)

	out[offSequence] = e.seq
	e.seq++
	out[offSystemID] = e.systemID
	out[offComponentID] = e.componentID

	msgID := uint32(out[offMessageID]) |
		uint32(out[offMessageID+1])<<8 |
		uint32(out[offMessageID+2])<<16

	// Without a dialect entry the CRC_EXTRA seed is unknowable, so the
	// checksum is computed without it. A receiver that does know the
	// message will reject such a frame; avoid sending unknown IDs.
	msg, known := e.dialect.Lookup(msgID)
	crc := frameChecksum(out[1:], msg.CRCExtra, known)

	return binary.LittleEndian.AppendUint16(out, crc)
}

// Sequence returns the value the next stamped frame will carry.
func (e *Encoder) Sequence() byte { return e.seq }

// Reset rewinds the sequence counter to zero.
func (e *Encoder) Reset() { e.seq = 0 }
