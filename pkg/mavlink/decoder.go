// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Config carries the session identity and receive policy shared by the
// Decoder and Encoder of one link.
type Config struct {
	// SystemID stamps outgoing frames. Zero selects DefaultSystemID,
	// since system ID 0 is reserved for broadcast.
	SystemID byte

	// ComponentID stamps outgoing frames. Zero is a valid component ID
	// and is kept as-is.
	ComponentID byte

	// TargetSystem, when non-zero, restricts the receive path to frames
	// whose sender system ID matches. Zero accepts every sender.
	TargetSystem byte

	// Dialect supplies per-message names and CRC_EXTRA seeds.
	// Nil selects Common.
	Dialect Dialect
}

func (c Config) withDefaults() Config {
	if c.SystemID == 0 {
		c.SystemID = DefaultSystemID
	}
	if c.Dialect == nil {
		c.Dialect = Common
	}
	return c
}

// DecoderStats counts what happened to every byte the decoder has seen.
type DecoderStats struct {
	// Frames is the number of frames yielded to the caller.
	Frames uint64

	// SyncDrops is the number of bytes discarded while scanning for the
	// magic byte. Counted per byte, not per resync event.
	SyncDrops uint64

	// CRCErrors is the number of candidate frames discarded for a
	// checksum mismatch.
	CRCErrors uint64

	// UnknownMessages is the number of frames whose message ID had no
	// dialect entry. Validation is skipped for these; they are still
	// yielded and also counted in Frames unless the target filter
	// discards them.
	UnknownMessages uint64

	// Filtered is the number of well-formed frames discarded because
	// their sender did not match the configured target system.
	Filtered uint64
}

// CRCError reports a candidate frame that failed checksum validation.
// The decoder discards the candidate and keeps going; the error exists
// so callers can log or count the corruption.
type CRCError struct {
	MessageID  uint32
	Calculated uint16
	Received   uint16
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("CRC mismatch on msg %d: expected 0x%04X, got 0x%04X",
		e.MessageID, e.Calculated, e.Received)
}

// Decoder extracts MAVLink v2 frames from a byte stream fed to it in
// arbitrary chunks. It buffers partial frames across calls, resynchronizes
// on garbage, validates checksums against the dialect's CRC_EXTRA seeds,
// and optionally filters by sender system ID. Not safe for concurrent use.
type Decoder struct {
	buf     []byte
	target  byte
	dialect Dialect
	stats   DecoderStats
}

// NewDecoder returns a Decoder for the given session configuration.
func NewDecoder(cfg Config) *Decoder {
	cfg = cfg.withDefaults()
	return &Decoder{
		target:  cfg.TargetSystem,
		dialect: cfg.Dialect,
	}
}

// Feed appends newly received bytes to the accumulation buffer. The slice
// is copied; the caller may reuse it immediately.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Next extracts the next frame from the buffer.
//
// It returns (frame, nil) when a frame was extracted, (nil, nil) when the
// buffer holds no complete frame and more bytes are needed, and
// (nil, *CRCError) when a candidate frame failed validation. A CRC error
// is diagnostic, not terminal: the bad candidate has been discarded and
// the caller should keep calling Next until it returns (nil, nil).
func (d *Decoder) Next() (*Frame, error) {
	for {
		// Resynchronize: everything before the next magic byte is noise.
		idx := bytes.IndexByte(d.buf, Magic)
		if idx < 0 {
			d.stats.SyncDrops += uint64(len(d.buf))
			d.buf = d.buf[:0]
			return nil, nil
		}
		if idx > 0 {
			d.stats.SyncDrops += uint64(idx)
			d.consume(idx)
		}

		if len(d.buf) < HeaderLen {
			return nil, nil
		}
		total := HeaderLen + int(d.buf[offPayloadLen]) + ChecksumLen
		if len(d.buf) < total {
			return nil, nil
		}

		candidate := d.buf[:total]
		msgID := uint32(candidate[offMessageID]) |
			uint32(candidate[offMessageID+1])<<8 |
			uint32(candidate[offMessageID+2])<<16

		// Unknown IDs cannot be validated without their CRC_EXTRA seed,
		// so validation is skipped and the frame passes through.
		if msg, known := d.dialect.Lookup(msgID); known {
			calculated := frameChecksum(candidate[1:total-ChecksumLen], msg.CRCExtra, true)
			received := binary.LittleEndian.Uint16(candidate[total-ChecksumLen:])
			if calculated != received {
				d.stats.CRCErrors++
				d.consume(total)
				return nil, &CRCError{
					MessageID:  msgID,
					Calculated: calculated,
					Received:   received,
				}
			}
		} else {
			d.stats.UnknownMessages++
		}

		// The target filter runs after validation: corruption on a
		// filtered link still surfaces as a CRC error.
		if d.target != 0 && candidate[offSystemID] != d.target {
			d.stats.Filtered++
			d.consume(total)
			continue
		}

		raw := make([]byte, total)
		copy(raw, candidate)
		d.consume(total)
		d.stats.Frames++
		return newFrame(raw), nil
	}
}

// consume drops n bytes from the front of the buffer, compacting in place
// so the backing array is reused across frames.
func (d *Decoder) consume(n int) {
	d.buf = append(d.buf[:0], d.buf[n:]...)
}

// Reset discards any buffered partial frame, for example after reopening
// the underlying transport. Counters are preserved.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Buffered returns the number of bytes waiting in the accumulation buffer.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Stats returns a snapshot of the decoder's counters.
func (d *Decoder) Stats() DecoderStats { return d.stats }
