package mavlink

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncoder_StampsIdentity(t *testing.T) {
	e := NewEncoder(Config{SystemID: 42, ComponentID: 9})

	raw, err := BuildFrame(MsgHeartbeat, []byte{0, 0, 0, 0, 6, 8, 0, 4, 3})
	if err != nil {
		t.Fatalf("BuildFrame failed: %v", err)
	}
	out := e.Encode(raw)

	if len(out) != len(raw) {
		t.Fatalf("length mismatch: expected %d, got %d", len(raw), len(out))
	}
	if out[offSequence] != 0 {
		t.Errorf("first frame should carry sequence 0, got %d", out[offSequence])
	}
	if out[offSystemID] != 42 {
		t.Errorf("system ID mismatch: expected 42, got %d", out[offSystemID])
	}
	if out[offComponentID] != 9 {
		t.Errorf("component ID mismatch: expected 9, got %d", out[offComponentID])
	}

	// Checksum covers everything after the magic byte plus the seed.
	want := CalculateCRC(out[1 : len(out)-ChecksumLen])
	want = AccumulateCRC(want, 50)
	got := binary.LittleEndian.Uint16(out[len(out)-ChecksumLen:])
	if got != want {
		t.Errorf("checksum mismatch: expected 0x%04X, got 0x%04X", want, got)
	}
}

func TestEncoder_DefaultIdentity(t *testing.T) {
	// System ID 0 is the broadcast address and may not identify a sender,
	// so the zero config promotes to the default ground station identity.
	e := NewEncoder(Config{})
	raw, _ := BuildFrame(MsgHeartbeat, nil)
	out := e.Encode(raw)

	if out[offSystemID] != DefaultSystemID {
		t.Errorf("system ID should default to %d, got %d", DefaultSystemID, out[offSystemID])
	}
	if out[offComponentID] != DefaultComponentID {
		t.Errorf("component ID should default to %d, got %d", DefaultComponentID, out[offComponentID])
	}
}

func TestEncoder_SequenceIncrementsAndWraps(t *testing.T) {
	e := NewEncoder(Config{SystemID: 1})
	raw, _ := BuildFrame(MsgHeartbeat, nil)

	for i := 0; i < 256; i++ {
		out := e.Encode(raw)
		if out[offSequence] != byte(i) {
			t.Fatalf("frame %d: sequence mismatch: expected %d, got %d", i, byte(i), out[offSequence])
		}
	}
	if e.Sequence() != 0 {
		t.Errorf("sequence should wrap to 0 after 256 frames, got %d", e.Sequence())
	}

	out := e.Encode(raw)
	if out[offSequence] != 0 {
		t.Errorf("frame after wrap should carry sequence 0, got %d", out[offSequence])
	}
}

func TestEncoder_PassthroughShortBuffer(t *testing.T) {
	e := NewEncoder(Config{SystemID: 1})
	in := []byte{0x01, 0x02, 0x03}

	out := e.Encode(in)
	if !bytes.Equal(out, in) {
		t.Errorf("short buffer should pass through unchanged, got % X", out)
	}
	if e.Sequence() != 0 {
		t.Error("passthrough must not advance the sequence counter")
	}
}

func TestEncoder_PassthroughNonMagic(t *testing.T) {
	e := NewEncoder(Config{SystemID: 1})
	in := make([]byte, 20)
	in[0] = 0xFE // MAVLink v1 magic, not ours

	out := e.Encode(in)
	if !bytes.Equal(out, in) {
		t.Error("non-v2 buffer should pass through unchanged")
	}
	if e.Sequence() != 0 {
		t.Error("passthrough must not advance the sequence counter")
	}
}

func TestEncoder_InputNotModified(t *testing.T) {
	e := NewEncoder(Config{SystemID: 1})
	raw, _ := BuildFrame(MsgHeartbeat, []byte{1, 2, 3})
	before := append([]byte(nil), raw...)

	e.Encode(raw)
	if !bytes.Equal(raw, before) {
		t.Error("Encode must not modify the input slice")
	}
}

func TestEncoder_TruncatesStaleTrailer(t *testing.T) {
	e := NewEncoder(Config{SystemID: 1})

	// A frame re-sent from a capture still carries its old checksum. The
	// declared payload length decides where the new frame ends.
	raw, _ := BuildFrame(MsgHeartbeat, []byte{1, 2, 3})
	stale := append(append([]byte(nil), raw...), 0xBA, 0xAD, 0xF0, 0x0D)

	out := e.Encode(stale)
	want := HeaderLen + 3 + ChecksumLen
	if len(out) != want {
		t.Fatalf("length mismatch: expected %d, got %d", want, len(out))
	}

	d := NewDecoder(Config{})
	d.Feed(out)
	f, err := d.Next()
	if err != nil || f == nil {
		t.Fatalf("re-encoded frame should validate, got (%v, %v)", f, err)
	}
}

func TestEncoder_UnknownIDWithoutSeed(t *testing.T) {
	e := NewEncoder(Config{SystemID: 1})

	raw, _ := BuildFrame(99999, []byte{0xAB})
	out := e.Encode(raw)

	// No dialect entry, so the checksum omits the CRC_EXTRA step.
	want := CalculateCRC(out[1 : len(out)-ChecksumLen])
	got := binary.LittleEndian.Uint16(out[len(out)-ChecksumLen:])
	if got != want {
		t.Errorf("checksum mismatch: expected 0x%04X, got 0x%04X", want, got)
	}

	// A receiver without the ID skips validation and yields the frame.
	d := NewDecoder(Config{})
	d.Feed(out)
	f, err := d.Next()
	if err != nil || f == nil {
		t.Fatalf("unknown-ID frame should pass through, got (%v, %v)", f, err)
	}
}

func TestEncoder_Reset(t *testing.T) {
	e := NewEncoder(Config{SystemID: 1})
	raw, _ := BuildFrame(MsgHeartbeat, nil)
	e.Encode(raw)
	e.Encode(raw)

	e.Reset()
	if e.Sequence() != 0 {
		t.Errorf("sequence should be 0 after Reset, got %d", e.Sequence())
	}
}

func TestEncoder_DecoderRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		msgID   uint32
		payload []byte
	}{
		{
			name:    "heartbeat",
			msgID:   MsgHeartbeat,
			payload: []byte{0, 0, 0, 0, 6, 8, 0x51, 4, 3},
		},
		{
			name:    "ping",
			msgID:   MsgPing,
			payload: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14},
		},
		{
			name:    "statustext",
			msgID:   MsgStatusText,
			payload: append([]byte{4}, []byte("engine check")...),
		},
		{
			name:    "empty payload",
			msgID:   MsgHeartbeat,
			payload: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEncoder(Config{SystemID: 42, ComponentID: 7})
			d := NewDecoder(Config{})

			raw, err := BuildFrame(tt.msgID, tt.payload)
			if err != nil {
				t.Fatalf("BuildFrame failed: %v", err)
			}
			out := e.Encode(raw)

			d.Feed(out)
			f, err := d.Next()
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if f == nil {
				t.Fatal("decoder did not yield the frame")
			}

			if f.MessageID() != tt.msgID {
				t.Errorf("message ID mismatch: expected %d, got %d", tt.msgID, f.MessageID())
			}
			if f.SystemID() != 42 || f.ComponentID() != 7 {
				t.Errorf("identity mismatch: got %d:%d", f.SystemID(), f.ComponentID())
			}
			if !bytes.Equal(f.Payload(), tt.payload) {
				t.Errorf("payload mismatch: expected % X, got % X", tt.payload, f.Payload())
			}
			if !bytes.Equal(f.Bytes(), out) {
				t.Error("wire bytes should round-trip exactly")
			}
		})
	}
}
