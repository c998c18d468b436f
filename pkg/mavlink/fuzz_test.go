// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// fuzzKnownIDs are dialect messages used whenever a round needs a frame the
// decoder can validate.
var fuzzKnownIDs = []uint32{
	MsgHeartbeat, MsgSysStatus, MsgPing, MsgAttitude,
	MsgGlobalPositionInt, MsgVFRHud, MsgCommandLong, MsgStatusText,
}

// randomValidFrame builds a wire-valid frame with random identity and payload.
func randomValidFrame(rng *rand.Rand) []byte {
	msgID := fuzzKnownIDs[rng.Intn(len(fuzzKnownIDs))]
	payload := make([]byte, rng.Intn(64))
	rng.Read(payload)
	return buildWireFrame(msgID, payload,
		byte(rng.Intn(256)), byte(rng.Intn(255)+1), byte(rng.Intn(256)))
}

// randomGarbage returns bytes that never contain the magic byte, so resync
// is guaranteed to discard all of them.
func randomGarbage(rng *rand.Rand, n int) []byte {
	g := make([]byte, n)
	for i := range g {
		g[i] = byte(rng.Intn(int(Magic)))
	}
	return g
}

// verifyYieldedFrame checks the decoder's core promise: any yielded frame
// with a known message ID carries a checksum that verifies.
func verifyYieldedFrame(t *testing.T, round int, f *Frame) {
	msg, ok := Common.Lookup(f.MessageID())
	if !ok {
		return
	}
	raw := f.Bytes()
	crc := CalculateCRC(raw[1 : len(raw)-ChecksumLen])
	crc = AccumulateCRC(crc, msg.CRCExtra)
	if crc != f.Checksum() {
		t.Errorf("Round %d: yielded frame fails its own checksum: 0x%04X != 0x%04X",
			round, crc, f.Checksum())
	}
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

// TestFuzzDecoder_RandomBytes feeds random byte soup to the decoder and
// verifies it never panics and never yields a frame that fails validation
func TestFuzzDecoder_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewDecoder(Config{})

		length := rng.Intn(512) + 1
		data := make([]byte, length)
		rng.Read(data)

		for len(data) > 0 {
			n := rng.Intn(32) + 1
			if n > len(data) {
				n = len(data)
			}
			d.Feed(data[:n])
			data = data[n:]

			frames, _ := drainDecoder(d)
			for _, f := range frames {
				verifyYieldedFrame(t, i, f)
			}
		}
	}
}

// TestFuzzDecoder_RandomFrames interleaves valid frames with garbage and
// feeds the stream in random chunk sizes; every frame must come back
// byte-for-byte in order
func TestFuzzDecoder_RandomFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewDecoder(Config{})

		numFrames := rng.Intn(5) + 1
		var stream []byte
		var sent [][]byte
		for j := 0; j < numFrames; j++ {
			stream = append(stream, randomGarbage(rng, rng.Intn(20))...)
			frame := randomValidFrame(rng)
			sent = append(sent, frame)
			stream = append(stream, frame...)
		}
		stream = append(stream, randomGarbage(rng, rng.Intn(20))...)

		var got []*Frame
		for len(stream) > 0 {
			n := rng.Intn(48) + 1
			if n > len(stream) {
				n = len(stream)
			}
			d.Feed(stream[:n])
			stream = stream[n:]

			frames, errs := drainDecoder(d)
			if len(errs) != 0 {
				t.Fatalf("Round %d: unexpected decode errors: %v", i, errs)
			}
			got = append(got, frames...)
		}

		if len(got) != len(sent) {
			t.Fatalf("Round %d: expected %d frames, got %d", i, len(sent), len(got))
		}
		for j := range sent {
			if !bytes.Equal(got[j].Bytes(), sent[j]) {
				t.Errorf("Round %d: frame %d bytes mismatch", i, j)
			}
		}
	}
}

// TestFuzzDecoder_CorruptedFrames flips one random byte per frame; the
// decoder may resync however it likes but must never panic and must never
// yield a validatable frame that fails its checksum
func TestFuzzDecoder_CorruptedFrames(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		d := NewDecoder(Config{})

		frame := randomValidFrame(rng)
		idx := rng.Intn(len(frame))
		frame[idx] ^= byte(rng.Intn(255) + 1)

		d.Feed(frame)
		frames, _ := drainDecoder(d)
		for _, f := range frames {
			verifyYieldedFrame(t, i, f)
		}
	}
}

// ============================================================
// Encoder Fuzz Tests
// ============================================================

// TestFuzzEncoder_RandomPayloads encodes random messages and verifies the
// stamped header, checksum placement and decoder round-trip
func TestFuzzEncoder_RandomPayloads(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	e := NewEncoder(Config{SystemID: 42, ComponentID: 7})

	for i := 0; i < rounds; i++ {
		var msgID uint32
		if rng.Intn(2) == 0 {
			msgID = fuzzKnownIDs[rng.Intn(len(fuzzKnownIDs))]
		} else {
			// IDs this large are outside the common dialect.
			msgID = 0x800000 + uint32(rng.Intn(0x7FFFFF))
		}
		payload := make([]byte, rng.Intn(MaxPayloadLen+1))
		rng.Read(payload)

		raw, err := BuildFrame(msgID, payload)
		if err != nil {
			t.Fatalf("Round %d: BuildFrame failed: %v", i, err)
		}
		out := e.Encode(raw)

		if len(out) != HeaderLen+len(payload)+ChecksumLen {
			t.Fatalf("Round %d: length mismatch: expected %d, got %d",
				i, HeaderLen+len(payload)+ChecksumLen, len(out))
		}
		if out[0] != Magic {
			t.Errorf("Round %d: missing magic byte", i)
		}
		if out[offSequence] != byte(i) {
			t.Errorf("Round %d: sequence mismatch: expected %d, got %d", i, byte(i), out[offSequence])
		}
		if out[offSystemID] != 42 || out[offComponentID] != 7 {
			t.Errorf("Round %d: identity mismatch: %d:%d", i, out[offSystemID], out[offComponentID])
		}

		d := NewDecoder(Config{})
		d.Feed(out)
		f, err := d.Next()
		if err != nil {
			t.Fatalf("Round %d: decode error: %v", i, err)
		}
		if f == nil {
			t.Fatalf("Round %d: decoder did not yield the encoded frame", i)
		}
		if f.MessageID() != msgID {
			t.Errorf("Round %d: message ID mismatch: expected %d, got %d", i, msgID, f.MessageID())
		}
		if !bytes.Equal(f.Payload(), payload) {
			t.Errorf("Round %d: payload mismatch", i)
		}
	}
}

// ============================================================
// CRC Fuzz Tests
// ============================================================

// TestFuzzCRC_RandomData checks determinism, the accumulate/calculate
// equivalence and single-byte error detection on random data
func TestFuzzCRC_RandomData(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		length := rng.Intn(1000) + 1
		data := make([]byte, length)
		rng.Read(data)

		crc1 := CalculateCRC(data)
		crc2 := CalculateCRC(data)
		if crc1 != crc2 {
			t.Errorf("Round %d: CRC not deterministic: 0x%04X != 0x%04X", i, crc1, crc2)
		}

		acc := uint16(crcInitial)
		for _, b := range data {
			acc = AccumulateCRC(acc, b)
		}
		if acc != crc1 {
			t.Errorf("Round %d: accumulate disagrees with calculate: 0x%04X != 0x%04X", i, acc, crc1)
		}

		// A single corrupted byte is always detected: the error pattern is
		// smaller than the generator polynomial.
		idx := rng.Intn(len(data))
		data[idx] ^= byte(rng.Intn(255) + 1)
		if CalculateCRC(data) == crc1 {
			t.Errorf("Round %d: single-byte corruption not detected", i)
		}
	}
}
