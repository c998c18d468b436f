// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// fakeSleeper records requested sleeps instead of waiting.
type fakeSleeper struct {
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func TestCapture_RoundTrip(t *testing.T) {
	var buf bytes.Buffer

	cw, err := NewCaptureWriter(&buf)
	if err != nil {
		t.Fatalf("NewCaptureWriter failed: %v", err)
	}

	frames := [][]byte{
		buildWireFrame(MsgHeartbeat, nil, 0, 1, 1),
		buildWireFrame(MsgPing, make([]byte, 14), 1, 255, 0),
		buildWireFrame(MsgAttitude, make([]byte, 28), 2, 1, 1),
	}
	dirs := []Direction{DirIn, DirOut, DirIn}

	now := time.Now()
	for i, frame := range frames {
		at := now.Add(time.Duration(i) * 10 * time.Millisecond)
		if err := cw.WriteFrame(at, dirs[i], frame); err != nil {
			t.Fatalf("WriteFrame %d failed: %v", i, err)
		}
	}

	cr, err := NewCaptureReader(&buf)
	if err != nil {
		t.Fatalf("NewCaptureReader failed: %v", err)
	}
	if cr.Start().IsZero() {
		t.Error("capture start time should be set")
	}

	recs, err := cr.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(recs) != len(frames) {
		t.Fatalf("expected %d records, got %d", len(frames), len(recs))
	}

	var lastAt int64 = -1
	for i, rec := range recs {
		if !bytes.Equal(rec.Frame, frames[i]) {
			t.Errorf("record %d: frame bytes mismatch", i)
		}
		if rec.Dir != dirs[i] {
			t.Errorf("record %d: direction mismatch: expected %s, got %s", i, dirs[i], rec.Dir)
		}
		if rec.At < lastAt {
			t.Errorf("record %d: offsets should not decrease: %d after %d", i, rec.At, lastAt)
		}
		lastAt = rec.At
	}
}

func TestCaptureReader_Next_EOF(t *testing.T) {
	var buf bytes.Buffer
	cw, _ := NewCaptureWriter(&buf)
	cw.WriteFrame(time.Now(), DirIn, goldenHeartbeat)

	cr, err := NewCaptureReader(&buf)
	if err != nil {
		t.Fatalf("NewCaptureReader failed: %v", err)
	}
	if _, err := cr.Next(); err != nil {
		t.Fatalf("first Next failed: %v", err)
	}
	if _, err := cr.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end of capture, got %v", err)
	}
}

func TestCaptureReader_WrongFormat(t *testing.T) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	enc.Encode(captureHeader{Format: "something/else", Version: 1})

	if _, err := NewCaptureReader(&buf); err == nil {
		t.Error("expected error for foreign format header")
	}
}

func TestCaptureReader_UnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	enc.Encode(captureHeader{Format: captureFormat, Version: captureVersion + 1})

	if _, err := NewCaptureReader(&buf); err == nil {
		t.Error("expected error for future capture version")
	}
}

func TestCaptureReader_Garbage(t *testing.T) {
	buf := bytes.NewBufferString("not a capture file at all")
	if _, err := NewCaptureReader(buf); err == nil {
		t.Error("expected error for non-CBOR input")
	}
}

func TestCaptureWriter_EmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	cw, _ := NewCaptureWriter(&buf)
	if err := cw.WriteFrame(time.Now(), DirIn, nil); err == nil {
		t.Error("expected error for empty frame")
	}
}

func TestPlay_Timing(t *testing.T) {
	records := []CaptureRecord{
		{At: 0, Dir: DirIn, Frame: goldenHeartbeat},
		{At: int64(100 * time.Millisecond), Dir: DirIn, Frame: goldenHeartbeat},
		{At: int64(250 * time.Millisecond), Dir: DirIn, Frame: goldenHeartbeat},
	}

	sleeper := &fakeSleeper{}
	var emitted int
	err := Play(records, 1.0, false, sleeper, func(rec CaptureRecord) error {
		emitted++
		return nil
	})
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if emitted != 3 {
		t.Errorf("expected 3 emitted records, got %d", emitted)
	}

	want := []time.Duration{100 * time.Millisecond, 150 * time.Millisecond}
	if len(sleeper.slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(sleeper.slept))
	}
	for i, d := range want {
		if sleeper.slept[i] != d {
			t.Errorf("sleep %d: expected %v, got %v", i, d, sleeper.slept[i])
		}
	}
}

func TestPlay_SpeedScalesWaits(t *testing.T) {
	records := []CaptureRecord{
		{At: 0, Frame: goldenHeartbeat},
		{At: int64(100 * time.Millisecond), Frame: goldenHeartbeat},
	}

	sleeper := &fakeSleeper{}
	if err := Play(records, 2.0, false, sleeper, func(CaptureRecord) error { return nil }); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if len(sleeper.slept) != 1 || sleeper.slept[0] != 50*time.Millisecond {
		t.Errorf("2x speed should halve the wait, got %v", sleeper.slept)
	}
}

func TestPlay_Loop(t *testing.T) {
	records := []CaptureRecord{
		{At: 0, Frame: goldenHeartbeat},
		{At: 1, Frame: goldenHeartbeat},
	}

	errStop := errors.New("stop")
	var emitted int
	err := Play(records, 1.0, true, &fakeSleeper{}, func(CaptureRecord) error {
		emitted++
		if emitted == 5 {
			return errStop
		}
		return nil
	})
	if err != errStop {
		t.Errorf("Play should return the emit error, got %v", err)
	}
	if emitted != 5 {
		t.Errorf("loop should have continued past the record list, got %d emits", emitted)
	}
}

func TestPlay_Validation(t *testing.T) {
	records := []CaptureRecord{{At: 0, Frame: goldenHeartbeat}}
	emit := func(CaptureRecord) error { return nil }

	if err := Play(records, 0, false, &fakeSleeper{}, emit); err == nil {
		t.Error("expected error for zero speed")
	}
	if err := Play(records, -1, false, &fakeSleeper{}, emit); err == nil {
		t.Error("expected error for negative speed")
	}
	if err := Play(nil, 1.0, false, &fakeSleeper{}, emit); err == nil {
		t.Error("expected error for empty record list")
	}
	if err := Play(records, 1.0, false, &fakeSleeper{}, nil); err == nil {
		t.Error("expected error for nil callback")
	}
}
