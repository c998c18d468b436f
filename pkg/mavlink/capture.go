// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Capture file format: a CBOR sequence.
//
// The first value is a header identifying the format and the capture start
// time. Every following value is one CaptureRecord holding the nanosecond
// offset from the start, the direction, and the raw frame bytes. Integer
// map keys keep records compact enough to log busy links for hours.

const (
	captureFormat  = "mavscope/capture"
	captureVersion = 1
)

// Direction records which way a frame crossed the link.
type Direction byte

const (
	DirIn  Direction = iota // received from the link
	DirOut                  // sent to the link
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	default:
		return fmt.Sprintf("dir(%d)", byte(d))
	}
}

type captureHeader struct {
	Format  string `cbor:"1,keyasint"`
	Version int    `cbor:"2,keyasint"`
	StartNS int64  `cbor:"3,keyasint"`
}

// CaptureRecord is one timed frame in a capture file.
type CaptureRecord struct {
	At    int64     `cbor:"1,keyasint"` // nanoseconds since capture start
	Dir   Direction `cbor:"2,keyasint"`
	Frame []byte    `cbor:"3,keyasint"`
}

// CaptureWriter appends timed frames to a capture stream.
type CaptureWriter struct {
	enc   *cbor.Encoder
	start time.Time
}

// NewCaptureWriter writes the capture header to w and returns a writer for
// the records. The caller owns w and closes it when done.
func NewCaptureWriter(w io.Writer) (*CaptureWriter, error) {
	start := time.Now()
	enc := cbor.NewEncoder(w)
	hdr := captureHeader{
		Format:  captureFormat,
		Version: captureVersion,
		StartNS: start.UnixNano(),
	}
	if err := enc.Encode(hdr); err != nil {
		return nil, fmt.Errorf("writing capture header: %w", err)
	}
	return &CaptureWriter{enc: enc, start: start}, nil
}

// WriteFrame appends one frame with its offset from the capture start.
func (cw *CaptureWriter) WriteFrame(now time.Time, dir Direction, frame []byte) error {
	if len(frame) == 0 {
		return errors.New("frame is empty")
	}
	d := now.Sub(cw.start)
	if d < 0 {
		d = 0
	}
	rec := CaptureRecord{At: d.Nanoseconds(), Dir: dir, Frame: frame}
	if err := cw.enc.Encode(rec); err != nil {
		return fmt.Errorf("writing capture record: %w", err)
	}
	return nil
}

// CaptureReader reads records from a capture stream.
type CaptureReader struct {
	dec   *cbor.Decoder
	start time.Time
}

// NewCaptureReader validates the capture header and returns a reader
// positioned at the first record.
func NewCaptureReader(r io.Reader) (*CaptureReader, error) {
	dec := cbor.NewDecoder(r)
	var hdr captureHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("reading capture header: %w", err)
	}
	if hdr.Format != captureFormat {
		return nil, fmt.Errorf("not a capture file (format %q)", hdr.Format)
	}
	if hdr.Version > captureVersion {
		return nil, fmt.Errorf("unsupported capture version %d", hdr.Version)
	}
	return &CaptureReader{dec: dec, start: time.Unix(0, hdr.StartNS)}, nil
}

// Start returns the wall-clock time the capture began.
func (cr *CaptureReader) Start() time.Time { return cr.start }

// Next returns the next record, or io.EOF at the end of the stream.
func (cr *CaptureReader) Next() (CaptureRecord, error) {
	var rec CaptureRecord
	if err := cr.dec.Decode(&rec); err != nil {
		return CaptureRecord{}, err
	}
	return rec, nil
}

// ReadAll drains the remaining records.
func (cr *CaptureReader) ReadAll() ([]CaptureRecord, error) {
	recs := make([]CaptureRecord, 0, 1024)
	for {
		rec, err := cr.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

// Sleeper lets replay timing be faked in tests.
type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// Play replays records with their relative timing, invoking emit for each
// one. speed scales the waits: 1.0 is real time, 2.0 plays twice as fast.
// A nil sleeper sleeps for real. Filtering by direction is the caller's
// job, inside emit or by slicing records beforehand.
func Play(records []CaptureRecord, speed float64, loop bool, sleeper Sleeper, emit func(CaptureRecord) error) error {
	if speed <= 0 {
		return fmt.Errorf("speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if emit == nil {
		return errors.New("emit callback is nil")
	}
	if len(records) == 0 {
		return errors.New("no records")
	}

	for {
		var lastAt int64
		var haveLast bool

		for _, r := range records {
			if haveLast {
				wait := time.Duration(r.At - lastAt)
				if wait < 0 {
					wait = 0
				}
				wait = time.Duration(float64(wait) / speed)
				if wait > 0 {
					sleeper.Sleep(wait)
				}
			}

			if err := emit(r); err != nil {
				return err
			}

			lastAt = r.At
			haveLast = true
		}

		if !loop {
			return nil
		}
	}
}
