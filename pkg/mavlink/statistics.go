// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

import (
	"fmt"
	"sort"
	"time"
)

// SourceID identifies one sender on a link by system and component ID.
type SourceID struct {
	System    byte
	Component byte
}

func (id SourceID) String() string {
	return fmt.Sprintf("%d:%d", id.System, id.Component)
}

// SourceStats tracks one sender's frame count and sequence continuity.
type SourceStats struct {
	Frames       uint64
	Lost         uint64
	LastSequence byte
	LastSeen     time.Time

	haveSeq bool
}

// Statistics tracks link-level frame statistics and error rates across
// everything a decoder has yielded.
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Decoder is the most recent counter snapshot from the decoder.
	Decoder DecoderStats

	// Messages counts yielded frames per message ID.
	Messages map[uint32]uint64

	// Sources tracks every sender seen on the link.
	Sources map[SourceID]*SourceStats

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
		Messages:       make(map[uint32]uint64),
		Sources:        make(map[SourceID]*SourceStats),
	}
}

// Update records one yielded frame: per-message and per-source counts plus
// sequence-gap detection against the sender's previous frame.
func (s *Statistics) Update(f *Frame) {
	s.Messages[f.MessageID()]++

	id := SourceID{System: f.SystemID(), Component: f.ComponentID()}
	src := s.Sources[id]
	if src == nil {
		src = &SourceStats{}
		s.Sources[id] = src
	}

	if src.haveSeq {
		// Byte subtraction wraps mod 256, so a 255 -> 0 step is a gap
		// of zero and a 3 -> 3 repeat counts as 255 lost.
		gap := f.Sequence() - src.LastSequence - 1
		src.Lost += uint64(gap)
	}
	src.haveSeq = true
	src.LastSequence = f.Sequence()
	src.Frames++
	src.LastSeen = f.Timestamp()

	s.LastUpdateTime = time.Now()
}

// Observe stores the decoder's counter snapshot for rate calculation and
// display. Call it alongside Update, or on whatever cadence the caller
// refreshes its view.
func (s *Statistics) Observe(ds DecoderStats) {
	s.Decoder = ds
}

// TotalLost sums sequence-gap losses across all senders.
func (s *Statistics) TotalLost() uint64 {
	var lost uint64
	for _, src := range s.Sources {
		lost += src.Lost
	}
	return lost
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.Decoder.Frames) / elapsed
		errorCount := s.Decoder.CRCErrors + s.TotalLost()
		s.ErrorRate = float64(errorCount) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	total := s.Decoder.Frames + s.Decoder.CRCErrors + s.Decoder.Filtered
	var validPercent, crcErrorPercent float64
	if total > 0 {
		validPercent = float64(s.Decoder.Frames) * 100.0 / float64(total)
		crcErrorPercent = float64(s.Decoder.CRCErrors) * 100.0 / float64(total)
	}

	lost := s.TotalLost()
	var lossPercent float64
	if s.Decoder.Frames+lost > 0 {
		lossPercent = float64(lost) * 100.0 / float64(s.Decoder.Frames+lost)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Link Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Frames:          %8d (%.1f%%)\n", s.Decoder.Frames, validPercent)

	if s.Decoder.CRCErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d (%.1f%%)\n", s.Decoder.CRCErrors, crcErrorPercent)
	}
	if s.Decoder.SyncDrops > 0 {
		result += fmt.Sprintf("Sync Drops:      %8d bytes\n", s.Decoder.SyncDrops)
	}
	if s.Decoder.UnknownMessages > 0 {
		result += fmt.Sprintf("Unknown Msgs:    %8d\n", s.Decoder.UnknownMessages)
	}
	if s.Decoder.Filtered > 0 {
		result += fmt.Sprintf("Filtered:        %8d\n", s.Decoder.Filtered)
	}
	if lost > 0 {
		result += fmt.Sprintf("Lost Frames:     %8d (%.1f%%)\n", lost, lossPercent)
	}

	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)

	if len(s.Sources) > 0 {
		ids := make([]SourceID, 0, len(s.Sources))
		for id := range s.Sources {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if ids[i].System != ids[j].System {
				return ids[i].System < ids[j].System
			}
			return ids[i].Component < ids[j].Component
		})

		result += "Sources:\n"
		for _, id := range ids {
			src := s.Sources[id]
			result += fmt.Sprintf("  %-7s frames: %6d  lost: %4d  last seq: %3d\n",
				id, src.Frames, src.Lost, src.LastSequence)
		}
	}

	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.Decoder = DecoderStats{}
	s.Messages = make(map[uint32]uint64)
	s.Sources = make(map[SourceID]*SourceStats)
	s.FrameRate = 0
	s.ErrorRate = 0
}
