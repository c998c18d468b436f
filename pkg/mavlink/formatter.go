// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package mavlink

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// MessageName returns the Common dialect name for a message ID, or a
// numeric placeholder for IDs outside the dialect.
func MessageName(id uint32) string {
	if msg, ok := Common.Lookup(id); ok {
		return msg.Name
	}
	return fmt.Sprintf("MSG_%d", id)
}

// DegE7 converts a fixed-point degrees-times-1e7 value, the encoding
// MAVLink uses for latitude and longitude, to floating-point degrees.
func DegE7(v int32) float64 {
	return float64(v) / 1e7
}

// FormatFrame renders one frame as a single log line: receive timestamp,
// sender, sequence, message name, then decoded fields for the common
// telemetry messages or a hex dump for everything else.
func FormatFrame(f *Frame) string {
	line := fmt.Sprintf("%s [%3d:%-3d seq=%3d] %-19s %s",
		f.Timestamp().Format("15:04:05.000"),
		f.SystemID(), f.ComponentID(), f.Sequence(),
		MessageName(f.MessageID()),
		formatPayload(f.MessageID(), f.Payload()))
	return strings.TrimRight(line, " ")
}

// formatPayload decodes the messages an operator reads constantly during a
// link check. Everything else falls back to a hex dump.
func formatPayload(id uint32, payload []byte) string {
	switch id {
	case MsgHeartbeat:
		p := PadPayload(payload, 9)
		return fmt.Sprintf("type=%d autopilot=%d mode=0x%02X status=%d",
			p[4], p[5], p[6], p[7])

	case MsgSysStatus:
		p := PadPayload(payload, 31)
		load := float64(binary.LittleEndian.Uint16(p[12:])) / 10.0
		voltage := float64(binary.LittleEndian.Uint16(p[14:])) / 1000.0
		current := float64(int16(binary.LittleEndian.Uint16(p[16:]))) / 100.0
		remaining := int8(p[30])
		return fmt.Sprintf("load=%.1f%% batt=%.2fV %.2fA remaining=%d%%",
			load, voltage, current, remaining)

	case MsgPing:
		p := PadPayload(payload, 14)
		return fmt.Sprintf("seq=%d time_usec=%d target=%d:%d",
			binary.LittleEndian.Uint32(p[8:]),
			binary.LittleEndian.Uint64(p[0:]),
			p[12], p[13])

	case MsgAttitude:
		p := PadPayload(payload, 28)
		return fmt.Sprintf("roll=%.1f pitch=%.1f yaw=%.1f",
			degrees(p[4:]), degrees(p[8:]), degrees(p[12:]))

	case MsgGlobalPositionInt:
		p := PadPayload(payload, 28)
		lat := DegE7(int32(binary.LittleEndian.Uint32(p[4:])))
		lon := DegE7(int32(binary.LittleEndian.Uint32(p[8:])))
		alt := float64(int32(binary.LittleEndian.Uint32(p[12:]))) / 1000.0
		relAlt := float64(int32(binary.LittleEndian.Uint32(p[16:]))) / 1000.0
		hdg := float64(binary.LittleEndian.Uint16(p[26:])) / 100.0
		return fmt.Sprintf("lat=%.7f lon=%.7f alt=%.1fm rel=%.1fm hdg=%.1f",
			lat, lon, alt, relAlt, hdg)

	case MsgVFRHud:
		p := PadPayload(payload, 20)
		return fmt.Sprintf("air=%.1fm/s gnd=%.1fm/s alt=%.1fm climb=%.1fm/s hdg=%d thr=%d%%",
			float32frombytes(p[0:]), float32frombytes(p[4:]),
			float32frombytes(p[8:]), float32frombytes(p[12:]),
			int16(binary.LittleEndian.Uint16(p[16:])),
			binary.LittleEndian.Uint16(p[18:]))

	case MsgCommandAck:
		p := PadPayload(payload, 3)
		return fmt.Sprintf("command=%d result=%d",
			binary.LittleEndian.Uint16(p[0:]), p[2])

	case MsgStatusText:
		p := PadPayload(payload, 51)
		text := p[1:51]
		if i := strings.IndexByte(string(text), 0); i >= 0 {
			text = text[:i]
		}
		return fmt.Sprintf("sev=%d %q", p[0], text)

	default:
		if len(payload) == 0 {
			return ""
		}
		return fmt.Sprintf("% X", payload)
	}
}

// PadPayload zero-extends a payload to its full dialect layout. MAVLink v2
// senders trim trailing zero bytes, so a short payload means zeros.
func PadPayload(p []byte, n int) []byte {
	if len(p) >= n {
		return p
	}
	out := make([]byte, n)
	copy(out, p)
	return out
}

func float32frombytes(p []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(p))
}

func degrees(p []byte) float64 {
	return float64(float32frombytes(p)) * 180.0 / math.Pi
}
