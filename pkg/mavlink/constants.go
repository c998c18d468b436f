// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

// Package mavlink implements framing for the MAVLink v2 wire protocol.
//
// MAVLink v2 frames telemetry and command messages exchanged between ground
// stations and flight controllers over stream transports (UDP, serial radio,
// WebSocket bridges). This package provides stream decoding with
// resynchronization, CRC-16/MCRF4XX validation with per-message CRC_EXTRA
// seeds, send-path header stamping, link statistics, and a capture log
// format for recording and replaying sessions.
//
// Signing (incompatibility flag 0x01) and MAVLink v1 frames are out of
// scope: signed frames are surfaced without verification, v1 bytes are
// treated as line noise.
package mavlink

// Wire framing
const (
	// Magic marks the start of every MAVLink v2 frame.
	Magic = 0xFD

	// HeaderLen is the fixed length of the v2 header, magic included.
	HeaderLen = 10

	// ChecksumLen is the length of the trailing CRC field.
	ChecksumLen = 2

	// MaxPayloadLen is the largest payload a single frame can carry.
	MaxPayloadLen = 255

	// MaxFrameLen is the largest possible frame: header + payload + CRC.
	MaxFrameLen = HeaderLen + MaxPayloadLen + ChecksumLen
)

// Header byte offsets. The payload length byte is the single source of
// truth for total frame length: total = HeaderLen + payload_len + ChecksumLen.
const (
	offPayloadLen  = 1
	offIncompat    = 2
	offCompat      = 3
	offSequence    = 4
	offSystemID    = 5
	offComponentID = 6
	offMessageID   = 7 // 3 bytes, little-endian
)

// Incompatibility flags
const (
	// IncompatFlagSigned marks a frame carrying a v2 signature trailer.
	IncompatFlagSigned = 0x01
)

// Session identity defaults
const (
	// DefaultSystemID is the conventional ground-station system ID.
	DefaultSystemID = 255

	// DefaultComponentID addresses all components of the target system.
	DefaultComponentID = 0
)

// Well-known message IDs (common dialect) used by the formatter and the
// mavscope commands. The full ID-to-metadata table lives in dialect.go.
const (
	MsgHeartbeat         = 0
	MsgSysStatus         = 1
	MsgSystemTime        = 2
	MsgPing              = 4
	MsgAttitude          = 30
	MsgGlobalPositionInt = 33
	MsgVFRHud            = 74
	MsgCommandLong       = 76
	MsgCommandAck        = 77
	MsgStatusText        = 253
)

// HEARTBEAT field values stamped by the send path when beaconing as a
// ground control station.
const (
	TypeGCS          = 6 // MAV_TYPE_GCS
	AutopilotInvalid = 8 // MAV_AUTOPILOT_INVALID
	StateActive      = 4 // MAV_STATE_ACTIVE
)

// HeartbeatLen is the full (untruncated) HEARTBEAT payload length.
const HeartbeatLen = 9
