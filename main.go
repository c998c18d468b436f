// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems
//
// Mavscope - MAVLink Telemetry Link Analyzer
//
// A CLI tool for monitoring, analyzing, recording, and replaying MAVLink v2
// telemetry links over serial, UDP, and WebSocket transports.

package main

import (
	"os"

	"github.com/skysight/mavscope/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
