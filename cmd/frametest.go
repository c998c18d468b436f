// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/skysight/mavscope/pkg/mavlink"
	"github.com/spf13/cobra"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid MAVLink frame",
	Long: `Wait for a valid MAVLink v2 frame on the connection until timeout.

This command connects to a serial port, UDP socket, or WebSocket and waits
for any valid MAVLink frame. It ignores line noise and waits for a complete
frame passing the CRC check.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking that an autopilot or telemetry radio is alive.`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	// Open connection (serial, UDP, or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Mavscope - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid MAVLink frame...\n\n")

	decoder := mavlink.NewDecoder(linkConfig())
	buf := make([]byte, 2048)

	// Channel for frame reception
	frameChan := make(chan *mavlink.Frame, 1)
	errChan := make(chan error, 1)

	// Reader goroutine
	go func() {
		for {
			n, err := conn.Read(buf)
			if err != nil {
				errChan <- err
				return
			}

			decoder.Feed(buf[:n])
			for {
				frame, decodeErr := decoder.Next()
				if decodeErr != nil {
					// Ignore decode errors while probing
					continue
				}
				if frame == nil {
					break
				}

				// Got a valid frame!
				if dropped := decoder.Stats().SyncDrops; dropped > 0 {
					fmt.Printf("(skipped %d invalid bytes before sync)\n", dropped)
				}
				frameChan <- frame
				return
			}
		}
	}()

	// Wait for frame or timeout
	select {
	case frame := <-frameChan:
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  Message: %s (%d)\n", mavlink.MessageName(frame.MessageID()), frame.MessageID())
		fmt.Printf("  Source: %d:%d\n", frame.SystemID(), frame.ComponentID())
		fmt.Printf("  Sequence: %d\n", frame.Sequence())
		fmt.Printf("  Payload: %d bytes\n", frame.PayloadLength())
		fmt.Printf("  CRC: 0x%04X\n", frame.Checksum())
		os.Exit(0)

	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		os.Exit(2)

	case <-time.After(time.Duration(frameTestTimeout) * time.Second):
		fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
		os.Exit(1)
	}

	return nil
}
