// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/skysight/mavscope/pkg/mavlink"
	"github.com/spf13/cobra"
)

var (
	recordPath  string
	showUnknown bool
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw frame log in human-readable format",
	Long: `Continuously decode and display MAVLink v2 frames as they arrive.

Each frame is shown with timestamp, source system and component, sequence
number, message name, and decoded payload fields. Frames with unknown
message IDs are shown as hex dumps.

With --record, every validated frame is also appended to a capture file
that can be replayed later with the replay command.

Supports serial, UDP, and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().StringVar(&recordPath, "record", "", "Write received frames to a capture file")
	rawLogCmd.Flags().BoolVar(&showUnknown, "show-unknown", true, "Display frames with unknown message IDs")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	// Open connection (serial, UDP, or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Mavscope - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)

	var capture *mavlink.CaptureWriter
	if recordPath != "" {
		f, err := os.Create(recordPath)
		if err != nil {
			return fmt.Errorf("failed to create capture file: %v", err)
		}
		defer f.Close()

		capture, err = mavlink.NewCaptureWriter(f)
		if err != nil {
			return fmt.Errorf("failed to write capture header: %v", err)
		}
		fmt.Printf("Recording to: %s\n", recordPath)
	}

	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := mavlink.NewDecoder(linkConfig())

	// Datagram-sized buffer so UDP reads never truncate a frame
	buf := make([]byte, 2048)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		decoder.Feed(buf[:n])
		for {
			frame, err := decoder.Next()
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if frame == nil {
				break
			}

			if capture != nil {
				if err := capture.WriteFrame(time.Now(), mavlink.DirIn, frame.Bytes()); err != nil {
					return fmt.Errorf("capture write failed: %v", err)
				}
			}

			if !showUnknown {
				if _, known := mavlink.Common.Lookup(frame.MessageID()); !known {
					continue
				}
			}

			fmt.Println(mavlink.FormatFrame(frame))
		}
	}
}
