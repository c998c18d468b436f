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
	replayFile      string
	replaySpeed     float64
	replayLoop      bool
	replayPrint     bool
	replayDirection string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded capture file",
	Long: `Replay frames from a capture file recorded with raw_log --record.

Frames are emitted with their original timing, scaled by --speed. By
default the replay is written to the connection, turning a recorded
session into live traffic for testing ground station software. With
--print, frames are decoded and printed instead, which needs no
connection at all.

Captures record both directions; --direction selects which side to
replay (in = frames received from the link, out = frames sent).

Examples:
  # Inspect a capture offline
  mavscope replay --file flight.cap --print

  # Stream a capture to a ground station at double speed
  mavscope replay --file flight.cap --udp :14550 --speed 2.0`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayFile, "file", "", "Capture file to replay (required)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "Restart from the beginning when the capture ends")
	replayCmd.Flags().BoolVar(&replayPrint, "print", false, "Decode and print frames instead of sending them")
	replayCmd.Flags().StringVar(&replayDirection, "direction", "in", "Which captured frames to replay (in, out, both)")
	replayCmd.MarkFlagRequired("file")
}

func runReplay(cmd *cobra.Command, args []string) error {
	var wantDir mavlink.Direction
	switch replayDirection {
	case "in":
		wantDir = mavlink.DirIn
	case "out":
		wantDir = mavlink.DirOut
	case "both":
	default:
		return fmt.Errorf("invalid --direction %q (use in, out, or both)", replayDirection)
	}

	f, err := os.Open(replayFile)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %v", err)
	}
	defer f.Close()

	reader, err := mavlink.NewCaptureReader(f)
	if err != nil {
		return fmt.Errorf("%s: %v", replayFile, err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read capture: %v", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("capture file contains no frames")
	}

	duration := time.Duration(records[len(records)-1].At - records[0].At)

	// Destination: the connection, or stdout with --print
	var conn Connection
	connInfo := "stdout (decoded)"
	if !replayPrint {
		conn, connInfo, err = OpenConnection()
		if err != nil {
			return err
		}
		defer conn.Close()
	}

	fmt.Printf("Mavscope - Capture Replay\n")
	fmt.Printf("File: %s (%d records, %.1fs)\n", replayFile, len(records), duration.Seconds())
	fmt.Printf("Recorded: %s\n", reader.Start().Format("2006-01-02 15:04:05"))
	fmt.Printf("Speed: %gx   Loop: %v   Direction: %s\n", replaySpeed, replayLoop, replayDirection)
	fmt.Printf("Output: %s\n\n", connInfo)

	printDecoder := mavlink.NewDecoder(linkConfig())
	replayed := 0

	emit := func(rec mavlink.CaptureRecord) error {
		if replayDirection != "both" && rec.Dir != wantDir {
			return nil
		}

		if conn != nil {
			if _, err := conn.Write(rec.Frame); err != nil {
				return fmt.Errorf("send failed: %v", err)
			}
			replayed++
			return nil
		}

		// Captured frames are already whole, so the decoder yields
		// exactly one frame (or one diagnostic) per record
		printDecoder.Feed(rec.Frame)
		for {
			frame, err := printDecoder.Next()
			if err != nil {
				fmt.Printf("[ERROR] %v\n", err)
				continue
			}
			if frame == nil {
				break
			}
			fmt.Printf("%-3s %s\n", rec.Dir, mavlink.FormatFrame(frame))
		}
		replayed++
		return nil
	}

	if err := mavlink.Play(records, replaySpeed, replayLoop, nil, emit); err != nil {
		return err
	}

	fmt.Printf("\nReplayed %d frames\n", replayed)
	return nil
}
