// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/skysight/mavscope/pkg/mavlink"
	"github.com/spf13/cobra"
)

var (
	heartbeatRate  float64
	heartbeatCount int
)

var heartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Beacon GCS heartbeats on the link",
	Long: `Send ground station HEARTBEAT messages at a fixed rate.

Most autopilots stream telemetry only while they hear a ground station,
and trigger a failsafe when heartbeats stop. This command keeps a link
alive, which is useful when testing radios or feeding a passive logger
that the autopilot would otherwise ignore.

Incoming frames are drained continuously, so on a listening UDP socket
the first vehicle to speak becomes the beacon's destination.`,
	RunE: runHeartbeat,
}

func init() {
	rootCmd.AddCommand(heartbeatCmd)
	heartbeatCmd.Flags().Float64Var(&heartbeatRate, "rate", 1.0, "Heartbeat rate in Hz")
	heartbeatCmd.Flags().IntVar(&heartbeatCount, "count", 0, "Stop after this many heartbeats (0 = run forever)")
}

// gcsHeartbeatPayload builds the HEARTBEAT payload a ground station beacons
func gcsHeartbeatPayload() []byte {
	p := make([]byte, mavlink.HeartbeatLen)
	p[4] = mavlink.TypeGCS
	p[5] = mavlink.AutopilotInvalid
	p[7] = mavlink.StateActive
	p[8] = 3 // mavlink_version field, always 3 on a v2 link
	return p
}

func runHeartbeat(cmd *cobra.Command, args []string) error {
	if heartbeatRate <= 0 {
		return fmt.Errorf("heartbeat rate must be positive, got %g", heartbeatRate)
	}

	// Open connection (serial, UDP, or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Mavscope - GCS Heartbeat Beacon\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Identity: system %d, component %d\n", localSystem, localComponent)
	fmt.Printf("Rate: %g Hz\n", heartbeatRate)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := mavlink.NewDecoder(linkConfig())
	encoder := mavlink.NewEncoder(linkConfig())

	beacon, err := mavlink.BuildFrame(mavlink.MsgHeartbeat, gcsHeartbeatPayload())
	if err != nil {
		return err
	}

	// Channel for non-blocking link reads
	linkBuf := make(chan []byte, 10)
	go func() {
		buf := make([]byte, 2048)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					log.Printf("Connection closed")
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			linkBuf <- data
		}
	}()

	period := time.Duration(float64(time.Second) / heartbeatRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	sources := make(map[mavlink.SourceID]struct{})
	sent := 0

	for {
		select {
		case data := <-linkBuf:
			// Drain incoming traffic, tracking who we can hear
			decoder.Feed(data)
			for {
				frame, decodeErr := decoder.Next()
				if decodeErr != nil {
					continue
				}
				if frame == nil {
					break
				}
				sources[mavlink.SourceID{System: frame.SystemID(), Component: frame.ComponentID()}] = struct{}{}
			}

		case <-ticker.C:
			out := encoder.Encode(beacon)
			if _, err := conn.Write(out); err != nil {
				if err == ErrNoPeer {
					// Listening UDP socket with no vehicle yet, keep trying
					continue
				}
				return fmt.Errorf("send failed: %v", err)
			}
			sent++

			timestamp := time.Now().Format("15:04:05.000")
			fmt.Printf("[%s] HEARTBEAT seq=%3d sent (hearing %d systems)\n",
				timestamp, out[4], len(sources))

			if heartbeatCount > 0 && sent >= heartbeatCount {
				fmt.Printf("\nSent %d heartbeats\n", sent)
				return nil
			}
		}
	}
}
