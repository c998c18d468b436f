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
	discoveryTimeout int
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Discover MAVLink systems on the link",
	Long: `Listen for HEARTBEAT messages and report every system on the link.

MAVLink systems beacon HEARTBEAT at 1 Hz, so a few seconds of listening
finds everything that is alive. A GCS heartbeat is sent first so that
bridges and autopilots which only talk to known peers start forwarding.

Each discovered system is reported with its type, autopilot, and state.

Examples:
  # Discover vehicles on a telemetry radio
  mavscope discovery --port /dev/ttyUSB0

  # Discover vehicles on a UDP telemetry stream
  mavscope discovery --udp :14550

Exit codes:
  0 - Discovery successful (at least one system found)
  1 - No systems found before timeout
  2 - Connection error`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 5, "Listen window in seconds")
}

// autopilotName maps a MAV_AUTOPILOT value to its name
func autopilotName(a byte) string {
	switch a {
	case 0:
		return "GENERIC"
	case 3:
		return "ARDUPILOT"
	case 4:
		return "OPENPILOT"
	case 8:
		return "INVALID"
	case 12:
		return "PX4"
	default:
		return fmt.Sprintf("AUTOPILOT_%d", a)
	}
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	// Open connection (serial, UDP, or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Mavscope - System Discovery\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Listen window: %d seconds\n\n", discoveryTimeout)

	decoder := mavlink.NewDecoder(linkConfig())
	encoder := mavlink.NewEncoder(linkConfig())

	// Announce ourselves so bridges start forwarding
	beacon, err := mavlink.BuildFrame(mavlink.MsgHeartbeat, gcsHeartbeatPayload())
	if err != nil {
		return err
	}

	fmt.Printf("Sending GCS heartbeat (system %d)...\n", localSystem)
	if _, err := conn.Write(encoder.Encode(beacon)); err != nil && err != ErrNoPeer {
		fmt.Printf("SEND FAILED: %v\n", err)
		os.Exit(2)
	}

	// Collect HEARTBEAT senders
	devices := make([]*discoveredSystem, 0)
	errChan := make(chan error, 1)

	go func() {
		seen := make(map[mavlink.SourceID]*discoveredSystem)
		buf := make([]byte, 2048)
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
					continue
				}
				if frame == nil {
					break
				}
				if frame.MessageID() != mavlink.MsgHeartbeat {
					continue
				}

				source := mavlink.SourceID{System: frame.SystemID(), Component: frame.ComponentID()}
				if dev := seen[source]; dev != nil {
					dev.heartbeats++
					continue
				}

				p := mavlink.PadPayload(frame.Payload(), mavlink.HeartbeatLen)
				dev := &discoveredSystem{
					source:     source,
					typeName:   mavTypeName(p[4]),
					autopilot:  autopilotName(p[5]),
					stateName:  mavStateName(p[7]),
					heartbeats: 1,
				}
				seen[source] = dev
				devices = append(devices, dev)

				fmt.Printf("\nSystem found:\n")
				fmt.Printf("  Source: %s\n", source)
				fmt.Printf("  Type: %s\n", dev.typeName)
				fmt.Printf("  Autopilot: %s\n", dev.autopilot)
				fmt.Printf("  State: %s\n", dev.stateName)
			}
		}
	}()

	// Wait out the listen window
	select {
	case err := <-errChan:
		fmt.Printf("READ FAILED: %v\n", err)
		os.Exit(2)
	case <-time.After(time.Duration(discoveryTimeout) * time.Second):
		if len(devices) == 0 {
			fmt.Printf("\nTIMEOUT: No heartbeats received in %ds\n", discoveryTimeout)
		}
	}

	// Summary
	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("Systems found: %d\n", len(devices))

	for _, dev := range devices {
		fmt.Printf("  %-7s %-15s autopilot=%-12s state=%-10s (%d heartbeats)\n",
			dev.source, dev.typeName, dev.autopilot, dev.stateName, dev.heartbeats)
	}

	if len(devices) == 0 {
		fmt.Printf("No systems discovered. Check connection and vehicle power.\n")
		os.Exit(1)
	}

	return nil
}

type discoveredSystem struct {
	source     mavlink.SourceID
	typeName   string
	autopilot  string
	stateName  string
	heartbeats uint64
}
