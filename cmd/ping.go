// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package cmd

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"github.com/skysight/mavscope/pkg/mavlink"
	"github.com/spf13/cobra"
)

var (
	pingTimeout int
	pingCount   int
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure round-trip time with MAVLink PING",
	Long: `Send MAVLink PING requests and wait for the echoed reply.

A PING request carries a timestamp and sequence number with an empty
target; whoever receives it echoes both back addressed to the sender.
The round trip puts a number on link latency through radios, routers,
and WebSocket bridges.

Exit codes:
  0 - All pings answered
  1 - One or more pings lost or timed out
  2 - Connection error`,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of pings to send")
}

// pingPayload builds a PING request: timestamp, sequence, empty target
func pingPayload(seq uint32) []byte {
	p := make([]byte, 14)
	binary.LittleEndian.PutUint64(p[0:], uint64(time.Now().UnixMicro()))
	binary.LittleEndian.PutUint32(p[8:], seq)
	return p
}

func runPing(cmd *cobra.Command, args []string) error {
	// Open connection (serial, UDP, or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Mavscope - Link Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", pingTimeout)
	fmt.Printf("Count: %d pings\n\n", pingCount)

	encoder := mavlink.NewEncoder(linkConfig())
	successCount := 0
	failCount := 0

	// One reader goroutine feeds all ping rounds
	frames := make(chan *mavlink.Frame, 32)
	errChan := make(chan error, 1)

	go func() {
		decoder := mavlink.NewDecoder(linkConfig())
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
					// Ignore decode errors
					continue
				}
				if frame == nil {
					break
				}
				frames <- frame
			}
		}
	}()

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, pingCount)

		seq := uint32(i)
		raw, err := mavlink.BuildFrame(mavlink.MsgPing, pingPayload(seq))
		if err != nil {
			return err
		}

		// Send ping
		startTime := time.Now()
		_, err = conn.Write(encoder.Encode(raw))
		if err != nil {
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		// Wait for the echoed reply or timeout
		deadline := time.After(time.Duration(pingTimeout) * time.Second)
		waiting := true
		for waiting {
			select {
			case frame := <-frames:
				if frame.MessageID() != mavlink.MsgPing {
					continue
				}
				p := mavlink.PadPayload(frame.Payload(), 14)
				// A reply echoes our sequence and names a target; requests
				// leave the target empty
				if binary.LittleEndian.Uint32(p[8:]) != seq || p[12] == 0 {
					continue
				}

				rtt := time.Since(startTime)
				fmt.Printf("PONG from %d:%d, rtt=%v\n",
					frame.SystemID(), frame.ComponentID(), rtt.Round(time.Millisecond))
				successCount++
				waiting = false

			case err := <-errChan:
				fmt.Printf("READ FAILED: %v\n", err)
				failCount++
				waiting = false

			case <-deadline:
				fmt.Printf("TIMEOUT (no response in %ds)\n", pingTimeout)
				failCount++
				waiting = false
			}
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Summary
	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d responses received, %.0f%% packet loss\n",
		pingCount, successCount, float64(failCount)/float64(pingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
