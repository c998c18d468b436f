// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package cmd

import (
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/skysight/mavscope/pkg/mavlink"
	"github.com/spf13/cobra"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var linkStatsCmd = &cobra.Command{
	Use:   "link_stats",
	Short: "Track link quality, CRC errors, and frame loss",
	Long: `Monitor a MAVLink link and report quality statistics in real time.

This command validates every frame and tracks:
  - CRC errors and resync drops (line noise, baud mismatches)
  - Frame loss per sender, detected through sequence number gaps
  - Per-sender frame counts across all systems and components on the link
  - Rates and trends (frame rate, error rate)

By default, only errors are displayed. Use --show-all to display valid frames too.

Frames are validated in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runLinkStats,
}

func init() {
	rootCmd.AddCommand(linkStatsCmd)
	linkStatsCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	linkStatsCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	linkStatsCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runLinkStats(cmd *cobra.Command, args []string) error {
	// Open connection (serial, UDP, or WebSocket)
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	if useTUI {
		return runTUIMode(conn, connInfo)
	}
	return runTextMode(conn, connInfo)
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// severityName maps a MAV_SEVERITY value to its name
func severityName(sev byte) string {
	severityNames := []string{"EMERGENCY", "ALERT", "CRITICAL", "ERROR", "WARNING", "NOTICE", "INFO", "DEBUG"}
	if int(sev) < len(severityNames) {
		return severityNames[sev]
	}
	return "UNKNOWN"
}

// printStatusText prints an autopilot STATUSTEXT message
func printStatusText(frame *mavlink.Frame) {
	timestamp := frame.Timestamp().Format("15:04:05.000")
	payload := mavlink.PadPayload(frame.Payload(), 51)

	text := strings.TrimRight(string(payload[1:51]), "\x00")
	fmt.Printf("[%s] \033[1;32mSTATUSTEXT:\033[0m [%s] %s\n\n",
		timestamp, severityName(payload[0]), text)
}

// runTUIMode runs link monitoring in TUI mode
func runTUIMode(conn Connection, connInfo string) error {
	decoder := mavlink.NewDecoder(linkConfig())
	synchronized := false

	// Create TUI program
	m := initialModel(connInfo, statsInterval, showAll)
	p := tea.NewProgram(m)

	// Link reader goroutine
	go func() {
		buf := make([]byte, 2048)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}

			// Process bytes
			decoder.Feed(buf[:n])
			for {
				frame, decodeErr := decoder.Next()

				// Handle decode errors
				if decodeErr != nil {
					if synchronized {
						// We're synced, this is a real error
						p.Send(linkDataMsg{
							frame:     nil,
							decodeErr: decodeErr,
							decoder:   decoder.Stats(),
						})
					}
					continue
				}
				if frame == nil {
					break
				}

				// Successfully decoded a frame
				if !synchronized {
					// First frame! We're now synchronized
					synchronized = true
					p.Send(syncMsg{droppedBytes: decoder.Stats().SyncDrops})
				}

				p.Send(linkDataMsg{
					frame:     frame,
					decodeErr: nil,
					decoder:   decoder.Stats(),
				})
			}
		}
	}()

	// Run TUI
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}

	return nil
}

// runTextMode runs link monitoring in text mode (original behavior)
func runTextMode(conn Connection, connInfo string) error {
	fmt.Printf("Mavscope - Link Statistics Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := mavlink.NewDecoder(linkConfig())
	stats := mavlink.NewStatistics()

	// Sync tracking - ignore decode errors until first valid frame
	synchronized := false

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

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

	for {
		select {
		case data := <-linkBuf:
			// Process bytes
			decoder.Feed(data)
			for {
				frame, decodeErr := decoder.Next()

				// Handle decode errors
				if decodeErr != nil {
					if synchronized {
						// We're synced, this is a real error
						printDecodeError(decodeErr)
					}
					continue
				}
				if frame == nil {
					break
				}

				// Successfully decoded a frame
				if !synchronized {
					// First frame! We're now synchronized
					synchronized = true
					if dropped := decoder.Stats().SyncDrops; dropped > 0 {
						fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", dropped)
					} else {
						fmt.Printf("[SYNC] Synchronized\n\n")
					}
				}

				stats.Update(frame)

				// Print frame based on mode
				if frame.MessageID() == mavlink.MsgStatusText {
					// Always print autopilot status messages
					printStatusText(frame)
				} else if showAll {
					// Print valid frame (only if --show-all flag is set)
					fmt.Println(mavlink.FormatFrame(frame))
				}
			}
			stats.Observe(decoder.Stats())

		case <-statsTicker.C:
			// Print statistics
			stats.Observe(decoder.Stats())
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
