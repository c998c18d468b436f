// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package cmd

import (
	"github.com/skysight/mavscope/pkg/mavlink"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// UDP connection flags
	udpListen string
	udpRemote string

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Link identity flags
	localSystem    int
	localComponent int
	targetSystem   int
)

var rootCmd = &cobra.Command{
	Use:   "mavscope",
	Short: "MAVLink Telemetry Link Analyzer",
	Long: `Mavscope - A CLI tool for monitoring and analyzing MAVLink v2 telemetry links.

Provides commands for raw frame logging, link quality statistics, latency
probing, and capture recording/replay to help diagnose telemetry issues.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  UDP:       --udp :14550 [--remote 192.168.4.1:14550]
  WebSocket: --url ws://host/mavlink [--username user]

For WebSocket authentication, the password is read from the MAVSCOPE_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.2.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	// UDP connection flags
	rootCmd.PersistentFlags().StringVar(&udpListen, "udp", "", "UDP listen address (e.g. :14550)")
	rootCmd.PersistentFlags().StringVar(&udpRemote, "remote", "", "Fixed UDP peer address (UDP only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Link identity flags
	rootCmd.PersistentFlags().IntVar(&localSystem, "sysid", mavlink.DefaultSystemID, "System ID stamped on outgoing frames")
	rootCmd.PersistentFlags().IntVar(&localComponent, "compid", mavlink.DefaultComponentID, "Component ID stamped on outgoing frames")
	rootCmd.PersistentFlags().IntVar(&targetSystem, "target", 0, "Only accept frames from this system ID (0 = all)")
}

// linkConfig assembles the codec configuration from the persistent flags.
func linkConfig() mavlink.Config {
	return mavlink.Config{
		SystemID:     byte(localSystem),
		ComponentID:  byte(localComponent),
		TargetSystem: byte(targetSystem),
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
