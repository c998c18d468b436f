// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Skysight Systems

package cmd

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skysight/mavscope/pkg/mavlink"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for informational events
}

// Vehicle state assembled from HEARTBEAT and the common telemetry messages
type vehicleData struct {
	timestamp time.Time
	source    mavlink.SourceID

	typeName  string
	stateName string

	uptime    uint64 // milliseconds since autopilot boot
	hasUptime bool

	voltage    float64 // volts
	current    float64 // amps
	remaining  int8    // percent
	hasBattery bool

	roll, pitch, yaw float64 // degrees
	hasAttitude      bool

	lat, lon    float64 // degrees
	alt         float64 // metres AMSL
	heading     float64 // degrees
	hasPosition bool
}

// TUI model
type model struct {
	connInfo      string
	statsInterval int
	showAll       bool
	stats         *mavlink.Statistics
	sourceTable   table.Model
	eventLog      []eventLogEntry
	maxLogEntries int
	synchronized  bool
	droppedBytes  uint64
	width         int
	height        int
	quitting      bool
	lastVehicle   *vehicleData
}

// Messages
type tickMsg time.Time
type linkDataMsg struct {
	frame     *mavlink.Frame
	decodeErr error
	decoder   mavlink.DecoderStats
}
type syncMsg struct {
	droppedBytes uint64
}

// formatUptime formats uptime in milliseconds to human-friendly string
func formatUptime(ms uint64) string {
	if ms == 0 {
		return "0 seconds"
	}

	seconds := ms / 1000
	units := []struct {
		name string
		size uint64
	}{
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
		{"second", 1},
	}

	parts := []string{}
	for _, u := range units {
		n := seconds / u.size
		seconds %= u.size
		if n == 0 {
			continue
		}
		if n == 1 {
			parts = append(parts, "1 "+u.name)
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", n, u.name))
		}
	}
	if len(parts) == 0 {
		return "0 seconds"
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

// mavTypeName maps a MAV_TYPE value to its name
func mavTypeName(t byte) string {
	typeNames := []string{
		"GENERIC", "FIXED_WING", "QUADROTOR", "COAXIAL", "HELICOPTER",
		"ANTENNA_TRACKER", "GCS", "AIRSHIP", "FREE_BALLOON", "ROCKET",
		"GROUND_ROVER", "SURFACE_BOAT", "SUBMARINE", "HEXAROTOR",
		"OCTOROTOR", "TRICOPTER",
	}
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("TYPE_%d", t)
}

// mavStateName maps a MAV_STATE value to its name
func mavStateName(s byte) string {
	stateNames := []string{
		"UNINIT", "BOOT", "CALIBRATING", "STANDBY", "ACTIVE",
		"CRITICAL", "EMERGENCY", "POWEROFF", "FLIGHT_TERMINATION",
	}
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("STATE_%d", s)
}

func initialModel(connInfo string, statsInterval int, showAll bool) model {
	columns := []table.Column{
		{Title: "Source", Width: 9},
		{Title: "Frames", Width: 8},
		{Title: "Lost", Width: 6},
		{Title: "Seq", Width: 5},
		{Title: "Last Seen", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(5),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Foreground(lipgloss.Color("12"))
	styles.Selected = lipgloss.NewStyle() // monitor view, no row selection
	t.SetStyles(styles)

	return model{
		connInfo:      connInfo,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         mavlink.NewStatistics(),
		sourceTable:   t,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		synchronized:  false,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.lastVehicle = nil
			m.refreshSourceTable()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Update statistics rates and the per-source table
		m.stats.CalculateRates()
		m.refreshSourceTable()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.droppedBytes = msg.droppedBytes
		if msg.droppedBytes > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d invalid bytes", msg.droppedBytes), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case linkDataMsg:
		m.stats.Observe(msg.decoder)

		if msg.decodeErr != nil {
			if m.synchronized {
				m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
			}
		} else if msg.frame != nil {
			m.stats.Update(msg.frame)

			// Track vehicle state
			m.parseVehicle(msg.frame)

			if msg.frame.MessageID() == mavlink.MsgStatusText {
				payload := mavlink.PadPayload(msg.frame.Payload(), 51)
				text := strings.TrimRight(string(payload[1:51]), "\x00")
				// Severities EMERGENCY through ERROR count as errors
				m.addLogEntry(fmt.Sprintf("STATUSTEXT [%s]: %s", severityName(payload[0]), text), payload[0] <= 3)
			} else if m.showAll {
				m.addLogEntry(fmt.Sprintf("%s from %d:%d",
					mavlink.MessageName(msg.frame.MessageID()),
					msg.frame.SystemID(), msg.frame.ComponentID()), false)
			}
		}
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// refreshSourceTable rebuilds the per-source table rows from the statistics
func (m *model) refreshSourceTable() {
	ids := make([]mavlink.SourceID, 0, len(m.stats.Sources))
	for id := range m.stats.Sources {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].System != ids[j].System {
			return ids[i].System < ids[j].System
		}
		return ids[i].Component < ids[j].Component
	})

	rows := make([]table.Row, 0, len(ids))
	for _, id := range ids {
		src := m.stats.Sources[id]
		rows = append(rows, table.Row{
			id.String(),
			fmt.Sprintf("%d", src.Frames),
			fmt.Sprintf("%d", src.Lost),
			fmt.Sprintf("%d", src.LastSequence),
			src.LastSeen.Format("15:04:05"),
		})
	}
	m.sourceTable.SetRows(rows)
}

// parseVehicle extracts vehicle state from telemetry frames
func (m *model) parseVehicle(frame *mavlink.Frame) {
	source := mavlink.SourceID{System: frame.SystemID(), Component: frame.ComponentID()}
	payload := frame.Payload()

	if frame.MessageID() == mavlink.MsgHeartbeat {
		p := mavlink.PadPayload(payload, mavlink.HeartbeatLen)

		// Another ground station's beacon, not a vehicle
		if p[4] == mavlink.TypeGCS {
			return
		}

		if m.lastVehicle == nil || m.lastVehicle.source != source {
			m.lastVehicle = &vehicleData{source: source}
		}
		m.lastVehicle.timestamp = time.Now()
		m.lastVehicle.typeName = mavTypeName(p[4])
		m.lastVehicle.stateName = mavStateName(p[7])
		return
	}

	// Telemetry only extends the vehicle we are already tracking
	if m.lastVehicle == nil || m.lastVehicle.source != source {
		return
	}
	v := m.lastVehicle

	switch frame.MessageID() {
	case mavlink.MsgSysStatus:
		p := mavlink.PadPayload(payload, 31)
		v.voltage = float64(binary.LittleEndian.Uint16(p[14:])) / 1000.0
		v.current = float64(int16(binary.LittleEndian.Uint16(p[16:]))) / 100.0
		v.remaining = int8(p[30])
		v.hasBattery = true

	case mavlink.MsgAttitude:
		p := mavlink.PadPayload(payload, 28)
		v.uptime = uint64(binary.LittleEndian.Uint32(p[0:]))
		v.hasUptime = true
		v.roll = radToDeg(p[4:])
		v.pitch = radToDeg(p[8:])
		v.yaw = radToDeg(p[12:])
		v.hasAttitude = true

	case mavlink.MsgGlobalPositionInt:
		p := mavlink.PadPayload(payload, 28)
		v.lat = mavlink.DegE7(int32(binary.LittleEndian.Uint32(p[4:])))
		v.lon = mavlink.DegE7(int32(binary.LittleEndian.Uint32(p[8:])))
		v.alt = float64(int32(binary.LittleEndian.Uint32(p[12:]))) / 1000.0
		v.heading = float64(binary.LittleEndian.Uint16(p[26:])) / 100.0
		v.hasPosition = true
	}

	v.timestamp = time.Now()
}

// radToDeg reads a little-endian float32 of radians and returns degrees
func radToDeg(p []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(p))) * 180.0 / math.Pi
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("MAVSCOPE - LINK MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Mode: %s | Press 'q' to quit, 'r' to reset",
		m.connInfo, func() string {
			if m.showAll {
				return "All frames"
			}
			return "Errors only"
		}())))
	s.WriteString("\n\n")

	// Sync status
	if !m.synchronized {
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.droppedBytes > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d invalid bytes)", m.droppedBytes)))
		}
		s.WriteString("\n\n")
	}

	// Statistics
	m.stats.CalculateRates()
	ds := m.stats.Decoder
	total := ds.Frames + ds.CRCErrors + ds.Filtered
	var validPercent, errorPercent float64
	if total > 0 {
		validPercent = float64(ds.Frames) * 100.0 / float64(total)
		errorPercent = float64(ds.CRCErrors) * 100.0 / float64(total)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", total)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", ds.Frames, validPercent)),
		statsLabelStyle.Render("CRC Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", ds.CRCErrors, errorPercent)),
	))

	if ds.SyncDrops > 0 || ds.UnknownMessages > 0 || ds.Filtered > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Sync Drops:"), warningStyle.Render(fmt.Sprintf("%d bytes", ds.SyncDrops)),
			statsLabelStyle.Render("Unknown:"), statsValueStyle.Render(fmt.Sprintf("%d", ds.UnknownMessages)),
			statsLabelStyle.Render("Filtered:"), statsValueStyle.Render(fmt.Sprintf("%d", ds.Filtered)),
		))
	}

	if lost := m.stats.TotalLost(); lost > 0 {
		lossPercent := float64(lost) * 100.0 / float64(ds.Frames+lost)
		statsContent.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Lost Frames:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", lost, lossPercent)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f frames/s", m.stats.FrameRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Vehicle section (only shown once a vehicle has been heard)
	if m.lastVehicle != nil {
		s.WriteString(statsLabelStyle.Render("Vehicle:"))
		s.WriteString("\n")

		v := m.lastVehicle
		vehicleContent := strings.Builder{}

		vehicleContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Source:"), statsValueStyle.Render(v.source.String()),
			statsLabelStyle.Render("Type:"), statsValueStyle.Render(v.typeName),
			statsLabelStyle.Render("State:"), func() string {
				if v.stateName == "CRITICAL" || v.stateName == "EMERGENCY" {
					return errorStyle.Render(v.stateName)
				}
				return statsValueStyle.Render(v.stateName)
			}(),
		))

		if v.hasUptime {
			vehicleContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Uptime:"), statsValueStyle.Render(formatUptime(v.uptime)),
			))
		}

		if v.hasBattery {
			battStyle := statsValueStyle
			if v.remaining >= 0 && v.remaining < 20 {
				battStyle = warningStyle
			}
			vehicleContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Battery:"),
				battStyle.Render(fmt.Sprintf("%.2fV %.2fA (%d%%)", v.voltage, v.current, v.remaining)),
			))
		}

		if v.hasAttitude {
			vehicleContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Attitude:"),
				statsValueStyle.Render(fmt.Sprintf("roll=%.1f pitch=%.1f yaw=%.1f", v.roll, v.pitch, v.yaw)),
			))
		}

		if v.hasPosition {
			vehicleContent.WriteString(fmt.Sprintf("%s %s\n",
				statsLabelStyle.Render("Position:"),
				statsValueStyle.Render(fmt.Sprintf("lat=%.7f lon=%.7f alt=%.1fm hdg=%.1f", v.lat, v.lon, v.alt, v.heading)),
			))
		}

		s.WriteString(boxStyle.Render(vehicleContent.String()))
		s.WriteString("\n\n")
	}

	// Per-source table (only shown once senders have been heard)
	if len(m.stats.Sources) > 0 {
		s.WriteString(statsLabelStyle.Render("Sources:"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(m.sourceTable.View()))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	// Calculate how many log entries we can show
	logHeight := m.height - 24 // Reserve space for header, stats, and tables
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
