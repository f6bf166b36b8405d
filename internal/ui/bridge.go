package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/iometer/pkg/iometer"
)

const absent = "n/a"

// BridgeRow is one line of a bridge listing
type BridgeRow struct {
	Name     string // Nickname or mDNS instance
	Host     string // Address the client should use
	Detail   string // Firmware, meter or TXT summary
	LastSeen time.Time
}

// RenderReading renders a meter reading box
func RenderReading(r *iometer.Reading, host string, width int) string {
	power, hasPower := r.CurrentPower()
	consumption, hasConsumption := r.TotalConsumption()
	production, hasProduction := r.TotalProduction()

	lines := []string{
		TitleStyle.Render("METER READING"),
		SubtitleStyle.Render(host),
		RenderHorizontalDivider(dividerWidth(width), "─"),
		renderDetail("Meter", ValueStyle.Render(r.Meter.Number)),
		renderDetail("Time", ValueStyle.Render(r.Meter.Reading.Time.UTC().Format(time.RFC3339))),
		renderDetail("Current power", renderQuantity(power, hasPower, "W")),
		renderDetail("Total consumption", renderQuantity(consumption, hasConsumption, "Wh")),
		renderDetail("Total production", renderQuantity(production, hasProduction, "Wh")),
		"",
		SectionStyle.Render("Registers"),
	}

	if len(r.Meter.Reading.Registers) == 0 {
		lines = append(lines, AbsentStyle.Render("(none)"))
	}
	for _, reg := range r.Meter.Reading.Registers {
		lines = append(lines, renderDetail(reg.OBIS, ValueStyle.Render(formatNumber(reg.Value)+" "+reg.Unit)))
	}

	return ContentBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderStatus renders a bridge and core module status box
func RenderStatus(s *iometer.Status, host string, width int) string {
	meter := AbsentStyle.Render("(no meter paired)")
	if s.Meter != nil {
		if number, ok := s.Meter.Number(); ok {
			meter = ValueStyle.Render(number)
		}
	}

	lines := []string{
		TitleStyle.Render("BRIDGE STATUS"),
		SubtitleStyle.Render(host),
		RenderHorizontalDivider(dividerWidth(width), "─"),
		renderDetail("Device ID", ValueStyle.Render(s.Device.ID)),
		renderDetail("Firmware", ValueStyle.Render(s.Device.Bridge.Version)),
		renderDetail("WiFi RSSI", ValueStyle.Render(fmt.Sprintf("%d dBm", s.Device.Bridge.RSSI))),
		renderDetail("Meter", meter),
		"",
		SectionStyle.Render("Core module"),
	}

	core := s.Device.Core
	lines = append(lines, renderDetail("Connection", stateStyle(string(core.ConnectionStatus),
		string(iometer.ConnectionConnected), string(iometer.ConnectionDisconnected))))

	if core.Connected() {
		lines = append(lines,
			renderDetail("Firmware", renderOptional(core.Version)),
			renderDetail("RSSI", renderOptionalInt(core.RSSI, " dBm")),
			renderDetail("Power", renderPower(core)),
			renderDetail("Attachment", renderOptionalState((*string)(core.AttachmentStatus),
				string(iometer.AttachmentAttached), string(iometer.AttachmentDetached))),
			renderDetail("PIN", renderOptionalState((*string)(core.PinStatus),
				string(iometer.PinEntered), string(iometer.PinMissing))),
		)
	}

	return ContentBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderBridgeList renders a table of bridges
func RenderBridgeList(title string, rows []BridgeRow, width int) string {
	lines := []string{
		TitleStyle.Render(strings.ToUpper(title)),
		RenderHorizontalDivider(dividerWidth(width), "─"),
	}

	if len(rows) == 0 {
		lines = append(lines, AbsentStyle.Render("(none)"))
		return ContentBoxStyle(width).Render(strings.Join(lines, "\n"))
	}

	nameCol := lipgloss.NewStyle().Width(24).Foreground(TextColor).Bold(true)
	hostCol := lipgloss.NewStyle().Width(22).Foreground(TextColor)
	for _, row := range rows {
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			nameCol.Render(row.Name),
			hostCol.Render(row.Host),
			SubtitleStyle.Render(row.Detail),
		)
		lines = append(lines, line)
		if !row.LastSeen.IsZero() {
			lines = append(lines, SubtitleStyle.Render("  last seen "+row.LastSeen.Local().Format("2006-01-02 15:04")))
		}
	}

	return ContentBoxStyle(width).Render(strings.Join(lines, "\n"))
}

func dividerWidth(width int) int {
	w := width - 2 - 2*DefaultPadding
	if w < 10 {
		return 10
	}
	return w
}

// renderQuantity renders an optional value with its unit
func renderQuantity(v float64, ok bool, unit string) string {
	if !ok {
		return AbsentStyle.Render(absent)
	}
	return ValueStyle.Render(formatNumber(v) + " " + unit)
}

func renderOptional(v *string) string {
	if v == nil {
		return AbsentStyle.Render(absent)
	}
	return ValueStyle.Render(*v)
}

func renderOptionalInt(v *int, suffix string) string {
	if v == nil {
		return AbsentStyle.Render(absent)
	}
	return ValueStyle.Render(strconv.Itoa(*v) + suffix)
}

func renderOptionalState(v *string, good, bad string) string {
	if v == nil {
		return AbsentStyle.Render(absent)
	}
	return stateStyle(*v, good, bad)
}

// stateStyle colors a known good or bad state; anything else renders plain
func stateStyle(value, good, bad string) string {
	switch value {
	case good:
		return GoodStyle.Render(value)
	case bad:
		return BadStyle.Render(value)
	default:
		return ValueStyle.Render(value)
	}
}

func renderPower(core iometer.CoreStatus) string {
	text := iometer.FormatPower(core)
	switch {
	case core.PowerStatus == nil:
		return AbsentStyle.Render(text)
	case core.BatteryLevel != nil && *core.BatteryLevel <= 20:
		return WarnStyle.Render(text)
	default:
		return ValueStyle.Render(text)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
