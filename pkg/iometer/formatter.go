package iometer

import (
	"fmt"
	"strconv"
	"strings"
)

const absentValue = "n/a"

// Summary returns a one-line summary of the reading
func (r Reading) Summary() string {
	return fmt.Sprintf("Meter %s @ %s: power %s, consumption %s, production %s",
		r.Meter.Number,
		r.Meter.Reading.Time.UTC().Format(readingTimeLayout),
		formatOptionalFloat(r.CurrentPower()),
		formatOptionalFloat(r.TotalConsumption()),
		formatOptionalFloat(r.TotalProduction()))
}

// FormatCompact returns a compact multi-field line suitable for scripts
func (r Reading) FormatCompact() string {
	fields := []string{
		"meter=" + r.Meter.Number,
		"time=" + r.Meter.Reading.Time.UTC().Format(readingTimeLayout),
		"power_w=" + formatOptionalFloat(r.CurrentPower()),
		"consumption_wh=" + formatOptionalFloat(r.TotalConsumption()),
		"production_wh=" + formatOptionalFloat(r.TotalProduction()),
	}
	return strings.Join(fields, " ")
}

// FormatDetailed returns a human-readable block with every register
func (r Reading) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Meter Reading ===\n")
	b.WriteString(fmt.Sprintf("Meter Number:      %s\n", r.Meter.Number))
	b.WriteString(fmt.Sprintf("Time:              %s\n", r.Meter.Reading.Time.UTC().Format(readingTimeLayout)))
	b.WriteString(fmt.Sprintf("Current Power:     %s W\n", formatOptionalFloat(r.CurrentPower())))
	b.WriteString(fmt.Sprintf("Total Consumption: %s Wh\n", formatOptionalFloat(r.TotalConsumption())))
	b.WriteString(fmt.Sprintf("Total Production:  %s Wh\n", formatOptionalFloat(r.TotalProduction())))
	b.WriteString("\n=== Registers ===\n")

	if len(r.Meter.Reading.Registers) == 0 {
		b.WriteString("(none)\n")
	}
	for _, reg := range r.Meter.Reading.Registers {
		b.WriteString(fmt.Sprintf("%-20s %14s %s\n", reg.OBIS, formatFloat(reg.Value), reg.Unit))
	}

	return b.String()
}

// Summary returns a one-line summary of the status
func (s Status) Summary() string {
	meter := absentValue
	if s.Meter != nil {
		if number, ok := s.Meter.Number(); ok {
			meter = number
		}
	}
	return fmt.Sprintf("Bridge %s (FW: %s, RSSI %d dBm), core %s, meter %s",
		s.Device.ID, s.Device.Bridge.Version, s.Device.Bridge.RSSI,
		s.Device.Core.ConnectionStatus, meter)
}

// FormatCompact returns the status as key=value pairs
func (s Status) FormatCompact() string {
	meter := absentValue
	if s.Meter != nil {
		if number, ok := s.Meter.Number(); ok {
			meter = number
		}
	}

	core := s.Device.Core
	fields := []string{
		"id=" + s.Device.ID,
		"meter=" + meter,
		"bridge_rssi=" + strconv.Itoa(s.Device.Bridge.RSSI),
		"bridge_version=" + s.Device.Bridge.Version,
		"core=" + string(core.ConnectionStatus),
		"core_rssi=" + formatOptionalInt(core.RSSI),
		"core_version=" + formatOptionalString(core.Version),
		"power=" + formatOptionalString((*string)(core.PowerStatus)),
		"battery=" + formatOptionalInt(core.BatteryLevel),
		"attachment=" + formatOptionalString((*string)(core.AttachmentStatus)),
		"pin=" + formatOptionalString((*string)(core.PinStatus)),
	}
	return strings.Join(fields, " ")
}

// FormatDetailed returns a human-readable block describing bridge and core
func (s Status) FormatDetailed() string {
	var b strings.Builder

	meter := "(no meter paired)"
	if s.Meter != nil {
		if number, ok := s.Meter.Number(); ok {
			meter = number
		}
	}

	b.WriteString("=== Bridge ===\n")
	b.WriteString(fmt.Sprintf("Device ID:    %s\n", s.Device.ID))
	b.WriteString(fmt.Sprintf("Firmware:     %s\n", s.Device.Bridge.Version))
	b.WriteString(fmt.Sprintf("WiFi RSSI:    %d dBm\n", s.Device.Bridge.RSSI))
	b.WriteString(fmt.Sprintf("Meter Number: %s\n", meter))

	core := s.Device.Core
	b.WriteString("\n=== Core Module ===\n")
	b.WriteString(fmt.Sprintf("Connection:   %s\n", core.ConnectionStatus))
	if core.ConnectionStatus == ConnectionDisconnected {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Firmware:     %s\n", formatOptionalString(core.Version)))
	b.WriteString(fmt.Sprintf("RSSI:         %s\n", formatOptionalInt(core.RSSI)))
	b.WriteString(fmt.Sprintf("Power:        %s\n", FormatPower(core)))
	b.WriteString(fmt.Sprintf("Attachment:   %s\n", formatOptionalString((*string)(core.AttachmentStatus))))
	b.WriteString(fmt.Sprintf("PIN:          %s\n", formatOptionalString((*string)(core.PinStatus))))

	return b.String()
}

// FormatPower describes the core module's power source, e.g. "battery (80%)"
func FormatPower(core CoreStatus) string {
	if core.PowerStatus == nil {
		return absentValue
	}
	if *core.PowerStatus == PowerBattery && core.BatteryLevel != nil {
		return fmt.Sprintf("%s (%d%%)", *core.PowerStatus, *core.BatteryLevel)
	}
	return string(*core.PowerStatus)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptionalFloat(v float64, ok bool) string {
	if !ok {
		return absentValue
	}
	return formatFloat(v)
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return absentValue
	}
	return strconv.Itoa(*v)
}

func formatOptionalString(v *string) string {
	if v == nil {
		return absentValue
	}
	return *v
}
