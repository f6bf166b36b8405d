package iometer

import (
	"encoding/json"

	"github.com/google/uuid"
)

// StatusTypename is the type tag of the v1/status payload
const StatusTypename = "iometer.status.v1"

// ConnectionStatus is the link state between the bridge and its core module
type ConnectionStatus string

const (
	ConnectionConnected    ConnectionStatus = "connected"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// PowerStatus reports how the core module is powered
type PowerStatus string

const (
	PowerBattery PowerStatus = "battery"
	PowerWired   PowerStatus = "wired"
)

// AttachmentStatus reports whether the core module sits on the meter
type AttachmentStatus string

const (
	AttachmentAttached AttachmentStatus = "attached"
	AttachmentDetached AttachmentStatus = "detached"
)

// PinStatus reports whether the meter PIN has been entered
type PinStatus string

const (
	PinEntered PinStatus = "entered"
	PinMissing PinStatus = "missing"
)

// BridgeInfo describes the WiFi bridge itself
type BridgeInfo struct {
	RSSI    int    `json:"rssi"`
	Version string `json:"version"`
}

// CoreStatus describes the core module as seen by the bridge.
// A nil field was either not reported or voided by a sibling field:
//   - ConnectionStatus disconnected voids every other field
//   - PowerStatus wired voids BatteryLevel
//   - AttachmentStatus detached voids PinStatus
type CoreStatus struct {
	ConnectionStatus ConnectionStatus  `json:"connectionStatus"`
	RSSI             *int              `json:"rssi,omitempty"`
	Version          *string           `json:"version,omitempty"`
	PowerStatus      *PowerStatus      `json:"powerStatus,omitempty"`
	BatteryLevel     *int              `json:"batteryLevel,omitempty"`
	AttachmentStatus *AttachmentStatus `json:"attachmentStatus,omitempty"`
	PinStatus        *PinStatus        `json:"pinStatus,omitempty"`
}

// Connected reports whether the core module is connected to the bridge
func (cs CoreStatus) Connected() bool {
	return cs.ConnectionStatus == ConnectionConnected
}

// DeviceStatus groups the bridge and core module state
type DeviceStatus struct {
	Bridge BridgeInfo `json:"bridge"`
	ID     string     `json:"id"`
	Core   CoreStatus `json:"core"`
}

// UUID parses the device id
func (ds DeviceStatus) UUID() (uuid.UUID, error) {
	return uuid.Parse(ds.ID)
}

// MeterIdentity is either a KnownMeter or a NullMeter.
type MeterIdentity interface {
	// Number returns the meter number, or false when no meter is paired.
	Number() (string, bool)
	meterIdentity()
}

// KnownMeter is a meter the bridge has paired with
type KnownMeter struct {
	MeterNumber string
}

func (m KnownMeter) Number() (string, bool) { return m.MeterNumber, true }
func (KnownMeter) meterIdentity()           {}

// NullMeter stands in when the status payload has no meter block
type NullMeter struct{}

func (NullMeter) Number() (string, bool) { return "", false }
func (NullMeter) meterIdentity()         {}

// Status is the payload of the bridge's v1/status endpoint
type Status struct {
	Meter  MeterIdentity
	Device DeviceStatus
}

type rawStatus struct {
	Meter *struct {
		Number *string `json:"number"`
	} `json:"meter"`
	Device *struct {
		Bridge *struct {
			RSSI    *int    `json:"rssi"`
			Version *string `json:"version"`
		} `json:"bridge"`
		ID   *string `json:"id"`
		Core *struct {
			ConnectionStatus *ConnectionStatus `json:"connectionStatus"`
			RSSI             *int              `json:"rssi"`
			Version          *string           `json:"version"`
			PowerStatus      *PowerStatus      `json:"powerStatus"`
			BatteryLevel     *int              `json:"batteryLevel"`
			AttachmentStatus *AttachmentStatus `json:"attachmentStatus"`
			PinStatus        *PinStatus        `json:"pinStatus"`
		} `json:"core"`
	} `json:"device"`
}

// ParseStatus parses a v1/status payload and applies the voiding rules of
// CoreStatus.
func ParseStatus(data []byte) (*Status, error) {
	var raw rawStatus
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewFormatError("failed to parse status JSON", err)
	}

	dev := raw.Device
	switch {
	case dev == nil:
		return nil, NewFormatError("status is missing key: device", nil)
	case dev.Bridge == nil:
		return nil, NewFormatError("status is missing key: device.bridge", nil)
	case dev.Bridge.RSSI == nil:
		return nil, NewFormatError("status is missing key: device.bridge.rssi", nil)
	case dev.Bridge.Version == nil:
		return nil, NewFormatError("status is missing key: device.bridge.version", nil)
	case dev.ID == nil:
		return nil, NewFormatError("status is missing key: device.id", nil)
	case dev.Core == nil:
		return nil, NewFormatError("status is missing key: device.core", nil)
	case dev.Core.ConnectionStatus == nil:
		return nil, NewFormatError("status is missing key: device.core.connectionStatus", nil)
	}

	var meter MeterIdentity = NullMeter{}
	if raw.Meter != nil && raw.Meter.Number != nil {
		meter = KnownMeter{MeterNumber: *raw.Meter.Number}
	}

	core := CoreStatus{ConnectionStatus: *dev.Core.ConnectionStatus}
	if core.ConnectionStatus != ConnectionDisconnected {
		core.RSSI = dev.Core.RSSI
		core.Version = dev.Core.Version
		core.PowerStatus = dev.Core.PowerStatus
		core.AttachmentStatus = dev.Core.AttachmentStatus
		if core.PowerStatus == nil || *core.PowerStatus != PowerWired {
			core.BatteryLevel = dev.Core.BatteryLevel
		}
		if core.AttachmentStatus == nil || *core.AttachmentStatus != AttachmentDetached {
			core.PinStatus = dev.Core.PinStatus
		}
	}

	return &Status{
		Meter: meter,
		Device: DeviceStatus{
			Bridge: BridgeInfo{
				RSSI:    *dev.Bridge.RSSI,
				Version: *dev.Bridge.Version,
			},
			ID:   *dev.ID,
			Core: core,
		},
	}, nil
}

// MarshalJSON encodes the normalized status in the bridge's wire format.
// A NullMeter omits the meter block.
func (s Status) MarshalJSON() ([]byte, error) {
	type wireMeter struct {
		Number string `json:"number"`
	}
	out := struct {
		Typename string       `json:"__typename"`
		Meter    *wireMeter   `json:"meter,omitempty"`
		Device   DeviceStatus `json:"device"`
	}{
		Typename: StatusTypename,
		Device:   s.Device,
	}
	if s.Meter != nil {
		if number, ok := s.Meter.Number(); ok {
			out.Meter = &wireMeter{Number: number}
		}
	}
	return json.Marshal(out)
}
