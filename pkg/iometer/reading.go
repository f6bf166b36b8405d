package iometer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OBIS codes of the registers the derived accessors read.
const (
	TotalConsumptionOBIS   = "01-00:01.08.00*ff"
	TotalProductionOBIS    = "01-00:02.08.00*ff"
	CurrentPowerOBIS       = "01-00:10.07.00*ff"
	CurrentPowerAltOBIS    = "01-00:24.07.00*ff"
	ReadingTypename        = "iometer.reading.v1"
	readingTimeLayout      = "2006-01-02T15:04:05Z"
	readingLocalTimeLayout = "2006-01-02T15:04:05.999999999"
)

// Register is one OBIS-coded measurement channel.
type Register struct {
	OBIS  string  `json:"obis"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// MeterReading is a point-in-time set of registers.
type MeterReading struct {
	Time      time.Time  `json:"time"`
	Registers []Register `json:"registers"`
}

// RegisterByOBIS returns the first register with the given code.
func (mr MeterReading) RegisterByOBIS(obis string) (Register, bool) {
	for _, reg := range mr.Registers {
		if reg.OBIS == obis {
			return reg, true
		}
	}
	return Register{}, false
}

// Meter is the meter the bridge reads.
type Meter struct {
	Number  string       `json:"number"`
	Reading MeterReading `json:"reading"`
}

// Reading is the payload of the bridge's v1/reading endpoint.
type Reading struct {
	Meter Meter `json:"meter"`
}

// TotalConsumption returns the imported energy counter in Wh.
func (r Reading) TotalConsumption() (float64, bool) {
	return r.registerValue(TotalConsumptionOBIS)
}

// TotalProduction returns the exported energy counter in Wh.
func (r Reading) TotalProduction() (float64, bool) {
	return r.registerValue(TotalProductionOBIS)
}

// CurrentPower returns the instantaneous power in W, falling back to
// CurrentPowerAltOBIS when the primary register is absent.
func (r Reading) CurrentPower() (float64, bool) {
	if v, ok := r.registerValue(CurrentPowerOBIS); ok {
		return v, true
	}
	return r.registerValue(CurrentPowerAltOBIS)
}

func (r Reading) registerValue(obis string) (float64, bool) {
	reg, ok := r.Meter.Reading.RegisterByOBIS(obis)
	if !ok {
		return 0, false
	}
	return reg.Value, true
}

// rawReading mirrors the wire format. Pointers distinguish missing keys.
type rawReading struct {
	Meter *struct {
		Number  *string `json:"number"`
		Reading *struct {
			Time      *string     `json:"time"`
			Registers *[]rawRegister `json:"registers"`
		} `json:"reading"`
	} `json:"meter"`
}

type rawRegister struct {
	OBIS  *string  `json:"obis"`
	Value *float64 `json:"value"`
	Unit  *string  `json:"unit"`
}

// ParseReading parses a v1/reading payload.
func ParseReading(data []byte) (*Reading, error) {
	var raw rawReading
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewFormatError("failed to parse reading JSON", err)
	}

	switch {
	case raw.Meter == nil:
		return nil, NewFormatError("reading is missing key: meter", nil)
	case raw.Meter.Number == nil:
		return nil, NewFormatError("reading is missing key: meter.number", nil)
	case raw.Meter.Reading == nil:
		return nil, NewFormatError("reading is missing key: meter.reading", nil)
	case raw.Meter.Reading.Time == nil:
		return nil, NewFormatError("reading is missing key: meter.reading.time", nil)
	case raw.Meter.Reading.Registers == nil:
		return nil, NewFormatError("reading is missing key: meter.reading.registers", nil)
	}

	ts, err := parseReadingTime(*raw.Meter.Reading.Time)
	if err != nil {
		return nil, NewFormatError("invalid meter.reading.time", err)
	}

	registers := make([]Register, 0, len(*raw.Meter.Reading.Registers))
	for i, reg := range *raw.Meter.Reading.Registers {
		var missing string
		switch {
		case reg.OBIS == nil:
			missing = "obis"
		case reg.Value == nil:
			missing = "value"
		case reg.Unit == nil:
			missing = "unit"
		}
		if missing != "" {
			return nil, NewFormatError(fmt.Sprintf("reading register %d is missing key: %s", i, missing), nil)
		}
		registers = append(registers, Register{OBIS: *reg.OBIS, Value: *reg.Value, Unit: *reg.Unit})
	}

	return &Reading{
		Meter: Meter{
			Number: *raw.Meter.Number,
			Reading: MeterReading{
				Time:      ts,
				Registers: registers,
			},
		},
	}, nil
}

// parseReadingTime accepts RFC 3339 timestamps and offset-less ISO 8601
// timestamps, which are taken as UTC.
func parseReadingTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(readingLocalTimeLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	return t, nil
}

// MarshalJSON encodes the reading in the bridge's wire format, with the
// type tag and the time in UTC truncated to the second.
func (r Reading) MarshalJSON() ([]byte, error) {
	registers := r.Meter.Reading.Registers
	if registers == nil {
		registers = []Register{}
	}

	type wireReading struct {
		Time      string     `json:"time"`
		Registers []Register `json:"registers"`
	}
	type wireMeter struct {
		Number  string      `json:"number"`
		Reading wireReading `json:"reading"`
	}

	return json.Marshal(struct {
		Typename string    `json:"__typename"`
		Meter    wireMeter `json:"meter"`
	}{
		Typename: ReadingTypename,
		Meter: wireMeter{
			Number: r.Meter.Number,
			Reading: wireReading{
				Time:      r.Meter.Reading.Time.UTC().Format(readingTimeLayout),
				Registers: registers,
			},
		},
	})
}

// String returns the JSON encoding of the reading
func (r Reading) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("Reading(%s)", r.Meter.Number)
	}
	return string(data)
}
