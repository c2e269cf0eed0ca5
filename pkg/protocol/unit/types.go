// Package unit drives a UNI-T UT8804E bench multimeter. The instrument
// streams binary report frames continuously; Decode turns one raw frame
// into a typed Reading, and Driver wraps the report transport with
// last-known-reading retention and front-panel commands.
package unit

import (
	"time"

	"voltampero/pkg/runtime"
)

type MeasurementMode int

const (
	DcVoltage MeasurementMode = iota
	AcVoltage
	DcCurrentMicro
	DcCurrentMilli
	DcCurrent
	AcCurrentMicro
	AcCurrentMilli
	AcCurrent
	Resistance
	Capacitance
	Frequency
	DutyCycle
	TemperatureC
	TemperatureF
	Diode
	Continuity
	Hfe
	Unknown
)

var measurementModeLabels = map[MeasurementMode]string{
	DcVoltage:      "DC V",
	AcVoltage:      "AC V",
	DcCurrentMicro: "DC µA",
	DcCurrentMilli: "DC mA",
	DcCurrent:      "DC A",
	AcCurrentMicro: "AC µA",
	AcCurrentMilli: "AC mA",
	AcCurrent:      "AC A",
	Resistance:     "Ω",
	Capacitance:    "F",
	Frequency:      "Hz",
	DutyCycle:      "%",
	TemperatureC:   "°C",
	TemperatureF:   "°F",
	Diode:          "Diode",
	Continuity:     "Cont",
	Hfe:            "hFE",
	Unknown:        "???",
}

func (m MeasurementMode) String() string {
	if label, ok := measurementModeLabels[m]; ok {
		return label
	}
	return measurementModeLabels[Unknown]
}

func (m MeasurementMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// Reading is one decoded multimeter sample. Immutable once built;
// a newer frame supersedes it rather than mutating it.
type Reading struct {
	Value      float64         `json:"value"`
	Unit       string          `json:"unit"`
	Mode       MeasurementMode `json:"mode"`
	RangeLabel string          `json:"rangeLabel"`
	Overflow   bool            `json:"overflow"`
	Hold       bool            `json:"hold"`
	Relative   bool            `json:"relative"`
	AutoRange  bool            `json:"autoRange"`
	MinMax     bool            `json:"minMax"`
	CapturedAt time.Time       `json:"capturedAt"`
	RawFrame   []byte          `json:"-"`
}

type Instrument struct {
	runtime.InstrumentMeta
	Address *Address `json:"address" binding:"required"`
}

type Address struct {
	Location string         `json:"location" binding:"required"`
	Option   *AddressOption `json:"option,omitempty"`
}

type AddressOption struct {
	BaudRate int    `json:"baudRate,omitempty"`
	DataBits int    `json:"dataBits,omitempty"`
	Parity   string `json:"parity,omitempty"`
	StopBits string `json:"stopBits,omitempty"`
}
