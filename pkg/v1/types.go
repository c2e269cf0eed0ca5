// Package v1 holds the external API payloads.
package v1

type InstrumentType interface {
	GetInstrumentType() string
}

type InstrumentMeta struct {
	PublishMeta
	Name           string `json:"name" binding:"required,min=1,max=64,excludesall=\u002F\u005C"`
	InstrumentType string `json:"instrumentType" binding:"required,min=1,max=32,excludesall=\u002F\u005C"`
}

type PublishMeta struct {
	Topic string `json:"topic"`
}

func (m *InstrumentMeta) GetInstrumentType() string {
	return m.InstrumentType
}

// PsuInstrument is the create/update payload of a Korad power supply.
type PsuInstrument struct {
	InstrumentMeta
	Address *Address `json:"address" binding:"required"`
}

// DmmInstrument is the create/update payload of a UNI-T multimeter.
type DmmInstrument struct {
	InstrumentMeta
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

// Pointer fields distinguish "absent" from zero values like 0.0 or
// false, which are all legal here.
type VoltageRequest struct {
	Voltage *float64 `json:"voltage" binding:"required"`
}

type CurrentRequest struct {
	Current *float64 `json:"current" binding:"required"`
}

type SwitchRequest struct {
	On *bool `json:"on" binding:"required"`
}

type ActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// RampRequest durations are seconds, matching the instrument-facing
// vocabulary rather than Go durations.
type RampRequest struct {
	StartVoltage     *float64 `json:"startVoltage" binding:"required"`
	EndVoltage       *float64 `json:"endVoltage" binding:"required"`
	DurationS        float64  `json:"durationS" binding:"required,gt=0"`
	StepIntervalS    float64  `json:"stepIntervalS"`
	InterCycleDelayS float64  `json:"interCycleDelayS"`
	Cycles           uint     `json:"cycles"`
	PingPong         bool     `json:"pingPong"`
}

type LoggingRequest struct {
	IntervalMs int `json:"intervalMs"`
}

type ExportRequest struct {
	Path string `json:"path" binding:"required"`
}
