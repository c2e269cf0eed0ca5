package korad

import (
	"voltampero/pkg/runtime"
)

type OutputMode int8

const (
	ConstantVoltage OutputMode = iota
	ConstantCurrent
)

var OutputModeToString = map[OutputMode]string{
	ConstantVoltage: "CV",
	ConstantCurrent: "CC",
}

func (m OutputMode) String() string {
	return OutputModeToString[m]
}

func (m OutputMode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// PsuStatus is a snapshot of the supply. OcpEnabled and OvpEnabled are
// the last values commanded by this process: the protocol has no query
// for them, so they can diverge from hardware truth after the
// instrument power-cycles. That asymmetry is part of the contract.
type PsuStatus struct {
	OutputVoltage   float64    `json:"outputVoltage"`
	OutputCurrent   float64    `json:"outputCurrent"`
	VoltageSetpoint float64    `json:"voltageSetpoint"`
	CurrentSetpoint float64    `json:"currentSetpoint"`
	OutputEnabled   bool       `json:"outputEnabled"`
	OcpEnabled      bool       `json:"ocpEnabled"`
	OvpEnabled      bool       `json:"ovpEnabled"`
	Mode            OutputMode `json:"mode"`
}

// Instrument is the persisted gateway resource describing a connected
// power supply.
type Instrument struct {
	runtime.InstrumentMeta
	Address *Address `json:"address"`
}

type Address struct {
	Location string         `json:"location"`
	Option   *AddressOption `json:"option,omitempty"`
}

type AddressOption struct {
	BaudRate int    `json:"baudRate,omitempty"`
	DataBits int    `json:"dataBits,omitempty"`
	Parity   string `json:"parity,omitempty"`
	StopBits string `json:"stopBits,omitempty"`
}
