// Package datalog samples both instruments on a fixed cadence into an
// append-only entry buffer and exports it as CSV.
package datalog

import (
	"time"

	"github.com/pkg/errors"

	"voltampero/pkg/protocol/unit"
)

var ErrAlreadyActive = errors.New("logging already active")

// PsuSource is what the sampling loop reads from the power supply.
type PsuSource interface {
	Connected() bool
	Readings() (voltage float64, current float64)
	VoltageSetpoint() float64
	CurrentSetpoint() float64
}

// DmmSource is what the sampling loop reads from the multimeter. A nil
// reading means no sample has ever been decoded.
type DmmSource interface {
	Connected() bool
	Reading() *unit.Reading
}

// Sink receives every captured entry as it is appended. Consume runs
// on the sampling goroutine and must not block.
type Sink interface {
	Consume(entry *LogEntry)
}

// LogEntry is one synchronized sample of both instruments. A
// disconnected instrument contributes zeros, not an error.
type LogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Elapsed      float64   `json:"elapsed"`
	PsuVoltage   float64   `json:"psuVoltage"`
	PsuCurrent   float64   `json:"psuCurrent"`
	PsuSetpointV float64   `json:"psuSetpointV"`
	PsuSetpointA float64   `json:"psuSetpointA"`
	DmmValue     float64   `json:"dmmValue"`
	DmmUnit      string    `json:"dmmUnit"`
	DmmMode      string    `json:"dmmMode"`
}
