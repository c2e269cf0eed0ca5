package transport

import (
	"time"
)

// Transactor is the command/response port of the power supply. Transact
// serializes access to the line: the ramp loop and the logging loop may
// call it concurrently, but requests never interleave on the wire.
type Transactor interface {
	// Transact sends one ASCII command. Commands containing '?' expect a
	// textual reply; all others are fire-and-forget and return "".
	Transact(cmd string) (string, error)
	Connected() bool
	Close() error
}

// ReportPort is the report-oriented port of the multimeter.
type ReportPort interface {
	WriteReport(p []byte) error
	// ReadReport returns the next report frame, or (nil, nil) when no
	// frame arrived within timeout. No frame is not an error: it means
	// "no new sample yet".
	ReadReport(timeout time.Duration) ([]byte, error)
	Connected() bool
	Close() error
}

// SerialConfig carries the line parameters of a serial attachment.
type SerialConfig struct {
	Location string
	BaudRate int
	DataBits int
	Parity   string
	StopBits string
	Timeout  time.Duration
}
