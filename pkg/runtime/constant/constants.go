package constant

import "errors"

var (
	ErrInstrumentType       = errors.New("unsupported instrument type")
	ErrConnectInstrument    = errors.New("unable to connect to instrument")
	ErrInstrumentServerStop = errors.New("instrument server closed")
)
