package runtime

// ETagMaxInitialValue just a value, meaningless
const ETagMaxInitialValue int64 = 3294967296

type ConnectStatus int8

const (
	Disconnected ConnectStatus = iota
	Connected
	ConnectError
)

var ConnectStatusToString = map[ConnectStatus]string{
	Disconnected: "disconnected",
	Connected:    "connected",
	ConnectError: "error",
}

var StringToConnectStatus = map[string]ConnectStatus{
	"disconnected": Disconnected,
	"connected":    Connected,
	"error":        ConnectError,
}

type InstrumentStatusCh int8

const (
	Connect InstrumentStatusCh = iota
	Disconnect
	Reconnect
)

var StringToInstrumentStatusCh = map[string]InstrumentStatusCh{
	"connect":    Connect,
	"disconnect": Disconnect,
	"reconnect":  Reconnect,
}

type StopBits int

const (
	// OneStopBit sets 1 stop bit (default)
	OneStopBit StopBits = iota
	// OnePointFiveStopBits sets 1.5 stop bits
	OnePointFiveStopBits
	// TwoStopBits sets 2 stop bits
	TwoStopBits
)

var StopBitsToString = map[StopBits]string{
	OneStopBit:           "1",
	OnePointFiveStopBits: "1.5",
	TwoStopBits:          "2",
}

var StringToStopBits = map[string]StopBits{
	"1":   OneStopBit,
	"1.5": OnePointFiveStopBits,
	"2":   TwoStopBits,
}

type Parity int

const (
	// NoParity disable parity control (default)
	NoParity Parity = iota
	// OddParity enable odd-parity check
	OddParity
	// EvenParity enable even-parity check
	EvenParity
)

var ParityToString = map[Parity]string{
	NoParity:   "noParity",
	OddParity:  "oddParity",
	EvenParity: "evenParity",
}

var StringToParity = map[string]Parity{
	"noParity":   NoParity,
	"oddParity":  OddParity,
	"evenParity": EvenParity,
}
