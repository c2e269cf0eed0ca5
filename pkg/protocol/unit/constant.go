package unit

// Report frames and commands both open with the same two-byte header.
var frameHeader = []byte{0xAB, 0xCD}

const (
	minFrameLength  = 10
	maxRawFrame     = 16
	modeByteMask    = 0x1F
	defaultExponent = 4
	// Largest magnitude the display can show. At or beyond this the
	// instrument is overloaded regardless of what the flag byte says.
	digitCeiling = 59999
)

// Front-panel operations. Each is sent as a fixed 7-byte report,
// see buildCommand.
const (
	opHold        = 0x46
	opBrightness  = 0x47
	opSelect      = 0x48
	opRangeManual = 0x49
	opRangeAuto   = 0x4A
	opMinMax      = 0x4B
	opExitMinMax  = 0x4C
	opRelative    = 0x4D
	opDValue      = 0x4E
	opQValue      = 0x4F
	opExitDQR     = 0x50
	opRValue      = 0x51
	opGetID       = 0x58
)

// Status flag bits at frame offset 10.
const (
	flagOverflow  = 0x01
	flagHold      = 0x02
	flagRelative  = 0x04
	flagAutoRange = 0x08
	// Auto ranging is default on. Bit 4 suppresses it; bit 3 asserts it
	// back regardless.
	flagAutoRangeOff = 0x10
	flagMinMax       = 0x20
)

type modeEntry struct {
	mode MeasurementMode
	unit string
}

// Mode byte (masked to 5 bits) to measurement mode and base unit.
var modeTable = map[byte]modeEntry{
	0x00: {DcVoltage, "V"},
	0x01: {AcVoltage, "V"},
	0x02: {DcCurrentMicro, "µA"},
	0x03: {DcCurrentMilli, "mA"},
	0x04: {DcCurrent, "A"},
	0x05: {AcCurrentMicro, "µA"},
	0x06: {AcCurrentMilli, "mA"},
	0x07: {AcCurrent, "A"},
	0x08: {Resistance, "Ω"},
	0x09: {Continuity, "Ω"},
	0x0A: {Diode, "V"},
	0x0B: {Capacitance, "F"},
	0x0C: {Frequency, "Hz"},
	0x0D: {DutyCycle, "%"},
	0x0E: {TemperatureC, "°C"},
	0x0F: {TemperatureF, "°F"},
	0x10: {Hfe, ""},
}

// Metric prefix for the low nibble of the range byte.
var rangePrefix = map[byte]string{
	0: "",
	1: "m",
	2: "µ",
	3: "n",
	4: "k",
	5: "M",
}
