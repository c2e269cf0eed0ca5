package korad

// Korad KWR102 single-channel command set. Setpoint commands are fixed
// width; queries carry a '?' suffix and expect a textual reply.
const (
	cmdSetVoltage      = "VSET1:%05.2f"
	cmdVoltageSetpoint = "VSET1?"
	cmdOutputVoltage   = "VOUT1?"
	cmdSetCurrent      = "ISET1:%05.3f"
	cmdCurrentSetpoint = "ISET1?"
	cmdOutputCurrent   = "IOUT1?"
	cmdOutputOn        = "OUT1"
	cmdOutputOff       = "OUT0"
	cmdOcpOn           = "OCP1"
	cmdOcpOff          = "OCP0"
	cmdOvpOn           = "OVP1"
	cmdOvpOff          = "OVP0"
	cmdStatus          = "STATUS?"
	cmdIdentification  = "*IDN?"
)

// Safe command envelope. Setpoints outside are clamped, not rejected.
const (
	MaxVoltage = 60.0
	MaxCurrent = 30.0
)

// STATUS? reply bits
const (
	statusBitConstantCurrent = 0x01
	statusBitOutputEnabled   = 0x40
)
