package korad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeTransactor struct {
	sent    []string
	replies map[string]string
	err     error
}

func (f *fakeTransactor) Transact(cmd string) (string, error) {
	f.sent = append(f.sent, cmd)
	if f.err != nil {
		return "", f.err
	}
	return f.replies[cmd], nil
}

func (f *fakeTransactor) Connected() bool { return true }
func (f *fakeTransactor) Close() error    { return nil }

func TestSetVoltageFormatsFixedWidth(t *testing.T) {
	tests := []struct {
		voltage float64
		expect  string
	}{
		{0, "VSET1:00.00"},
		{5, "VSET1:05.00"},
		{12.5, "VSET1:12.50"},
		{60, "VSET1:60.00"},
	}
	for _, tt := range tests {
		ft := &fakeTransactor{}
		d := NewDriver(ft)
		assert.NoError(t, d.SetVoltage(tt.voltage))
		assert.Equal(t, []string{tt.expect}, ft.sent)
	}
}

func TestSetVoltageClampsToEnvelope(t *testing.T) {
	ft := &fakeTransactor{}
	d := NewDriver(ft)

	_ = d.SetVoltage(-3)
	_ = d.SetVoltage(99)

	assert.Equal(t, []string{"VSET1:00.00", "VSET1:60.00"}, ft.sent)
}

func TestSetCurrentClampsAndFormats(t *testing.T) {
	ft := &fakeTransactor{}
	d := NewDriver(ft)

	_ = d.SetCurrent(1.25)
	_ = d.SetCurrent(31)
	_ = d.SetCurrent(-1)

	assert.Equal(t, []string{"ISET1:1.250", "ISET1:30.000", "ISET1:0.000"}, ft.sent)
}

func TestQueriesParseReplies(t *testing.T) {
	ft := &fakeTransactor{replies: map[string]string{
		"VSET1?": "12.50",
		"ISET1?": "1.250",
		"VOUT1?": "12.48",
		"IOUT1?": "0.734",
	}}
	d := NewDriver(ft)

	assert.Equal(t, 12.50, d.VoltageSetpoint())
	assert.Equal(t, 1.250, d.CurrentSetpoint())
	v, a := d.Readings()
	assert.Equal(t, 12.48, v)
	assert.Equal(t, 0.734, a)
}

func TestUnparsableReplyYieldsZero(t *testing.T) {
	ft := &fakeTransactor{replies: map[string]string{
		"VOUT1?": "garbage",
	}}
	d := NewDriver(ft)

	assert.Equal(t, 0.0, d.OutputVoltage())
	// absent reply
	assert.Equal(t, 0.0, d.OutputCurrent())
}

func TestOutputAndProtectionCommands(t *testing.T) {
	ft := &fakeTransactor{}
	d := NewDriver(ft)

	_ = d.SetOutput(true)
	_ = d.SetOutput(false)
	_ = d.SetOcp(true)
	_ = d.SetOvp(true)
	_ = d.SetOcp(false)

	assert.Equal(t, []string{"OUT1", "OUT0", "OCP1", "OVP1", "OCP0"}, ft.sent)
}

func TestStatusParsesStatusByte(t *testing.T) {
	ft := &fakeTransactor{replies: map[string]string{
		"STATUS?": string([]byte{0x41}), // output enabled + constant current
		"VOUT1?":  "5.00",
		"IOUT1?":  "0.100",
		"VSET1?":  "5.00",
		"ISET1?":  "1.000",
	}}
	d := NewDriver(ft)
	_ = d.SetOcp(true)

	status := d.Status()

	assert.True(t, status.OutputEnabled)
	assert.Equal(t, ConstantCurrent, status.Mode)
	assert.True(t, status.OcpEnabled)
	assert.False(t, status.OvpEnabled)
	assert.Equal(t, 5.00, status.OutputVoltage)
	assert.Equal(t, 1.000, status.CurrentSetpoint)
}

func TestStatusSurvivesDeadLink(t *testing.T) {
	ft := &fakeTransactor{err: assert.AnError}
	d := NewDriver(ft)

	status := d.Status()

	assert.False(t, status.OutputEnabled)
	assert.Equal(t, ConstantVoltage, status.Mode)
	assert.Equal(t, 0.0, status.OutputVoltage)
}

func TestIdentification(t *testing.T) {
	ft := &fakeTransactor{replies: map[string]string{"*IDN?": "KORAD KWR102 V2.0"}}
	d := NewDriver(ft)
	assert.Equal(t, "KORAD KWR102 V2.0", d.Identification())

	dead := NewDriver(&fakeTransactor{err: assert.AnError})
	assert.Equal(t, "Unknown", dead.Identification())
}
