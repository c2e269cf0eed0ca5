// Package korad drives a Korad KWR102 programmable power supply over
// its ASCII request/response protocol. The instrument link is treated
// as best-effort: a malformed or missing reply yields a zero value,
// never an error surfaced to the caller.
package korad

import (
	"fmt"
	"strconv"
	"sync"

	"k8s.io/klog/v2"
	"voltampero/pkg/transport"
)

type Driver struct {
	mu         sync.Mutex
	transactor transport.Transactor
	ocpEnabled bool
	ovpEnabled bool
}

func NewDriver(t transport.Transactor) *Driver {
	return &Driver{transactor: t}
}

func (d *Driver) Connected() bool {
	return d.transactor != nil && d.transactor.Connected()
}

func (d *Driver) Close() error {
	if d.transactor == nil {
		return nil
	}
	return d.transactor.Close()
}

func (d *Driver) send(cmd string) error {
	if _, err := d.transactor.Transact(cmd); err != nil {
		klog.V(2).InfoS("Failed to send PSU command", "cmd", cmd, "err", err)
		return err
	}
	return nil
}

func (d *Driver) queryFloat(cmd string) float64 {
	reply, err := d.transactor.Transact(cmd)
	if err != nil {
		klog.V(2).InfoS("Failed to query PSU", "cmd", cmd, "err", err)
		return 0.0
	}
	v, err := strconv.ParseFloat(reply, 64)
	if err != nil {
		klog.V(3).InfoS("Unparsable PSU reply", "cmd", cmd, "reply", reply)
		return 0.0
	}
	return v
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SetVoltage commands the voltage setpoint, clamped to [0, MaxVoltage].
func (d *Driver) SetVoltage(voltage float64) error {
	voltage = clamp(voltage, 0, MaxVoltage)
	return d.send(fmt.Sprintf(cmdSetVoltage, voltage))
}

// SetCurrent commands the current limit, clamped to [0, MaxCurrent].
func (d *Driver) SetCurrent(current float64) error {
	current = clamp(current, 0, MaxCurrent)
	return d.send(fmt.Sprintf(cmdSetCurrent, current))
}

func (d *Driver) SetOutput(on bool) error {
	if on {
		return d.send(cmdOutputOn)
	}
	return d.send(cmdOutputOff)
}

func (d *Driver) SetOcp(on bool) error {
	cmd := cmdOcpOff
	if on {
		cmd = cmdOcpOn
	}
	if err := d.send(cmd); err != nil {
		return err
	}
	d.mu.Lock()
	d.ocpEnabled = on
	d.mu.Unlock()
	return nil
}

func (d *Driver) SetOvp(on bool) error {
	cmd := cmdOvpOff
	if on {
		cmd = cmdOvpOn
	}
	if err := d.send(cmd); err != nil {
		return err
	}
	d.mu.Lock()
	d.ovpEnabled = on
	d.mu.Unlock()
	return nil
}

func (d *Driver) VoltageSetpoint() float64 {
	return d.queryFloat(cmdVoltageSetpoint)
}

func (d *Driver) CurrentSetpoint() float64 {
	return d.queryFloat(cmdCurrentSetpoint)
}

func (d *Driver) OutputVoltage() float64 {
	return d.queryFloat(cmdOutputVoltage)
}

func (d *Driver) OutputCurrent() float64 {
	return d.queryFloat(cmdOutputCurrent)
}

// Readings returns measured output voltage and current.
func (d *Driver) Readings() (float64, float64) {
	return d.OutputVoltage(), d.OutputCurrent()
}

func (d *Driver) Identification() string {
	reply, err := d.transactor.Transact(cmdIdentification)
	if err != nil || len(reply) == 0 {
		return "Unknown"
	}
	return reply
}

// Status assembles the full supply snapshot. Output state and CV/CC
// mode come from the STATUS? byte; protection flags are locally
// tracked (see PsuStatus).
func (d *Driver) Status() *PsuStatus {
	outputEnabled := false
	mode := ConstantVoltage

	reply, err := d.transactor.Transact(cmdStatus)
	if err != nil {
		klog.V(2).InfoS("Failed to query PSU status", "err", err)
	} else if len(reply) > 0 {
		status := reply[0]
		outputEnabled = status&statusBitOutputEnabled != 0
		if status&statusBitConstantCurrent != 0 {
			mode = ConstantCurrent
		}
	}

	d.mu.Lock()
	ocp, ovp := d.ocpEnabled, d.ovpEnabled
	d.mu.Unlock()

	return &PsuStatus{
		OutputVoltage:   d.OutputVoltage(),
		OutputCurrent:   d.OutputCurrent(),
		VoltageSetpoint: d.VoltageSetpoint(),
		CurrentSetpoint: d.CurrentSetpoint(),
		OutputEnabled:   outputEnabled,
		OcpEnabled:      ocp,
		OvpEnabled:      ovp,
		Mode:            mode,
	}
}
