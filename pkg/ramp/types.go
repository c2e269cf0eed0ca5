// Package ramp drives a timed voltage trajectory on a power supply.
// The controller owns one background stepping loop at a time and uses
// cooperative polling for pause and stop: signals are observed at the
// next checkpoint, never by preemption, so cancellation latency is
// bounded by the step interval.
package ramp

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New("ramp already running")
	ErrNotRunning     = errors.New("ramp not running")
)

// VoltageSetter is the one operation the stepping loop needs from the
// power supply.
type VoltageSetter interface {
	SetVoltage(voltage float64) error
}

type Phase int

const (
	Idle Phase = iota
	Running
	Paused
	Stopped
)

var phaseLabels = map[Phase]string{
	Idle:    "idle",
	Running: "running",
	Paused:  "paused",
	Stopped: "stopped",
}

func (p Phase) String() string {
	return phaseLabels[p]
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// Plan describes one ramp run. Cycles of zero means repeat until
// stopped.
type Plan struct {
	StartVoltage    float64       `json:"startVoltage"`
	EndVoltage      float64       `json:"endVoltage"`
	Duration        time.Duration `json:"duration"`
	StepInterval    time.Duration `json:"stepInterval"`
	InterCycleDelay time.Duration `json:"interCycleDelay"`
	Cycles          uint          `json:"cycles"`
	PingPong        bool          `json:"pingPong"`
}

func (p *Plan) Validate() error {
	if p.StepInterval <= 0 {
		return errors.New("step interval must be positive")
	}
	if p.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	if p.InterCycleDelay < 0 {
		return errors.New("inter-cycle delay must not be negative")
	}
	return nil
}

// State is a point-in-time snapshot of the controller.
type State struct {
	Phase          Phase   `json:"phase"`
	CurrentCycle   uint    `json:"currentCycle"`
	CurrentVoltage float64 `json:"currentVoltage"`
}

// Progress is emitted after every commanded step. Percent runs 0 to
// 100 within one cycle.
type Progress struct {
	Cycle       uint    `json:"cycle"`
	TotalCycles uint    `json:"totalCycles"`
	Voltage     float64 `json:"voltage"`
	Percent     float64 `json:"percent"`
}
