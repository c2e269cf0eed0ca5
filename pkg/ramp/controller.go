package ramp

import (
	"math"
	"sync"
	"time"

	"go.uber.org/atomic"
	"k8s.io/klog/v2"
)

const progressBuffer = 64

// Controller runs at most one stepping loop. Start launches the loop
// and returns immediately; Pause, Resume and Stop may be called from
// any goroutine, repeatedly, and after the loop has already exited.
type Controller struct {
	mu     sync.Mutex
	setter VoltageSetter

	phase   Phase
	plan    Plan
	cycle   uint
	voltage float64

	paused *atomic.Bool
	stopCh chan struct{}
	doneCh chan struct{}

	progressCh chan Progress
}

func NewController(setter VoltageSetter) *Controller {
	return &Controller{
		setter:     setter,
		phase:      Idle,
		paused:     atomic.NewBool(false),
		progressCh: make(chan Progress, progressBuffer),
	}
}

// Progress returns the step event channel. Events are dropped, not
// blocked on, when the consumer falls behind.
func (c *Controller) Progress() <-chan Progress {
	return c.progressCh
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Phase: c.phase, CurrentCycle: c.cycle, CurrentVoltage: c.voltage}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Start validates the plan and launches the stepping loop. A running
// or paused ramp must be stopped first.
func (c *Controller) Start(plan Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == Running || c.phase == Paused {
		return ErrAlreadyRunning
	}

	c.plan = plan
	c.phase = Running
	c.cycle = 0
	c.voltage = plan.StartVoltage
	c.paused.Store(false)
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	klog.V(1).InfoS("Starting voltage ramp", "startVoltage", plan.StartVoltage, "endVoltage", plan.EndVoltage,
		"duration", plan.Duration, "cycles", plan.Cycles, "pingPong", plan.PingPong)
	go c.run(plan, c.stopCh, c.doneCh)
	return nil
}

// Pause freezes voltage and timer at the current step. Only a running
// ramp can be paused.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Running {
		return ErrNotRunning
	}
	c.phase = Paused
	c.paused.Store(true)
	klog.V(1).InfoS("Paused voltage ramp", "cycle", c.cycle, "voltage", c.voltage)
	return nil
}

func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Paused {
		return ErrNotRunning
	}
	c.phase = Running
	c.paused.Store(false)
	klog.V(1).InfoS("Resumed voltage ramp", "cycle", c.cycle, "voltage", c.voltage)
	return nil
}

// Stop is idempotent and callable from any state. It signals the loop,
// waits for it to exit, and leaves the controller in Stopped. The loop
// observes the signal at its next checkpoint, so stopping takes at
// most one step interval.
func (c *Controller) Stop() {
	c.mu.Lock()
	stopCh, doneCh := c.stopCh, c.doneCh
	c.paused.Store(false)
	if stopCh != nil {
		select {
		case <-stopCh:
		default:
			close(stopCh)
		}
	}
	c.phase = Stopped
	c.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
}

func (c *Controller) run(plan Plan, stopCh chan struct{}, doneCh chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.phase = Stopped
		c.mu.Unlock()
		close(doneCh)
		klog.V(1).InfoS("Voltage ramp finished")
	}()

	steps := int(plan.Duration / plan.StepInterval)
	if steps < 1 {
		steps = 1
	}

	reverse := false
	for cycle := uint(1); ; cycle++ {
		cycleStart, cycleEnd := plan.StartVoltage, plan.EndVoltage
		if plan.PingPong && reverse {
			cycleStart, cycleEnd = cycleEnd, cycleStart
		}
		increment := (cycleEnd - cycleStart) / float64(steps)

		c.commandVoltage(cycle, cycleStart)
		for i := 1; i <= steps; i++ {
			if !c.sleep(plan.StepInterval, stopCh) {
				return
			}
			voltage := round3(cycleStart + increment*float64(i))
			c.commandVoltage(cycle, voltage)
			c.emit(Progress{
				Cycle:       cycle,
				TotalCycles: plan.Cycles,
				Voltage:     voltage,
				Percent:     float64(i) / float64(steps) * 100,
			})
		}

		if plan.Cycles > 0 && cycle >= plan.Cycles {
			return
		}
		if plan.PingPong {
			reverse = !reverse
		}
		if plan.InterCycleDelay > 0 && !c.sleep(plan.InterCycleDelay, stopCh) {
			return
		}
	}
}

func (c *Controller) commandVoltage(cycle uint, voltage float64) {
	if err := c.setter.SetVoltage(voltage); err != nil {
		klog.V(2).InfoS("Failed to command ramp voltage", "voltage", voltage, "err", err)
	}
	c.mu.Lock()
	c.cycle = cycle
	c.voltage = voltage
	c.mu.Unlock()
}

func (c *Controller) emit(p Progress) {
	select {
	case c.progressCh <- p:
	default:
	}
}

// sleep waits d, in poll-quantum slices so a stop lands within one
// quantum. Time spent paused does not count against d. Returns false
// when stopped.
func (c *Controller) sleep(d time.Duration, stopCh chan struct{}) bool {
	quantum := d / 10
	if quantum < time.Millisecond {
		quantum = time.Millisecond
	}
	if quantum > 100*time.Millisecond {
		quantum = 100 * time.Millisecond
	}

	remaining := d
	for remaining > 0 {
		select {
		case <-stopCh:
			return false
		default:
		}
		if c.paused.Load() {
			time.Sleep(quantum)
			continue
		}
		slice := quantum
		if slice > remaining {
			slice = remaining
		}
		time.Sleep(slice)
		remaining -= slice
	}
	select {
	case <-stopCh:
		return false
	default:
	}
	return true
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
