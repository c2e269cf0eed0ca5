package ramp

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSetter struct {
	mu       sync.Mutex
	voltages []float64
}

func (f *fakeSetter) SetVoltage(voltage float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voltages = append(f.voltages, voltage)
	return nil
}

func (f *fakeSetter) commanded() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.voltages...)
}

func waitStopped(t *testing.T, c *Controller) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return c.Phase() == Stopped
	}, 5*time.Second, 5*time.Millisecond)
}

func TestSingleCycleCommandsEveryStep(t *testing.T) {
	setter := &fakeSetter{}
	c := NewController(setter)

	err := c.Start(Plan{
		StartVoltage: 0,
		EndVoltage:   10,
		Duration:     100 * time.Millisecond,
		StepInterval: 10 * time.Millisecond,
		Cycles:       1,
	})
	assert.NoError(t, err)
	waitStopped(t, c)

	expected := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, expected, setter.commanded())
}

func TestPingPongAlternatesDirection(t *testing.T) {
	setter := &fakeSetter{}
	c := NewController(setter)

	err := c.Start(Plan{
		StartVoltage: 0,
		EndVoltage:   5,
		Duration:     50 * time.Millisecond,
		StepInterval: 10 * time.Millisecond,
		Cycles:       2,
		PingPong:     true,
	})
	assert.NoError(t, err)
	waitStopped(t, c)

	commanded := setter.commanded()
	assert.Len(t, commanded, 12)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, commanded[:6])
	assert.Equal(t, []float64{5, 4, 3, 2, 1, 0}, commanded[6:])
}

func TestZeroDurationStepsOnce(t *testing.T) {
	setter := &fakeSetter{}
	c := NewController(setter)

	err := c.Start(Plan{
		StartVoltage: 0,
		EndVoltage:   12,
		Duration:     0,
		StepInterval: 10 * time.Millisecond,
		Cycles:       1,
	})
	assert.NoError(t, err)
	waitStopped(t, c)

	assert.Equal(t, []float64{0, 12}, setter.commanded())
}

func TestProgressEvents(t *testing.T) {
	setter := &fakeSetter{}
	c := NewController(setter)

	err := c.Start(Plan{
		StartVoltage: 0,
		EndVoltage:   10,
		Duration:     50 * time.Millisecond,
		StepInterval: 10 * time.Millisecond,
		Cycles:       1,
	})
	assert.NoError(t, err)
	waitStopped(t, c)

	var events []Progress
	for len(c.Progress()) > 0 {
		events = append(events, <-c.Progress())
	}

	assert.Len(t, events, 5)
	assert.Equal(t, uint(1), events[0].Cycle)
	assert.Equal(t, uint(1), events[0].TotalCycles)
	assert.Equal(t, 20.0, events[0].Percent)
	assert.Equal(t, 100.0, events[len(events)-1].Percent)
	assert.Equal(t, 10.0, events[len(events)-1].Voltage)
}

func TestStartRejectedWhileActive(t *testing.T) {
	c := NewController(&fakeSetter{})

	plan := Plan{
		StartVoltage: 0,
		EndVoltage:   10,
		Duration:     time.Second,
		StepInterval: 50 * time.Millisecond,
		Cycles:       1,
	}
	assert.NoError(t, c.Start(plan))
	assert.ErrorIs(t, c.Start(plan), ErrAlreadyRunning)

	assert.NoError(t, c.Pause())
	assert.ErrorIs(t, c.Start(plan), ErrAlreadyRunning)

	c.Stop()
	assert.NoError(t, c.Start(plan))
	c.Stop()
}

func TestStopHaltsAndIsIdempotent(t *testing.T) {
	setter := &fakeSetter{}
	c := NewController(setter)

	// Unbounded ramp, must run until told otherwise.
	err := c.Start(Plan{
		StartVoltage: 0,
		EndVoltage:   10,
		Duration:     100 * time.Millisecond,
		StepInterval: 10 * time.Millisecond,
		Cycles:       0,
	})
	assert.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	c.Stop()
	assert.Equal(t, Stopped, c.Phase())
	settled := len(setter.commanded())

	// No re-entry after the loop has exited.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, len(setter.commanded()))

	c.Stop()
	assert.Equal(t, Stopped, c.Phase())
}

func TestStopFromIdle(t *testing.T) {
	c := NewController(&fakeSetter{})
	c.Stop()
	assert.Equal(t, Stopped, c.Phase())
}

func TestPauseFreezesProgression(t *testing.T) {
	setter := &fakeSetter{}
	c := NewController(setter)

	err := c.Start(Plan{
		StartVoltage: 0,
		EndVoltage:   10,
		Duration:     200 * time.Millisecond,
		StepInterval: 20 * time.Millisecond,
		Cycles:       1,
	})
	assert.NoError(t, err)
	// Let the loop command the cycle start before freezing it.
	assert.Eventually(t, func() bool {
		return len(setter.commanded()) == 1
	}, time.Second, time.Millisecond)
	assert.NoError(t, c.Pause())
	assert.Equal(t, Paused, c.Phase())

	frozen := len(setter.commanded())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, frozen, len(setter.commanded()))

	assert.NoError(t, c.Resume())
	waitStopped(t, c)

	// Every step present, none skipped or duplicated.
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, setter.commanded())
}

func TestPauseOnlyAffectsRunning(t *testing.T) {
	c := NewController(&fakeSetter{})

	assert.ErrorIs(t, c.Pause(), ErrNotRunning)
	assert.ErrorIs(t, c.Resume(), ErrNotRunning)
}

func TestStartValidatesPlan(t *testing.T) {
	c := NewController(&fakeSetter{})

	assert.Error(t, c.Start(Plan{StepInterval: 0}))
	assert.Error(t, c.Start(Plan{StepInterval: time.Millisecond, Duration: -time.Second}))
	assert.Equal(t, Idle, c.Phase())
}

func TestInterCycleDelayInterruptible(t *testing.T) {
	setter := &fakeSetter{}
	c := NewController(setter)

	err := c.Start(Plan{
		StartVoltage:    0,
		EndVoltage:      5,
		Duration:        20 * time.Millisecond,
		StepInterval:    10 * time.Millisecond,
		InterCycleDelay: time.Hour,
		Cycles:          0,
	})
	assert.NoError(t, err)

	// Let the first cycle finish into the delay, then stop.
	time.Sleep(100 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not interrupt inter-cycle delay")
	}
	assert.Equal(t, Stopped, c.Phase())
}
