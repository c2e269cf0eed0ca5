package device

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"voltampero/pkg/broker"
	"voltampero/pkg/datalog"
	"voltampero/pkg/generic"
	"voltampero/pkg/protocol/korad"
	"voltampero/pkg/protocol/unit"
	"voltampero/pkg/ramp"
	"voltampero/pkg/runtime"
	"voltampero/pkg/transport"
	v1 "voltampero/pkg/v1"
)

func newTestManager(t *testing.T) (*Manager, chan struct{}) {
	t.Helper()
	stop := make(chan struct{})
	m := &Manager{
		mu:                   &sync.Mutex{},
		instruments:          &sync.Map{},
		heartBeatInstruments: &sync.Map{},
		instrumentManager:    InstrumentManagers,
		psuDrivers:           make(map[string]*korad.Driver),
		dmmDrivers:           make(map[string]*unit.Driver),
		rampControllers:      make(map[string]*ramp.Controller),
		stopCh:               stop,
		instrumentStatusCh:   make(chan string),
		simulated:            true,
	}
	m.publisher = broker.NewPublisher(nil, "test")
	m.pipeline = datalog.NewPipeline(&anyPsuSource{m: m}, &anyDmmSource{m: m}, m.publisher)
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
		close(stop)
	})
	return m, stop
}

func attachPsu(t *testing.T, m *Manager, id string) *korad.Instrument {
	t.Helper()
	in := &korad.Instrument{
		InstrumentMeta: runtime.InstrumentMeta{
			ObjectMeta:     runtime.ObjectMeta{Name: "bench psu", ID: id, Version: "1", ModTime: time.Now()},
			InstrumentType: generic.InstrumentTypeKoradPsu,
		},
		Address: &korad.Address{Location: transport.SimulatedLocation},
	}
	m.instruments.Store(id, in)
	assert.NoError(t, m.readyConnect(in))
	return in
}

func attachDmm(t *testing.T, m *Manager, id string) *unit.Instrument {
	t.Helper()
	in := &unit.Instrument{
		InstrumentMeta: runtime.InstrumentMeta{
			ObjectMeta:     runtime.ObjectMeta{Name: "bench dmm", ID: id, Version: "1", ModTime: time.Now()},
			InstrumentType: generic.InstrumentTypeUnitDmm,
		},
		Address: &unit.Address{Location: transport.SimulatedLocation},
	}
	m.instruments.Store(id, in)
	assert.NoError(t, m.readyConnect(in))
	return in
}

func TestReadyConnectSimulated(t *testing.T) {
	m, _ := newTestManager(t)

	psu := attachPsu(t, m, "psu1")
	assert.Equal(t, runtime.ConnectStatusToString[runtime.Connected], psu.GetConnectStatus())
	assert.NotNil(t, m.lookupPsu("psu1"))

	dmm := attachDmm(t, m, "dmm1")
	assert.Equal(t, runtime.ConnectStatusToString[runtime.Connected], dmm.GetConnectStatus())
	assert.NotNil(t, m.lookupDmm("dmm1"))
}

func TestCancelConnectDetachesDrivers(t *testing.T) {
	m, _ := newTestManager(t)
	psu := attachPsu(t, m, "psu1")

	assert.NoError(t, m.cancelConnect(psu))
	assert.Equal(t, runtime.ConnectStatusToString[runtime.Disconnected], psu.GetConnectStatus())
	assert.Nil(t, m.lookupPsu("psu1"))
}

func TestPsuOperations(t *testing.T) {
	m, _ := newTestManager(t)
	attachPsu(t, m, "psu1")

	assert.NoError(t, m.SetVoltage("psu1", 12.5))
	assert.NoError(t, m.SetCurrent("psu1", 1.25))
	assert.NoError(t, m.SetOutput("psu1", true))

	status, err := m.PsuStatus("psu1")
	assert.NoError(t, err)
	assert.True(t, status.OutputEnabled)
	assert.InDelta(t, 12.5, status.VoltageSetpoint, 0.01)
	assert.InDelta(t, 1.25, status.CurrentSetpoint, 0.001)
}

func TestPsuOperationsUnknownInstrument(t *testing.T) {
	m, _ := newTestManager(t)

	assert.Error(t, m.SetVoltage("missing", 5))
	_, err := m.PsuStatus("missing")
	assert.Error(t, err)
}

func TestPsuOperationsWrongInstrumentType(t *testing.T) {
	m, _ := newTestManager(t)
	attachDmm(t, m, "dmm1")

	// dmm1 exists but has no power supply driver
	assert.Error(t, m.SetVoltage("dmm1", 5))
}

func TestDmmReadingAndActions(t *testing.T) {
	m, _ := newTestManager(t)
	attachDmm(t, m, "dmm1")

	reading, err := m.DmmReading("dmm1")
	assert.NoError(t, err)
	assert.NotNil(t, reading)
	assert.Equal(t, unit.DcVoltage, reading.Mode)
	assert.InDelta(t, 5.0, reading.Value, 0.2)

	assert.NoError(t, m.DeliverDmmAction("dmm1", "hold"))
	assert.NoError(t, m.DeliverDmmAction("dmm1", "minMax"))
	assert.Error(t, m.DeliverDmmAction("dmm1", "selfDestruct"))
}

func TestRampLifecycle(t *testing.T) {
	m, _ := newTestManager(t)
	attachPsu(t, m, "psu1")

	start, end := 0.0, 1.0
	request := &v1.RampRequest{
		StartVoltage:  &start,
		EndVoltage:    &end,
		DurationS:     0.05,
		StepIntervalS: 0.01,
		Cycles:        1,
	}
	state, err := m.StartRamp("psu1", request)
	assert.NoError(t, err)
	assert.Equal(t, ramp.Running, state.Phase)

	assert.Eventually(t, func() bool {
		s, err := m.RampState("psu1")
		return err == nil && s.Phase == ramp.Stopped
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStartRampRejectedWhileRunning(t *testing.T) {
	m, _ := newTestManager(t)
	attachPsu(t, m, "psu1")

	start, end := 0.0, 10.0
	request := &v1.RampRequest{
		StartVoltage:  &start,
		EndVoltage:    &end,
		DurationS:     60,
		StepIntervalS: 0.05,
		Cycles:        0,
	}
	_, err := m.StartRamp("psu1", request)
	assert.NoError(t, err)

	_, err = m.StartRamp("psu1", request)
	assert.Error(t, err)

	assert.NoError(t, m.StopRamp("psu1"))
	assert.Eventually(t, func() bool {
		s, _ := m.RampState("psu1")
		return s.Phase == ramp.Stopped
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRampStateWithoutController(t *testing.T) {
	m, _ := newTestManager(t)
	attachPsu(t, m, "psu1")

	state, err := m.RampState("psu1")
	assert.NoError(t, err)
	assert.Equal(t, ramp.Idle, state.Phase)

	assert.Error(t, m.PauseRamp("psu1"))
	assert.Error(t, m.StopRamp("psu1"))
}

func TestLoggingLifecycle(t *testing.T) {
	m, _ := newTestManager(t)
	attachPsu(t, m, "psu1")
	attachDmm(t, m, "dmm1")

	assert.NoError(t, m.StartLogging(10))
	assert.Error(t, m.StartLogging(10))

	assert.Eventually(t, func() bool {
		return len(m.LogEntries()) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	m.StopLogging()
	m.StopLogging()

	entries := m.LogEntries()
	assert.NotEmpty(t, entries)
	assert.Equal(t, "DC V", entries[0].DmmMode)
	assert.InDelta(t, 5.0, entries[0].DmmValue, 0.2)

	m.ClearLog()
	assert.Empty(t, m.LogEntries())
}

func TestFoldInstrumentHidesAddress(t *testing.T) {
	m, _ := newTestManager(t)
	attachPsu(t, m, "psu1")

	folded, err := m.GetInstrumentById("psu1", false)
	assert.NoError(t, err)
	_, isMeta := folded.(*runtime.InstrumentMeta)
	assert.True(t, isMeta)

	exploded, err := m.GetInstrumentById("psu1", true)
	assert.NoError(t, err)
	_, isPsu := exploded.(*korad.Instrument)
	assert.True(t, isPsu)
}

func TestListInstrumentsFiltered(t *testing.T) {
	m, _ := newTestManager(t)
	attachPsu(t, m, "psu1")
	attachDmm(t, m, "dmm1")

	all, err := m.ListInstruments(&runtime.InstrumentFilter{}, false)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	psus, err := m.ListInstruments(&runtime.InstrumentFilter{InstrumentType: generic.InstrumentTypeKoradPsu}, false)
	assert.NoError(t, err)
	assert.Len(t, psus, 1)
	assert.Equal(t, "psu1", psus[0].GetID())
}
