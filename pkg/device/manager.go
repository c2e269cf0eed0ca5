package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"k8s.io/klog/v2"

	"voltampero/pkg/apis"
	"voltampero/pkg/apis/response"
	"voltampero/pkg/broker"
	"voltampero/pkg/datalog"
	"voltampero/pkg/gateway"
	"voltampero/pkg/generic"
	"voltampero/pkg/protocol/korad"
	"voltampero/pkg/protocol/unit"
	"voltampero/pkg/ramp"
	"voltampero/pkg/runtime"
	"voltampero/pkg/runtime/constant"
	"voltampero/pkg/transport"
	v1 "voltampero/pkg/v1"
)

type Option func(*Manager)

// WithSimulatedTransports attaches every instrument to an in-process
// simulation instead of a serial line. Used by tests and demo runs.
func WithSimulatedTransports() Option {
	return func(m *Manager) {
		m.simulated = true
	}
}

type Manager struct {
	gatewayMeta          *gateway.GatewayMeta
	mqttClient           mqtt.Client
	mu                   *sync.Mutex
	instrumentManager    map[string]InstrumentManager
	instruments          *sync.Map
	heartBeatInstruments *sync.Map
	store                *generic.Store
	psuDrivers           map[string]*korad.Driver
	dmmDrivers           map[string]*unit.Driver
	rampControllers      map[string]*ramp.Controller
	pipeline             *datalog.Pipeline
	publisher            *broker.Publisher
	stopCh               <-chan struct{}
	instrumentStatusCh   chan string
	closers              []runtime.LabeledCloser
	simulated            bool
}

func NewManager(store *generic.Store, mqttClient mqtt.Client, gatewayMeta *gateway.GatewayMeta, stop <-chan struct{}, opts ...Option) *Manager {
	m := &Manager{
		gatewayMeta:          gatewayMeta,
		mqttClient:           mqttClient,
		mu:                   &sync.Mutex{},
		instruments:          &sync.Map{},
		heartBeatInstruments: &sync.Map{},
		instrumentManager:    InstrumentManagers,
		psuDrivers:           make(map[string]*korad.Driver, 0),
		dmmDrivers:           make(map[string]*unit.Driver, 0),
		rampControllers:      make(map[string]*ramp.Controller, 0),
		store:                store,
		stopCh:               stop,
		instrumentStatusCh:   make(chan string, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.publisher = broker.NewPublisher(mqttClient, gatewayMeta.ID)
	m.pipeline = datalog.NewPipeline(&anyPsuSource{m: m}, &anyDmmSource{m: m}, m.publisher)
	return m
}

func (m *Manager) Init() {
	instruments, _ := m.store.LoadResource()
	for _, object := range instruments {
		obj, _ := runtime.AccessorInstrument(object)
		m.instruments.Store(obj.GetID(), obj)

		if err := m.readyConnect(obj); err != nil {
			if errors.Is(err, constant.ErrConnectInstrument) {
				m.heartBeatInstruments.Store(obj.GetID(), obj)
			} else {
				klog.V(2).InfoS("Failed to attach instrument", "instrumentId", obj.GetID())
			}
		}
	}

	go m.heartBeatDetection()
	go m.listeningInstrumentStatusCh()
}

func (m *Manager) CreateInstrument(object v1.InstrumentType) (runtime.Instrument, error) {
	im, ok := m.instrumentManager[object.GetInstrumentType()]
	if !ok {
		return nil, response.ErrInstrumentTypeUnSupported(object.GetInstrumentType())
	}
	instrument, err := im.CreateInstrument(object)
	if err != nil {
		klog.V(2).InfoS("Failed to create instrument", "error", err)
		return nil, err
	}

	created, err := m.store.Create(instrument)
	if err != nil {
		klog.V(2).InfoS("Failed to store instrument", "error", err)
		return nil, err
	}
	ri := created.(runtime.Instrument)
	m.instruments.Store(ri.GetID(), ri)

	if err = m.readyConnect(ri); err != nil {
		if errors.Is(err, constant.ErrConnectInstrument) {
			m.heartBeatInstruments.Store(ri.GetID(), ri)
		} else {
			klog.V(2).InfoS("Failed to attach instrument", "instrumentId", ri.GetID())
			return nil, err
		}
	}

	return ri, nil
}

func (m *Manager) DeleteInstrument(id string, version string) (runtime.Instrument, error) {
	instrument, err := m.GetInstrumentById(id, false)
	if err != nil {
		return nil, err
	}

	if instrument.GetVersion() != version {
		return nil, apis.ErrMismatch
	}

	d, err := m.instrumentManager[instrument.GetInstrumentType()].DeleteInstrument(instrument)
	if err != nil {
		klog.V(2).InfoS("Failed to delete instrument", "error", err)
		return nil, err
	}

	if _, err := m.store.Delete(d); err != nil {
		klog.V(2).InfoS("Failed to delete instrument", "instrumentId", instrument.GetID())
	}

	klog.V(2).InfoS("Deleted instrument", "instrumentId", instrument.GetID())

	go func() {
		if err := m.cancelConnect(instrument); err != nil {
			klog.V(2).InfoS("Failed to detach instrument", "instrumentId", instrument.GetID())
		}
	}()

	m.instruments.Delete(instrument.GetID())
	return instrument, nil
}

func (m *Manager) UpdateInstrumentById(id string, version string, newObj v1.InstrumentType) (runtime.Instrument, error) {
	d, err := m.GetInstrumentById(id, true)
	if err != nil {
		return nil, err
	}

	if version != d.GetVersion() {
		return nil, apis.ErrMismatch
	}

	copied := d.DeepCopyInstrument()

	if err = m.instrumentManager[d.GetInstrumentType()].UpdateValidation(newObj, copied); err != nil {
		return nil, err
	}

	instrument, err := m.instrumentManager[d.GetInstrumentType()].UpdateInstrument(id, newObj, copied)
	if err != nil {
		klog.V(2).InfoS("Failed to update instrument", "error", err)
		return nil, err
	}

	updated, err := m.store.Update(instrument)
	if err != nil {
		klog.V(2).InfoS("Failed to update instrument", "error", err)
		return nil, err
	}
	ri := updated.(runtime.Instrument)
	m.instruments.Store(ri.GetID(), updated)

	return ri, nil
}

func (m *Manager) ListInstruments(filter *runtime.InstrumentFilter, exploded bool) ([]runtime.Instrument, error) {
	ris := make([]runtime.Instrument, 0)
	predicates := runtime.ParseTypeFilter(filter)

	// descend
	byModTime := func(i1, i2 runtime.Instrument) bool { return i1.GetModTime().Before(i2.GetModTime()) }
	sorter := runtime.ByInstrument(byModTime)

	m.instruments.Range(func(key, value interface{}) bool {
		isMatch := true
		v := value.(runtime.Instrument)
		for _, p := range predicates {
			if !p(v) {
				isMatch = false
				break
			}
		}
		if isMatch {
			ris = sorter.Insert(ris, v)
		}
		return true
	})

	if !exploded {
		for i := range ris {
			ris[i] = m.foldInstrument(ris[i])
		}
	}

	return ris, nil
}

func (m *Manager) GetInstrumentById(id string, exploded bool) (runtime.Instrument, error) {
	d, isExist := m.instruments.Load(id)
	if !isExist {
		return nil, os.ErrNotExist
	}
	instrument, _ := d.(runtime.Instrument)
	if !exploded {
		return m.foldInstrument(instrument), nil
	}
	return instrument, nil
}

func (m *Manager) SwitchInstrumentStatus(id string, status string) error {
	if _, err := m.GetInstrumentById(id, true); err != nil {
		klog.V(2).InfoS("Failed to find instrument", "instrumentId", id)
		return err
	}
	if _, ok := runtime.StringToInstrumentStatusCh[status]; !ok {
		klog.V(2).InfoS("Unsupported instrument status", "status", status)
		return response.ErrActionUnSupported(status)
	}
	isc := id + "-" + status
	m.instrumentStatusCh <- isc
	return nil
}

func (m *Manager) cancelConnect(obj runtime.Instrument) error {
	m.mu.Lock()
	obj.SetConnectStatus(runtime.ConnectStatusToString[runtime.Disconnected])
	if _, exist := m.heartBeatInstruments.Load(obj.GetID()); exist {
		m.heartBeatInstruments.Delete(obj.GetID())
	}
	psu := m.psuDrivers[obj.GetID()]
	delete(m.psuDrivers, obj.GetID())
	dmm := m.dmmDrivers[obj.GetID()]
	delete(m.dmmDrivers, obj.GetID())
	c := m.rampControllers[obj.GetID()]
	delete(m.rampControllers, obj.GetID())
	m.mu.Unlock()

	// Stop the ramp before closing the line. Controller.Stop joins the
	// stepping loop, which may still be inside a setter call, so the
	// mutex must not be held here.
	if c != nil {
		c.Stop()
	}
	if psu != nil {
		_ = psu.Close()
	}
	if dmm != nil {
		_ = dmm.Close()
	}
	return nil
}

func (m *Manager) readyConnect(obj runtime.Instrument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch in := obj.(type) {
	case *korad.Instrument:
		t, err := m.openTransactor(in.Address)
		if err != nil {
			obj.SetConnectStatus(runtime.ConnectStatusToString[runtime.Disconnected])
			klog.V(3).InfoS("Failed to open power supply", "instrumentId", obj.GetID(), "err", err)
			return constant.ErrConnectInstrument
		}
		m.psuDrivers[obj.GetID()] = korad.NewDriver(t)
	case *unit.Instrument:
		p, err := m.openReportPort(in.Address)
		if err != nil {
			obj.SetConnectStatus(runtime.ConnectStatusToString[runtime.Disconnected])
			klog.V(3).InfoS("Failed to open multimeter", "instrumentId", obj.GetID(), "err", err)
			return constant.ErrConnectInstrument
		}
		m.dmmDrivers[obj.GetID()] = unit.NewDriver(p)
	default:
		return constant.ErrInstrumentType
	}
	obj.SetConnectStatus(runtime.ConnectStatusToString[runtime.Connected])
	klog.V(2).InfoS("Attached instrument", "instrumentId", obj.GetID(), "instrumentType", obj.GetInstrumentType())
	return nil
}

func (m *Manager) openTransactor(address *korad.Address) (transport.Transactor, error) {
	if m.simulated || address.Location == transport.SimulatedLocation {
		return transport.NewSimulatedTransactor(), nil
	}
	c := transport.SerialConfig{Location: address.Location}
	if address.Option != nil {
		c.BaudRate = address.Option.BaudRate
		c.DataBits = address.Option.DataBits
		c.Parity = address.Option.Parity
		c.StopBits = address.Option.StopBits
	}
	return transport.NewSerialTransactor(c)
}

func (m *Manager) openReportPort(address *unit.Address) (transport.ReportPort, error) {
	if m.simulated || address.Location == transport.SimulatedLocation {
		return transport.NewSimulatedReportPort(), nil
	}
	c := transport.SerialConfig{Location: address.Location}
	if address.Option != nil {
		c.BaudRate = address.Option.BaudRate
		c.DataBits = address.Option.DataBits
		c.Parity = address.Option.Parity
		c.StopBits = address.Option.StopBits
	}
	return transport.NewSerialReportPort(c)
}

func (m *Manager) lookupPsu(id string) *korad.Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.psuDrivers[id]
}

func (m *Manager) lookupDmm(id string) *unit.Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dmmDrivers[id]
}

func (m *Manager) psuDriver(id string) (*korad.Driver, error) {
	if _, err := m.GetInstrumentById(id, false); err != nil {
		return nil, response.NewMultiError(response.ErrInstrumentNotFound(id))
	}
	d := m.lookupPsu(id)
	if d == nil || !d.Connected() {
		return nil, response.NewMultiError(response.ErrInstrumentNotConnected(id))
	}
	return d, nil
}

func (m *Manager) dmmDriver(id string) (*unit.Driver, error) {
	if _, err := m.GetInstrumentById(id, false); err != nil {
		return nil, response.NewMultiError(response.ErrInstrumentNotFound(id))
	}
	d := m.lookupDmm(id)
	if d == nil || !d.Connected() {
		return nil, response.NewMultiError(response.ErrInstrumentNotConnected(id))
	}
	return d, nil
}

func (m *Manager) SetVoltage(id string, voltage float64) error {
	d, err := m.psuDriver(id)
	if err != nil {
		return err
	}
	return d.SetVoltage(voltage)
}

func (m *Manager) SetCurrent(id string, current float64) error {
	d, err := m.psuDriver(id)
	if err != nil {
		return err
	}
	return d.SetCurrent(current)
}

func (m *Manager) SetOutput(id string, on bool) error {
	d, err := m.psuDriver(id)
	if err != nil {
		return err
	}
	return d.SetOutput(on)
}

func (m *Manager) SetOcp(id string, on bool) error {
	d, err := m.psuDriver(id)
	if err != nil {
		return err
	}
	return d.SetOcp(on)
}

func (m *Manager) SetOvp(id string, on bool) error {
	d, err := m.psuDriver(id)
	if err != nil {
		return err
	}
	return d.SetOvp(on)
}

func (m *Manager) PsuStatus(id string) (*korad.PsuStatus, error) {
	d, err := m.psuDriver(id)
	if err != nil {
		return nil, err
	}
	return d.Status(), nil
}

func (m *Manager) DmmReading(id string) (*unit.Reading, error) {
	d, err := m.dmmDriver(id)
	if err != nil {
		return nil, err
	}
	return d.Reading(), nil
}

func (m *Manager) DmmDisplay(id string) (string, error) {
	d, err := m.dmmDriver(id)
	if err != nil {
		return "", err
	}
	return d.Display(), nil
}

func (m *Manager) DmmIdentification(id string) (string, error) {
	d, err := m.dmmDriver(id)
	if err != nil {
		return "", err
	}
	return d.Identification(), nil
}

// DeliverDmmAction maps a front-panel action name onto the wire command.
func (m *Manager) DeliverDmmAction(id string, action string) error {
	d, err := m.dmmDriver(id)
	if err != nil {
		return err
	}
	switch action {
	case "hold":
		return d.ToggleHold()
	case "brightness":
		return d.ChangeBrightness()
	case "select":
		return d.SelectRange()
	case "manualRange":
		return d.NextManualRange()
	case "autoRange":
		return d.SetAutoRange()
	case "minMax":
		return d.ToggleMinMax()
	case "exitMinMax":
		return d.ExitMinMax()
	case "relative":
		return d.ToggleRelative()
	case "dValue":
		return d.ShowDValue()
	case "qValue":
		return d.ShowQValue()
	case "rValue":
		return d.ShowRValue()
	case "exitDQR":
		return d.ExitDQR()
	default:
		klog.V(2).InfoS("Unsupported multimeter action", "instrumentId", id, "action", action)
		return response.NewMultiError(response.ErrActionUnSupported(action))
	}
}

func (m *Manager) rampController(id string) *ramp.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.rampControllers[id]; ok {
		return c
	}
	c := ramp.NewController(&psuSetter{m: m, id: id})
	m.rampControllers[id] = c
	go m.pumpProgress(c)
	return c
}

func (m *Manager) pumpProgress(c *ramp.Controller) {
	for {
		select {
		case _, ok := <-m.stopCh:
			if !ok {
				return
			}
		case p, ok := <-c.Progress():
			if !ok {
				return
			}
			m.publisher.PublishProgress(p)
		}
	}
}

func (m *Manager) StartRamp(id string, request *v1.RampRequest) (*ramp.State, error) {
	if _, err := m.psuDriver(id); err != nil {
		return nil, err
	}

	stepInterval := defaultStepInterval
	if request.StepIntervalS > 0 {
		stepInterval = time.Duration(request.StepIntervalS * float64(time.Second))
	}
	plan := ramp.Plan{
		StartVoltage:    *request.StartVoltage,
		EndVoltage:      *request.EndVoltage,
		Duration:        time.Duration(request.DurationS * float64(time.Second)),
		StepInterval:    stepInterval,
		InterCycleDelay: time.Duration(request.InterCycleDelayS * float64(time.Second)),
		Cycles:          request.Cycles,
		PingPong:        request.PingPong,
	}
	if err := plan.Validate(); err != nil {
		return nil, response.NewMultiError(response.ErrRequestBody)
	}

	c := m.rampController(id)
	if err := c.Start(plan); err != nil {
		if errors.Is(err, ramp.ErrAlreadyRunning) {
			return nil, response.NewMultiError(response.ErrRampAlreadyRunning)
		}
		return nil, err
	}
	klog.V(2).InfoS("Started voltage ramp", "instrumentId", id,
		"startVoltage", plan.StartVoltage, "endVoltage", plan.EndVoltage, "cycles", plan.Cycles)
	state := c.State()
	return &state, nil
}

func (m *Manager) PauseRamp(id string) error {
	c := m.lookupRamp(id)
	if c == nil {
		return response.NewMultiError(response.ErrRampNotRunning)
	}
	if err := c.Pause(); err != nil {
		return response.NewMultiError(response.ErrRampNotRunning)
	}
	return nil
}

func (m *Manager) ResumeRamp(id string) error {
	c := m.lookupRamp(id)
	if c == nil {
		return response.NewMultiError(response.ErrRampNotRunning)
	}
	if err := c.Resume(); err != nil {
		return response.NewMultiError(response.ErrRampNotRunning)
	}
	return nil
}

func (m *Manager) StopRamp(id string) error {
	c := m.lookupRamp(id)
	if c == nil {
		return response.NewMultiError(response.ErrRampNotRunning)
	}
	c.Stop()
	return nil
}

func (m *Manager) RampState(id string) (*ramp.State, error) {
	if _, err := m.GetInstrumentById(id, false); err != nil {
		return nil, response.NewMultiError(response.ErrInstrumentNotFound(id))
	}
	c := m.lookupRamp(id)
	if c == nil {
		return &ramp.State{Phase: ramp.Idle}, nil
	}
	state := c.State()
	return &state, nil
}

func (m *Manager) lookupRamp(id string) *ramp.Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rampControllers[id]
}

func (m *Manager) StartLogging(intervalMs int) error {
	interval := defaultLoggingInterval
	if intervalMs > 0 {
		interval = time.Duration(intervalMs) * time.Millisecond
	}
	if err := m.pipeline.Start(interval); err != nil {
		return response.NewMultiError(response.ErrLoggingAlreadyActive)
	}
	klog.V(2).InfoS("Started data logging", "interval", interval)
	return nil
}

func (m *Manager) StopLogging() {
	m.pipeline.Stop()
}

func (m *Manager) ExportLog(path string) error {
	if err := m.pipeline.Export(path); err != nil {
		klog.V(2).InfoS("Failed to export log entries", "path", path, "err", err)
		return response.NewMultiError(response.ErrExportFailed(path))
	}
	return nil
}

func (m *Manager) ClearLog() {
	m.pipeline.Clear()
}

func (m *Manager) LogEntries() []*datalog.LogEntry {
	return m.pipeline.Entries()
}

func (m *Manager) LoggingActive() bool {
	return m.pipeline.Active()
}

func (m *Manager) Shutdown(context context.Context) error {
	m.mu.Lock()
	controllers := make([]*ramp.Controller, 0, len(m.rampControllers))
	for _, c := range m.rampControllers {
		controllers = append(controllers, c)
	}
	m.mu.Unlock()
	for _, c := range controllers {
		c.Stop()
	}
	m.pipeline.Stop()

	m.mu.Lock()
	for _, d := range m.psuDrivers {
		_ = d.Close()
	}
	for _, d := range m.dmmDrivers {
		_ = d.Close()
	}
	m.mu.Unlock()

	m.publisher.Close(2000)
	var errs []string
	for i := len(m.closers); i > 0; i-- {
		lc := m.closers[i-1]
		if err := lc.Closer(context); err != nil {
			klog.V(2).InfoS("Failed to stopped Dependencies service", "service", lc.Label)
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("Failed to shutdown server: [%s]\n", strings.Join(errs, ","))
	}
	return nil
}

func (m *Manager) foldInstrument(instrument runtime.Instrument) runtime.Instrument {
	return &runtime.InstrumentMeta{
		ObjectMeta: runtime.ObjectMeta{
			Name:    instrument.GetName(),
			ID:      instrument.GetID(),
			Version: instrument.GetVersion(),
			ModTime: instrument.GetModTime(),
		},
		PublishMeta:    runtime.PublishMeta{Topic: instrument.GetTopic()},
		InstrumentType: instrument.GetInstrumentType(),
		ConnectStatus:  instrument.GetConnectStatus(),
	}
}

func (m *Manager) heartBeatDetection() {
	tick := time.Tick(heartBeatTimeInterval)
	for {
		select {
		case _, ok := <-m.stopCh:
			if !ok {
				return
			}
		case <-tick:
			resumeInstruments := make([]string, 0, 0)
			m.heartBeatInstruments.Range(func(key, value any) bool {
				d := value.(runtime.Instrument)
				if err := m.readyConnect(d); err == nil {
					resumeInstruments = append(resumeInstruments, key.(string))
					return true
				}
				return false
			})
			if len(resumeInstruments) > 0 {
				for _, instrumentId := range resumeInstruments {
					m.heartBeatInstruments.Delete(instrumentId)
				}
			}
		}
	}
}

func (m *Manager) listeningInstrumentStatusCh() {
	for {
		select {
		case _, ok := <-m.stopCh:
			if !ok {
				return
			}
		case statusCh, ok := <-m.instrumentStatusCh:
			if !ok {
				return
			}
			split := strings.Split(statusCh, "-")
			instrumentId := split[0]
			status := split[1]
			d, exist := m.instruments.Load(instrumentId)
			if !exist {
				klog.V(2).InfoS("Failed to find instrument", "instrumentId", instrumentId)
				continue
			}
			m.switchInstrumentStatus(d.(runtime.Instrument), status)
		}
	}
}

func (m *Manager) switchInstrumentStatus(instrument runtime.Instrument, status string) {
	cs := instrument.GetConnectStatus()
	switch runtime.StringToConnectStatus[cs] {
	case runtime.Connected:
		switch runtime.StringToInstrumentStatusCh[status] {
		case runtime.Connect:
			return
		case runtime.Reconnect:
			_ = m.cancelConnect(instrument)
			if err := m.readyConnect(instrument); err != nil {
				if errors.Is(err, constant.ErrConnectInstrument) {
					m.heartBeatInstruments.Store(instrument.GetID(), instrument)
				} else {
					klog.V(2).InfoS("Failed to attach instrument", "instrumentId", instrument.GetID())
				}
			}
			return
		case runtime.Disconnect:
			_ = m.cancelConnect(instrument)
			return
		}
	case runtime.Disconnected, runtime.ConnectError:
		switch runtime.StringToInstrumentStatusCh[status] {
		case runtime.Connect, runtime.Reconnect:
			if err := m.readyConnect(instrument); err != nil {
				if errors.Is(err, constant.ErrConnectInstrument) {
					m.heartBeatInstruments.Store(instrument.GetID(), instrument)
				} else {
					klog.V(2).InfoS("Failed to attach instrument", "instrumentId", instrument.GetID())
				}
			}
			return
		case runtime.Disconnect:
			return
		}
	}
}
