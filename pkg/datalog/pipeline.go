package datalog

import (
	"sync"
	"time"

	"go.uber.org/atomic"
	"k8s.io/klog/v2"
)

// joinTimeout bounds how long Stop waits for the sampling loop. A
// transport stuck in a read must never hang shutdown.
const joinTimeout = time.Second

// Pipeline owns one sampling loop and the session's entry buffer. The
// loop is the buffer's only writer; Entries and Export take snapshots
// under the lock, so reading during an active session yields a
// possibly-incomplete but consistent view.
type Pipeline struct {
	mu      sync.Mutex
	psu     PsuSource
	dmm     DmmSource
	sinks   []Sink
	entries []*LogEntry

	active  *atomic.Bool
	started time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewPipeline(psu PsuSource, dmm DmmSource, sinks ...Sink) *Pipeline {
	return &Pipeline{
		psu:    psu,
		dmm:    dmm,
		sinks:  sinks,
		active: atomic.NewBool(false),
	}
}

func (p *Pipeline) Active() bool {
	return p.active.Load()
}

// Start resets the buffer and launches the sampling loop. The first
// entry is captured immediately, subsequent ones every interval.
func (p *Pipeline) Start(interval time.Duration) error {
	if !p.active.CAS(false, true) {
		return ErrAlreadyActive
	}

	p.mu.Lock()
	p.entries = nil
	p.started = time.Now()
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	klog.V(1).InfoS("Starting data logging", "interval", interval)
	go p.run(interval, stopCh, doneCh)
	return nil
}

// Stop is idempotent. It signals the loop and waits for it with a
// bounded timeout.
func (p *Pipeline) Stop() {
	if !p.active.CAS(true, false) {
		return
	}

	p.mu.Lock()
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(joinTimeout):
		klog.InfoS("Data logging loop did not stop in time")
	}
	klog.V(1).InfoS("Stopped data logging")
}

// Entries returns a snapshot of the buffer.
func (p *Pipeline) Entries() []*LogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*LogEntry(nil), p.entries...)
}

// Clear empties the buffer. Logging, if active, keeps running and
// appends to the now-empty buffer.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	p.entries = nil
	p.mu.Unlock()
}

func (p *Pipeline) run(interval time.Duration, stopCh chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		entry := p.capture()
		p.mu.Lock()
		p.entries = append(p.entries, entry)
		p.mu.Unlock()
		for _, sink := range p.sinks {
			sink.Consume(entry)
		}

		select {
		case <-stopCh:
			return
		case <-time.After(interval):
		}
	}
}

func (p *Pipeline) capture() *LogEntry {
	now := time.Now()
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()

	entry := &LogEntry{
		Timestamp: now,
		Elapsed:   now.Sub(started).Seconds(),
	}
	if p.psu != nil && p.psu.Connected() {
		entry.PsuVoltage, entry.PsuCurrent = p.psu.Readings()
		entry.PsuSetpointV = p.psu.VoltageSetpoint()
		entry.PsuSetpointA = p.psu.CurrentSetpoint()
	}
	if p.dmm != nil && p.dmm.Connected() {
		if reading := p.dmm.Reading(); reading != nil {
			entry.DmmValue = reading.Value
			entry.DmmUnit = reading.Unit
			entry.DmmMode = reading.Mode.String()
		}
	}
	return entry
}
