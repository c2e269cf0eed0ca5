package transport

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Location value that selects the simulated attachment.
const SimulatedLocation = "simulated"

// SimulatedTransactor emulates the power supply protocol so the gateway
// can run without hardware.
type SimulatedTransactor struct {
	mu       sync.Mutex
	open     bool
	vset     float64
	iset     float64
	outputOn bool
}

var _ Transactor = (*SimulatedTransactor)(nil)

func NewSimulatedTransactor() *SimulatedTransactor {
	return &SimulatedTransactor{open: true}
}

func (t *SimulatedTransactor) Transact(cmd string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return "", ErrBadConn
	}

	switch {
	case strings.HasPrefix(cmd, "VSET1:"):
		fmt.Sscanf(cmd, "VSET1:%f", &t.vset)
		return "", nil
	case strings.HasPrefix(cmd, "ISET1:"):
		fmt.Sscanf(cmd, "ISET1:%f", &t.iset)
		return "", nil
	case cmd == "OUT1":
		t.outputOn = true
		return "", nil
	case cmd == "OUT0":
		t.outputOn = false
		return "", nil
	case cmd == "VSET1?":
		return fmt.Sprintf("%05.2f", t.vset), nil
	case cmd == "ISET1?":
		return fmt.Sprintf("%05.3f", t.iset), nil
	case cmd == "VOUT1?":
		if !t.outputOn {
			return "00.00", nil
		}
		return fmt.Sprintf("%05.2f", t.vset+rand.Float64()*0.02-0.01), nil
	case cmd == "IOUT1?":
		if !t.outputOn {
			return "0.000", nil
		}
		return fmt.Sprintf("%05.3f", 0.1+rand.Float64()*0.02-0.01), nil
	case cmd == "STATUS?":
		status := byte(0)
		if t.outputOn {
			status |= 0x40
		}
		return string([]byte{status}), nil
	case cmd == "*IDN?":
		return "SIMULATED KWR102 V1.0", nil
	}
	return "", nil
}

func (t *SimulatedTransactor) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *SimulatedTransactor) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open = false
	return nil
}

// SimulatedReportPort streams synthetic multimeter frames around a
// settable base value (DC voltage mode).
type SimulatedReportPort struct {
	mu   sync.Mutex
	open bool
	base float64
}

var _ ReportPort = (*SimulatedReportPort)(nil)

func NewSimulatedReportPort() *SimulatedReportPort {
	return &SimulatedReportPort{open: true, base: 5.0}
}

func (p *SimulatedReportPort) SetBaseValue(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = v
}

func (p *SimulatedReportPort) WriteReport([]byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return ErrBadConn
	}
	return nil
}

func (p *SimulatedReportPort) ReadReport(time.Duration) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil, ErrBadConn
	}
	value := p.base + rand.Float64()*0.1 - 0.05
	raw := int32(value * 10000)
	frame := []byte{
		0xAB, 0xCD, // header
		0x10,
		0x00, // DC voltage
		byte(raw), byte(raw >> 8), byte(raw >> 16), byte(raw >> 24),
		0x04, // four decimal places
		0x00, // no prefix
		0x00, // no flags
	}
	return frame, nil
}

func (p *SimulatedReportPort) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *SimulatedReportPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}
