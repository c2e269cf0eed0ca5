package device

import (
	"voltampero/pkg/protocol/korad"
	"voltampero/pkg/protocol/unit"
	"voltampero/pkg/runtime/constant"
)

// psuSetter routes ramp voltage commands through the manager so a
// reconnect mid-ramp picks up the fresh driver instead of a closed one.
type psuSetter struct {
	m  *Manager
	id string
}

func (s *psuSetter) SetVoltage(voltage float64) error {
	d := s.m.lookupPsu(s.id)
	if d == nil {
		return constant.ErrConnectInstrument
	}
	return d.SetVoltage(voltage)
}

// anyPsuSource feeds the logging pipeline from whichever power supply
// is currently attached. The bench runs one of each instrument; when
// none is attached the pipeline records zeros.
type anyPsuSource struct {
	m *Manager
}

func (s *anyPsuSource) driver() *korad.Driver {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, d := range s.m.psuDrivers {
		if d.Connected() {
			return d
		}
	}
	return nil
}

func (s *anyPsuSource) Connected() bool {
	return s.driver() != nil
}

func (s *anyPsuSource) Readings() (float64, float64) {
	if d := s.driver(); d != nil {
		return d.Readings()
	}
	return 0, 0
}

func (s *anyPsuSource) VoltageSetpoint() float64 {
	if d := s.driver(); d != nil {
		return d.VoltageSetpoint()
	}
	return 0
}

func (s *anyPsuSource) CurrentSetpoint() float64 {
	if d := s.driver(); d != nil {
		return d.CurrentSetpoint()
	}
	return 0
}

type anyDmmSource struct {
	m *Manager
}

func (s *anyDmmSource) driver() *unit.Driver {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, d := range s.m.dmmDrivers {
		if d.Connected() {
			return d
		}
	}
	return nil
}

func (s *anyDmmSource) Connected() bool {
	return s.driver() != nil
}

func (s *anyDmmSource) Reading() *unit.Reading {
	if d := s.driver(); d != nil {
		return d.Reading()
	}
	return nil
}
