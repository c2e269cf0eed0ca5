package unit

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"voltampero/pkg/transport"
	"voltampero/pkg/utils/binutil"
)

const (
	readTimeout = 500 * time.Millisecond
	idTimeout   = 200 * time.Millisecond
	idAttempts  = 5
)

// Driver reads the multimeter's continuous report stream. The device
// pushes roughly three frames per second; Reading returns the newest
// decodable frame and falls back to the last known one when nothing
// fresh arrived, so a quiet wire never looks like a dead instrument.
type Driver struct {
	mu       sync.Mutex
	port     transport.ReportPort
	last     *Reading
	deviceID string
}

func NewDriver(p transport.ReportPort) *Driver {
	return &Driver{port: p}
}

func (d *Driver) Connected() bool {
	return d.port != nil && d.port.Connected()
}

func (d *Driver) Close() error {
	if d.port == nil {
		return nil
	}
	return d.port.Close()
}

// buildCommand assembles the fixed 7-byte front-panel report. The
// trailing byte is an additive checksum over everything before the
// 0x01 terminator.
func buildCommand(op byte) []byte {
	cmd := []byte{0xAB, 0xCD, 0x04, op, 0x00}
	return append(cmd, 0x01, binutil.Sum8(cmd))
}

func (d *Driver) send(op byte) error {
	if err := d.port.WriteReport(buildCommand(op)); err != nil {
		klog.V(2).InfoS("Failed to send multimeter command", "op", fmt.Sprintf("0x%02x", op), "err", err)
		return err
	}
	return nil
}

// Reading returns the latest decoded sample, or the previous one when
// no fresh frame arrived within the read timeout. Returns nil only
// before the first successful decode.
func (d *Driver) Reading() *Reading {
	data, err := d.port.ReadReport(readTimeout)
	if err != nil {
		klog.V(2).InfoS("Failed to read multimeter report", "err", err)
	} else if data != nil {
		reading, err := Decode(data)
		if err != nil {
			klog.V(3).InfoS("Dropped undecodable multimeter frame", "len", len(data), "err", err)
		} else {
			d.mu.Lock()
			d.last = reading
			d.mu.Unlock()
			return reading
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func (d *Driver) Value() float64 {
	if reading := d.Reading(); reading != nil {
		return reading.Value
	}
	return 0.0
}

// Display formats the current reading the way the instrument's own
// screen would, including the overload marker.
func (d *Driver) Display() string {
	reading := d.Reading()
	if reading == nil {
		return "--- ---"
	}
	if reading.Overflow {
		return fmt.Sprintf("OL %s", reading.Unit)
	}
	return fmt.Sprintf("%.4f %s", reading.Value, reading.Unit)
}

// Identification requests the device ID string. The reply shares the
// report stream with measurement frames, so several reads may be
// needed before the ID frame shows up.
func (d *Driver) Identification() string {
	if err := d.send(opGetID); err == nil {
		for i := 0; i < idAttempts; i++ {
			data, err := d.port.ReadReport(idTimeout)
			if err != nil || len(data) <= 4 {
				continue
			}
			id := strings.TrimSpace(strings.Trim(string(data[4:]), "\x00"))
			if len(id) > 2 {
				d.mu.Lock()
				d.deviceID = id
				d.mu.Unlock()
				return id
			}
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.deviceID != "" {
		return d.deviceID
	}
	return "UT8804E"
}

func (d *Driver) ToggleHold() error       { return d.send(opHold) }
func (d *Driver) ChangeBrightness() error { return d.send(opBrightness) }
func (d *Driver) SelectRange() error      { return d.send(opSelect) }
func (d *Driver) NextManualRange() error  { return d.send(opRangeManual) }
func (d *Driver) SetAutoRange() error     { return d.send(opRangeAuto) }
func (d *Driver) ToggleMinMax() error     { return d.send(opMinMax) }
func (d *Driver) ExitMinMax() error       { return d.send(opExitMinMax) }
func (d *Driver) ToggleRelative() error   { return d.send(opRelative) }
func (d *Driver) ShowDValue() error       { return d.send(opDValue) }
func (d *Driver) ShowQValue() error       { return d.send(opQValue) }
func (d *Driver) ShowRValue() error       { return d.send(opRValue) }
func (d *Driver) ExitDQR() error          { return d.send(opExitDQR) }
