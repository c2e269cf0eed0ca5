package transport

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"k8s.io/klog/v2"
	"voltampero/pkg/runtime"
)

var ErrBadConn = errors.New("serial line unavailable")

const defaultLineTimeout = 1 * time.Second

var stringToSerialParity = map[runtime.Parity]serial.Parity{
	runtime.NoParity:   serial.NoParity,
	runtime.OddParity:  serial.OddParity,
	runtime.EvenParity: serial.EvenParity,
}

var stringToSerialStopBits = map[runtime.StopBits]serial.StopBits{
	runtime.OneStopBit:           serial.OneStopBit,
	runtime.OnePointFiveStopBits: serial.OnePointFiveStopBits,
	runtime.TwoStopBits:          serial.TwoStopBits,
}

func openPort(c SerialConfig) (serial.Port, error) {
	dataBits := c.DataBits
	if dataBits == 0 {
		dataBits = 8
	}
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: dataBits,
		Parity:   stringToSerialParity[runtime.StringToParity[c.Parity]],
		StopBits: stringToSerialStopBits[runtime.StringToStopBits[c.StopBits]],
	}
	port, err := serial.Open(c.Location, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", c.Location)
	}
	return port, nil
}

// SerialTransactor drives a request/response ASCII instrument over one
// serial line. The mutex is the single synchronization point for
// command ordering on the wire.
type SerialTransactor struct {
	mu      sync.Mutex
	port    serial.Port
	timeout time.Duration
}

var _ Transactor = (*SerialTransactor)(nil)

func NewSerialTransactor(c SerialConfig) (*SerialTransactor, error) {
	port, err := openPort(c)
	if err != nil {
		return nil, err
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultLineTimeout
	}
	return &SerialTransactor{port: port, timeout: timeout}, nil
}

func (st *SerialTransactor) Transact(cmd string) (string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.port == nil {
		return "", ErrBadConn
	}

	if _, err := st.port.Write([]byte(cmd)); err != nil {
		klog.V(2).InfoS("Failed to write command to serial port", "cmd", cmd, "err", err)
		return "", ErrBadConn
	}
	klog.V(5).InfoS("Succeed to write command to serial port", "cmd", cmd)

	if !strings.Contains(cmd, "?") {
		return "", nil
	}

	if err := st.port.SetReadTimeout(st.timeout); err != nil {
		klog.V(2).InfoS("Serial port read timeout", "err", err)
		return "", errors.Wrap(err, "set read timeout")
	}

	buf := make([]byte, 64)
	reply := make([]byte, 0, 64)
	for {
		n, err := st.port.Read(buf)
		if err != nil {
			klog.V(2).InfoS("Failed to read reply from serial port", "cmd", cmd, "err", err)
			return "", errors.Wrap(err, "read reply")
		}
		if n == 0 {
			break
		}
		reply = append(reply, buf[:n]...)
		if n < len(buf) {
			break
		}
	}
	return strings.TrimSpace(string(reply)), nil
}

func (st *SerialTransactor) Connected() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.port != nil
}

func (st *SerialTransactor) Close() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.port == nil {
		return nil
	}
	err := st.port.Close()
	st.port = nil
	return err
}

// SerialReportPort reads binary report frames from an instrument behind
// a USB HID-to-UART bridge (CP2110 exposed as a serial device).
type SerialReportPort struct {
	mu   sync.Mutex
	port serial.Port
}

var _ ReportPort = (*SerialReportPort)(nil)

func NewSerialReportPort(c SerialConfig) (*SerialReportPort, error) {
	port, err := openPort(c)
	if err != nil {
		return nil, err
	}
	return &SerialReportPort{port: port}, nil
}

func (sp *SerialReportPort) WriteReport(p []byte) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.port == nil {
		return ErrBadConn
	}
	if _, err := sp.port.Write(p); err != nil {
		klog.V(2).InfoS("Failed to write report", "err", err)
		return ErrBadConn
	}
	return nil
}

func (sp *SerialReportPort) ReadReport(timeout time.Duration) ([]byte, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.port == nil {
		return nil, ErrBadConn
	}
	if err := sp.port.SetReadTimeout(timeout); err != nil {
		return nil, errors.Wrap(err, "set read timeout")
	}
	buf := make([]byte, 64)
	n, err := sp.port.Read(buf)
	if err != nil {
		klog.V(2).InfoS("Failed to read report", "err", err)
		return nil, errors.Wrap(err, "read report")
	}
	if n == 0 {
		return nil, nil
	}
	return buf[:n], nil
}

func (sp *SerialReportPort) Connected() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.port != nil
}

func (sp *SerialReportPort) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.port == nil {
		return nil
	}
	err := sp.port.Close()
	sp.port = nil
	return err
}
