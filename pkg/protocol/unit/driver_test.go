package unit

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeReportPort struct {
	written [][]byte
	reports [][]byte
	err     error
}

func (f *fakeReportPort) WriteReport(p []byte) error {
	f.written = append(f.written, p)
	return f.err
}

func (f *fakeReportPort) ReadReport(timeout time.Duration) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.reports) == 0 {
		return nil, nil
	}
	report := f.reports[0]
	f.reports = f.reports[1:]
	return report, nil
}

func (f *fakeReportPort) Connected() bool { return true }
func (f *fakeReportPort) Close() error    { return nil }

func TestBuildCommandChecksums(t *testing.T) {
	tests := []struct {
		op     byte
		expect string
	}{
		{opHold, "abcd04460001c2"},
		{opBrightness, "abcd04470001c3"},
		{opSelect, "abcd04480001c4"},
		{opRangeManual, "abcd04490001c5"},
		{opRangeAuto, "abcd044a0001c6"},
		{opMinMax, "abcd044b0001c7"},
		{opExitMinMax, "abcd044c0001c8"},
		{opRelative, "abcd044d0001c9"},
		{opDValue, "abcd044e0001ca"},
		{opQValue, "abcd044f0001cb"},
		{opExitDQR, "abcd04500001cc"},
		{opRValue, "abcd04510001cd"},
		{opGetID, "abcd04580001d4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expect, hex.EncodeToString(buildCommand(tt.op)))
	}
}

func TestToggleHoldWritesCommand(t *testing.T) {
	fp := &fakeReportPort{}
	d := NewDriver(fp)

	assert.NoError(t, d.ToggleHold())
	assert.Len(t, fp.written, 1)
	assert.Equal(t, "abcd04460001c2", hex.EncodeToString(fp.written[0]))
}

func TestReadingRetainsLastOnQuietWire(t *testing.T) {
	fp := &fakeReportPort{reports: [][]byte{buildFrame(0x00, 50000, 4, 0, 0)}}
	d := NewDriver(fp)

	first := d.Reading()
	assert.NotNil(t, first)
	assert.Equal(t, 5.0, first.Value)

	// No new frame: the previous reading is reused.
	second := d.Reading()
	assert.Equal(t, first, second)
}

func TestReadingRetainsLastOnBadFrame(t *testing.T) {
	fp := &fakeReportPort{reports: [][]byte{
		buildFrame(0x00, 50000, 4, 0, 0),
		{0x01, 0x02, 0x03},
	}}
	d := NewDriver(fp)

	first := d.Reading()
	second := d.Reading()

	assert.Equal(t, first, second)
}

func TestReadingNilBeforeFirstFrame(t *testing.T) {
	d := NewDriver(&fakeReportPort{})

	assert.Nil(t, d.Reading())
	assert.Equal(t, 0.0, d.Value())
	assert.Equal(t, "--- ---", d.Display())
}

func TestDisplay(t *testing.T) {
	fp := &fakeReportPort{reports: [][]byte{buildFrame(0x00, 52340, 4, 0, 0)}}
	d := NewDriver(fp)
	assert.Equal(t, "5.2340 V", d.Display())

	fp = &fakeReportPort{reports: [][]byte{buildFrame(0x00, 59999, 4, 0, 0)}}
	d = NewDriver(fp)
	assert.Equal(t, "OL V", d.Display())
}

func TestIdentification(t *testing.T) {
	id := append([]byte{0xAB, 0xCD, 0x06, 0x58}, []byte("UT8804E V1.2\x00\x00")...)
	fp := &fakeReportPort{reports: [][]byte{id}}
	d := NewDriver(fp)

	assert.Equal(t, "UT8804E V1.2", d.Identification())
	// Cached after the first successful query.
	assert.Equal(t, "UT8804E V1.2", d.Identification())
}

func TestIdentificationFallback(t *testing.T) {
	d := NewDriver(&fakeReportPort{})
	assert.Equal(t, "UT8804E", d.Identification())
}
