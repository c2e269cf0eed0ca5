package datalog

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"voltampero/pkg/protocol/unit"
)

type fakePsu struct {
	connected bool
	voltage   float64
	current   float64
	setV      float64
	setA      float64
}

func (f *fakePsu) Connected() bool              { return f.connected }
func (f *fakePsu) Readings() (float64, float64) { return f.voltage, f.current }
func (f *fakePsu) VoltageSetpoint() float64     { return f.setV }
func (f *fakePsu) CurrentSetpoint() float64     { return f.setA }

type fakeDmm struct {
	connected bool
	reading   *unit.Reading
}

func (f *fakeDmm) Connected() bool        { return f.connected }
func (f *fakeDmm) Reading() *unit.Reading { return f.reading }

type recordingSink struct {
	mu      sync.Mutex
	entries []*LogEntry
}

func (s *recordingSink) Consume(entry *LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func testPipeline(sinks ...Sink) *Pipeline {
	psu := &fakePsu{connected: true, voltage: 5.0, current: 0.25, setV: 5.0, setA: 1.0}
	dmm := &fakeDmm{connected: true, reading: &unit.Reading{
		Value: 4.998,
		Unit:  "V",
		Mode:  unit.DcVoltage,
	}}
	return NewPipeline(psu, dmm, sinks...)
}

func collect(t *testing.T, p *Pipeline, n int) []*LogEntry {
	t.Helper()
	assert.NoError(t, p.Start(10*time.Millisecond))
	assert.Eventually(t, func() bool {
		return len(p.Entries()) >= n
	}, 5*time.Second, time.Millisecond)
	p.Stop()
	return p.Entries()
}

func TestSamplingProducesOrderedEntries(t *testing.T) {
	entries := collect(t, testPipeline(), 5)

	assert.GreaterOrEqual(t, len(entries), 5)
	for i, entry := range entries {
		assert.Equal(t, 5.0, entry.PsuVoltage)
		assert.Equal(t, 0.25, entry.PsuCurrent)
		assert.Equal(t, 4.998, entry.DmmValue)
		assert.Equal(t, "V", entry.DmmUnit)
		assert.Equal(t, "DC V", entry.DmmMode)
		if i > 0 {
			assert.Greater(t, entry.Elapsed, entries[i-1].Elapsed)
		}
	}
}

func TestDisconnectedInstrumentsYieldZeros(t *testing.T) {
	p := NewPipeline(&fakePsu{}, &fakeDmm{})
	entries := collect(t, p, 1)

	assert.Equal(t, 0.0, entries[0].PsuVoltage)
	assert.Equal(t, 0.0, entries[0].PsuSetpointV)
	assert.Equal(t, 0.0, entries[0].DmmValue)
	assert.Equal(t, "", entries[0].DmmUnit)
	assert.Equal(t, "", entries[0].DmmMode)
}

func TestStartRejectedWhileActive(t *testing.T) {
	p := testPipeline()
	assert.NoError(t, p.Start(10*time.Millisecond))
	defer p.Stop()

	assert.ErrorIs(t, p.Start(10*time.Millisecond), ErrAlreadyActive)
}

func TestStopIsIdempotent(t *testing.T) {
	p := testPipeline()
	assert.NoError(t, p.Start(10*time.Millisecond))

	p.Stop()
	p.Stop()
	assert.False(t, p.Active())

	settled := len(p.Entries())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, len(p.Entries()))
}

func TestRestartResetsBuffer(t *testing.T) {
	p := testPipeline()
	collect(t, p, 3)

	entries := collect(t, p, 1)
	assert.Less(t, entries[0].Elapsed, 0.5)
}

func TestSinkReceivesEveryEntry(t *testing.T) {
	sink := &recordingSink{}
	p := testPipeline(sink)

	entries := collect(t, p, 3)
	assert.Equal(t, len(entries), sink.count())
}

func TestExportRoundTrip(t *testing.T) {
	p := testPipeline()
	entries := collect(t, p, 3)

	path := filepath.Join(t.TempDir(), "log.csv")
	assert.NoError(t, p.Export(path))

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)

	assert.Len(t, rows, len(entries)+1)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "5.0000", rows[1][2])
	assert.Equal(t, "0.2500", rows[1][3])
	assert.Equal(t, "5.00", rows[1][4])
	assert.Equal(t, "1.000", rows[1][5])
	assert.Equal(t, "4.998000", rows[1][6])
	assert.Equal(t, "V", rows[1][7])
	assert.Equal(t, "DC V", rows[1][8])

	ts, err := time.Parse(timestampLayout, rows[1][0])
	assert.NoError(t, err)
	assert.False(t, ts.IsZero())
}

func TestClearThenExportHeaderOnly(t *testing.T) {
	p := testPipeline()
	collect(t, p, 3)

	p.Clear()
	assert.Empty(t, p.Entries())

	path := filepath.Join(t.TempDir(), "empty.csv")
	assert.NoError(t, p.Export(path))

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, csvHeader, rows[0])
}

func TestClearDoesNotStopLogging(t *testing.T) {
	p := testPipeline()
	assert.NoError(t, p.Start(10*time.Millisecond))
	defer p.Stop()

	p.Clear()
	assert.True(t, p.Active())
	assert.Eventually(t, func() bool {
		return len(p.Entries()) > 0
	}, 5*time.Second, time.Millisecond)
}
