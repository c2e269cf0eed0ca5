package unit

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildFrame(mode byte, raw int32, exponent byte, rangeNibble byte, flags byte) []byte {
	frame := make([]byte, 11)
	frame[0], frame[1] = 0xAB, 0xCD
	frame[2] = 0x10
	frame[3] = mode
	binary.LittleEndian.PutUint32(frame[4:8], uint32(raw))
	frame[8] = exponent
	frame[9] = rangeNibble
	frame[10] = flags
	return frame
}

func TestDecodeDcVoltage(t *testing.T) {
	reading, err := Decode(buildFrame(0x00, 50000, 4, 0, 0))

	assert.NoError(t, err)
	assert.Equal(t, 5.0, reading.Value)
	assert.Equal(t, "V", reading.Unit)
	assert.Equal(t, DcVoltage, reading.Mode)
	assert.False(t, reading.Overflow)
	assert.True(t, reading.AutoRange)
	assert.False(t, reading.CapturedAt.IsZero())
}

func TestDecodeTooShort(t *testing.T) {
	_, err := Decode([]byte{0xAB, 0xCD, 0x10, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrFrameTooShort)

	_, err = Decode(nil)
	assert.ErrorIs(t, err, ErrFrameTooShort)
}

func TestDecodeNoHeader(t *testing.T) {
	_, err := Decode(make([]byte, 16))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestDecodeHeaderAtOffset(t *testing.T) {
	frame := append([]byte{0x00, 0x42, 0x7F}, buildFrame(0x01, 2305, 3, 0, 0)...)

	reading, err := Decode(frame)

	assert.NoError(t, err)
	assert.Equal(t, AcVoltage, reading.Mode)
	assert.Equal(t, 2.305, reading.Value)
}

func TestDecodeUnknownMode(t *testing.T) {
	reading, err := Decode(buildFrame(0x1F, 100, 2, 0, 0))

	assert.NoError(t, err)
	assert.Equal(t, Unknown, reading.Mode)
	assert.Equal(t, "", reading.Unit)
	assert.Equal(t, 1.0, reading.Value)
}

func TestDecodeModeByteMasked(t *testing.T) {
	// High bits of the mode byte carry other information.
	reading, err := Decode(buildFrame(0xE8, 1000, 1, 0, 0))

	assert.NoError(t, err)
	assert.Equal(t, Resistance, reading.Mode)
}

func TestDecodeCorruptExponentClamped(t *testing.T) {
	reading, err := Decode(buildFrame(0x00, 50000, 0xFF, 0, 0))

	assert.NoError(t, err)
	assert.Equal(t, 5.0, reading.Value)
}

func TestDecodeMetricPrefix(t *testing.T) {
	reading, err := Decode(buildFrame(0x08, 12345, 3, 0x04, 0))

	assert.NoError(t, err)
	assert.Equal(t, "kΩ", reading.Unit)
	assert.Equal(t, "kΩ", reading.RangeLabel)
	assert.Equal(t, 12.345, reading.Value)
}

func TestDecodeNegativeValue(t *testing.T) {
	reading, err := Decode(buildFrame(0x00, -12500, 4, 0, 0))

	assert.NoError(t, err)
	assert.Equal(t, -1.25, reading.Value)
}

func TestDecodeOverflowAtDigitCeiling(t *testing.T) {
	for _, raw := range []int32{59999, -59999, 60001} {
		reading, err := Decode(buildFrame(0x00, raw, 4, 0, 0))
		assert.NoError(t, err)
		assert.True(t, reading.Overflow, "raw=%d", raw)
	}

	reading, err := Decode(buildFrame(0x00, 100, 4, 0, flagOverflow))
	assert.NoError(t, err)
	assert.True(t, reading.Overflow)
}

func TestDecodeStatusFlags(t *testing.T) {
	reading, err := Decode(buildFrame(0x00, 100, 4, 0, flagHold|flagRelative|flagMinMax))

	assert.NoError(t, err)
	assert.True(t, reading.Hold)
	assert.True(t, reading.Relative)
	assert.True(t, reading.MinMax)
	assert.False(t, reading.Overflow)
}

func TestDecodeAutoRangePolarity(t *testing.T) {
	tests := []struct {
		flags  byte
		expect bool
	}{
		{0x00, true},
		{flagAutoRange, true},
		{flagAutoRangeOff, false},
		{flagAutoRange | flagAutoRangeOff, true},
	}
	for _, tt := range tests {
		reading, err := Decode(buildFrame(0x00, 100, 4, 0, tt.flags))
		assert.NoError(t, err)
		assert.Equal(t, tt.expect, reading.AutoRange, "flags=0x%02x", tt.flags)
	}
}

func TestDecodeMissingStatusByte(t *testing.T) {
	// 10-byte frame, no status byte at all.
	reading, err := Decode(buildFrame(0x00, 100, 4, 0, 0)[:10])

	assert.NoError(t, err)
	assert.False(t, reading.Hold)
	assert.True(t, reading.AutoRange)
}

func TestDecodeRawFrameCapped(t *testing.T) {
	frame := append(buildFrame(0x00, 100, 4, 0, 0), make([]byte, 53)...)

	reading, err := Decode(frame)

	assert.NoError(t, err)
	assert.Len(t, reading.RawFrame, 16)
}
