package unit

import (
	"bytes"
	"math"
	"time"

	"github.com/pkg/errors"

	"voltampero/pkg/utils/binutil"
)

var (
	ErrFrameTooShort = errors.New("frame too short")
	ErrNoHeader      = errors.New("frame header not found")
)

// Decode parses one raw report frame into a Reading.
//
// Frame layout after the 0xAB 0xCD header (which may sit at any
// offset):
//
//	[2]    packet type/length
//	[3]    mode byte, low 5 bits
//	[4:8]  signed magnitude, little endian
//	[8]    decimal exponent
//	[9]    range byte, metric prefix in the low nibble
//	[10]   status flags
//
// Only the two hard failures below reject a frame. Everything else
// degrades to a default: an unmapped mode decodes as Unknown, a corrupt
// exponent is clamped, a missing status byte reads as zero. Dropping a
// sample costs more than showing a noisy one.
func Decode(frame []byte) (*Reading, error) {
	if len(frame) < minFrameLength {
		return nil, ErrFrameTooShort
	}
	if idx := bytes.Index(frame, frameHeader); idx > 0 {
		frame = frame[idx:]
	} else if idx < 0 {
		return nil, ErrNoHeader
	}
	if len(frame) < minFrameLength {
		return nil, ErrFrameTooShort
	}

	entry, ok := modeTable[frame[3]&modeByteMask]
	if !ok {
		entry = modeEntry{mode: Unknown, unit: ""}
	}

	raw := binutil.ParseInt32LittleEndian(frame[4:8])
	exponent := int(frame[8])
	if exponent > 10 {
		exponent = defaultExponent
	}
	value := float64(raw) / math.Pow10(exponent)

	prefix := rangePrefix[frame[9]&0x0F]

	var flags byte
	if len(frame) > 10 {
		flags = frame[10]
	}

	rawFrame := frame
	if len(rawFrame) > maxRawFrame {
		rawFrame = rawFrame[:maxRawFrame]
	}

	return &Reading{
		Value:      value,
		Unit:       prefix + entry.unit,
		Mode:       entry.mode,
		RangeLabel: prefix + entry.unit,
		Overflow:   raw >= digitCeiling || raw <= -digitCeiling || flags&flagOverflow != 0,
		Hold:       flags&flagHold != 0,
		Relative:   flags&flagRelative != 0,
		AutoRange:  flags&flagAutoRange != 0 || flags&flagAutoRangeOff == 0,
		MinMax:     flags&flagMinMax != 0,
		CapturedAt: time.Now(),
		RawFrame:   append([]byte(nil), rawFrame...),
	}, nil
}
