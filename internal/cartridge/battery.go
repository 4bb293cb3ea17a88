package cartridge

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// rtcFooter is the clock state appended to battery RAM, in the layout
// shared by BGB and VBA-M save files.
type rtcFooter struct {
	Live      [5]uint32
	Latched   [5]uint32
	Timestamp int64
}

const (
	rtcFooterSize      = 48
	rtcFooterShortSize = 44 // 32-bit timestamp variant
)

// HasBattery reports whether external RAM (and clock) survive power off.
func (c *Cartridge) HasBattery() bool {
	return c.meta.HasBattery
}

// WriteBattery writes the external RAM image, followed by the clock state
// stamped with now when the cart has an RTC.
func (c *Cartridge) WriteBattery(w io.Writer, now time.Time) error {
	if _, err := w.Write(c.ram); err != nil {
		return err
	}

	rtc := c.RTC()
	if rtc == nil {
		return nil
	}
	footer := rtcFooter{
		Live:      registersToWords(rtc.live),
		Latched:   registersToWords(rtc.latched),
		Timestamp: now.Unix(),
	}
	return binary.Write(w, binary.LittleEndian, &footer)
}

// ReadBattery restores external RAM and clock state written by
// WriteBattery. The clock is advanced by the wall time elapsed between the
// stored timestamp and now.
func (c *Cartridge) ReadBattery(r io.Reader, now time.Time) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(data) < len(c.ram) {
		return fmt.Errorf("battery file holds %d bytes, cartridge RAM is %d", len(data), len(c.ram))
	}
	copy(c.ram, data)

	rtc := c.RTC()
	rest := data[len(c.ram):]
	if rtc == nil || len(rest) == 0 {
		return nil
	}

	var footer rtcFooter
	switch len(rest) {
	case rtcFooterSize:
		if err := binary.Read(bytes.NewReader(rest), binary.LittleEndian, &footer); err != nil {
			return err
		}
	case rtcFooterShortSize:
		var short struct {
			Live      [5]uint32
			Latched   [5]uint32
			Timestamp uint32
		}
		if err := binary.Read(bytes.NewReader(rest), binary.LittleEndian, &short); err != nil {
			return err
		}
		footer = rtcFooter{Live: short.Live, Latched: short.Latched, Timestamp: int64(short.Timestamp)}
	default:
		return fmt.Errorf("unrecognised RTC footer of %d bytes", len(rest))
	}

	rtc.live = wordsToRegisters(footer.Live)
	rtc.latched = wordsToRegisters(footer.Latched)
	rtc.divider = 0
	rtc.Advance(now.Unix() - footer.Timestamp)
	return nil
}

func registersToWords(r RTCRegisters) [5]uint32 {
	return [5]uint32{uint32(r.Seconds), uint32(r.Minutes), uint32(r.Hours), uint32(r.DayLow), uint32(r.DayHigh)}
}

func wordsToRegisters(w [5]uint32) RTCRegisters {
	var r RTCRegisters
	r.Set(RTCSeconds, uint8(w[0]))
	r.Set(RTCMinutes, uint8(w[1]))
	r.Set(RTCHours, uint8(w[2]))
	r.Set(RTCDayLow, uint8(w[3]))
	r.Set(RTCDayHigh, uint8(w[4]))
	return r
}
