package cartridge

import "gogb/internal/logger"

// latchState tracks the two-write clock latch sequence.
type latchState uint8

const (
	latchIdle latchState = iota
	latchArmed
)

// MBC3 supports up to 2 MiB ROM, 32 KiB RAM and a real-time clock.
//
//	0x0000-0x1FFF  RAM and RTC enable (0x0A in the low nibble)
//	0x2000-0x3FFF  ROM bank bits 0-6, zero reads as one
//	0x4000-0x5FFF  RAM bank 0-3 or RTC register 0x08-0x0C
//	0x6000-0x7FFF  clock latch: 0x00 then 0x01
//	0xA000-0xBFFF  RAM bank or latched RTC register
type MBC3 struct {
	rom *Banks
	ram *Banks
	rtc *RTC // nil when the cart has no timer

	romBank uint8
	selects uint8
	enable  bool
	latch   latchState
}

func newMBC3(rom, ram *Banks, hasRTC bool) *MBC3 {
	m := &MBC3{rom: rom, ram: ram}
	if hasRTC {
		m.rtc = &RTC{}
	}
	m.Reset()
	return m
}

func (m *MBC3) Scheme() Scheme { return SchemeMBC3 }

// Reset restores the power-on registers. The clock keeps running.
func (m *MBC3) Reset() {
	m.romBank = 1
	m.selects = 0
	m.enable = true
	m.latch = latchIdle
}

// ROMBank returns the bank visible at 0x4000-0x7FFF.
func (m *MBC3) ROMBank() int { return int(m.romBank) }

// Enabled reports the state of the RAM/RTC enable register.
func (m *MBC3) Enabled() bool { return m.enable }

// RTC returns the clock, or nil for carts without one.
func (m *MBC3) RTC() *RTC { return m.rtc }

// Selected decodes the 0x4000-0x5FFF register. Exactly one of the results
// is meaningful: a RAM bank, an RTC register, or neither (undefined).
func (m *MBC3) Selected() (ramBank int, reg RTCRegister, isRAM, isRTC bool) {
	switch {
	case m.selects <= 0x03:
		return int(m.selects), 0, true, false
	case m.selects >= uint8(RTCSeconds) && m.selects <= uint8(RTCDayHigh):
		return 0, RTCRegister(m.selects), false, true
	}
	return 0, 0, false, false
}

// Tick advances the clock.
func (m *MBC3) Tick(cycles int) {
	if m.rtc != nil {
		m.rtc.Tick(cycles)
	}
}

func (m *MBC3) Read(address uint16) (uint8, error) {
	switch {
	case address < 0x4000:
		return m.rom.Read(0, int(address))
	case address < 0x8000:
		return m.rom.Read(int(m.romBank), int(address-0x4000))
	}

	if !m.enable {
		return OpenBus, nil
	}
	bank, reg, isRAM, isRTC := m.Selected()
	switch {
	case isRAM && m.ram.Len() > 0:
		return m.ram.Read(bank, int(address-0xA000))
	case isRTC && m.rtc != nil:
		return m.rtc.Read(reg), nil
	}
	return OpenBus, nil
}

func (m *MBC3) Write(address uint16, value uint8) error {
	switch {
	case address < 0x2000:
		m.enable = value&0x0F == 0x0A
	case address < 0x4000:
		value &= 0x7F
		if value == 0 {
			value = 1
		}
		logger.Debugf("MBC", "selecting ROM bank %d", value)
		m.romBank = value
	case address < 0x6000:
		return m.writeSelect(value)
	case address < 0x8000:
		m.writeLatch(value)
	default:
		return m.writeExternal(address, value)
	}
	return nil
}

func (m *MBC3) writeSelect(value uint8) error {
	m.selects = value & 0x0F
	_, reg, isRAM, isRTC := m.Selected()
	switch {
	case isRAM:
		logger.Debugf("MBC", "selecting RAM bank %d", m.selects)
	case isRTC:
		logger.Debugf("MBC", "selecting RTC register 0x%02X", uint8(reg))
	default:
		logger.Debugf("MBC", "selecting undefined RAM/RTC register 0x%02X, ignoring", m.selects)
		return ErrUndefinedRegisterSelect
	}
	return nil
}

func (m *MBC3) writeLatch(value uint8) {
	switch {
	case value == 0x00:
		m.latch = latchArmed
	case value == 0x01 && m.latch == latchArmed:
		if m.rtc != nil {
			m.rtc.Latch()
		}
		m.latch = latchIdle
	default:
		m.latch = latchIdle
	}
}

func (m *MBC3) writeExternal(address uint16, value uint8) error {
	if !m.enable {
		return nil
	}
	bank, reg, isRAM, isRTC := m.Selected()
	switch {
	case isRAM && m.ram.Len() > 0:
		return m.ram.Write(bank, int(address-0xA000), value)
	case isRTC && m.rtc != nil:
		m.rtc.Write(reg, value)
	}
	return nil
}
