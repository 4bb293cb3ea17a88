package cartridge

import "gogb/internal/logger"

// MBC1Mode selects what the 0x4000-0x5FFF register drives.
type MBC1Mode uint8

const (
	// MBC1ModeROM routes the upper register to ROM bank bits 5-6; only
	// RAM bank 0 is addressable.
	MBC1ModeROM MBC1Mode = iota
	// MBC1ModeRAM routes the upper register to the RAM bank; only ROM
	// banks 0x00-0x1F are addressable.
	MBC1ModeRAM
)

// MBC1 supports up to 2 MiB ROM and 32 KiB RAM.
//
//	0x0000-0x1FFF  RAM enable (0x0A in the low nibble)
//	0x2000-0x3FFF  ROM bank bits 0-4, zero reads as one
//	0x4000-0x5FFF  ROM bank bits 5-6 or RAM bank, per mode
//	0x6000-0x7FFF  mode select
//	0xA000-0xBFFF  RAM bank window
type MBC1 struct {
	rom *Banks
	ram *Banks

	romBank   uint8 // bits 0-4, never 0
	upperBank uint8 // bits 5-6 of the ROM bank
	ramBank   uint8
	ramEnable bool
	mode      MBC1Mode
}

func newMBC1(rom, ram *Banks) *MBC1 {
	m := &MBC1{rom: rom, ram: ram}
	m.Reset()
	return m
}

func (m *MBC1) Scheme() Scheme { return SchemeMBC1 }

func (m *MBC1) Reset() {
	m.romBank = 1
	m.upperBank = 0
	m.ramBank = 0
	m.ramEnable = true
	m.mode = MBC1ModeROM
}

// ROMBank returns the bank visible at 0x4000-0x7FFF.
func (m *MBC1) ROMBank() int {
	if m.mode == MBC1ModeRAM {
		return int(m.romBank)
	}
	return int(m.upperBank)<<5 | int(m.romBank)
}

// RAMBank returns the bank visible at 0xA000-0xBFFF.
func (m *MBC1) RAMBank() int {
	if m.mode == MBC1ModeROM {
		return 0
	}
	return int(m.ramBank)
}

// RAMEnabled reports the state of the RAM enable register.
func (m *MBC1) RAMEnabled() bool { return m.ramEnable }

// Mode returns the banking mode.
func (m *MBC1) Mode() MBC1Mode { return m.mode }

func (m *MBC1) Read(address uint16) (uint8, error) {
	switch {
	case address < 0x4000:
		return m.rom.Read(0, int(address))
	case address < 0x8000:
		return m.rom.Read(m.ROMBank(), int(address-0x4000))
	}

	if !m.ramEnable || m.ram.Len() == 0 {
		return OpenBus, nil
	}
	return m.ram.Read(m.RAMBank(), int(address-0xA000))
}

func (m *MBC1) Write(address uint16, value uint8) error {
	switch {
	case address < 0x2000:
		m.ramEnable = value&0x0F == 0x0A
	case address < 0x4000:
		value &= 0x1F
		if value == 0 {
			value = 1
		}
		logger.Debugf("MBC", "selecting ROM bank %d", value)
		m.romBank = value
	case address < 0x6000:
		if m.mode == MBC1ModeROM {
			m.upperBank = value & 0x03
		} else {
			logger.Debugf("MBC", "selecting RAM bank %d", value&0x03)
			m.ramBank = value & 0x03
		}
	case address < 0x8000:
		m.mode = MBC1Mode(value & 0x01)
	default:
		if !m.ramEnable || m.ram.Len() == 0 {
			return nil
		}
		return m.ram.Write(m.RAMBank(), int(address-0xA000), value)
	}
	return nil
}
