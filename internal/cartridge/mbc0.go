package cartridge

// romOnly has no bank controller: 32 KiB of ROM sits directly at
// 0x0000-0x7FFF and an optional 8 KiB RAM at 0xA000-0xBFFF.
type romOnly struct {
	rom *Banks
	ram *Banks
}

func newROMOnly(rom, ram *Banks) *romOnly {
	return &romOnly{rom: rom, ram: ram}
}

func (m *romOnly) Scheme() Scheme { return SchemeNone }

func (m *romOnly) Reset() {}

func (m *romOnly) Read(address uint16) (uint8, error) {
	if isROM(address) {
		return m.rom.Read(int(address/ROMBankSize), int(address%ROMBankSize))
	}
	if m.ram.Len() == 0 {
		return OpenBus, nil
	}
	return m.ram.Read(0, int(address-0xA000))
}

func (m *romOnly) Write(address uint16, value uint8) error {
	if isROM(address) {
		// read-only region
		return nil
	}
	if m.ram.Len() == 0 {
		return nil
	}
	return m.ram.Write(0, int(address-0xA000), value)
}
