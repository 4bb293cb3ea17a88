package cartridge

// Scheme identifies the bank controller fitted to a cartridge.
type Scheme uint8

const (
	SchemeNone Scheme = iota
	SchemeMBC1
	SchemeMBC3
)

func (s Scheme) String() string {
	switch s {
	case SchemeNone:
		return "MBC0"
	case SchemeMBC1:
		return "MBC1"
	case SchemeMBC3:
		return "MBC3"
	}
	return "MBC?"
}

// Controller is the control logic of one bank controller scheme. Read and
// Write only ever see addresses in 0x0000-0x7FFF and 0xA000-0xBFFF; the
// Cartridge rejects everything else before dispatch.
type Controller interface {
	Scheme() Scheme
	Read(address uint16) (uint8, error)
	Write(address uint16, value uint8) error
	// Reset restores the power-on register values.
	Reset()
}

// Clocked is implemented by controllers carrying their own oscillator.
type Clocked interface {
	Tick(cycles int)
}

// newController builds the controller for scheme. Every Scheme value must
// have a case here.
func newController(meta *Metadata, rom, ram *Banks) (Controller, error) {
	switch meta.Scheme {
	case SchemeNone:
		return newROMOnly(rom, ram), nil
	case SchemeMBC1:
		return newMBC1(rom, ram), nil
	case SchemeMBC3:
		return newMBC3(rom, ram, meta.HasRTC), nil
	}
	return nil, &UnsupportedSchemeError{TypeCode: meta.TypeCode}
}

func isROM(address uint16) bool {
	return address < 0x8000
}

func isExternalRAM(address uint16) bool {
	return address >= 0xA000 && address <= 0xBFFF
}
