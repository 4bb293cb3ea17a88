// Package memory implements the Game Boy memory map outside the cartridge
// windows: video RAM, work RAM, object attribute memory, the IO register
// page, high RAM and the interrupt registers.
package memory

import "gogb/internal/logger"

// Memory map boundaries.
const (
	VRAMStart     = 0x8000
	VRAMEnd       = 0x9FFF
	WRAMStart     = 0xC000
	WRAMEnd       = 0xDFFF
	EchoStart     = 0xE000
	EchoEnd       = 0xFDFF
	OAMStart      = 0xFE00
	OAMEnd        = 0xFE9F
	UnusableStart = 0xFEA0
	UnusableEnd   = 0xFEFF
	IOStart       = 0xFF00
	IOEnd         = 0xFF7F
	HRAMStart     = 0xFF80
	HRAMEnd       = 0xFFFE

	// RegIF is the interrupt request register.
	RegIF = 0xFF0F
	// RegDMA starts an OAM DMA transfer from page value<<8.
	RegDMA = 0xFF46
	// RegIE is the interrupt enable register.
	RegIE = 0xFFFF

	OAMSize = 0xA0
)

// Interrupt is a bit position in IE/IF.
type Interrupt uint8

const (
	InterruptVBlank Interrupt = iota
	InterruptLCDStat
	InterruptTimer
	InterruptSerial
	InterruptJoypad
)

func (i Interrupt) String() string {
	switch i {
	case InterruptVBlank:
		return "VBLANK"
	case InterruptLCDStat:
		return "STAT"
	case InterruptTimer:
		return "TIMER"
	case InterruptSerial:
		return "SERIAL"
	case InterruptJoypad:
		return "JOYPAD"
	}
	return "INT?"
}

// InterruptRequester is implemented by whatever owns the IF register.
// Devices raise their interrupt lines through it.
type InterruptRequester interface {
	RequestInterrupt(i Interrupt)
}

// IODevice serves a range of the IO register page.
type IODevice interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// Memory is the system memory outside the cartridge.
type Memory struct {
	vram [0x2000]uint8
	wram [0x2000]uint8
	oam  [OAMSize]uint8
	hram [0x7F]uint8

	// IO registers without a device keep their last written value
	io      [0x80]uint8
	devices [0x80]IODevice

	interruptEnable uint8
	interruptFlag   uint8

	// DMA callback
	dmaCallback func(uint8)
}

// New creates a new Memory instance with post-boot register values.
func New() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset clears RAM and restores IE/IF.
func (m *Memory) Reset() {
	m.vram = [0x2000]uint8{}
	m.wram = [0x2000]uint8{}
	m.oam = [OAMSize]uint8{}
	m.hram = [0x7F]uint8{}
	m.io = [0x80]uint8{}
	m.interruptEnable = 0x00
	m.interruptFlag = 0x01
}

// Register maps device onto the IO registers first..last inclusive.
func (m *Memory) Register(first, last uint16, device IODevice) {
	for address := first; address <= last; address++ {
		if address < IOStart || address > IOEnd {
			continue
		}
		m.devices[address-IOStart] = device
	}
	logger.Debugf("MEM", "IO 0x%04X-0x%04X registered", first, last)
}

// SetDMACallback sets the function run on writes to the DMA register.
func (m *Memory) SetDMACallback(callback func(uint8)) {
	m.dmaCallback = callback
}

// RequestInterrupt sets the IF bit for i.
func (m *Memory) RequestInterrupt(i Interrupt) {
	m.interruptFlag |= 1 << i
}

// Pending returns the interrupts both requested and enabled.
func (m *Memory) Pending() uint8 {
	return m.interruptEnable & m.interruptFlag & 0x1F
}

// VRAM exposes video RAM to the display.
func (m *Memory) VRAM() []uint8 {
	return m.vram[:]
}

// OAM exposes object attribute memory to the display.
func (m *Memory) OAM() []uint8 {
	return m.oam[:]
}

// WriteOAM stores one byte of object attribute memory, as DMA does.
func (m *Memory) WriteOAM(index uint8, value uint8) {
	if int(index) < OAMSize {
		m.oam[index] = value
	}
}

// Read reads a byte from the given address. Cartridge windows are not
// served here and read as open bus.
func (m *Memory) Read(address uint16) uint8 {
	switch {
	case address >= VRAMStart && address <= VRAMEnd:
		return m.vram[address-VRAMStart]

	case address >= WRAMStart && address <= WRAMEnd:
		return m.wram[address-WRAMStart]

	case address >= EchoStart && address <= EchoEnd:
		// Echo of 0xC000-0xDDFF
		return m.wram[address-EchoStart]

	case address >= OAMStart && address <= OAMEnd:
		return m.oam[address-OAMStart]

	case address >= UnusableStart && address <= UnusableEnd:
		return 0xFF

	case address == RegIF:
		return m.interruptFlag | 0xE0

	case address >= IOStart && address <= IOEnd:
		if device := m.devices[address-IOStart]; device != nil {
			return device.ReadRegister(address)
		}
		return m.io[address-IOStart]

	case address >= HRAMStart && address <= HRAMEnd:
		return m.hram[address-HRAMStart]

	case address == RegIE:
		return m.interruptEnable
	}

	return 0xFF
}

// Write writes a byte to the given address.
func (m *Memory) Write(address uint16, value uint8) {
	switch {
	case address >= VRAMStart && address <= VRAMEnd:
		m.vram[address-VRAMStart] = value

	case address >= WRAMStart && address <= WRAMEnd:
		m.wram[address-WRAMStart] = value

	case address >= EchoStart && address <= EchoEnd:
		m.wram[address-EchoStart] = value

	case address >= OAMStart && address <= OAMEnd:
		m.oam[address-OAMStart] = value

	case address >= UnusableStart && address <= UnusableEnd:
		// ignored

	case address == RegIF:
		m.interruptFlag = value & 0x1F

	case address == RegDMA:
		m.io[address-IOStart] = value
		if m.dmaCallback != nil {
			m.dmaCallback(value)
		} else {
			m.performOAMDMA(value)
		}

	case address >= IOStart && address <= IOEnd:
		if device := m.devices[address-IOStart]; device != nil {
			device.WriteRegister(address, value)
			return
		}
		m.io[address-IOStart] = value

	case address >= HRAMStart && address <= HRAMEnd:
		m.hram[address-HRAMStart] = value

	case address == RegIE:
		m.interruptEnable = value
	}
}

// performOAMDMA copies from memory this package owns. Sources in the
// cartridge windows need the bus callback.
func (m *Memory) performOAMDMA(page uint8) {
	base := uint16(page) << 8
	for i := uint16(0); i < OAMSize; i++ {
		m.oam[i] = m.Read(base + i)
	}
}
