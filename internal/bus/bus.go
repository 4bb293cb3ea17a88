// Package bus implements the system bus connecting the Game Boy components.
package bus

import (
	"gogb/internal/apu"
	"gogb/internal/cartridge"
	"gogb/internal/cpu"
	"gogb/internal/display"
	"gogb/internal/input"
	"gogb/internal/logger"
	"gogb/internal/memory"
	"gogb/internal/timer"
)

// Bus routes CPU accesses to the cartridge or to general memory and owns
// the devices mapped into the IO page.
type Bus struct {
	// Core components
	CPU       cpu.Core
	Memory    *memory.Memory
	Display   *display.LCD
	Timer     *timer.Timer
	Joypad    *input.Joypad
	APU       *apu.APU
	Cartridge *cartridge.Cartridge

	// DMA statistics
	dmaTransfers uint64

	// Memory monitoring for debugging
	memoryWatchpoints map[uint16]uint8 // Address -> previous value
	watchpointLogging bool
}

// New creates a new system bus with all components and no cartridge.
func New() *Bus {
	b := &Bus{
		Memory:            memory.New(),
		memoryWatchpoints: make(map[uint16]uint8),
	}

	b.Display = display.New(b.Memory.VRAM(), b.Memory)
	b.Timer = timer.New(b.Memory)
	b.Joypad = input.New(b.Memory)
	b.APU = apu.New()
	b.Timer.SetSequencer(b.APU)

	b.Memory.Register(input.RegP1, input.RegP1, b.Joypad)
	b.Memory.Register(timer.RegDIV, timer.RegTAC, b.Timer)
	b.Memory.Register(display.RegLCDC, display.RegLYC, b.Display)
	b.Memory.Register(display.RegBGP, display.RegWX, b.Display)
	b.Memory.Register(apu.RegNR10, apu.RegLast, b.APU)
	b.Memory.SetDMACallback(b.TriggerOAMDMA)

	b.CPU = cpu.NewIdle(b)
	return b
}

// Reset resets all components to their post-boot state. Cartridge RAM and
// clock survive.
func (b *Bus) Reset() {
	b.Memory.Reset()
	b.Display.Reset()
	b.Timer.Reset()
	b.Joypad.Reset()
	b.APU.Reset()
	b.CPU.Reset()
	if b.Cartridge != nil {
		b.Cartridge.Reset()
	}
	b.dmaTransfers = 0
}

// LoadCartridge loads a cartridge into the system and resets it.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cartridge = cart
	b.Timer.Attach(cart)
	b.Reset()
}

// SetCPU replaces the core Reset acts on. A running session swaps cores
// through app.Emulator.SetCPU so the scheduler steps the same one.
func (b *Bus) SetCPU(core cpu.Core) {
	b.CPU = core
}

// Read resolves a CPU read anywhere in the 16-bit address space.
func (b *Bus) Read(address uint16) (uint8, error) {
	if isCartridge(address) {
		if b.Cartridge == nil {
			return cartridge.OpenBus, nil
		}
		return b.Cartridge.Read(address)
	}
	return b.Memory.Read(address), nil
}

// Write resolves a CPU write anywhere in the 16-bit address space.
func (b *Bus) Write(address uint16, value uint8) error {
	if isCartridge(address) {
		if b.Cartridge == nil {
			return nil
		}
		return b.Cartridge.Write(address, value)
	}
	b.Memory.Write(address, value)
	return nil
}

func isCartridge(address uint16) bool {
	return address < 0x8000 || (address >= 0xA000 && address <= 0xBFFF)
}

// TriggerOAMDMA copies 160 bytes from page<<8 into OAM. The source may lie
// in the cartridge, so the copy goes through the bus.
func (b *Bus) TriggerOAMDMA(page uint8) {
	source := uint16(page) << 8
	if page >= 0xE0 {
		// sources above 0xDFFF read the echo of work RAM
		source -= 0x2000
	}

	for i := uint16(0); i < memory.OAMSize; i++ {
		data, err := b.Read(source + i)
		if err != nil {
			logger.Warnf("DMA", "source 0x%04X: %v", source+i, err)
			data = cartridge.OpenBus
		}
		b.Memory.WriteOAM(uint8(i), data)
	}
	b.dmaTransfers++
}

// DMATransfers returns the number of OAM DMA transfers since Reset.
func (b *Bus) DMATransfers() uint64 {
	return b.dmaTransfers
}

// SetControllerButton sets the state of a joypad button
func (b *Bus) SetControllerButton(button input.Button, pressed bool) {
	b.Joypad.SetButton(button, pressed)
}

// GetFrameBuffer returns the current LCD frame buffer
func (b *Bus) GetFrameBuffer() []uint32 {
	frameBuffer := b.Display.GetFrameBuffer()
	return frameBuffer[:]
}

// GetFrameCount returns the current frame count
func (b *Bus) GetFrameCount() uint64 {
	return b.Display.GetFrameCount()
}

// AddMemoryWatchpoint adds a memory address to monitor for changes
func (b *Bus) AddMemoryWatchpoint(address uint16) {
	value, _ := b.Read(address)
	b.memoryWatchpoints[address] = value
}

// EnableWatchpointLogging enables/disables memory watchpoint logging
func (b *Bus) EnableWatchpointLogging(enabled bool) {
	b.watchpointLogging = enabled
}

// CheckMemoryWatchpoints logs watched addresses that changed since the
// last check and returns how many did.
func (b *Bus) CheckMemoryWatchpoints() int {
	if !b.watchpointLogging {
		return 0
	}

	changed := 0
	for address, previous := range b.memoryWatchpoints {
		current, err := b.Read(address)
		if err != nil || current == previous {
			continue
		}
		logger.Infof("WATCH", "frame %d: 0x%04X changed from 0x%02X to 0x%02X",
			b.GetFrameCount(), address, previous, current)
		b.memoryWatchpoints[address] = current
		changed++
	}
	return changed
}
