// Package cartridge implements Game Boy cartridge loading and the bank
// controller hardware behind the 0x0000-0x7FFF and 0xA000-0xBFFF windows.
package cartridge

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gogb/internal/logger"
)

// Cartridge is the cartridge side of the memory bus: a ROM image, an
// optional external RAM image and the bank controller that maps them.
type Cartridge struct {
	meta *Metadata
	rom  []byte
	ram  []byte

	controller Controller

	// recoverable conditions absorbed since Start
	undefinedSelects uint64
}

// LoadFromFile loads a cartridge from a ROM image file.
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader loads a cartridge from an io.Reader holding a ROM image.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses the header of a ROM image and builds the cartridge
// it describes.
func LoadFromBytes(rom []byte) (*Cartridge, error) {
	if len(rom) < 2*ROMBankSize || len(rom)%ROMBankSize != 0 {
		return nil, &ROMSizeError{Size: len(rom)}
	}

	meta, err := ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	if meta.ROMSize != len(rom) {
		logger.Warnf("CART", "header declares %d KiB ROM, image is %d KiB", meta.ROMSize/1024, len(rom)/1024)
	}
	if !meta.ChecksumValid {
		logger.Warnf("CART", "header checksum mismatch (0x%02X)", meta.HeaderChecksum)
	}

	return New(rom, meta)
}

// New builds a cartridge from a ROM image and already known metadata, and
// starts its bank controller with zeroed external RAM.
func New(rom []byte, meta *Metadata) (*Cartridge, error) {
	if len(rom) < 2*ROMBankSize || len(rom)%ROMBankSize != 0 {
		return nil, &ROMSizeError{Size: len(rom)}
	}

	cart := &Cartridge{meta: meta, rom: rom}
	if err := cart.Start(make([]byte, meta.RAMSize)); err != nil {
		return nil, err
	}
	return cart, nil
}

// Start attaches the external RAM buffer, selects the controller from the
// header and resets its registers to their power-on values.
func (c *Cartridge) Start(ram []byte) error {
	controller, err := newController(c.meta, NewBanks(c.rom, ROMBankSize), NewBanks(ram, RAMBankSize))
	if err != nil {
		return err
	}
	c.ram = ram
	c.controller = controller
	c.undefinedSelects = 0

	logger.Infof("CART", "%s started: %q, %d KiB ROM, %d KiB RAM", controller.Scheme(), c.meta.Title, len(c.rom)/1024, len(ram)/1024)
	return nil
}

// Read resolves a CPU read in the cartridge windows.
func (c *Cartridge) Read(address uint16) (uint8, error) {
	if !isROM(address) && !isExternalRAM(address) {
		return OpenBus, &UnmappedAddressError{Op: "read", Address: address, Scheme: c.Scheme()}
	}
	return c.controller.Read(address)
}

// Write resolves a CPU write in the cartridge windows, which may change
// bank controller state.
func (c *Cartridge) Write(address uint16, value uint8) error {
	if !isROM(address) && !isExternalRAM(address) {
		return &UnmappedAddressError{Op: "write", Address: address, Value: value, Scheme: c.Scheme()}
	}
	err := c.controller.Write(address, value)
	if errors.Is(err, ErrUndefinedRegisterSelect) {
		c.undefinedSelects++
		return nil
	}
	return err
}

// Tick advances any oscillator on the cartridge by cycles of base-speed
// CPU time.
func (c *Cartridge) Tick(cycles int) {
	if clocked, ok := c.controller.(Clocked); ok {
		clocked.Tick(cycles)
	}
}

// Reset restores the controller registers without clearing RAM.
func (c *Cartridge) Reset() {
	c.controller.Reset()
}

// Scheme returns the active bank controller scheme.
func (c *Cartridge) Scheme() Scheme {
	return c.controller.Scheme()
}

// Controller exposes the active bank controller.
func (c *Cartridge) Controller() Controller {
	return c.controller
}

// Metadata returns the parsed header.
func (c *Cartridge) Metadata() *Metadata {
	return c.meta
}

// ROM returns the ROM image.
func (c *Cartridge) ROM() []byte {
	return c.rom
}

// RAM returns the external RAM image.
func (c *Cartridge) RAM() []byte {
	return c.ram
}

// RTC returns the cartridge clock, or nil.
func (c *Cartridge) RTC() *RTC {
	if m, ok := c.controller.(*MBC3); ok {
		return m.RTC()
	}
	return nil
}

// UndefinedSelects returns how many undefined RAM/RTC selects were absorbed.
func (c *Cartridge) UndefinedSelects() uint64 {
	return c.undefinedSelects
}
