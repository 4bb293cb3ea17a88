// Package cpu defines the contract between the scheduler and a CPU core,
// and provides Idle, a core that never leaves HALT.
package cpu

import (
	"fmt"

	"gogb/internal/memory"
)

// Core is a CPU core driven by the scheduler.
type Core interface {
	// Step executes one instruction (or one halted machine cycle) and
	// returns the CPU clocks it took.
	Step() (int, error)
	Reset()
}

// Bus is the CPU's view of the address space.
type Bus interface {
	Read(address uint16) (uint8, error)
	Write(address uint16, value uint8) error
}

// Timing in CPU clocks.
const (
	haltCycles      = 4
	interruptCycles = 20
)

// Interrupt vectors, in priority order.
var vectors = [5]uint16{0x0040, 0x0048, 0x0050, 0x0058, 0x0060}

// Idle is a CPU held in HALT with interrupts enabled. Each pending
// interrupt is dispatched and returned from at once, so guest handlers
// never run but the interrupt lines are acknowledged the way a core
// servicing them would.
type Idle struct {
	PC uint16
	SP uint16

	bus      Bus
	cycles   uint64
	serviced [5]uint64
}

// NewIdle creates an idle core on bus.
func NewIdle(bus Bus) *Idle {
	c := &Idle{bus: bus}
	c.Reset()
	return c
}

// Reset restores post-boot PC and SP.
func (c *Idle) Reset() {
	c.PC = 0x0100
	c.SP = 0xFFFE
	c.cycles = 0
	c.serviced = [5]uint64{}
}

// Step implements Core.
func (c *Idle) Step() (int, error) {
	ie, err := c.bus.Read(memory.RegIE)
	if err != nil {
		return 0, err
	}
	flags, err := c.bus.Read(memory.RegIF)
	if err != nil {
		return 0, err
	}

	pending := ie & flags & 0x1F
	if pending == 0 {
		c.cycles += haltCycles
		return haltCycles, nil
	}

	for i := range vectors {
		if pending&(1<<i) == 0 {
			continue
		}
		if err := c.bus.Write(memory.RegIF, flags&^(1<<i)); err != nil {
			return 0, err
		}
		if err := c.dispatch(vectors[i]); err != nil {
			return 0, fmt.Errorf("%s interrupt: %w", memory.Interrupt(i), err)
		}
		c.serviced[i]++
		break
	}

	c.cycles += interruptCycles
	return interruptCycles, nil
}

// dispatch pushes PC, jumps to vector and immediately pops PC back.
func (c *Idle) dispatch(vector uint16) error {
	if err := c.push(c.PC); err != nil {
		return err
	}
	ret := c.PC
	c.PC = vector
	popped, err := c.pop()
	if err != nil {
		return err
	}
	if popped != ret {
		return fmt.Errorf("stack corrupted at 0x%04X", c.SP)
	}
	c.PC = popped
	return nil
}

func (c *Idle) push(value uint16) error {
	c.SP -= 2
	if err := c.bus.Write(c.SP+1, uint8(value>>8)); err != nil {
		return err
	}
	return c.bus.Write(c.SP, uint8(value))
}

func (c *Idle) pop() (uint16, error) {
	low, err := c.bus.Read(c.SP)
	if err != nil {
		return 0, err
	}
	high, err := c.bus.Read(c.SP + 1)
	if err != nil {
		return 0, err
	}
	c.SP += 2
	return uint16(high)<<8 | uint16(low), nil
}

// Cycles returns the CPU clocks spent since Reset.
func (c *Idle) Cycles() uint64 {
	return c.cycles
}

// Serviced returns how many times interrupt i was dispatched.
func (c *Idle) Serviced(i memory.Interrupt) uint64 {
	if int(i) >= len(c.serviced) {
		return 0
	}
	return c.serviced[i]
}
