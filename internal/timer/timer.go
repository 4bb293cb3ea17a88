// Package timer implements the DIV/TIMA timer and forwards elapsed cycles
// to the cartridge oscillator.
package timer

import (
	"gogb/internal/memory"
)

// Timer registers.
const (
	RegDIV  = 0xFF04
	RegTIMA = 0xFF05
	RegTMA  = 0xFF06
	RegTAC  = 0xFF07
)

// tacBits maps TAC clock select to the bit of the internal counter whose
// falling edge increments TIMA (periods 1024, 16, 64 and 256 cycles).
var tacBits = [4]uint{9, 3, 5, 7}

// Oscillator is a cartridge-side clock advanced alongside the timer.
type Oscillator interface {
	Tick(cycles int)
}

// Sequencer is clocked on each falling edge of DIV bit 4, 512 times a
// second at the base clock.
type Sequencer interface {
	ClockSequencer()
}

// Timer is the DIV/TIMA/TMA/TAC timer block.
type Timer struct {
	counter uint16 // DIV is the upper byte
	tima    uint8
	tma     uint8
	tac     uint8

	// TIMA overflowed; reload and interrupt after one machine cycle
	reloadDelay int

	irq         memory.InterruptRequester
	oscillator  Oscillator
	sequencer   Sequencer
	doubleSpeed bool
	halfCycle   int
}

// New creates a timer raising its interrupt through irq.
func New(irq memory.InterruptRequester) *Timer {
	t := &Timer{irq: irq}
	t.Reset()
	return t
}

// Reset restores post-boot register values.
func (t *Timer) Reset() {
	t.counter = 0xABCC
	t.tima = 0
	t.tma = 0
	t.tac = 0xF8
	t.reloadDelay = 0
	t.halfCycle = 0
}

// Attach connects a cartridge oscillator. Pass nil to detach.
func (t *Timer) Attach(oscillator Oscillator) {
	t.oscillator = oscillator
}

// SetSequencer connects the sound frame sequencer. Pass nil to detach.
func (t *Timer) SetSequencer(sequencer Sequencer) {
	t.sequencer = sequencer
}

// SetDoubleSpeed halves the cycles forwarded to the oscillator, which
// keeps running at the base clock when the CPU is in double speed mode.
func (t *Timer) SetDoubleSpeed(enabled bool) {
	t.doubleSpeed = enabled
	t.halfCycle = 0
}

// Step advances the timer by cycles CPU clocks.
func (t *Timer) Step(cycles int) error {
	for i := 0; i < cycles; i++ {
		t.tick()
	}

	if t.oscillator != nil {
		if t.doubleSpeed {
			cycles += t.halfCycle
			t.halfCycle = cycles & 1
			cycles >>= 1
		}
		t.oscillator.Tick(cycles)
	}
	return nil
}

func (t *Timer) tick() {
	if t.reloadDelay > 0 {
		t.reloadDelay--
		if t.reloadDelay == 0 {
			t.tima = t.tma
			t.irq.RequestInterrupt(memory.InterruptTimer)
		}
	}

	old := t.counter
	t.counter++
	if t.fallingEdge(old, t.counter) {
		t.increment()
	}
	t.clockSequencer(old, t.counter)
}

// clockSequencer watches DIV bit 4, or bit 5 in double speed mode.
func (t *Timer) clockSequencer(old, next uint16) {
	if t.sequencer == nil {
		return
	}
	bit := uint(12)
	if t.doubleSpeed {
		bit = 13
	}
	if old&(1<<bit) != 0 && next&(1<<bit) == 0 {
		t.sequencer.ClockSequencer()
	}
}

func (t *Timer) enabled() bool {
	return t.tac&0x04 != 0
}

func (t *Timer) fallingEdge(old, next uint16) bool {
	if !t.enabled() {
		return false
	}
	bit := tacBits[t.tac&0x03]
	return old&(1<<bit) != 0 && next&(1<<bit) == 0
}

func (t *Timer) increment() {
	t.tima++
	if t.tima == 0 {
		t.reloadDelay = 4
	}
}

// DIV returns the visible divider register.
func (t *Timer) DIV() uint8 {
	return uint8(t.counter >> 8)
}

// ReadRegister implements memory.IODevice.
func (t *Timer) ReadRegister(address uint16) uint8 {
	switch address {
	case RegDIV:
		return t.DIV()
	case RegTIMA:
		return t.tima
	case RegTMA:
		return t.tma
	case RegTAC:
		return t.tac | 0xF8
	}
	return 0xFF
}

// WriteRegister implements memory.IODevice.
func (t *Timer) WriteRegister(address uint16, value uint8) {
	switch address {
	case RegDIV:
		// resetting the counter can produce a falling edge
		if t.fallingEdge(t.counter, 0) {
			t.increment()
		}
		t.clockSequencer(t.counter, 0)
		t.counter = 0
	case RegTIMA:
		t.tima = value
		t.reloadDelay = 0
	case RegTMA:
		t.tma = value
	case RegTAC:
		oldBit := t.enabled() && t.counter&(1<<tacBits[t.tac&0x03]) != 0
		t.tac = value & 0x07
		newBit := t.enabled() && t.counter&(1<<tacBits[t.tac&0x03]) != 0
		if oldBit && !newBit {
			t.increment()
		}
	}
}
