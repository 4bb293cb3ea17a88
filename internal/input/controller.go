// Package input implements the Game Boy joypad and the P1 register.
package input

import (
	"gogb/internal/logger"
	"gogb/internal/memory"
)

// RegP1 is the joypad register.
const RegP1 = 0xFF00

// Button represents Game Boy joypad buttons
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
)

// Convenience constants for shorter names used in key mappings
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Right  = ButtonRight
	Left   = ButtonLeft
	Up     = ButtonUp
	Down   = ButtonDown
)

func (b Button) String() string {
	switch b {
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	case ButtonSelect:
		return "SELECT"
	case ButtonStart:
		return "START"
	case ButtonRight:
		return "RIGHT"
	case ButtonLeft:
		return "LEFT"
	case ButtonUp:
		return "UP"
	case ButtonDown:
		return "DOWN"
	}
	return "?"
}

// Event is a button transition reported by the host.
type Event struct {
	Button  Button
	Pressed bool
}

const (
	selectDirections = 0x10
	selectActions    = 0x20
)

// Joypad is the button matrix behind P1.
type Joypad struct {
	// Current button states, set bit means pressed
	buttons uint8

	// P1 bits 4-5, active low
	selectBits uint8

	irq memory.InterruptRequester

	debugEnabled bool
}

// New creates a joypad raising its interrupt through irq.
func New(irq memory.InterruptRequester) *Joypad {
	j := &Joypad{irq: irq}
	j.Reset()
	return j
}

// Reset releases all buttons and deselects both groups.
func (j *Joypad) Reset() {
	j.buttons = 0
	j.selectBits = 0x30
}

// EnableDebug enables debug logging of button transitions.
func (j *Joypad) EnableDebug(enable bool) {
	j.debugEnabled = enable
}

// SetButton sets the state of a button. A press visible through the
// current P1 selection requests the joypad interrupt.
func (j *Joypad) SetButton(button Button, pressed bool) {
	before := j.lowNibble()
	if pressed {
		j.buttons |= uint8(button)
	} else {
		j.buttons &^= uint8(button)
	}

	if j.debugEnabled {
		logger.Debugf("INPUT", "%s pressed=%t buttons=0x%02X", button, pressed, j.buttons)
	}

	// interrupt on any high-to-low transition of P10-P13
	if before&^j.lowNibble() != 0 {
		j.irq.RequestInterrupt(memory.InterruptJoypad)
	}
}

// Apply applies host events in order.
func (j *Joypad) Apply(events []Event) {
	for _, e := range events {
		j.SetButton(e.Button, e.Pressed)
	}
}

// IsPressed returns true if the button is currently pressed
func (j *Joypad) IsPressed(button Button) bool {
	return j.buttons&uint8(button) != 0
}

func (j *Joypad) lowNibble() uint8 {
	nibble := uint8(0x0F)
	if j.selectBits&selectActions == 0 {
		nibble &^= j.buttons & 0x0F
	}
	if j.selectBits&selectDirections == 0 {
		nibble &^= j.buttons >> 4
	}
	return nibble
}

// ReadRegister implements memory.IODevice.
func (j *Joypad) ReadRegister(address uint16) uint8 {
	return 0xC0 | j.selectBits | j.lowNibble()
}

// WriteRegister implements memory.IODevice. Only the select bits are
// writable.
func (j *Joypad) WriteRegister(address uint16, value uint8) {
	j.selectBits = value & 0x30
}
