// Package apu implements the register side of the Game Boy sound unit:
// the NR10-NR52 registers, wave RAM, channel status and length counters
// clocked by the 512 Hz frame sequencer. No samples are generated.
package apu

import "gogb/internal/logger"

// Register addresses.
const (
	RegNR10 = 0xFF10
	RegNR11 = 0xFF11
	RegNR12 = 0xFF12
	RegNR14 = 0xFF14
	RegNR21 = 0xFF16
	RegNR22 = 0xFF17
	RegNR24 = 0xFF19
	RegNR30 = 0xFF1A
	RegNR31 = 0xFF1B
	RegNR32 = 0xFF1C
	RegNR34 = 0xFF1E
	RegNR41 = 0xFF20
	RegNR42 = 0xFF21
	RegNR44 = 0xFF23
	RegNR50 = 0xFF24
	RegNR51 = 0xFF25
	RegNR52 = 0xFF26

	RegWaveStart = 0xFF30
	RegWaveEnd   = 0xFF3F

	// RegLast is the last address the sound unit decodes.
	RegLast = RegWaveEnd
)

// readMasks holds the bits that always read back as 1, indexed from
// RegNR10. Unused addresses read 0xFF.
var readMasks = [0x20]uint8{
	// NR10-NR14
	0x80, 0x3F, 0x00, 0xFF, 0xBF,
	// unused, NR21-NR24
	0xFF, 0x3F, 0x00, 0xFF, 0xBF,
	// NR30-NR34
	0x7F, 0xFF, 0x9F, 0xFF, 0xBF,
	// unused, NR41-NR44
	0xFF, 0xFF, 0x00, 0x00, 0xBF,
	// NR50-NR52
	0x00, 0x00, 0x70,
	// 0xFF27-0xFF2F
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
}

// Channel identifies one of the four sound channels.
type Channel int

const (
	Pulse1 Channel = iota
	Pulse2
	Wave
	Noise
)

func (c Channel) String() string {
	switch c {
	case Pulse1:
		return "PULSE1"
	case Pulse2:
		return "PULSE2"
	case Wave:
		return "WAVE"
	case Noise:
		return "NOISE"
	}
	return "CH?"
}

// channel is the status a channel exposes through NR52.
type channel struct {
	enabled bool
	dac     bool
	length  int // clocks left, 0 means expired
}

// APU is the sound register block.
type APU struct {
	regs [0x20]uint8
	wave [16]uint8

	channels [4]channel
	powered  bool

	// frame sequencer position, 0-7
	step uint8
}

// New creates a sound unit with post-boot register values.
func New() *APU {
	apu := &APU{}
	apu.Reset()
	return apu
}

// Reset restores the state the boot ROM leaves behind: power on, channel
// one playing with its length counter disabled.
func (apu *APU) Reset() {
	apu.regs = [0x20]uint8{}
	apu.channels = [4]channel{}
	apu.powered = true
	apu.step = 0

	apu.set(RegNR10, 0x80)
	apu.set(RegNR11, 0xBF)
	apu.set(RegNR12, 0xF3)
	apu.set(RegNR14, 0xBF)
	apu.set(RegNR21, 0x3F)
	apu.set(RegNR24, 0xBF)
	apu.set(RegNR30, 0x7F)
	apu.set(RegNR31, 0xFF)
	apu.set(RegNR32, 0x9F)
	apu.set(RegNR34, 0xBF)
	apu.set(RegNR41, 0xFF)
	apu.set(RegNR44, 0xBF)
	apu.set(RegNR50, 0x77)
	apu.set(RegNR51, 0xF3)

	apu.channels[Pulse1] = channel{enabled: true, dac: true}
}

func (apu *APU) set(address uint16, value uint8) {
	apu.regs[address-RegNR10] = value
}

func (apu *APU) get(address uint16) uint8 {
	return apu.regs[address-RegNR10]
}

// Powered reports the NR52 master switch.
func (apu *APU) Powered() bool {
	return apu.powered
}

// IsChannelEnabled reports the NR52 status bit of c.
func (apu *APU) IsChannelEnabled(c Channel) bool {
	return apu.channels[c].enabled
}

// ReadRegister implements memory.IODevice.
func (apu *APU) ReadRegister(address uint16) uint8 {
	switch {
	case address >= RegWaveStart && address <= RegWaveEnd:
		return apu.wave[address-RegWaveStart]
	case address == RegNR52:
		status := readMasks[RegNR52-RegNR10]
		if apu.powered {
			status |= 0x80
		}
		for i, ch := range apu.channels {
			if ch.enabled {
				status |= 1 << i
			}
		}
		return status
	case address >= RegNR10 && address < RegWaveStart:
		offset := address - RegNR10
		return apu.regs[offset] | readMasks[offset]
	}
	return 0xFF
}

// WriteRegister implements memory.IODevice. While powered off only NR52
// and wave RAM accept writes.
func (apu *APU) WriteRegister(address uint16, value uint8) {
	switch {
	case address >= RegWaveStart && address <= RegWaveEnd:
		apu.wave[address-RegWaveStart] = value
		return
	case address == RegNR52:
		apu.setPower(value&0x80 != 0)
		return
	case address < RegNR10 || address > RegNR51:
		return
	}

	if !apu.powered {
		return
	}
	apu.set(address, value)

	switch address {
	case RegNR11:
		apu.channels[Pulse1].length = 64 - int(value&0x3F)
	case RegNR21:
		apu.channels[Pulse2].length = 64 - int(value&0x3F)
	case RegNR31:
		apu.channels[Wave].length = 256 - int(value)
	case RegNR41:
		apu.channels[Noise].length = 64 - int(value&0x3F)

	case RegNR12:
		apu.setDAC(Pulse1, value&0xF8 != 0)
	case RegNR22:
		apu.setDAC(Pulse2, value&0xF8 != 0)
	case RegNR30:
		apu.setDAC(Wave, value&0x80 != 0)
	case RegNR42:
		apu.setDAC(Noise, value&0xF8 != 0)

	case RegNR14:
		apu.control(Pulse1, value)
	case RegNR24:
		apu.control(Pulse2, value)
	case RegNR34:
		apu.control(Wave, value)
	case RegNR44:
		apu.control(Noise, value)
	}
}

func (apu *APU) setPower(on bool) {
	if on == apu.powered {
		return
	}
	apu.powered = on
	if !on {
		// wave RAM survives power off
		apu.regs = [0x20]uint8{}
		apu.channels = [4]channel{}
		logger.Debugf("APU", "powered off")
		return
	}
	apu.step = 0
	logger.Debugf("APU", "powered on")
}

func (apu *APU) setDAC(c Channel, on bool) {
	apu.channels[c].dac = on
	if !on {
		apu.channels[c].enabled = false
	}
}

// control handles an NRx4 write. Bit 7 triggers the channel.
func (apu *APU) control(c Channel, value uint8) {
	if value&0x80 == 0 {
		return
	}
	ch := &apu.channels[c]
	if ch.length == 0 {
		ch.length = maxLength(c)
	}
	ch.enabled = ch.dac
}

func maxLength(c Channel) int {
	if c == Wave {
		return 256
	}
	return 64
}

func (apu *APU) lengthEnabled(c Channel) bool {
	controls := [4]uint16{RegNR14, RegNR24, RegNR34, RegNR44}
	return apu.get(controls[c])&0x40 != 0
}

// ClockSequencer advances the frame sequencer by one 512 Hz step. Length
// counters are clocked on even steps.
func (apu *APU) ClockSequencer() {
	if !apu.powered {
		return
	}
	if apu.step%2 == 0 {
		apu.clockLengths()
	}
	apu.step = (apu.step + 1) & 7
}

func (apu *APU) clockLengths() {
	for i := range apu.channels {
		c := Channel(i)
		ch := &apu.channels[i]
		if !apu.lengthEnabled(c) || ch.length == 0 {
			continue
		}
		ch.length--
		if ch.length == 0 && ch.enabled {
			ch.enabled = false
			logger.Debugf("APU", "%s length expired", c)
		}
	}
}
