package cartridge

// RTCRegister names one of the MBC3 clock registers, by its select value.
type RTCRegister uint8

const (
	RTCSeconds RTCRegister = 0x08
	RTCMinutes RTCRegister = 0x09
	RTCHours   RTCRegister = 0x0A
	RTCDayLow  RTCRegister = 0x0B
	RTCDayHigh RTCRegister = 0x0C
)

// Flag bits of the RTCDayHigh register.
const (
	RTCFlagDayBit8 uint8 = 0x01
	RTCFlagHalt    uint8 = 0x40
	RTCFlagCarry   uint8 = 0x80
)

// RTCTickRate is the number of base-speed CPU cycles per RTC second.
const RTCTickRate = 4194304

// RTCRegisters is one copy of the clock register file.
type RTCRegisters struct {
	Seconds uint8
	Minutes uint8
	Hours   uint8
	DayLow  uint8
	DayHigh uint8 // day bit 8, halt, carry
}

// Get returns the register named by r.
func (r *RTCRegisters) Get(reg RTCRegister) uint8 {
	switch reg {
	case RTCSeconds:
		return r.Seconds
	case RTCMinutes:
		return r.Minutes
	case RTCHours:
		return r.Hours
	case RTCDayLow:
		return r.DayLow
	case RTCDayHigh:
		return r.DayHigh
	}
	return OpenBus
}

// Set replaces the register named by r, masked to its physical width.
func (r *RTCRegisters) Set(reg RTCRegister, value uint8) {
	switch reg {
	case RTCSeconds:
		r.Seconds = value & 0x3F
	case RTCMinutes:
		r.Minutes = value & 0x3F
	case RTCHours:
		r.Hours = value & 0x1F
	case RTCDayLow:
		r.DayLow = value
	case RTCDayHigh:
		r.DayHigh = value & (RTCFlagDayBit8 | RTCFlagHalt | RTCFlagCarry)
	}
}

// Days returns the 9-bit day counter.
func (r *RTCRegisters) Days() int {
	return int(r.DayHigh&RTCFlagDayBit8)<<8 | int(r.DayLow)
}

func (r *RTCRegisters) setDays(days int) {
	r.DayLow = uint8(days)
	r.DayHigh = r.DayHigh&^RTCFlagDayBit8 | uint8(days>>8)&RTCFlagDayBit8
}

// RTC is the MBC3 real-time clock. The live counters advance from emulated
// CPU cycles; the guest only ever reads the latched copy.
type RTC struct {
	live    RTCRegisters
	latched RTCRegisters

	// cycles accumulated towards the next second
	divider int
}

// Halted reports whether the halt flag stops the live counters.
func (c *RTC) Halted() bool {
	return c.live.DayHigh&RTCFlagHalt != 0
}

// Live returns a copy of the running counters.
func (c *RTC) Live() RTCRegisters { return c.live }

// Latched returns a copy of the snapshot visible to the guest.
func (c *RTC) Latched() RTCRegisters { return c.latched }

// Latch copies the live counters into the snapshot.
func (c *RTC) Latch() {
	c.latched = c.live
}

// Read returns the latched value of reg.
func (c *RTC) Read(reg RTCRegister) uint8 {
	return c.latched.Get(reg)
}

// Write replaces the live value of reg. Writing seconds also clears the
// sub-second divider.
func (c *RTC) Write(reg RTCRegister, value uint8) {
	if reg == RTCSeconds {
		c.divider = 0
	}
	c.live.Set(reg, value)
}

// Tick advances the live counters by cycles of base-speed CPU time.
func (c *RTC) Tick(cycles int) {
	if c.Halted() {
		return
	}
	c.divider += cycles
	for c.divider >= RTCTickRate {
		c.divider -= RTCTickRate
		c.advance(1)
	}
}

// Advance moves the live counters forward by seconds of wall time, used to
// catch up for the time a battery-backed cart spent switched off.
func (c *RTC) Advance(seconds int64) {
	if c.Halted() || seconds <= 0 {
		return
	}
	// counters wrap every 512 days; anything longer only sets the carry
	const period = 512 * 24 * 60 * 60
	if seconds >= period {
		c.live.DayHigh |= RTCFlagCarry
		seconds %= period
	}
	c.advance(seconds)
}

func (c *RTC) advance(seconds int64) {
	for ; seconds > 0; seconds-- {
		// registers count through out-of-range values without carrying
		c.live.Seconds = (c.live.Seconds + 1) & 0x3F
		if c.live.Seconds != 60 {
			continue
		}
		c.live.Seconds = 0
		c.live.Minutes = (c.live.Minutes + 1) & 0x3F
		if c.live.Minutes != 60 {
			continue
		}
		c.live.Minutes = 0
		c.live.Hours = (c.live.Hours + 1) & 0x1F
		if c.live.Hours != 24 {
			continue
		}
		c.live.Hours = 0
		days := c.live.Days() + 1
		if days > 511 {
			days = 0
			c.live.DayHigh |= RTCFlagCarry
		}
		c.live.setDays(days)
	}
}
