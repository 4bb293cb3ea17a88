package cartridge

import (
	"errors"
	"testing"
)

func newMBC3Cartridge(t *testing.T, typeCode uint8) *Cartridge {
	t.Helper()
	cart, err := NewTestROMBuilder().WithBanks(128).WithType(typeCode).WithRAMCode(0x03).BuildCartridge()
	if err != nil {
		t.Fatalf("failed to build MBC3 cartridge: %v", err)
	}
	if cart.Scheme() != SchemeMBC3 {
		t.Fatalf("expected MBC3, got %s", cart.Scheme())
	}
	return cart
}

func latch(t *testing.T, cart *Cartridge) {
	t.Helper()
	mustWrite(t, cart, 0x6000, 0x00)
	mustWrite(t, cart, 0x6000, 0x01)
}

func TestMBC3_ROMBankStoredValue(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x13)
	mbc := cart.Controller().(*MBC3)

	for b := 0; b < 256; b++ {
		mustWrite(t, cart, 0x2000, uint8(b))
		want := b & 0x7F
		if want == 0 {
			want = 1
		}
		if got := mbc.ROMBank(); got != want {
			t.Errorf("write 0x%02X: stored bank %d, want %d", b, got, want)
		}
		if got := mustRead(t, cart, 0x4000); int(got) != want {
			t.Errorf("write 0x%02X: bank marker 0x%02X, want 0x%02X", b, got, want)
		}
	}
}

// TestMBC3_MinutesLatchScenario selects minutes, latches and reads back.
func TestMBC3_MinutesLatchScenario(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x10)

	mustWrite(t, cart, 0x4000, 0x09)
	mustWrite(t, cart, 0xA000, 42)
	latch(t, cart)

	if got := mustRead(t, cart, 0xA000); got != 42 {
		t.Errorf("latched minutes read %d, want 42", got)
	}
	if got := cart.RTC().Latched().Minutes; got != 42 {
		t.Errorf("snapshot minutes %d, want 42", got)
	}
}

func TestMBC3_LatchRequiresZeroThenOne(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x10)
	mustWrite(t, cart, 0x4000, uint8(RTCMinutes))

	mustWrite(t, cart, 0xA000, 5)
	latch(t, cart)

	mustWrite(t, cart, 0xA000, 10)
	sequences := [][]uint8{
		{0x01, 0x01},
		{0x00, 0x00},
		{0x00, 0x02, 0x01},
		{0x00, 0x80},
		{0x01},
	}
	for _, seq := range sequences {
		for _, v := range seq {
			mustWrite(t, cart, 0x6000, v)
		}
		mustWrite(t, cart, 0x6000, 0x02) // disarm between sequences
		if got := mustRead(t, cart, 0xA000); got != 5 {
			t.Errorf("sequence %v changed snapshot to %d", seq, got)
		}
	}

	latch(t, cart)
	if got := mustRead(t, cart, 0xA000); got != 10 {
		t.Errorf("0x00,0x01 should latch live value 10, read %d", got)
	}
}

func TestMBC3_RTCRegisterRoundTrip(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x10)
	// stop the clock so nothing advances between write and read
	mustWrite(t, cart, 0x4000, uint8(RTCDayHigh))
	mustWrite(t, cart, 0xA000, RTCFlagHalt)

	values := map[RTCRegister]uint8{
		RTCSeconds: 59,
		RTCMinutes: 30,
		RTCHours:   23,
		RTCDayLow:  0xAB,
		RTCDayHigh: RTCFlagHalt | RTCFlagCarry | RTCFlagDayBit8,
	}
	for reg, v := range values {
		mustWrite(t, cart, 0x4000, uint8(reg))
		mustWrite(t, cart, 0xA000, v)
	}
	cart.Tick(RTCTickRate * 10)
	latch(t, cart)

	for reg, v := range values {
		mustWrite(t, cart, 0x4000, uint8(reg))
		if got := mustRead(t, cart, 0xA000); got != v {
			t.Errorf("register 0x%02X read 0x%02X, want 0x%02X", uint8(reg), got, v)
		}
	}
}

func TestMBC3_ClearCarryFlag(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x10)
	rtc := cart.RTC()
	rtc.live.DayHigh = RTCFlagCarry | RTCFlagDayBit8

	mustWrite(t, cart, 0x4000, uint8(RTCDayHigh))
	mustWrite(t, cart, 0xA000, RTCFlagDayBit8)
	latch(t, cart)

	if got := mustRead(t, cart, 0xA000); got != RTCFlagDayBit8 {
		t.Errorf("carry should be cleared, flags read 0x%02X", got)
	}
}

func TestMBC3_RAMBanksAndEnableGating(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x13)

	for bank := uint8(0); bank < 4; bank++ {
		mustWrite(t, cart, 0x4000, bank)
		mustWrite(t, cart, 0xBFFF, 0xA0+bank)
	}
	for bank := uint8(0); bank < 4; bank++ {
		mustWrite(t, cart, 0x4000, bank)
		if got := mustRead(t, cart, 0xBFFF); got != 0xA0+bank {
			t.Errorf("RAM bank %d read 0x%02X", bank, got)
		}
	}

	mustWrite(t, cart, 0x0000, 0x00)
	if got := mustRead(t, cart, 0xBFFF); got != OpenBus {
		t.Errorf("disabled RAM read 0x%02X, want open bus", got)
	}
	mustWrite(t, cart, 0xBFFF, 0x00)

	mustWrite(t, cart, 0x0000, 0x1A)
	if got := mustRead(t, cart, 0xBFFF); got != 0xA3 {
		t.Errorf("write while disabled was not ignored, read 0x%02X", got)
	}
}

func TestMBC3_UndefinedSelectIsInert(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x10)
	mustWrite(t, cart, 0xA000, 0x77) // RAM bank 0

	mbc := cart.Controller().(*MBC3)
	if err := mbc.Write(0x4000, 0x05); !errors.Is(err, ErrUndefinedRegisterSelect) {
		t.Errorf("controller should flag undefined select, got %v", err)
	}
	if err := cart.Write(0x4000, 0x06); err != nil {
		t.Fatalf("undefined select must be absorbed by the bus, got %v", err)
	}
	if cart.UndefinedSelects() != 1 {
		t.Errorf("expected 1 absorbed select, got %d", cart.UndefinedSelects())
	}

	if got := mustRead(t, cart, 0xA000); got != OpenBus {
		t.Errorf("undefined select read 0x%02X, want open bus", got)
	}
	mustWrite(t, cart, 0xA000, 0x11)

	mustWrite(t, cart, 0x4000, 0x00)
	if got := mustRead(t, cart, 0xA000); got != 0x77 {
		t.Errorf("write under undefined select reached RAM: 0x%02X", got)
	}
}

func TestMBC3_WithoutTimer(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x13)
	if cart.RTC() != nil {
		t.Fatal("type 0x13 has no RTC")
	}
	mustWrite(t, cart, 0x4000, uint8(RTCSeconds))
	if got := mustRead(t, cart, 0xA000); got != OpenBus {
		t.Errorf("RTC select without timer read 0x%02X, want open bus", got)
	}
	latch(t, cart)
}

func TestMBC3_ClockAdvancesFromCycles(t *testing.T) {
	cart := newMBC3Cartridge(t, 0x10)
	mustWrite(t, cart, 0x4000, uint8(RTCSeconds))

	cart.Tick(RTCTickRate - 1)
	latch(t, cart)
	if got := mustRead(t, cart, 0xA000); got != 0 {
		t.Errorf("clock advanced early: seconds %d", got)
	}

	cart.Tick(1)
	latch(t, cart)
	if got := mustRead(t, cart, 0xA000); got != 1 {
		t.Errorf("seconds %d after one RTC second, want 1", got)
	}
}
