package cartridge

import (
	"testing"
)

func newMBC1Cartridge(t *testing.T, banks int, ramCode uint8) *Cartridge {
	t.Helper()
	cart, err := NewTestROMBuilder().WithBanks(banks).WithType(0x03).WithRAMCode(ramCode).BuildCartridge()
	if err != nil {
		t.Fatalf("failed to build MBC1 cartridge: %v", err)
	}
	if cart.Scheme() != SchemeMBC1 {
		t.Fatalf("expected MBC1, got %s", cart.Scheme())
	}
	return cart
}

func mustRead(t *testing.T, cart *Cartridge, address uint16) uint8 {
	t.Helper()
	value, err := cart.Read(address)
	if err != nil {
		t.Fatalf("read 0x%04X failed: %v", address, err)
	}
	return value
}

func mustWrite(t *testing.T, cart *Cartridge, address uint16, value uint8) {
	t.Helper()
	if err := cart.Write(address, value); err != nil {
		t.Fatalf("write 0x%04X=0x%02X failed: %v", address, value, err)
	}
}

// TestMBC1_BankZeroCoercedScenario covers the 128 KiB, 8 bank walkthrough.
func TestMBC1_BankZeroCoercedScenario(t *testing.T) {
	cart := newMBC1Cartridge(t, 8, 0x00)

	mustWrite(t, cart, 0x2000, 0x00)
	if got := mustRead(t, cart, 0x4000); got != 0x01 {
		t.Errorf("bank 0 select should map to bank 1, read 0x%02X", got)
	}

	mustWrite(t, cart, 0x2000, 0x03)
	got := mustRead(t, cart, 0x4000)
	if want := cart.ROM()[3*16384]; got != want {
		t.Errorf("expected byte at flat offset 3*16384 (0x%02X), got 0x%02X", want, got)
	}

	// bank 0 stays fixed at 0x0000-0x3FFF
	if got := mustRead(t, cart, 0x0000); got != 0x00 {
		t.Errorf("fixed bank read 0x%02X, want 0x00", got)
	}
}

func TestMBC1_ROMBankStoredValue(t *testing.T) {
	cart := newMBC1Cartridge(t, 8, 0x00)
	mbc := cart.Controller().(*MBC1)

	for b := 0; b < 256; b++ {
		mustWrite(t, cart, 0x2000, uint8(b))
		want := b & 0x1F
		if want == 0 {
			want = 1
		}
		if got := mbc.ROMBank(); got != want {
			t.Errorf("write 0x%02X: stored bank %d, want %d", b, got, want)
		}
	}
}

func TestMBC1_RAMEnableNibble(t *testing.T) {
	cart := newMBC1Cartridge(t, 4, 0x02)
	mbc := cart.Controller().(*MBC1)

	mustWrite(t, cart, 0x0000, 0x0A)
	mustWrite(t, cart, 0xA000, 0x42)

	mustWrite(t, cart, 0x0000, 0x00)
	if mbc.RAMEnabled() {
		t.Fatal("RAM should be disabled after writing 0x00")
	}
	if got := mustRead(t, cart, 0xA000); got != OpenBus {
		t.Errorf("disabled RAM read 0x%02X, want open bus", got)
	}

	for v := 0; v < 256; v++ {
		mustWrite(t, cart, 0x0000, uint8(v))
		enabled := v&0x0F == 0x0A
		if mbc.RAMEnabled() != enabled {
			t.Errorf("write 0x%02X: RAM enabled = %t, want %t", v, mbc.RAMEnabled(), enabled)
		}
		want := OpenBus
		if enabled {
			want = 0x42
		}
		if got := mustRead(t, cart, 0xA000); got != want {
			t.Errorf("write 0x%02X: RAM read 0x%02X, want 0x%02X", v, got, want)
		}
	}
}

func TestMBC1_DisabledRAMIgnoresWrites(t *testing.T) {
	cart := newMBC1Cartridge(t, 4, 0x02)

	mustWrite(t, cart, 0x0000, 0x00)
	mustWrite(t, cart, 0xA123, 0x99)
	mustWrite(t, cart, 0x0000, 0x0A)

	if got := mustRead(t, cart, 0xA123); got != 0x00 {
		t.Errorf("write to disabled RAM leaked through: 0x%02X", got)
	}
}

func TestMBC1_ModeRoutesUpperRegister(t *testing.T) {
	cart := newMBC1Cartridge(t, 128, 0x03)
	mbc := cart.Controller().(*MBC1)

	mustWrite(t, cart, 0x6000, 0x00)
	mustWrite(t, cart, 0x4000, 0x02)
	if got := mbc.ROMBank(); got != 0x41 {
		t.Errorf("ROM mode: bank 0x%02X, want 0x41", got)
	}
	if got := mbc.RAMBank(); got != 0 {
		t.Errorf("ROM mode: RAM bank %d, want 0", got)
	}
	if got := mustRead(t, cart, 0x4000); got != 0x41 {
		t.Errorf("ROM mode: read 0x%02X from bank 0x41", got)
	}

	// repeated writes of the same mode are idempotent
	for i := 0; i < 3; i++ {
		mustWrite(t, cart, 0x6000, 0x01)
		if mbc.Mode() != MBC1ModeRAM {
			t.Fatalf("write %d: mode %d, want RAM", i, mbc.Mode())
		}
	}

	mustWrite(t, cart, 0x4000, 0x03)
	if got := mbc.RAMBank(); got != 3 {
		t.Errorf("RAM mode: RAM bank %d, want 3", got)
	}
	if got := mbc.ROMBank(); got != 0x01 {
		t.Errorf("RAM mode: only banks 0x00-0x1F addressable, got 0x%02X", got)
	}

	mustWrite(t, cart, 0x6000, 0x00)
	mustWrite(t, cart, 0x6000, 0x00)
	if got := mbc.ROMBank(); got != 0x41 {
		t.Errorf("back in ROM mode: bank 0x%02X, want 0x41", got)
	}
}

func TestMBC1_RAMBanking(t *testing.T) {
	cart := newMBC1Cartridge(t, 8, 0x03)

	mustWrite(t, cart, 0x0000, 0x0A)
	mustWrite(t, cart, 0x6000, 0x01)
	for bank := uint8(0); bank < 4; bank++ {
		mustWrite(t, cart, 0x4000, bank)
		mustWrite(t, cart, 0xA000, 0x10+bank)
	}
	for bank := uint8(0); bank < 4; bank++ {
		mustWrite(t, cart, 0x4000, bank)
		if got := mustRead(t, cart, 0xA000); got != 0x10+bank {
			t.Errorf("RAM bank %d read 0x%02X, want 0x%02X", bank, got, 0x10+bank)
		}
	}
	if got := cart.RAM()[2*RAMBankSize]; got != 0x12 {
		t.Errorf("RAM bank 2 flat offset holds 0x%02X, want 0x12", got)
	}

	// ROM mode only sees bank 0
	mustWrite(t, cart, 0x6000, 0x00)
	if got := mustRead(t, cart, 0xA000); got != 0x10 {
		t.Errorf("ROM mode RAM read 0x%02X, want bank 0 value 0x10", got)
	}
}

func TestMBC1_ResetRestoresPowerOnState(t *testing.T) {
	cart := newMBC1Cartridge(t, 8, 0x03)
	mbc := cart.Controller().(*MBC1)

	mustWrite(t, cart, 0x2000, 0x05)
	mustWrite(t, cart, 0x6000, 0x01)
	mustWrite(t, cart, 0x4000, 0x02)
	mustWrite(t, cart, 0x0000, 0x00)
	cart.Reset()

	if mbc.ROMBank() != 1 || mbc.RAMBank() != 0 || mbc.Mode() != MBC1ModeROM || !mbc.RAMEnabled() {
		t.Errorf("unexpected state after reset: rom=%d ram=%d mode=%d enable=%t",
			mbc.ROMBank(), mbc.RAMBank(), mbc.Mode(), mbc.RAMEnabled())
	}
}
