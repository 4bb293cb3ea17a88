package apu

import "testing"

func TestPostBootState(t *testing.T) {
	apu := New()

	if got := apu.ReadRegister(RegNR52); got != 0xF1 {
		t.Errorf("NR52 = 0x%02X, want 0xF1", got)
	}
	if got := apu.ReadRegister(RegNR10); got != 0x80 {
		t.Errorf("NR10 = 0x%02X, want 0x80", got)
	}
	if got := apu.ReadRegister(RegNR50); got != 0x77 {
		t.Errorf("NR50 = 0x%02X, want 0x77", got)
	}
}

func TestReadMasks(t *testing.T) {
	apu := New()

	apu.WriteRegister(RegNR11, 0x00)
	if got := apu.ReadRegister(RegNR11); got != 0x3F {
		t.Errorf("NR11 = 0x%02X, want 0x3F", got)
	}

	// frequency low registers are write-only
	apu.WriteRegister(0xFF13, 0x12)
	if got := apu.ReadRegister(0xFF13); got != 0xFF {
		t.Errorf("NR13 = 0x%02X, want 0xFF", got)
	}

	if got := apu.ReadRegister(0xFF27); got != 0xFF {
		t.Errorf("unused 0xFF27 = 0x%02X, want 0xFF", got)
	}
}

func TestTriggerNeedsDAC(t *testing.T) {
	apu := New()

	apu.WriteRegister(RegNR22, 0x00)
	apu.WriteRegister(RegNR24, 0x80)
	if apu.IsChannelEnabled(Pulse2) {
		t.Errorf("Pulse2 enabled with DAC off")
	}

	apu.WriteRegister(RegNR22, 0xF0)
	apu.WriteRegister(RegNR24, 0x80)
	if !apu.IsChannelEnabled(Pulse2) {
		t.Errorf("Pulse2 not enabled after trigger")
	}
	if got := apu.ReadRegister(RegNR52) & 0x02; got == 0 {
		t.Errorf("NR52 status bit for Pulse2 not set")
	}

	apu.WriteRegister(RegNR22, 0x07)
	if apu.IsChannelEnabled(Pulse2) {
		t.Errorf("Pulse2 still enabled after DAC off")
	}
}

func TestLengthCounterExpires(t *testing.T) {
	apu := New()

	apu.WriteRegister(RegNR42, 0xF0)
	apu.WriteRegister(RegNR41, 0x3E) // two clocks
	apu.WriteRegister(RegNR44, 0xC0) // trigger, length enabled

	if !apu.IsChannelEnabled(Noise) {
		t.Fatalf("Noise not enabled after trigger")
	}

	// length is clocked on even sequencer steps
	apu.ClockSequencer() // step 0
	apu.ClockSequencer() // step 1
	if !apu.IsChannelEnabled(Noise) {
		t.Errorf("Noise expired after one length clock")
	}
	apu.ClockSequencer() // step 2
	if apu.IsChannelEnabled(Noise) {
		t.Errorf("Noise still enabled after two length clocks")
	}
}

func TestLengthDisabledKeepsPlaying(t *testing.T) {
	apu := New()

	apu.WriteRegister(RegNR30, 0x80)
	apu.WriteRegister(RegNR31, 0xFF)
	apu.WriteRegister(RegNR34, 0x80)

	for i := 0; i < 16; i++ {
		apu.ClockSequencer()
	}
	if !apu.IsChannelEnabled(Wave) {
		t.Errorf("Wave stopped with length disabled")
	}
}

func TestPowerOff(t *testing.T) {
	apu := New()

	apu.WriteRegister(RegWaveStart, 0xAB)
	apu.WriteRegister(RegNR52, 0x00)

	if apu.Powered() {
		t.Fatalf("still powered after NR52 bit 7 cleared")
	}
	if got := apu.ReadRegister(RegNR52); got != 0x70 {
		t.Errorf("NR52 = 0x%02X, want 0x70", got)
	}
	if got := apu.ReadRegister(RegNR50); got != 0x00 {
		t.Errorf("NR50 = 0x%02X after power off, want 0x00", got)
	}

	apu.WriteRegister(RegNR50, 0x77)
	if got := apu.ReadRegister(RegNR50); got != 0x00 {
		t.Errorf("NR50 write accepted while powered off")
	}

	if got := apu.ReadRegister(RegWaveStart); got != 0xAB {
		t.Errorf("wave RAM = 0x%02X after power off, want 0xAB", got)
	}

	apu.WriteRegister(RegNR52, 0x80)
	apu.WriteRegister(RegNR50, 0x77)
	if got := apu.ReadRegister(RegNR50); got != 0x77 {
		t.Errorf("NR50 = 0x%02X after power on, want 0x77", got)
	}
}
