package memory

import (
	"testing"
)

// MockDevice implements IODevice for testing
type MockDevice struct {
	registers  map[uint16]uint8
	writeCalls []RegisterWrite
}

type RegisterWrite struct {
	Address uint16
	Value   uint8
}

func NewMockDevice() *MockDevice {
	return &MockDevice{registers: make(map[uint16]uint8)}
}

func (d *MockDevice) ReadRegister(address uint16) uint8 {
	return d.registers[address]
}

func (d *MockDevice) WriteRegister(address uint16, value uint8) {
	d.writeCalls = append(d.writeCalls, RegisterWrite{Address: address, Value: value})
	d.registers[address] = value ^ 0xFF
}

func TestMemory_RAMRegions(t *testing.T) {
	mem := New()

	tests := []struct {
		name    string
		address uint16
	}{
		{"VRAM start", 0x8000},
		{"VRAM end", 0x9FFF},
		{"WRAM start", 0xC000},
		{"WRAM end", 0xDFFF},
		{"OAM", 0xFE50},
		{"HRAM start", 0xFF80},
		{"HRAM end", 0xFFFE},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := uint8(0x10 + i)
			mem.Write(tt.address, value)
			if got := mem.Read(tt.address); got != value {
				t.Errorf("0x%04X: expected 0x%02X, got 0x%02X", tt.address, value, got)
			}
		})
	}
}

func TestMemory_EchoRAM(t *testing.T) {
	mem := New()

	mem.Write(0xC123, 0x42)
	if got := mem.Read(0xE123); got != 0x42 {
		t.Errorf("echo read expected 0x42, got 0x%02X", got)
	}

	mem.Write(0xFDFF, 0x24)
	if got := mem.Read(0xDDFF); got != 0x24 {
		t.Errorf("echo write expected 0x24 at 0xDDFF, got 0x%02X", got)
	}
}

func TestMemory_UnusableArea(t *testing.T) {
	mem := New()

	mem.Write(0xFEA0, 0x00)
	for _, address := range []uint16{0xFEA0, 0xFEC0, 0xFEFF} {
		if got := mem.Read(address); got != 0xFF {
			t.Errorf("0x%04X: expected 0xFF, got 0x%02X", address, got)
		}
	}
}

func TestMemory_IODeviceRouting(t *testing.T) {
	mem := New()
	device := NewMockDevice()
	mem.Register(0xFF04, 0xFF07, device)

	mem.Write(0xFF05, 0x0F)
	if len(device.writeCalls) != 1 || device.writeCalls[0].Address != 0xFF05 {
		t.Fatalf("expected one routed write, got %+v", device.writeCalls)
	}
	if got := mem.Read(0xFF05); got != 0xF0 {
		t.Errorf("device read expected 0xF0, got 0x%02X", got)
	}

	// unregistered IO keeps its value
	mem.Write(0xFF01, 0x77)
	if got := mem.Read(0xFF01); got != 0x77 {
		t.Errorf("plain IO expected 0x77, got 0x%02X", got)
	}
	if len(device.writeCalls) != 1 {
		t.Errorf("unregistered write reached device")
	}
}

func TestMemory_InterruptRegisters(t *testing.T) {
	mem := New()
	mem.Write(RegIF, 0x00)

	mem.RequestInterrupt(InterruptTimer)
	mem.RequestInterrupt(InterruptJoypad)

	if got := mem.Read(RegIF); got != 0xE0|0x14 {
		t.Errorf("IF expected 0xF4, got 0x%02X", got)
	}
	if mem.Pending() != 0 {
		t.Errorf("nothing enabled, pending 0x%02X", mem.Pending())
	}

	mem.Write(RegIE, 0x04)
	if mem.Pending() != 0x04 {
		t.Errorf("pending expected 0x04, got 0x%02X", mem.Pending())
	}
}

func TestMemory_DMA(t *testing.T) {
	mem := New()
	for i := uint16(0); i < OAMSize; i++ {
		mem.Write(0xC100+i, uint8(i))
	}

	mem.Write(RegDMA, 0xC1)
	if got := mem.Read(0xFE9F); got != 0x9F {
		t.Errorf("OAM tail expected 0x9F, got 0x%02X", got)
	}

	var page uint8
	mem.SetDMACallback(func(p uint8) { page = p })
	mem.Write(RegDMA, 0x40)
	if page != 0x40 {
		t.Errorf("callback expected page 0x40, got 0x%02X", page)
	}
}
