package cpu

import (
	"errors"
	"testing"

	"gogb/internal/memory"
)

// MockBus implements Bus over general memory for testing
type MockBus struct {
	mem      *memory.Memory
	failRead error
}

func (b *MockBus) Read(address uint16) (uint8, error) {
	if b.failRead != nil {
		return 0xFF, b.failRead
	}
	return b.mem.Read(address), nil
}

func (b *MockBus) Write(address uint16, value uint8) error {
	b.mem.Write(address, value)
	return nil
}

func newTestIdle() (*Idle, *memory.Memory) {
	mem := memory.New()
	mem.Write(memory.RegIF, 0)
	return NewIdle(&MockBus{mem: mem}), mem
}

func TestIdle_HaltedStep(t *testing.T) {
	core, _ := newTestIdle()

	for i := 0; i < 10; i++ {
		cycles, err := core.Step()
		if err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if cycles != haltCycles {
			t.Errorf("Expected %d cycles, got %d", haltCycles, cycles)
		}
	}
	if core.Cycles() != 10*haltCycles {
		t.Errorf("Expected %d total cycles, got %d", 10*haltCycles, core.Cycles())
	}
}

func TestIdle_RequestedButDisabledInterruptIgnored(t *testing.T) {
	core, mem := newTestIdle()
	mem.RequestInterrupt(memory.InterruptTimer)

	cycles, _ := core.Step()
	if cycles != haltCycles || core.Serviced(memory.InterruptTimer) != 0 {
		t.Errorf("interrupt with IE clear must not be serviced")
	}
}

func TestIdle_ServicesHighestPriority(t *testing.T) {
	core, mem := newTestIdle()
	mem.Write(memory.RegIE, 0x1F)
	mem.RequestInterrupt(memory.InterruptTimer)
	mem.RequestInterrupt(memory.InterruptVBlank)

	cycles, err := core.Step()
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if cycles != interruptCycles {
		t.Errorf("Expected %d cycles, got %d", interruptCycles, cycles)
	}
	if core.Serviced(memory.InterruptVBlank) != 1 || core.Serviced(memory.InterruptTimer) != 0 {
		t.Errorf("VBlank must be serviced first")
	}
	if got := mem.Read(memory.RegIF) & 0x1F; got != 0x04 {
		t.Errorf("Expected IF 0x04 after VBlank acknowledge, got 0x%02X", got)
	}

	core.Step()
	if core.Serviced(memory.InterruptTimer) != 1 {
		t.Errorf("Timer must be serviced on the next step")
	}
	if core.PC != 0x0100 || core.SP != 0xFFFE {
		t.Errorf("Expected PC/SP restored, got PC=0x%04X SP=0x%04X", core.PC, core.SP)
	}
	if mem.Read(0xFFFD) != 0x01 || mem.Read(0xFFFC) != 0x00 {
		t.Errorf("return address not pushed to HRAM")
	}
}

func TestIdle_PropagatesBusErrors(t *testing.T) {
	fail := errors.New("bus fault")
	core := NewIdle(&MockBus{mem: memory.New(), failRead: fail})

	if _, err := core.Step(); !errors.Is(err, fail) {
		t.Errorf("Expected bus error, got %v", err)
	}
}
