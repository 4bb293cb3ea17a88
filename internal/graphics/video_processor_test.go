package graphics

import "testing"

func TestVideoProcessor_Passthrough(t *testing.T) {
	vp := NewVideoProcessor(1.0, 0)
	frame := []uint32{0x123456}
	if out := vp.ProcessFrame(frame); &out[0] != &frame[0] {
		t.Error("Default settings should return the input frame")
	}
}

func TestVideoProcessor_Ghosting(t *testing.T) {
	vp := NewVideoProcessor(1.0, 0.5)

	first := vp.ProcessFrame([]uint32{0xFFFFFF})
	if first[0] != 0xFFFFFF {
		t.Errorf("First frame has nothing to blend with, got 0x%06X", first[0])
	}

	second := vp.ProcessFrame([]uint32{0x000000})
	if second[0] != 0x808080 {
		t.Errorf("Expected 0x808080 after blending, got 0x%06X", second[0])
	}

	vp.Reset()
	third := vp.ProcessFrame([]uint32{0x000000})
	if third[0] != 0x000000 {
		t.Errorf("Reset should drop history, got 0x%06X", third[0])
	}
}

func TestVideoProcessor_Brightness(t *testing.T) {
	vp := NewVideoProcessor(2.0, 0)
	out := vp.ProcessFrame([]uint32{0x40A010})
	if out[0] != 0x80FF20 {
		t.Errorf("Expected 0x80FF20, got 0x%06X", out[0])
	}
}
