//go:build !headless
// +build !headless

package graphics

import "testing"

func TestEbitengineWindow_UpdateFunc(t *testing.T) {
	w := &EbitengineWindow{}

	if w.GetEmulatorUpdateFuncForTesting() != nil {
		t.Error("Update function should start unset")
	}

	called := false
	w.SetEmulatorUpdateFunc(func() error {
		called = true
		return nil
	})

	fn := w.GetEmulatorUpdateFuncForTesting()
	if fn == nil {
		t.Fatal("Update function not stored")
	}
	fn()
	if !called {
		t.Error("Stored update function not the one set")
	}
}

func TestEbitengineWindow_RenderWithoutGame(t *testing.T) {
	w := &EbitengineWindow{}
	if err := w.RenderFrame(make([]uint32, FrameSize)); err == nil {
		t.Error("RenderFrame without a game should fail")
	}
	if fb := w.GetFrameBufferForTesting(); fb[0] != 0 {
		t.Error("Frame buffer without a game should be empty")
	}
}

func TestEbitenKeyTable(t *testing.T) {
	seen := make(map[Key]bool)
	for _, key := range ebitenKeys {
		if seen[key] {
			t.Errorf("key %d mapped twice", key)
		}
		seen[key] = true
	}
	for _, key := range []Key{KeyUp, KeyX, KeyZ, KeyEnter, KeyBackspace, KeyF12} {
		if !seen[key] {
			t.Errorf("key %d has no ebiten mapping", key)
		}
	}
}
