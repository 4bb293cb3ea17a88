//go:build !headless
// +build !headless

package graphics

// Test helper methods for accessing internal state during testing

// GetFrameBufferForTesting returns the internal frame buffer for testing purposes
func (w *EbitengineWindow) GetFrameBufferForTesting() [FrameSize]uint32 {
	if w.game == nil {
		return [FrameSize]uint32{}
	}
	return w.game.frameBuffer
}

// GetEmulatorUpdateFuncForTesting returns the emulator update function for testing
func (w *EbitengineWindow) GetEmulatorUpdateFuncForTesting() func() error {
	return w.emulatorUpdateFunc
}
