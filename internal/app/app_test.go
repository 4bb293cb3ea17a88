package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gogb/internal/cartridge"
	"gogb/internal/graphics"
	"gogb/internal/input"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	dir := t.TempDir()
	config := NewConfig()
	config.Paths.SaveData = filepath.Join(dir, "saves")
	config.Paths.Screenshots = filepath.Join(dir, "shots")
	config.Debug.LogLevel = "ERROR"

	app, err := NewApplicationWithConfig(config, true)
	if err != nil {
		t.Fatalf("NewApplicationWithConfig failed: %v", err)
	}
	t.Cleanup(func() { app.Cleanup() })
	return app
}

func loadTestCartridge(t *testing.T, app *Application) {
	t.Helper()
	cart, err := cartridge.NewTestROMBuilder().WithBanks(8).WithType(0x13).WithRAMCode(0x03).WithTitle("SAVETEST").BuildCartridge()
	if err != nil {
		t.Fatalf("BuildCartridge failed: %v", err)
	}
	if err := app.loadCartridge(cart, "savetest.gb"); err != nil {
		t.Fatalf("loadCartridge failed: %v", err)
	}
}

func TestApplication_Headless(t *testing.T) {
	app := newTestApplication(t)

	if !app.IsHeadless() {
		t.Error("Application should be headless")
	}
	if app.graphicsBackend.GetName() != "Headless" {
		t.Errorf("Expected headless backend, got %s", app.graphicsBackend.GetName())
	}
	if app.window != nil {
		t.Error("Headless mode should not create a window")
	}
}

func TestApplication_LoadROMErrors(t *testing.T) {
	app := newTestApplication(t)

	err := app.LoadROM(filepath.Join(t.TempDir(), "missing.gb"))
	var appErr *ApplicationError
	if !errors.As(err, &appErr) || appErr.Component != "cartridge" {
		t.Errorf("Expected cartridge ApplicationError, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.gb")
	if err := os.WriteFile(path, make([]byte, 1000), 0644); err != nil {
		t.Fatal(err)
	}
	err = app.LoadROM(path)
	var sizeErr *cartridge.ROMSizeError
	if !errors.As(err, &sizeErr) {
		t.Errorf("Expected ROMSizeError, got %v", err)
	}
}

func TestApplication_LoadROMFromFile(t *testing.T) {
	app := newTestApplication(t)

	path := filepath.Join(t.TempDir(), "rom.gb")
	if err := os.WriteFile(path, cartridge.NewTestROMBuilder().WithType(0x01).Build(), 0644); err != nil {
		t.Fatal(err)
	}
	if err := app.LoadROM(path); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if app.GetROMPath() != path {
		t.Errorf("ROM path not recorded")
	}
	if app.GetBus().Cartridge.Scheme() != cartridge.SchemeMBC1 {
		t.Errorf("Expected MBC1, got %s", app.GetBus().Cartridge.Scheme())
	}
}

func TestApplication_RunStopsAtFrameLimit(t *testing.T) {
	app := newTestApplication(t)
	app.config.Emulation.MaxFrames = 3
	loadTestCartridge(t, app)

	if err := app.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := app.GetEmulator().GetFrameCount(); got != 3 {
		t.Errorf("Expected 3 frames, got %d", got)
	}
	if app.IsRunning() {
		t.Error("Application should have stopped")
	}
}

func TestApplication_RunHonoursCancellation(t *testing.T) {
	app := newTestApplication(t)
	loadTestCartridge(t, app)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := app.RunContext(ctx); err != nil {
		t.Fatalf("RunContext failed: %v", err)
	}
	if got := app.GetEmulator().GetFrameCount(); got != 0 {
		t.Errorf("Cancelled run executed %d frames", got)
	}
}

func TestApplication_PauseSkipsEmulation(t *testing.T) {
	app := newTestApplication(t)
	loadTestCartridge(t, app)

	app.Pause()
	if err := app.frame(true); err != nil {
		t.Fatal(err)
	}
	if app.GetEmulator().GetFrameCount() != 0 {
		t.Error("Paused application ran a frame")
	}

	app.Resume()
	if err := app.frame(true); err != nil {
		t.Fatal(err)
	}
	if app.GetEmulator().GetFrameCount() != 1 {
		t.Error("Resumed application should run a frame")
	}
}

func TestApplication_BatterySavedOnCleanup(t *testing.T) {
	app := newTestApplication(t)
	loadTestCartridge(t, app)

	b := app.GetBus()
	b.Write(0x0000, 0x0A)
	b.Write(0xA000, 0x77)

	if err := app.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if !app.saves.HasSave("savetest.gb") {
		t.Fatal("Battery file not written on cleanup")
	}

	// A new session picks the RAM back up
	next := newTestApplication(t)
	next.config.Paths.SaveData = app.config.Paths.SaveData
	next.saves = NewSaveManager(app.config.Paths.SaveData)
	loadTestCartridge(t, next)

	nb := next.GetBus()
	nb.Write(0x0000, 0x0A)
	if value, _ := nb.Read(0xA000); value != 0x77 {
		t.Errorf("Expected 0x77 restored, got 0x%02X", value)
	}
}

func TestApplication_Screenshot(t *testing.T) {
	app := newTestApplication(t)

	if _, err := app.Screenshot(); err == nil {
		t.Error("Screenshot without ROM should fail")
	}

	loadTestCartridge(t, app)
	if err := app.GetEmulator().StepFrame(); err != nil {
		t.Fatal(err)
	}

	path, err := app.Screenshot()
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if filepath.Dir(path) != app.config.Paths.Screenshots {
		t.Errorf("Screenshot written to %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Screenshot missing: %v", err)
	}
}

func TestApplication_DumpGraph(t *testing.T) {
	app := newTestApplication(t)
	loadTestCartridge(t, app)

	path := filepath.Join(t.TempDir(), "session.dot")
	if err := app.DumpGraph(path); err != nil {
		t.Fatalf("DumpGraph failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("Graph dump missing or empty: %v", err)
	}
}

func TestApplication_EscapeDoubleTap(t *testing.T) {
	app := newTestApplication(t)
	app.running = true

	esc := graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyEscape, Pressed: true}

	app.handleSpecialInput(esc)
	if !app.IsRunning() {
		t.Fatal("Single ESC should not quit")
	}

	app.handleSpecialInput(esc)
	if app.IsRunning() {
		t.Error("Double ESC should quit")
	}
}

func TestApplication_PauseHotkey(t *testing.T) {
	app := newTestApplication(t)

	if !app.handleSpecialInput(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyP, Pressed: true}) {
		t.Fatal("P should be handled")
	}
	if !app.IsPaused() {
		t.Error("P should pause")
	}
	if app.handleSpecialInput(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyQ, Pressed: true}) {
		t.Error("Q is not a hotkey")
	}
}

func TestGraphicsButtonToInputButton(t *testing.T) {
	tests := []struct {
		in   graphics.Button
		want input.Button
	}{
		{graphics.ButtonA, input.A},
		{graphics.ButtonB, input.B},
		{graphics.ButtonSelect, input.Select},
		{graphics.ButtonStart, input.Start},
		{graphics.ButtonUp, input.Up},
		{graphics.ButtonDown, input.Down},
		{graphics.ButtonLeft, input.Left},
		{graphics.ButtonRight, input.Right},
	}

	for _, tt := range tests {
		got, ok := graphicsButtonToInputButton(tt.in)
		if !ok || got != tt.want {
			t.Errorf("graphicsButtonToInputButton(%d) = %v, %t", tt.in, got, ok)
		}
	}

	if _, ok := graphicsButtonToInputButton(graphics.ButtonUnknown); ok {
		t.Error("Unknown button should not map")
	}
}
