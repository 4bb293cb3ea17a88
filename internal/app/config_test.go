package app

import (
	"errors"
	"path/filepath"
	"testing"

	"gogb/internal/display"
	"gogb/internal/graphics"
)

func TestNewConfig_Defaults(t *testing.T) {
	c := NewConfig()

	if w, h := c.GetWindowResolution(); w != 640 || h != 576 {
		t.Errorf("Expected 640x576 window, got %dx%d", w, h)
	}
	if c.Emulation.FrameTimeMs != 16.7504 {
		t.Errorf("Expected 16.7504 ms frames, got %v", c.Emulation.FrameTimeMs)
	}
	if c.GetPalette() != display.PaletteGreen {
		t.Error("Default palette should be green")
	}
	if err := c.validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config", "gogb.json")

	c := NewConfig()
	c.Video.Palette = "gray"
	c.Emulation.Model = "CGB"
	c.Paths.SaveData = filepath.Join(dir, "saves")
	c.Paths.Screenshots = filepath.Join(dir, "shots")
	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded := NewConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if !loaded.IsLoaded() || loaded.GetConfigPath() != path {
		t.Error("Loaded config should remember its path")
	}
	if loaded.Video.Palette != "gray" || loaded.Emulation.Model != "CGB" {
		t.Errorf("Values not restored: %+v %+v", loaded.Video, loaded.Emulation)
	}
	if loaded.GetPalette() != display.PaletteGray {
		t.Error("Gray palette not selected")
	}
}

func TestConfig_MissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.json")

	c := NewConfig()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if err := NewConfig().LoadFromFile(path); err != nil {
		t.Errorf("Written defaults should load: %v", err)
	}
}

func TestConfig_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"backend", func(c *Config) { c.Video.Backend = "opengl" }, "video.backend"},
		{"model", func(c *Config) { c.Emulation.Model = "GBA" }, "emulation.model"},
		{"window", func(c *Config) { c.Window.Width = 0 }, "window"},
		{"ghosting", func(c *Config) { c.Video.Ghosting = 1.5 }, "video.ghosting"},
		{"key", func(c *Config) { c.Input.Keys.A = "Hyper" }, "input.keys.a"},
		{"watchpoint", func(c *Config) { c.Debug.Watchpoints = []int{0x10000} }, "debug.watchpoints"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConfig()
			tt.modify(c)

			err := c.validate()
			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if configErr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, configErr.Field)
			}
		})
	}
}

func TestConfig_ValidationFillsDefaults(t *testing.T) {
	c := NewConfig()
	c.Emulation.FrameTimeMs = 0
	c.Emulation.RefreshRate = -1
	c.Video.Palette = "purple"
	c.Window.Scale = 0

	if err := c.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if c.Emulation.FrameTimeMs != 16.7504 || c.Emulation.RefreshRate != 59.7 {
		t.Errorf("Timing defaults not restored: %+v", c.Emulation)
	}
	if c.Video.Palette != "green" || c.Window.Scale != 1 {
		t.Errorf("Palette/scale defaults not restored: %s %d", c.Video.Palette, c.Window.Scale)
	}
}

func TestConfig_GetBindings(t *testing.T) {
	c := NewConfig()
	c.Input.Keys.A = "J"

	bindings := c.GetBindings()
	if bindings[graphics.KeyJ] != graphics.ButtonA {
		t.Error("J should be bound to A")
	}
	if _, ok := bindings[graphics.KeyX]; ok {
		t.Error("X should no longer be bound")
	}
	if bindings[graphics.KeyEnter] != graphics.ButtonStart {
		t.Error("Enter should be bound to Start")
	}
	if len(bindings) != 8 {
		t.Errorf("Expected 8 bindings, got %d", len(bindings))
	}
}

func TestConfig_Clone(t *testing.T) {
	c := NewConfig()
	c.Debug.Watchpoints = []int{0xC000}

	clone := c.Clone()
	clone.Debug.Watchpoints[0] = 0xD000
	clone.Video.Palette = "gray"

	if c.Debug.Watchpoints[0] != 0xC000 {
		t.Error("Clone shares the watchpoint slice")
	}
	if c.Video.Palette != "green" {
		t.Error("Clone shares video settings")
	}
}
