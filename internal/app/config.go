// Package app provides the emulator session and the application shell
// around it.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gogb/internal/display"
	"gogb/internal/graphics"
	"gogb/internal/scheduler"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Resizable  bool `json:"resizable"`
	Scale      int  `json:"scale"` // LCD resolution multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	VSync   bool   `json:"vsync"`
	Filter  string `json:"filter"`  // "nearest", "linear"
	Backend string `json:"backend"` // "ebitengine", "headless", "terminal"
	Palette string `json:"palette"` // "gray", "green"

	// Weight of the previous frame in LCD ghosting, 0 disables it
	Ghosting float64 `json:"ghosting"`
}

// InputConfig contains input configuration
type InputConfig struct {
	Keys KeyMapping `json:"keys"`
}

// KeyMapping represents keyboard key mappings for the joypad
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	Model       string  `json:"model"`         // "DMG", "CGB", "auto"
	FrameTimeMs float64 `json:"frame_time_ms"` // Emulated time per frame
	RefreshRate float64 `json:"refresh_rate"`  // Host frames per second
	AutoSave    bool    `json:"auto_save"`     // Write battery RAM on exit
	MaxFrames   int     `json:"max_frames"`    // Headless run length, 0 for unlimited
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	ShowFPS       bool   `json:"show_fps"`
	LogLevel      string `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
	StatsView     bool   `json:"statsview"`
	StatsViewAddr string `json:"statsview_addr"`
	MemvizPath    string `json:"memviz_path"`
	Watchpoints   []int  `json:"watchpoints"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs        string `json:"roms"`
	SaveData    string `json:"save_data"`
	Screenshots string `json:"screenshots"`
	Config      string `json:"config"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	config := &Config{
		Window: WindowConfig{
			Width:      display.Width * 4,
			Height:     display.Height * 4,
			Fullscreen: false,
			Resizable:  true,
			Scale:      4, // 640x576
		},
		Video: VideoConfig{
			VSync:   true,
			Filter:  "nearest",
			Backend: "ebitengine", // Default to Ebitengine for GUI mode
			Palette: "green",
		},
		Input: InputConfig{
			Keys: KeyMapping{
				Up:     "Up",
				Down:   "Down",
				Left:   "Left",
				Right:  "Right",
				A:      "X",
				B:      "Z",
				Start:  "Enter",
				Select: "Backspace",
			},
		},
		Emulation: EmulationConfig{
			Model:       "auto",
			FrameTimeMs: scheduler.FrameTimeMs,
			RefreshRate: scheduler.RefreshRate,
			AutoSave:    true,
		},
		Debug: DebugConfig{
			ShowFPS:       false,
			LogLevel:      "INFO",
			StatsView:     false,
			StatsViewAddr: "localhost:18066",
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			SaveData:    "./saves",
			Screenshots: "./screenshots",
			Config:      "./config",
		},
		loaded: false,
	}

	return config
}

// LoadFromFile loads configuration from a JSON file
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	// File doesn't exist - save default config and return
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.createDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}

	return c.SaveToFile(c.configPath)
}

// validate validates the configuration values
func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ConfigError{Field: "window", Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height), Err: fmt.Errorf("invalid window dimensions")}
	}

	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	switch strings.ToLower(c.Video.Backend) {
	case "ebitengine", "headless", "terminal":
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: fmt.Errorf("unknown backend")}
	}

	switch strings.ToLower(c.Video.Palette) {
	case "gray", "green":
	default:
		c.Video.Palette = "green"
	}

	switch strings.ToUpper(c.Emulation.Model) {
	case "DMG", "CGB", "AUTO":
	default:
		return &ConfigError{Field: "emulation.model", Value: c.Emulation.Model, Err: fmt.Errorf("expected DMG, CGB or auto")}
	}

	if c.Video.Ghosting < 0 || c.Video.Ghosting > 0.9 {
		return &ConfigError{Field: "video.ghosting", Value: c.Video.Ghosting, Err: fmt.Errorf("expected 0 to 0.9")}
	}

	for name, key := range c.Input.Keys.names() {
		if graphics.KeyFromName(key) == graphics.KeyUnknown {
			return &ConfigError{Field: "input.keys." + name, Value: key, Err: fmt.Errorf("unknown key")}
		}
	}

	if c.Emulation.FrameTimeMs <= 0 {
		c.Emulation.FrameTimeMs = scheduler.FrameTimeMs
	}

	if c.Emulation.RefreshRate <= 0 {
		c.Emulation.RefreshRate = scheduler.RefreshRate
	}

	if c.Emulation.MaxFrames < 0 {
		c.Emulation.MaxFrames = 0
	}

	for _, address := range c.Debug.Watchpoints {
		if address < 0 || address > 0xFFFF {
			return &ConfigError{Field: "debug.watchpoints", Value: address, Err: fmt.Errorf("address outside 16-bit space")}
		}
	}

	return nil
}

// createDirectories creates required directories
func (c *Config) createDirectories() error {
	dirs := []string{
		c.Paths.SaveData,
		c.Paths.Screenshots,
	}

	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetLCDResolution returns the native LCD resolution
func (c *Config) GetLCDResolution() (int, int) {
	return display.Width, display.Height
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	width, height := c.GetLCDResolution()
	return width * c.Window.Scale, height * c.Window.Scale
}

// GetPalette returns the shade colours selected by Video.Palette
func (c *Config) GetPalette() [4]uint32 {
	if strings.ToLower(c.Video.Palette) == "gray" {
		return display.PaletteGray
	}
	return display.PaletteGreen
}

func (k KeyMapping) names() map[string]string {
	return map[string]string{
		"up":     k.Up,
		"down":   k.Down,
		"left":   k.Left,
		"right":  k.Right,
		"a":      k.A,
		"b":      k.B,
		"start":  k.Start,
		"select": k.Select,
	}
}

// GetBindings resolves the configured key names to joypad bindings
func (c *Config) GetBindings() map[graphics.Key]graphics.Button {
	k := c.Input.Keys
	bindings := make(map[graphics.Key]graphics.Button)
	for name, button := range map[string]graphics.Button{
		k.Up:     graphics.ButtonUp,
		k.Down:   graphics.ButtonDown,
		k.Left:   graphics.ButtonLeft,
		k.Right:  graphics.ButtonRight,
		k.A:      graphics.ButtonA,
		k.B:      graphics.ButtonB,
		k.Start:  graphics.ButtonStart,
		k.Select: graphics.ButtonSelect,
	} {
		if key := graphics.KeyFromName(name); key != graphics.KeyUnknown {
			bindings[key] = button
		}
	}
	return bindings
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	// Copy non-serialized fields
	clone.configPath = c.configPath
	clone.loaded = c.loaded

	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/gogb.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
