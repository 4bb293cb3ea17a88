package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gogb/internal/bus"
	"gogb/internal/cartridge"
	"gogb/internal/graphics"
	"gogb/internal/input"
	"gogb/internal/inspect"
	"gogb/internal/logger"
	"gogb/internal/statsview"
)

// escConfirmWindow is how long a first ESC waits for the second
const escConfirmWindow = 3 * time.Second

// Application represents the emulator application: a session plus the
// window, input and file handling around it.
type Application struct {
	// Core emulation components
	bus *bus.Bus

	// Graphics backend
	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor

	// Application state
	config   *Config
	emulator *Emulator
	saves    *SaveManager
	stats    *statsview.Server

	// Control flags
	running     bool
	paused      bool
	initialized bool
	headless    bool

	// Performance tracking
	frameCount      uint64
	startTime       time.Time
	lastFPSTime     time.Time
	framesAtLastFPS uint64
	currentFPS      float64

	// ROM management
	romPath   string
	cartridge *cartridge.Cartridge

	// ESC key confirmation tracking
	lastESCTime time.Time
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates a new windowed application
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode creates a new application with optional headless mode
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	config := NewConfig()
	if configPath != "" {
		if err := config.LoadFromFile(configPath); err != nil {
			logger.Warnf("APP", "could not load config from %s, using defaults: %v", configPath, err)
		}
	}

	return NewApplicationWithConfig(config, headless)
}

// NewApplicationWithConfig creates an application from an existing config
func NewApplicationWithConfig(config *Config, headless bool) (*Application, error) {
	app := &Application{
		config:      config,
		headless:    headless,
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	logger.SetLevel(logger.ParseLevel(config.Debug.LogLevel))

	if err := app.initializeComponents(headless); err != nil {
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents(headless bool) error {
	app.bus = bus.New()

	if err := app.initializeGraphicsBackend(headless); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.emulator = NewEmulator(app.bus, app.config)
	app.saves = NewSaveManager(app.config.Paths.SaveData)

	if app.config.Debug.StatsView && statsview.Available() {
		app.stats = statsview.Launch(app.config.Debug.StatsViewAddr, os.Stderr)
	}

	app.initialized = true
	return nil
}

// initializeGraphicsBackend initializes the graphics backend based on configuration
func (app *Application) initializeGraphicsBackend(headless bool) error {
	var backendType graphics.BackendType
	if headless {
		backendType = graphics.BackendHeadless
	} else {
		switch strings.ToLower(app.config.Video.Backend) {
		case "headless":
			backendType = graphics.BackendHeadless
		case "terminal":
			backendType = graphics.BackendTerminal
		default:
			backendType = graphics.BackendEbitengine
		}
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("failed to create graphics backend: %w", err)
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "gogb",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		ShowFPS:      app.config.Debug.ShowFPS,
		Bindings:     app.config.GetBindings(),
		Headless:     headless,
		Debug:        logger.Enabled(logger.LevelDebug),
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		// Without a display, fall back to headless
		if backendType != graphics.BackendEbitengine {
			return fmt.Errorf("failed to initialize graphics backend: %w", err)
		}
		logger.Warnf("APP", "Ebitengine backend failed (%v), falling back to headless mode", err)
		app.graphicsBackend, err = graphics.CreateBackend(graphics.BackendHeadless)
		if err != nil {
			return fmt.Errorf("failed to create fallback headless backend: %w", err)
		}
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
		app.headless = true
	}

	if !app.headless && !app.graphicsBackend.IsHeadless() {
		app.window, err = app.graphicsBackend.CreateWindow(
			graphicsConfig.WindowTitle,
			graphicsConfig.WindowWidth,
			graphicsConfig.WindowHeight,
		)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
	}

	app.videoProcessor = graphics.NewVideoProcessor(1.0, float32(app.config.Video.Ghosting))
	return nil
}

// LoadROM loads a ROM file, restores its battery RAM and starts emulation
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	return app.loadCartridge(cart, romPath)
}

func (app *Application) loadCartridge(cart *cartridge.Cartridge, romPath string) error {
	if err := app.saves.Load(cart, romPath); err != nil {
		return &ApplicationError{Component: "saves", Operation: "load battery", Err: err}
	}

	app.cartridge = cart
	app.romPath = romPath

	app.bus.LoadCartridge(cart)
	app.emulator.ConfigureModel(cart.Metadata())
	app.emulator.Reset()
	app.videoProcessor.Reset()

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("gogb - %s", app.title()))
	}

	app.emulator.Start()
	logger.Infof("APP", "loaded %s (%s, %s)", filepath.Base(romPath), cart.Scheme(), app.emulator.Model())
	return nil
}

func (app *Application) title() string {
	if app.cartridge != nil && app.cartridge.Metadata().Title != "" {
		return app.cartridge.Metadata().Title
	}
	return strings.TrimSuffix(filepath.Base(app.romPath), filepath.Ext(app.romPath))
}

// Run starts the main application loop
func (app *Application) Run() error {
	return app.RunContext(context.Background())
}

// RunContext runs until the window closes, the frame limit is reached or
// ctx is cancelled. Cancellation is checked between frames.
func (app *Application) RunContext(ctx context.Context) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = app.startTime

	logger.Debugf("APP", "starting with %s backend", app.graphicsBackend.GetName())

	if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
		ebitengineWindow.SetEmulatorUpdateFunc(func() error {
			if err := ctx.Err(); err != nil {
				app.Stop()
			}
			if err := app.frame(false); err != nil {
				return err
			}
			if !app.running {
				ebitengineWindow.Cleanup()
			}
			return nil
		})
		return ebitengineWindow.Run()
	}

	targetFrameTime := app.emulator.GetTargetFrameTime()
	for app.running {
		if err := ctx.Err(); err != nil {
			app.Stop()
			break
		}

		frameStart := time.Now()
		if err := app.frame(app.headless); err != nil {
			return err
		}

		// Unpaced in headless mode
		if !app.headless {
			if remaining := targetFrameTime - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}

	logger.Debugf("APP", "main loop ended after %d frames", app.emulator.GetFrameCount())
	return nil
}

// frame runs one host iteration: input, emulation and rendering. In
// stepped mode exactly one emulated frame runs, otherwise the emulator
// paces itself against wall time.
func (app *Application) frame(stepped bool) error {
	app.processInput()

	if err := app.updateEmulator(stepped); err != nil {
		app.Stop()
		return err
	}

	if err := app.render(); err != nil {
		logger.Errorf("APP", "render error: %v", err)
	}
	app.updatePerformanceMetrics()

	if app.window != nil && app.window.ShouldClose() {
		app.Stop()
	}

	if limit := app.config.Emulation.MaxFrames; limit > 0 && app.emulator.GetFrameCount() >= uint64(limit) {
		logger.Infof("APP", "frame limit %d reached", limit)
		app.Stop()
	}

	return nil
}

// updateEmulator updates the emulator state
func (app *Application) updateEmulator(stepped bool) error {
	if app.paused || app.cartridge == nil {
		return nil
	}

	var err error
	if stepped {
		err = app.emulator.StepFrame()
	} else {
		err = app.emulator.Update()
	}
	if err != nil {
		return &ApplicationError{Component: "emulator", Operation: "run frame", Err: err}
	}
	return nil
}

// processInput processes input events from graphics backend
func (app *Application) processInput() {
	if app.window == nil {
		return
	}

	var joypad []input.Event
	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
			return

		case graphics.InputEventTypeButton:
			if button, ok := graphicsButtonToInputButton(event.Button); ok {
				joypad = append(joypad, input.Event{Button: button, Pressed: event.Pressed})
			}

		case graphics.InputEventTypeKey:
			app.handleSpecialInput(event)
		}
	}

	if len(joypad) > 0 && app.cartridge != nil {
		app.emulator.PushInput(joypad...)
	}
}

// handleSpecialInput handles the emulator hotkeys
func (app *Application) handleSpecialInput(event graphics.InputEvent) bool {
	if !event.Pressed {
		return false
	}

	// ESC quits on a double tap
	if event.Key == graphics.KeyEscape {
		now := time.Now()
		if !app.lastESCTime.IsZero() && now.Sub(app.lastESCTime) < escConfirmWindow {
			logger.Infof("APP", "ESC double-tap confirmed, shutting down")
			app.Stop()
		} else {
			logger.Infof("APP", "press ESC again within %s to quit", escConfirmWindow)
			app.lastESCTime = now
		}
		return true
	}
	app.lastESCTime = time.Time{}

	switch event.Key {
	case graphics.KeyP:
		app.TogglePause()
		logger.Infof("APP", "paused: %t", app.paused)
	case graphics.KeyF1:
		app.Reset()
	case graphics.KeyF5:
		if err := app.SaveBattery(); err != nil {
			logger.Errorf("APP", "battery save failed: %v", err)
		}
	case graphics.KeyF12:
		if path, err := app.Screenshot(); err != nil {
			logger.Errorf("APP", "screenshot failed: %v", err)
		} else {
			logger.Infof("APP", "screenshot saved to %s", path)
		}
	default:
		return false
	}
	return true
}

// graphicsButtonToInputButton converts graphics.Button to input.Button
func graphicsButtonToInputButton(gButton graphics.Button) (input.Button, bool) {
	switch gButton {
	case graphics.ButtonA:
		return input.A, true
	case graphics.ButtonB:
		return input.B, true
	case graphics.ButtonSelect:
		return input.Select, true
	case graphics.ButtonStart:
		return input.Start, true
	case graphics.ButtonUp:
		return input.Up, true
	case graphics.ButtonDown:
		return input.Down, true
	case graphics.ButtonLeft:
		return input.Left, true
	case graphics.ButtonRight:
		return input.Right, true
	}
	return 0, false
}

// render renders the current frame
func (app *Application) render() error {
	if app.window == nil || app.cartridge == nil {
		return nil
	}

	frameBuffer := app.videoProcessor.ProcessFrame(app.emulator.GetFrameBuffer())
	if err := app.window.RenderFrame(frameBuffer); err != nil {
		return fmt.Errorf("failed to render frame: %w", err)
	}

	app.window.SwapBuffers()
	return nil
}

// updatePerformanceMetrics refreshes the FPS figure every second
func (app *Application) updatePerformanceMetrics() {
	app.frameCount++

	now := time.Now()
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}

	app.currentFPS = float64(app.frameCount-app.framesAtLastFPS) / elapsed.Seconds()
	app.framesAtLastFPS = app.frameCount
	app.lastFPSTime = now

	logger.Debugf("APP", "%.1f FPS, %.0f%% speed, %d dropped",
		app.currentFPS, app.emulator.GetEmulationSpeed(), app.emulator.GetDroppedFrames())
}

// Screenshot writes the current frame as PNG into the screenshot directory
func (app *Application) Screenshot() (string, error) {
	if app.cartridge == nil {
		return "", errors.New("no ROM loaded")
	}

	path := graphics.ScreenshotName(app.config.Paths.Screenshots, app.title(), time.Now())
	if err := graphics.SavePNG(path, app.emulator.GetFrameBuffer(), app.config.Window.Scale); err != nil {
		return "", err
	}
	return path, nil
}

// SaveBattery writes battery-backed RAM to disk
func (app *Application) SaveBattery() error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	return app.saves.Save(app.cartridge, app.romPath)
}

// sessionView is the part of the session worth graphing. Memory images
// are left out.
type sessionView struct {
	Header     *cartridge.Metadata
	Scheme     string
	RTC        *cartridge.RTC
	Model      string
	ClockRate  int
	MainCycles int
	Frames     uint64
	Cycles     uint64
	DIV        uint8
	Paused     bool
}

// DumpGraph writes a Graphviz view of the session state to path
func (app *Application) DumpGraph(path string) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}

	sched := app.emulator.Scheduler()
	view := &sessionView{
		Header:     app.cartridge.Metadata(),
		Scheme:     app.cartridge.Scheme().String(),
		RTC:        app.cartridge.RTC(),
		Model:      app.emulator.Model(),
		ClockRate:  sched.ClockRate(),
		MainCycles: sched.MainCycles(),
		Frames:     sched.Frames(),
		Cycles:     sched.TotalCycles(),
		DIV:        app.bus.Timer.DIV(),
		Paused:     app.paused,
	}
	return inspect.DumpGraph(path, view)
}

// Stop stops the application
func (app *Application) Stop() {
	app.running = false
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.paused = true
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.paused = false
}

// TogglePause toggles pause state
func (app *Application) TogglePause() {
	app.paused = !app.paused
}

// Reset resets the emulated system. Battery RAM survives.
func (app *Application) Reset() {
	if app.bus != nil {
		app.bus.Reset()
	}
	if app.emulator != nil {
		app.emulator.Reset()
	}
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running
}

// IsPaused returns whether the emulator is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// IsHeadless returns whether the application runs without a window
func (app *Application) IsHeadless() bool {
	return app.headless
}

// GetFPS returns the current FPS
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the number of host frames run
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the application uptime
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// GetBus returns the bus for direct access
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetEmulator returns the emulation session
func (app *Application) GetEmulator() *Emulator {
	return app.emulator
}

// Cleanup writes battery RAM and releases all resources
func (app *Application) Cleanup() error {
	var lastErr error

	if app.cartridge != nil && app.config.Emulation.AutoSave {
		if err := app.SaveBattery(); err != nil {
			lastErr = err
			logger.Errorf("APP", "battery save error: %v", err)
		}
	}

	if app.emulator != nil {
		if err := app.emulator.Cleanup(); err != nil {
			lastErr = err
			logger.Errorf("APP", "emulator cleanup error: %v", err)
		}
	}

	if app.stats != nil {
		app.stats.Stop()
		app.stats = nil
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			logger.Errorf("APP", "window cleanup error: %v", err)
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			logger.Errorf("APP", "graphics backend cleanup error: %v", err)
		}
	}

	app.initialized = false
	logger.Flush()
	return lastErr
}
