//go:build !headless
// +build !headless

package graphics

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"gogb/internal/logger"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width              int
	height             int
	game               *EbitengineGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error
}

// EbitengineGame implements ebiten.Game for the emulator
type EbitengineGame struct {
	window       *EbitengineWindow
	frameBuffer  [FrameSize]uint32
	frameImage   *ebiten.Image
	windowWidth  int
	windowHeight int

	bindings map[Key]Button
	showFPS  bool

	drawCount int

	// Reusable image buffer
	imageBuffer *image.RGBA
}

var ebitenKeys = map[ebiten.Key]Key{
	ebiten.KeyEscape:     KeyEscape,
	ebiten.KeyEnter:      KeyEnter,
	ebiten.KeySpace:      KeySpace,
	ebiten.KeyBackspace:  KeyBackspace,
	ebiten.KeyTab:        KeyTab,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
	ebiten.KeyA:          KeyA,
	ebiten.KeyB:          KeyB,
	ebiten.KeyC:          KeyC,
	ebiten.KeyD:          KeyD,
	ebiten.KeyE:          KeyE,
	ebiten.KeyF:          KeyF,
	ebiten.KeyG:          KeyG,
	ebiten.KeyH:          KeyH,
	ebiten.KeyI:          KeyI,
	ebiten.KeyJ:          KeyJ,
	ebiten.KeyK:          KeyK,
	ebiten.KeyL:          KeyL,
	ebiten.KeyM:          KeyM,
	ebiten.KeyN:          KeyN,
	ebiten.KeyO:          KeyO,
	ebiten.KeyP:          KeyP,
	ebiten.KeyQ:          KeyQ,
	ebiten.KeyR:          KeyR,
	ebiten.KeyS:          KeyS,
	ebiten.KeyT:          KeyT,
	ebiten.KeyU:          KeyU,
	ebiten.KeyV:          KeyV,
	ebiten.KeyW:          KeyW,
	ebiten.KeyX:          KeyX,
	ebiten.KeyY:          KeyY,
	ebiten.KeyZ:          KeyZ,
	ebiten.KeyF1:         KeyF1,
	ebiten.KeyF2:         KeyF2,
	ebiten.KeyF3:         KeyF3,
	ebiten.KeyF4:         KeyF4,
	ebiten.KeyF5:         KeyF5,
	ebiten.KeyF6:         KeyF6,
	ebiten.KeyF7:         KeyF7,
	ebiten.KeyF8:         KeyF8,
	ebiten.KeyF9:         KeyF9,
	ebiten.KeyF10:        KeyF10,
	ebiten.KeyF11:        KeyF11,
	ebiten.KeyF12:        KeyF12,
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	bindings := b.config.Bindings
	if bindings == nil {
		bindings = DefaultBindings()
	}

	game := &EbitengineGame{
		windowWidth:  width,
		windowHeight: height,
		bindings:     bindings,
		showFPS:      b.config.ShowFPS,
		frameImage:   ebiten.NewImage(FrameWidth, FrameHeight),
		imageBuffer:  image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight)),
	}

	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}

	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)

	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	if b.config.Filter == "linear" {
		ebiten.SetScreenFilterEnabled(true)
	} else {
		ebiten.SetScreenFilterEnabled(false)
	}

	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers is handled automatically by Ebitengine
func (w *EbitengineWindow) SwapBuffers() {}

// PollEvents returns the events gathered since the last call
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame uploads a frame buffer to the window texture
func (w *EbitengineWindow) RenderFrame(frameBuffer []uint32) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	if len(frameBuffer) < FrameSize {
		return fmt.Errorf("frame buffer has %d pixels, want %d", len(frameBuffer), FrameSize)
	}

	copy(w.game.frameBuffer[:], frameBuffer)
	fillRGBA(w.game.imageBuffer, frameBuffer)
	w.game.frameImage.WritePixels(w.game.imageBuffer.Pix)
	return nil
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	return ebiten.RunGame(w.game)
}

// SetEmulatorUpdateFunc sets the function called once per Update tick
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if g.window == nil {
		return nil
	}
	if !g.window.running {
		return ebiten.Termination
	}

	g.processInput()

	if g.window.emulatorUpdateFunc != nil {
		if err := g.window.emulatorUpdateFunc(); err != nil {
			return err
		}
	}

	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0, G: 0, B: 0, A: 255})
	if g.frameImage == nil {
		return
	}

	op := &ebiten.DrawImageOptions{}

	// Fit the window while keeping the aspect ratio
	scaleX := float64(g.windowWidth) / float64(FrameWidth)
	scaleY := float64(g.windowHeight) / float64(FrameHeight)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	offsetX := (float64(g.windowWidth) - float64(FrameWidth)*scale) / 2
	offsetY := (float64(g.windowHeight) - float64(FrameHeight)*scale) / 2

	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)

	if g.showFPS {
		label := fmt.Sprintf("%.1f FPS", ebiten.ActualFPS())
		text.Draw(screen, label, basicfont.Face7x13, 4, 14, color.RGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF})
	}

	g.drawCount++
	if g.drawCount%1800 == 0 {
		logger.Debugf("EBITEN", "frame %d drawn at %.2fx offset (%.1f,%.1f)", g.drawCount, scale, offsetX, offsetY)
	}
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// processInput turns key transitions into events for PollEvents
func (g *EbitengineGame) processInput() {
	if g.window == nil {
		return
	}

	if ebiten.IsWindowBeingClosed() {
		g.window.events = append(g.window.events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}

	var rawKeyEvents []InputEvent
	for ebitenKey, key := range ebitenKeys {
		if inpututil.IsKeyJustPressed(ebitenKey) {
			rawKeyEvents = append(rawKeyEvents, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true})
		} else if inpututil.IsKeyJustReleased(ebitenKey) {
			rawKeyEvents = append(rawKeyEvents, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: false})
		}
	}

	g.window.events = append(g.window.events, MapKeyEvents(rawKeyEvents, g.bindings)...)
}
