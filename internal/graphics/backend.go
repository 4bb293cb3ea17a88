// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"strings"

	"gogb/internal/display"
)

// Frame dimensions
const (
	FrameWidth  = display.Width
	FrameHeight = display.Height
	FrameSize   = FrameWidth * FrameHeight
)

// Backend represents a graphics rendering backend (Ebitengine, terminal, ...)
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// SwapBuffers presents the rendered frame
	SwapBuffers()

	// PollEvents processes input events
	PollEvents() []InputEvent

	// RenderFrame renders a 160x144 frame of 0x00RRGGBB pixels
	RenderFrame(frameBuffer []uint32) error

	// Cleanup releases window resources
	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	// Rendering configuration
	Filter  string // "nearest", "linear"
	ShowFPS bool

	// Key to joypad button bindings, DefaultBindings when nil
	Bindings map[Key]Button

	// Backend-specific options
	Headless bool
	Debug    bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type      InputEventType
	Key       Key
	Button    Button
	Pressed   bool
	Modifiers ModifierKey
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeButton
	InputEventTypeQuit
)

// Key represents keyboard keys
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyBackspace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[string]Key{
	"escape":    KeyEscape,
	"enter":     KeyEnter,
	"return":    KeyEnter,
	"space":     KeySpace,
	"backspace": KeyBackspace,
	"tab":       KeyTab,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"f1":        KeyF1,
	"f2":        KeyF2,
	"f3":        KeyF3,
	"f4":        KeyF4,
	"f5":        KeyF5,
	"f6":        KeyF6,
	"f7":        KeyF7,
	"f8":        KeyF8,
	"f9":        KeyF9,
	"f10":       KeyF10,
	"f11":       KeyF11,
	"f12":       KeyF12,
}

// KeyFromName resolves a key name as written in the configuration file
// ("Up", "Enter", "X", "F5"). Unknown names return KeyUnknown.
func KeyFromName(name string) Key {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) == 1 && name[0] >= 'a' && name[0] <= 'z' {
		return KeyA + Key(name[0]-'a')
	}
	if key, ok := keyNames[name]; ok {
		return key
	}
	return KeyUnknown
}

// Button represents joypad buttons
type Button int

const (
	ButtonUnknown Button = iota
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// DefaultBindings returns the built-in key to button mapping.
func DefaultBindings() map[Key]Button {
	return map[Key]Button{
		KeyUp:        ButtonUp,
		KeyDown:      ButtonDown,
		KeyLeft:      ButtonLeft,
		KeyRight:     ButtonRight,
		KeyX:         ButtonA,
		KeyZ:         ButtonB,
		KeyEnter:     ButtonStart,
		KeyBackspace: ButtonSelect,
	}
}

// MapKeyEvents converts key events bound to a button into button events.
// Other events pass through unchanged.
func MapKeyEvents(events []InputEvent, bindings map[Key]Button) []InputEvent {
	if bindings == nil {
		bindings = DefaultBindings()
	}

	mapped := make([]InputEvent, 0, len(events))
	for _, event := range events {
		if event.Type == InputEventTypeKey {
			if button, ok := bindings[event.Key]; ok {
				mapped = append(mapped, InputEvent{
					Type:    InputEventTypeButton,
					Button:  button,
					Pressed: event.Pressed,
				})
				continue
			}
		}
		mapped = append(mapped, event)
	}
	return mapped
}

// ModifierKey represents modifier keys
type ModifierKey int

const (
	ModifierNone  ModifierKey = 0
	ModifierShift ModifierKey = 1 << iota
	ModifierCtrl
	ModifierAlt
	ModifierSuper
)

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		// Default to Ebitengine for GUI mode
		return NewEbitengineBackend(), nil
	}
}

// Helper type assertion functions

// AsEbitengineWindow tries to cast a Window to EbitengineWindow
func AsEbitengineWindow(window Window) (*EbitengineWindow, bool) {
	if ebitengineWindow, ok := window.(*EbitengineWindow); ok {
		return ebitengineWindow, true
	}
	return nil, false
}
