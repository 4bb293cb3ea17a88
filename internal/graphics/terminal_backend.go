package graphics

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/term"

	"gogb/internal/logger"
)

// defaultTerminalColumns is used when stdout is not a terminal
const defaultTerminalColumns = 80

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow draws frames with ANSI truecolor half blocks: every
// character cell carries two vertically stacked pixels.
type TerminalWindow struct {
	title   string
	width   int
	height  int
	running bool

	out     io.Writer
	columns int
	frame   *image.RGBA
	scaled  *image.RGBA

	bindings map[Key]Button

	// raw mode keyboard reader
	fd       int
	oldState *term.State
	keys     chan byte
	released []Key
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a terminal "window" on stdout. When stdin is a
// terminal it is switched to raw mode for keyboard input.
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	columns := defaultTerminalColumns
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			columns = w
		}
	}

	w := NewTerminalWindow(os.Stdout, columns, b.config.Bindings)
	w.title = title
	w.width = width
	w.height = height

	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if err := w.startKeyboard(fd, os.Stdin); err != nil {
			logger.Warnf("TERM", "keyboard input unavailable: %v", err)
		}
	}

	return w, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// NewTerminalWindow creates a terminal window writing to out, at most
// columns characters wide.
func NewTerminalWindow(out io.Writer, columns int, bindings map[Key]Button) *TerminalWindow {
	if columns <= 0 || columns > FrameWidth {
		columns = FrameWidth
	}
	if bindings == nil {
		bindings = DefaultBindings()
	}

	rows := FrameHeight * columns / FrameWidth
	rows += rows & 1

	return &TerminalWindow{
		running:  true,
		out:      out,
		columns:  columns,
		frame:    image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight)),
		scaled:   image.NewRGBA(image.Rect(0, 0, columns, rows)),
		bindings: bindings,
		fd:       -1,
	}
}

func (w *TerminalWindow) startKeyboard(fd int, in io.Reader) error {
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	w.fd = fd
	w.oldState = oldState
	w.keys = make(chan byte, 64)

	go func() {
		buf := make([]byte, 16)
		for {
			n, err := in.Read(buf)
			for i := 0; i < n; i++ {
				w.keys <- buf[i]
			}
			if err != nil {
				close(w.keys)
				return
			}
		}
	}()
	return nil
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns window dimensions
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers does nothing for terminal
func (w *TerminalWindow) SwapBuffers() {}

// PollEvents drains the keyboard. Terminals report no key releases, so a
// key pressed in one poll is released on the next.
func (w *TerminalWindow) PollEvents() []InputEvent {
	var raw []InputEvent
	for _, key := range w.released {
		raw = append(raw, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: false})
	}
	w.released = nil

	if w.keys == nil {
		return MapKeyEvents(raw, w.bindings)
	}

	var input []byte
drain:
	for {
		select {
		case b, ok := <-w.keys:
			if !ok {
				w.keys = nil
				break drain
			}
			input = append(input, b)
		default:
			break drain
		}
	}

	keys, quit := ParseTerminalInput(input)
	if quit {
		raw = append(raw, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}
	for _, key := range keys {
		raw = append(raw, InputEvent{Type: InputEventTypeKey, Key: key, Pressed: true})
		w.released = append(w.released, key)
	}

	return MapKeyEvents(raw, w.bindings)
}

// ParseTerminalInput decodes raw-mode keyboard bytes. Ctrl-C reports quit.
func ParseTerminalInput(input []byte) (keys []Key, quit bool) {
	for i := 0; i < len(input); i++ {
		b := input[i]
		switch {
		case b == 0x03:
			quit = true
		case b == 0x1B:
			if i+2 < len(input) && input[i+1] == '[' {
				switch input[i+2] {
				case 'A':
					keys = append(keys, KeyUp)
				case 'B':
					keys = append(keys, KeyDown)
				case 'C':
					keys = append(keys, KeyRight)
				case 'D':
					keys = append(keys, KeyLeft)
				}
				i += 2
				continue
			}
			keys = append(keys, KeyEscape)
		case b == '\r' || b == '\n':
			keys = append(keys, KeyEnter)
		case b == 0x7F || b == 0x08:
			keys = append(keys, KeyBackspace)
		case b == ' ':
			keys = append(keys, KeySpace)
		case b == '\t':
			keys = append(keys, KeyTab)
		case b >= 'a' && b <= 'z':
			keys = append(keys, KeyA+Key(b-'a'))
		case b >= 'A' && b <= 'Z':
			keys = append(keys, KeyA+Key(b-'A'))
		}
	}
	return keys, quit
}

// RenderFrame draws the frame downscaled to the terminal width
func (w *TerminalWindow) RenderFrame(frameBuffer []uint32) error {
	if len(frameBuffer) < FrameSize {
		return fmt.Errorf("frame buffer has %d pixels, want %d", len(frameBuffer), FrameSize)
	}

	fillRGBA(w.frame, frameBuffer)
	draw.NearestNeighbor.Scale(w.scaled, w.scaled.Bounds(), w.frame, w.frame.Bounds(), draw.Src, nil)

	bw := bufio.NewWriter(w.out)
	bw.WriteString("\033[H")

	bounds := w.scaled.Bounds()
	for y := 0; y < bounds.Dy(); y += 2 {
		for x := 0; x < bounds.Dx(); x++ {
			top := w.scaled.RGBAAt(x, y)
			bottom := w.scaled.RGBAAt(x, y+1)
			fmt.Fprintf(bw, "\033[38;2;%d;%d;%dm\033[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		bw.WriteString("\033[0m\r\n")
	}

	return bw.Flush()
}

// Cleanup restores the terminal
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	if w.oldState != nil {
		err := term.Restore(w.fd, w.oldState)
		w.oldState = nil
		return err
	}
	return nil
}
