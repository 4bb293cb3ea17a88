package graphics

import (
	"fmt"
	"path/filepath"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface for headless operation
type HeadlessWindow struct {
	title      string
	width      int
	height     int
	running    bool
	frameCount int

	// PNG dumps every dumpInterval frames into outputPath, 0 disables
	outputPath   string
	dumpInterval int

	lastFrame [FrameSize]uint32
	pending   []InputEvent
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	return &HeadlessWindow{
		title:      title,
		width:      width,
		height:     height,
		running:    true,
		outputPath: "frame_output",
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers does nothing in headless mode
func (w *HeadlessWindow) SwapBuffers() {}

// QueueEvents schedules events to be returned by the next PollEvents.
// Scripted runs and tests drive input this way.
func (w *HeadlessWindow) QueueEvents(events ...InputEvent) {
	w.pending = append(w.pending, events...)
}

// PollEvents returns the queued events
func (w *HeadlessWindow) PollEvents() []InputEvent {
	events := w.pending
	w.pending = nil
	return events
}

// RenderFrame keeps the frame and optionally writes it to disk
func (w *HeadlessWindow) RenderFrame(frameBuffer []uint32) error {
	if len(frameBuffer) < FrameSize {
		return fmt.Errorf("frame buffer has %d pixels, want %d", len(frameBuffer), FrameSize)
	}

	w.frameCount++
	copy(w.lastFrame[:], frameBuffer)

	if w.dumpInterval > 0 && w.frameCount%w.dumpInterval == 0 {
		filename := filepath.Join(w.outputPath, fmt.Sprintf("frame_%05d.png", w.frameCount))
		return SavePNG(filename, frameBuffer, 1)
	}

	return nil
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// SetOutputPath sets the output path for frame dumps
func (w *HeadlessWindow) SetOutputPath(path string) {
	w.outputPath = path
}

// SetDumpInterval writes every nth rendered frame as PNG
func (w *HeadlessWindow) SetDumpInterval(n int) {
	w.dumpInterval = n
}

// GetFrameCount returns the current frame count
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}

// LastFrame returns a copy of the most recent frame
func (w *HeadlessWindow) LastFrame() [FrameSize]uint32 {
	return w.lastFrame
}
