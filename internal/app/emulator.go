package app

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"gogb/internal/bus"
	"gogb/internal/cartridge"
	"gogb/internal/cpu"
	"gogb/internal/input"
	"gogb/internal/logger"
	"gogb/internal/scheduler"
)

// maxCatchUpFrames bounds how many frames one Update may run after the
// host stalled.
const maxCatchUpFrames = 4

// Emulator is one emulation session: the bus with its cartridge, the
// scheduler driving it and the frame pacing against wall time.
type Emulator struct {
	bus       *bus.Bus
	config    *Config
	scheduler *scheduler.Scheduler
	input     *InputQueue
	display   *speedDivider

	cgb bool

	// Frame pacing
	now             func() time.Time
	lastUpdateTime  time.Time
	accumulatedTime time.Duration
	targetFrameTime time.Duration

	frameBuffer []uint32

	// Performance monitoring
	emulationTime    time.Duration
	averageFrameTime time.Duration
	timingBuffer     *CircularTimingBuffer
	droppedFrames    uint64

	isRunning     bool
	lastResetTime time.Time
}

// NewEmulator creates a session around b, paced by config
func NewEmulator(b *bus.Bus, config *Config) *Emulator {
	e := &Emulator{
		bus:          b,
		config:       config,
		input:        &InputQueue{},
		display:      &speedDivider{target: b.Display, divisor: 1},
		now:          time.Now,
		frameBuffer:  make([]uint32, len(b.GetFrameBuffer())),
		timingBuffer: NewCircularTimingBuffer(300),
	}

	e.scheduler = scheduler.New(b.CPU, e.display, b.Timer)
	e.scheduler.SetInput(e.input, b.Joypad)
	e.scheduler.SetFrameTime(config.Emulation.FrameTimeMs)
	e.targetFrameTime = time.Duration(float64(time.Second) / config.Emulation.RefreshRate)

	b.Display.SetPalette(config.GetPalette())

	for _, address := range config.Debug.Watchpoints {
		b.AddMemoryWatchpoint(uint16(address))
	}
	b.EnableWatchpointLogging(len(config.Debug.Watchpoints) > 0)

	e.Reset()
	return e
}

// SetCPU plugs core into the bus, whose Reset resets it, and into the
// scheduler, which steps it.
func (e *Emulator) SetCPU(core cpu.Core) {
	e.bus.SetCPU(core)
	e.scheduler.SetCPU(core)
}

// ConfigureModel selects DMG or CGB timing for a cartridge. In "auto" mode
// CGB-enhanced cartridges run in CGB double speed.
func (e *Emulator) ConfigureModel(meta *cartridge.Metadata) {
	switch strings.ToUpper(e.config.Emulation.Model) {
	case "CGB":
		e.cgb = true
	case "DMG":
		e.cgb = false
	default:
		e.cgb = meta != nil && meta.CGB
	}

	if e.cgb {
		e.scheduler.SetClockRate(scheduler.CGBClockRate)
		e.display.divisor = 2
	} else {
		e.scheduler.SetClockRate(scheduler.DMGClockRate)
		e.display.divisor = 1
	}
	e.display.carry = 0
	e.bus.Timer.SetDoubleSpeed(e.cgb)

	logger.Infof("EMU", "model %s, %d cycles per frame", e.Model(), e.scheduler.MainCycles())
}

// Model returns "CGB" or "DMG"
func (e *Emulator) Model() string {
	if e.cgb {
		return "CGB"
	}
	return "DMG"
}

// Reset resets the pacing state and counters
func (e *Emulator) Reset() {
	e.lastUpdateTime = e.now()
	e.lastResetTime = e.lastUpdateTime
	e.accumulatedTime = 0
	e.emulationTime = 0
	e.averageFrameTime = 0
	e.droppedFrames = 0
	e.timingBuffer.Reset()
	e.input.Clear()

	for i := range e.frameBuffer {
		e.frameBuffer[i] = 0
	}
}

// Start starts the emulator
func (e *Emulator) Start() {
	e.isRunning = true
	e.lastUpdateTime = e.now()
	e.accumulatedTime = 0
}

// Stop stops the emulator
func (e *Emulator) Stop() {
	e.isRunning = false
}

// Update runs as many frames as the wall time since the last call covers,
// at most maxCatchUpFrames. Time beyond that is dropped.
func (e *Emulator) Update() error {
	if !e.isRunning {
		return nil
	}

	now := e.now()
	e.accumulatedTime += now.Sub(e.lastUpdateTime)
	e.lastUpdateTime = now

	frames := 0
	for e.accumulatedTime >= e.targetFrameTime {
		if frames == maxCatchUpFrames {
			dropped := uint64(e.accumulatedTime / e.targetFrameTime)
			e.droppedFrames += dropped
			e.accumulatedTime %= e.targetFrameTime
			logger.Debugf("EMU", "host behind, dropped %d frames", dropped)
			break
		}
		if err := e.StepFrame(); err != nil {
			return err
		}
		e.accumulatedTime -= e.targetFrameTime
		frames++
	}

	return nil
}

// StepFrame runs exactly one scheduler frame and captures its output
func (e *Emulator) StepFrame() error {
	if e.bus == nil || e.bus.Cartridge == nil {
		return fmt.Errorf("no cartridge loaded")
	}

	start := time.Now()
	if err := e.scheduler.RunFrame(); err != nil {
		return err
	}

	copy(e.frameBuffer, e.bus.GetFrameBuffer())
	e.bus.CheckMemoryWatchpoints()

	e.emulationTime = time.Since(start)
	e.timingBuffer.Add(e.emulationTime)
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.emulationTime
	} else {
		e.averageFrameTime = time.Duration(float64(e.averageFrameTime)*0.95 + float64(e.emulationTime)*0.05)
	}

	return nil
}

// RunFrames runs n frames back to back without pacing
func (e *Emulator) RunFrames(n int) error {
	for i := 0; i < n; i++ {
		if err := e.StepFrame(); err != nil {
			return err
		}
	}
	return nil
}

// PushInput queues button transitions for the next frame's poll
func (e *Emulator) PushInput(events ...input.Event) {
	e.input.Push(events...)
}

// GetFrameBuffer returns the frame captured at the end of the last frame
func (e *Emulator) GetFrameBuffer() []uint32 {
	return e.frameBuffer
}

// Scheduler returns the session scheduler
func (e *Emulator) Scheduler() *scheduler.Scheduler {
	return e.scheduler
}

// GetFrameCount returns the number of scheduler frames run
func (e *Emulator) GetFrameCount() uint64 {
	return e.scheduler.Frames()
}

// GetCycleCount returns the CPU clocks run
func (e *Emulator) GetCycleCount() uint64 {
	return e.scheduler.TotalCycles()
}

// GetEmulationTime returns the host time spent on the last frame
func (e *Emulator) GetEmulationTime() time.Duration {
	return e.emulationTime
}

// GetAverageFrameTime returns the smoothed host time per frame
func (e *Emulator) GetAverageFrameTime() time.Duration {
	return e.averageFrameTime
}

// GetTargetFrameTime returns the wall time per emulated frame
func (e *Emulator) GetTargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// GetDroppedFrames returns frames skipped because the host fell behind
func (e *Emulator) GetDroppedFrames() uint64 {
	return e.droppedFrames
}

// GetEmulationSpeed returns how much faster than real time frames are
// computed, as a percentage
func (e *Emulator) GetEmulationSpeed() float64 {
	average := e.timingBuffer.GetAverage()
	if average == 0 {
		return 0.0
	}
	return float64(e.targetFrameTime) / float64(average) * 100.0
}

// IsRunning returns whether the emulator is running
func (e *Emulator) IsRunning() bool {
	return e.isRunning
}

// GetUptime returns the emulator uptime since last reset
func (e *Emulator) GetUptime() time.Duration {
	return e.now().Sub(e.lastResetTime)
}

// Cleanup stops the session
func (e *Emulator) Cleanup() error {
	e.Stop()
	e.input.Clear()
	return nil
}

// InputQueue collects button transitions between frames. The scheduler
// drains it once per frame.
type InputQueue struct {
	mu     sync.Mutex
	events []input.Event
}

// Push appends events
func (q *InputQueue) Push(events ...input.Event) {
	q.mu.Lock()
	q.events = append(q.events, events...)
	q.mu.Unlock()
}

// Poll implements scheduler.InputSource
func (q *InputQueue) Poll() []input.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}

// Clear drops pending events
func (q *InputQueue) Clear() {
	q.mu.Lock()
	q.events = nil
	q.mu.Unlock()
}

// speedDivider passes 1/divisor of the CPU clocks to the display, which
// keeps its own pace when the CPU runs at double speed.
type speedDivider struct {
	target  scheduler.Stepper
	divisor int
	carry   int
}

func (d *speedDivider) Step(cycles int) error {
	if d.divisor <= 1 {
		return d.target.Step(cycles)
	}
	total := d.carry + cycles
	d.carry = total % d.divisor
	if n := total / d.divisor; n > 0 {
		return d.target.Step(n)
	}
	return nil
}

// CircularTimingBuffer keeps the most recent durations
type CircularTimingBuffer struct {
	mu       sync.RWMutex
	buffer   []time.Duration
	capacity int
	index    int
	size     int
}

// NewCircularTimingBuffer creates a new circular timing buffer
func NewCircularTimingBuffer(capacity int) *CircularTimingBuffer {
	return &CircularTimingBuffer{
		buffer:   make([]time.Duration, capacity),
		capacity: capacity,
	}
}

// Add adds a timing measurement to the buffer
func (ctb *CircularTimingBuffer) Add(duration time.Duration) {
	ctb.mu.Lock()
	defer ctb.mu.Unlock()

	ctb.buffer[ctb.index] = duration
	ctb.index = (ctb.index + 1) % ctb.capacity

	if ctb.size < ctb.capacity {
		ctb.size++
	}
}

// GetAverage calculates the average of stored durations
func (ctb *CircularTimingBuffer) GetAverage() time.Duration {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()
	return ctb.average()
}

func (ctb *CircularTimingBuffer) average() time.Duration {
	if ctb.size == 0 {
		return 0
	}

	var total time.Duration
	for i := 0; i < ctb.size; i++ {
		total += ctb.buffer[i]
	}
	return total / time.Duration(ctb.size)
}

// GetStdDev returns the standard deviation of stored durations. Squares
// are taken in float64 since a single multi-second stall overflows int64
// nanoseconds squared.
func (ctb *CircularTimingBuffer) GetStdDev() time.Duration {
	ctb.mu.RLock()
	defer ctb.mu.RUnlock()

	if ctb.size < 2 {
		return 0
	}

	avg := float64(ctb.average())
	var variance float64
	for i := 0; i < ctb.size; i++ {
		diff := float64(ctb.buffer[i]) - avg
		variance += diff * diff
	}

	return time.Duration(math.Sqrt(variance / float64(ctb.size)))
}

// Reset clears the buffer
func (ctb *CircularTimingBuffer) Reset() {
	ctb.mu.Lock()
	defer ctb.mu.Unlock()
	ctb.index = 0
	ctb.size = 0
}
