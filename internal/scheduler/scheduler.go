// Package scheduler paces the CPU, display and timer in lockstep, one
// host refresh at a time.
package scheduler

import (
	"fmt"

	"gogb/internal/input"
	"gogb/internal/logger"
)

// Clock rates in CPU clocks per second.
const (
	DMGClockRate = 4194304
	CGBClockRate = 8388608
)

// Refresh timing of the LCD.
const (
	RefreshRate = 59.7    // Hz
	FrameTimeMs = 16.7504 // ms
)

// CPU executes one instruction per Step and reports the clocks it took.
type CPU interface {
	Step() (int, error)
}

// Stepper is a component advanced by a number of CPU clocks.
type Stepper interface {
	Step(cycles int) error
}

// InputSource is polled once per frame for button transitions.
type InputSource interface {
	Poll() []input.Event
}

// InputSink receives the polled transitions.
type InputSink interface {
	Apply(events []input.Event)
}

// Scheduler runs whole frames of emulated time.
type Scheduler struct {
	cpu     CPU
	display Stepper
	timer   Stepper

	source InputSource
	sink   InputSink

	clockRate   int
	frameTimeMs float64
	mainCycles  int

	// clocks already spent into the next frame
	currentCycles int

	frames      uint64
	totalCycles uint64
}

// New creates a scheduler at the DMG clock rate.
func New(cpu CPU, display, timer Stepper) *Scheduler {
	s := &Scheduler{
		cpu:         cpu,
		display:     display,
		timer:       timer,
		frameTimeMs: FrameTimeMs,
	}
	s.SetClockRate(DMGClockRate)
	return s
}

// SetCPU replaces the core stepped by RunFrame. The cycle counter carries
// over, so a swap mid-session keeps the frame boundary.
func (s *Scheduler) SetCPU(cpu CPU) {
	s.cpu = cpu
}

// SetInput connects the per-frame input poll. Either may be nil.
func (s *Scheduler) SetInput(source InputSource, sink InputSink) {
	s.source = source
	s.sink = sink
}

// SetClockRate changes the CPU clock and recomputes the frame budget.
func (s *Scheduler) SetClockRate(rate int) {
	s.clockRate = rate
	s.recompute()
}

// SetFrameTime changes the emulated time per frame in milliseconds.
func (s *Scheduler) SetFrameTime(ms float64) {
	if ms <= 0 {
		ms = FrameTimeMs
	}
	s.frameTimeMs = ms
	s.recompute()
}

func (s *Scheduler) recompute() {
	cyclesPerMs := s.clockRate / 1000
	s.mainCycles = int(float64(cyclesPerMs) * s.frameTimeMs)
	logger.Debugf("SCHED", "clock %d Hz, %d cycles per %.4f ms frame", s.clockRate, s.mainCycles, s.frameTimeMs)
}

// ClockRate returns the CPU clock in Hz.
func (s *Scheduler) ClockRate() int {
	return s.clockRate
}

// MainCycles returns the per-frame cycle budget.
func (s *Scheduler) MainCycles() int {
	return s.mainCycles
}

// Frames returns the number of completed frames.
func (s *Scheduler) Frames() uint64 {
	return s.frames
}

// TotalCycles returns the CPU clocks executed since creation.
func (s *Scheduler) TotalCycles() uint64 {
	return s.totalCycles
}

// RunFrame polls input once and then steps CPU, display and timer in that
// order until the frame budget is spent. The overshoot of the last
// instruction counts against the next frame.
func (s *Scheduler) RunFrame() error {
	if s.source != nil {
		events := s.source.Poll()
		if s.sink != nil && len(events) > 0 {
			s.sink.Apply(events)
		}
	}

	for s.currentCycles < s.mainCycles {
		cycles, err := s.cpu.Step()
		if err != nil {
			return fmt.Errorf("cpu step at frame %d: %w", s.frames, err)
		}
		if cycles <= 0 {
			return fmt.Errorf("cpu step at frame %d returned %d cycles", s.frames, cycles)
		}
		if err := s.display.Step(cycles); err != nil {
			return fmt.Errorf("display step at frame %d: %w", s.frames, err)
		}
		if err := s.timer.Step(cycles); err != nil {
			return fmt.Errorf("timer step at frame %d: %w", s.frames, err)
		}
		s.currentCycles += cycles
		s.totalCycles += uint64(cycles)
	}

	s.currentCycles -= s.mainCycles
	s.frames++
	return nil
}

// Run runs frames frames, stopping at the first error.
func (s *Scheduler) Run(frames int) error {
	for i := 0; i < frames; i++ {
		if err := s.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}
