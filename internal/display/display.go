// Package display implements the LCD controller: the scanline timing state
// machine, the LCD registers and a background renderer.
package display

import (
	"gogb/internal/memory"
)

// Screen dimensions.
const (
	Width  = 160
	Height = 144
)

// Timing in CPU clocks at base speed.
const (
	DotsPerLine    = 456
	Lines          = 154
	VBlankLine     = 144
	oamScanDots    = 80
	transferDots   = 172
	CyclesPerFrame = DotsPerLine * Lines
)

// LCD registers.
const (
	RegLCDC = 0xFF40
	RegSTAT = 0xFF41
	RegSCY  = 0xFF42
	RegSCX  = 0xFF43
	RegLY   = 0xFF44
	RegLYC  = 0xFF45
	RegBGP  = 0xFF47
	RegOBP0 = 0xFF48
	RegOBP1 = 0xFF49
	RegWY   = 0xFF4A
	RegWX   = 0xFF4B
)

// Mode is the STAT mode field.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAMScan
	ModeTransfer
)

const (
	lcdcEnable      = 0x80
	lcdcWindowMap   = 0x40
	lcdcWindow      = 0x20
	lcdcTileData    = 0x10
	lcdcBGMap       = 0x08
	lcdcBGEnable    = 0x01
	statLYCIRQ      = 0x40
	statOAMIRQ      = 0x20
	statVBlankIRQ   = 0x10
	statHBlankIRQ   = 0x08
	statCoincidence = 0x04
)

// Palettes map the four DMG shades to 0x00RRGGBB colours.
var (
	PaletteGray  = [4]uint32{0xFFFFFF, 0xAAAAAA, 0x555555, 0x000000}
	PaletteGreen = [4]uint32{0xE0F8D0, 0x88C070, 0x346856, 0x081820}
)

// LCD is the display controller.
type LCD struct {
	// Registers
	lcdc uint8
	stat uint8 // bits 3-6 only, mode and coincidence are derived
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	bgp  uint8
	obp0 uint8
	obp1 uint8
	wy   uint8
	wx   uint8

	// Timing state
	dot        int
	mode       Mode
	statLine   bool
	windowLine int
	frameCount uint64
	frameReady bool

	vram    []uint8
	irq     memory.InterruptRequester
	palette [4]uint32

	frameBuffer [Width * Height]uint32

	frameCompleteCallback func()
}

// New creates an LCD reading tiles from vram.
func New(vram []uint8, irq memory.InterruptRequester) *LCD {
	l := &LCD{vram: vram, irq: irq, palette: PaletteGray}
	l.Reset()
	return l
}

// Reset restores post-boot register values and clears the screen.
func (l *LCD) Reset() {
	l.lcdc = 0x91
	l.stat = 0
	l.scy, l.scx = 0, 0
	l.ly, l.lyc = 0, 0
	l.bgp = 0xFC
	l.obp0, l.obp1 = 0xFF, 0xFF
	l.wy, l.wx = 0, 0

	l.dot = 0
	l.mode = ModeOAMScan
	l.statLine = false
	l.windowLine = 0
	l.frameCount = 0
	l.frameReady = false
	l.ClearFrameBuffer(l.palette[0])
}

// SetPalette selects the colours used for the four shades.
func (l *LCD) SetPalette(palette [4]uint32) {
	l.palette = palette
}

// SetFrameCompleteCallback sets the function run on entering vblank.
func (l *LCD) SetFrameCompleteCallback(callback func()) {
	l.frameCompleteCallback = callback
}

// Step advances the LCD by cycles CPU clocks.
func (l *LCD) Step(cycles int) error {
	if l.lcdc&lcdcEnable == 0 {
		return nil
	}
	for i := 0; i < cycles; i++ {
		l.tick()
	}
	return nil
}

func (l *LCD) tick() {
	l.dot++

	if int(l.ly) < VBlankLine {
		switch l.dot {
		case oamScanDots:
			l.setMode(ModeTransfer)
		case oamScanDots + transferDots:
			l.renderScanline()
			l.setMode(ModeHBlank)
		}
	}

	if l.dot < DotsPerLine {
		return
	}

	l.dot = 0
	l.ly++
	switch {
	case int(l.ly) == VBlankLine:
		l.setMode(ModeVBlank)
		l.irq.RequestInterrupt(memory.InterruptVBlank)
		l.frameCount++
		l.frameReady = true
		if l.frameCompleteCallback != nil {
			l.frameCompleteCallback()
		}
	case int(l.ly) == Lines:
		l.ly = 0
		l.windowLine = 0
		l.setMode(ModeOAMScan)
	case int(l.ly) < VBlankLine:
		l.setMode(ModeOAMScan)
	}
	l.updateStatLine()
}

func (l *LCD) setMode(mode Mode) {
	l.mode = mode
	l.updateStatLine()
}

// updateStatLine raises the STAT interrupt on a rising edge of the OR of
// all enabled STAT sources.
func (l *LCD) updateStatLine() {
	line := false
	if l.stat&statLYCIRQ != 0 && l.ly == l.lyc {
		line = true
	}
	switch l.mode {
	case ModeHBlank:
		line = line || l.stat&statHBlankIRQ != 0
	case ModeVBlank:
		line = line || l.stat&statVBlankIRQ != 0
	case ModeOAMScan:
		line = line || l.stat&statOAMIRQ != 0
	}

	if line && !l.statLine {
		l.irq.RequestInterrupt(memory.InterruptLCDStat)
	}
	l.statLine = line
}

// ReadRegister implements memory.IODevice.
func (l *LCD) ReadRegister(address uint16) uint8 {
	switch address {
	case RegLCDC:
		return l.lcdc
	case RegSTAT:
		value := 0x80 | l.stat | uint8(l.Mode())
		if l.ly == l.lyc {
			value |= statCoincidence
		}
		return value
	case RegSCY:
		return l.scy
	case RegSCX:
		return l.scx
	case RegLY:
		return l.ly
	case RegLYC:
		return l.lyc
	case RegBGP:
		return l.bgp
	case RegOBP0:
		return l.obp0
	case RegOBP1:
		return l.obp1
	case RegWY:
		return l.wy
	case RegWX:
		return l.wx
	}
	return 0xFF
}

// WriteRegister implements memory.IODevice.
func (l *LCD) WriteRegister(address uint16, value uint8) {
	switch address {
	case RegLCDC:
		wasOn := l.lcdc&lcdcEnable != 0
		l.lcdc = value
		if wasOn && value&lcdcEnable == 0 {
			l.ly = 0
			l.dot = 0
			l.mode = ModeHBlank
			l.windowLine = 0
		} else if !wasOn && value&lcdcEnable != 0 {
			l.setMode(ModeOAMScan)
		}
	case RegSTAT:
		l.stat = value & 0x78
		l.updateStatLine()
	case RegSCY:
		l.scy = value
	case RegSCX:
		l.scx = value
	case RegLY:
		// read only
	case RegLYC:
		l.lyc = value
		l.updateStatLine()
	case RegBGP:
		l.bgp = value
	case RegOBP0:
		l.obp0 = value
	case RegOBP1:
		l.obp1 = value
	case RegWY:
		l.wy = value
	case RegWX:
		l.wx = value
	}
}

// Mode returns the current STAT mode. A disabled LCD reports hblank.
func (l *LCD) Mode() Mode {
	if l.lcdc&lcdcEnable == 0 {
		return ModeHBlank
	}
	return l.mode
}

// LY returns the current scanline.
func (l *LCD) LY() int {
	return int(l.ly)
}

// Dot returns the position inside the current scanline.
func (l *LCD) Dot() int {
	return l.dot
}

// FrameReady reports and clears the frame complete flag.
func (l *LCD) FrameReady() bool {
	ready := l.frameReady
	l.frameReady = false
	return ready
}

// GetFrameCount returns the number of frames completed.
func (l *LCD) GetFrameCount() uint64 {
	return l.frameCount
}

// GetFrameBuffer returns the current frame as 0x00RRGGBB pixels.
func (l *LCD) GetFrameBuffer() [Width * Height]uint32 {
	return l.frameBuffer
}

// ClearFrameBuffer fills the frame buffer with color.
func (l *LCD) ClearFrameBuffer(color uint32) {
	for i := range l.frameBuffer {
		l.frameBuffer[i] = color
	}
}
