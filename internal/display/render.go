package display

// renderScanline draws the background and window for line ly.
func (l *LCD) renderScanline() {
	y := int(l.ly)
	row := l.frameBuffer[y*Width : (y+1)*Width]

	if l.lcdc&lcdcBGEnable == 0 {
		for x := range row {
			row[x] = l.palette[0]
		}
		return
	}

	bgMap := 0x1800
	if l.lcdc&lcdcBGMap != 0 {
		bgMap = 0x1C00
	}
	bgY := (y + int(l.scy)) & 0xFF
	for x := 0; x < Width; x++ {
		bgX := (x + int(l.scx)) & 0xFF
		row[x] = l.shade(l.tilePixel(bgMap, bgX, bgY))
	}

	if l.lcdc&lcdcWindow == 0 || y < int(l.wy) || int(l.wx) > Width+6 {
		return
	}
	windowMap := 0x1800
	if l.lcdc&lcdcWindowMap != 0 {
		windowMap = 0x1C00
	}
	start := int(l.wx) - 7
	for x := max(start, 0); x < Width; x++ {
		row[x] = l.shade(l.tilePixel(windowMap, x-start, l.windowLine))
	}
	l.windowLine++
}

// tilePixel returns the 2-bit colour number at (x, y) of the 256x256 map
// whose tile indices start at VRAM offset tileMap.
func (l *LCD) tilePixel(tileMap, x, y int) uint8 {
	index := l.vram[tileMap+(y/8)*32+x/8]

	var tile int
	if l.lcdc&lcdcTileData != 0 {
		tile = int(index) * 16
	} else {
		tile = 0x1000 + int(int8(index))*16
	}

	line := tile + (y%8)*2
	low := l.vram[line]
	high := l.vram[line+1]
	bit := 7 - uint(x%8)
	return (high>>bit&1)<<1 | low>>bit&1
}

func (l *LCD) shade(color uint8) uint32 {
	return l.palette[(l.bgp>>(color*2))&0x03]
}
