package graphics

// VideoProcessor applies post effects to frames. Ghosting blends each
// frame with the previous output, approximating the slow response of the
// original LCD that some games rely on for transparency effects.
type VideoProcessor struct {
	brightness float32
	ghosting   float32

	previous []uint32
}

// NewVideoProcessor creates a new video processor. ghosting is the weight
// of the previous frame, 0 disables blending.
func NewVideoProcessor(brightness, ghosting float32) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		ghosting:   clamp(ghosting, 0, 0.9),
	}
}

// ProcessFrame applies the effects and returns the processed frame
func (vp *VideoProcessor) ProcessFrame(frameBuffer []uint32) []uint32 {
	if vp.brightness == 1.0 && vp.ghosting == 0 {
		return frameBuffer
	}

	processed := make([]uint32, len(frameBuffer))
	blend := vp.ghosting > 0 && len(vp.previous) == len(frameBuffer)

	for i, pixel := range frameBuffer {
		r := float32((pixel>>16)&0xFF) * vp.brightness
		g := float32((pixel>>8)&0xFF) * vp.brightness
		b := float32(pixel&0xFF) * vp.brightness

		if blend {
			prev := vp.previous[i]
			r = r*(1-vp.ghosting) + float32((prev>>16)&0xFF)*vp.ghosting
			g = g*(1-vp.ghosting) + float32((prev>>8)&0xFF)*vp.ghosting
			b = b*(1-vp.ghosting) + float32(prev&0xFF)*vp.ghosting
		}

		r = clamp(r, 0, 255)
		g = clamp(g, 0, 255)
		b = clamp(b, 0, 255)

		processed[i] = (uint32(r+0.5) << 16) | (uint32(g+0.5) << 8) | uint32(b+0.5)
	}

	if vp.ghosting > 0 {
		vp.previous = processed
	}
	return processed
}

// Reset forgets the previous frame
func (vp *VideoProcessor) Reset() {
	vp.previous = nil
}

// clamp limits a value to a range
func clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SetBrightness updates the brightness value
func (vp *VideoProcessor) SetBrightness(brightness float32) {
	vp.brightness = brightness
}

// SetGhosting updates the previous frame weight
func (vp *VideoProcessor) SetGhosting(ghosting float32) {
	vp.ghosting = clamp(ghosting, 0, 0.9)
	if vp.ghosting == 0 {
		vp.previous = nil
	}
}
