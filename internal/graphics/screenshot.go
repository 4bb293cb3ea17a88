package graphics

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// FrameImage converts a 0x00RRGGBB frame buffer into an RGBA image. Short
// buffers leave the remaining pixels black.
func FrameImage(frameBuffer []uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, FrameWidth, FrameHeight))
	fillRGBA(img, frameBuffer)
	return img
}

// fillRGBA writes frameBuffer into img.Pix in place.
func fillRGBA(img *image.RGBA, frameBuffer []uint32) {
	for i := 0; i < FrameSize; i++ {
		var pixel uint32
		if i < len(frameBuffer) {
			pixel = frameBuffer[i]
		}
		o := i * 4
		img.Pix[o] = uint8(pixel >> 16)
		img.Pix[o+1] = uint8(pixel >> 8)
		img.Pix[o+2] = uint8(pixel)
		img.Pix[o+3] = 0xFF
	}
}

// ScaleImage enlarges img by an integer factor with nearest neighbour
// sampling so the pixel grid stays sharp.
func ScaleImage(img image.Image, scale int) image.Image {
	if scale <= 1 {
		return img
	}
	bounds := img.Bounds()
	scaled := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*scale, bounds.Dy()*scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)
	return scaled
}

// SavePNG writes the frame to path as a PNG, scaled by scale.
func SavePNG(path string, frameBuffer []uint32, scale int) error {
	if len(frameBuffer) < FrameSize {
		return fmt.Errorf("frame buffer has %d pixels, want %d", len(frameBuffer), FrameSize)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, ScaleImage(FrameImage(frameBuffer), scale)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// ScreenshotName returns a timestamped file name in dir for the given
// ROM title.
func ScreenshotName(dir, title string, now time.Time) string {
	if title == "" {
		title = "gogb"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.png", title, now.Format("20060102_150405.000")))
}
