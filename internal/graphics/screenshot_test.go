package graphics

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFrameImage(t *testing.T) {
	frame := make([]uint32, FrameSize)
	frame[FrameWidth+1] = 0x336699

	img := FrameImage(frame)
	c := img.RGBAAt(1, 1)
	if c.R != 0x33 || c.G != 0x66 || c.B != 0x99 || c.A != 0xFF {
		t.Errorf("Expected 0x336699 opaque, got %+v", c)
	}
}

func TestScaleImage(t *testing.T) {
	frame := make([]uint32, FrameSize)
	frame[0] = 0xFFFFFF

	scaled := ScaleImage(FrameImage(frame), 3)
	bounds := scaled.Bounds()
	if bounds.Dx() != FrameWidth*3 || bounds.Dy() != FrameHeight*3 {
		t.Fatalf("Expected %dx%d, got %dx%d", FrameWidth*3, FrameHeight*3, bounds.Dx(), bounds.Dy())
	}

	r, _, _, _ := scaled.At(2, 2).RGBA()
	if r != 0xFFFF {
		t.Errorf("Pixel (2,2) should be white, got r=0x%04X", r)
	}
	r, _, _, _ = scaled.At(3, 3).RGBA()
	if r != 0 {
		t.Errorf("Pixel (3,3) should be black, got r=0x%04X", r)
	}
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shots", "test.png")

	if err := SavePNG(path, make([]uint32, FrameSize), 2); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != FrameWidth*2 {
		t.Errorf("Expected width %d, got %d", FrameWidth*2, img.Bounds().Dx())
	}

	if err := SavePNG(path, nil, 1); err == nil {
		t.Error("Empty frame should fail")
	}
}

func TestScreenshotName(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	got := ScreenshotName("shots", "TETRIS", now)
	want := filepath.Join("shots", "TETRIS_20240301_123045.000.png")
	if got != want {
		t.Errorf("ScreenshotName = %s, want %s", got, want)
	}
}
