// Package screen converts the CHIP-8 framebuffer into images.
package screen

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/retroenv/retrochip8/internal/chip8"
	xdraw "golang.org/x/image/draw"
)

// Display colors of unset and set pixels.
var (
	Background = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}
	Foreground = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
)

// Palette is the two color palette of framebuffer images.
var Palette = color.Palette{Background, Foreground}

// Framebuffer is the read-only view of a display.
type Framebuffer interface {
	Pixel(x, y int) bool
}

// Image returns a paletted copy of the framebuffer.
func Image(fb Framebuffer) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, chip8.Width, chip8.Height), Palette)
	for y := range chip8.Height {
		for x := range chip8.Width {
			if fb.Pixel(x, y) {
				img.SetColorIndex(x, y, 1)
			}
		}
	}
	return img
}

// Scale returns the image enlarged by the integer factor without smoothing.
func Scale(src image.Image, factor int) image.Image {
	if factor <= 1 {
		return src
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}

// RGBA writes the framebuffer as RGBA pixels into dst, which must hold
// 4*Width*Height bytes.
func RGBA(fb Framebuffer, dst []byte) {
	for y := range chip8.Height {
		for x := range chip8.Width {
			c := Background
			if fb.Pixel(x, y) {
				c = Foreground
			}
			i := 4 * (y*chip8.Width + x)
			dst[i] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = c.A
		}
	}
}

// WritePNG saves the framebuffer scaled by factor as PNG file.
func WritePNG(path string, fb Framebuffer, factor int) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating screenshot file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("closing screenshot file: %w", err)
		}
	}()

	if err := png.Encode(f, Scale(Image(fb), factor)); err != nil {
		return fmt.Errorf("encoding screenshot: %w", err)
	}
	return nil
}
