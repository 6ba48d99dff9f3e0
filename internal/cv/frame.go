package cv

import (
	"fmt"
	"image"
)

// Frame is a preprocessed observation: row-major pixels, either one gray
// channel or interleaved RGB. Frames are not modified after they are built.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// Shape returns [H, W] for gray frames and [H, W, 3] for color frames
func (f Frame) Shape() []int {
	if f.Channels == 3 {
		return []int{f.Height, f.Width, 3}
	}
	return []int{f.Height, f.Width}
}

// Empty reports whether the frame holds no pixels
func (f Frame) Empty() bool {
	return f.Width == 0 || f.Height == 0
}

// Zeros builds an all-black frame of the given shape
func Zeros(shape []int) (Frame, error) {
	switch len(shape) {
	case 2:
		return Frame{Width: shape[1], Height: shape[0], Channels: 1, Pix: make([]uint8, shape[0]*shape[1])}, nil
	case 3:
		if shape[2] != 3 {
			return Frame{}, fmt.Errorf("unsupported channel count %d", shape[2])
		}
		return Frame{Width: shape[1], Height: shape[0], Channels: 3, Pix: make([]uint8, shape[0]*shape[1]*3)}, nil
	default:
		return Frame{}, fmt.Errorf("unsupported shape %v", shape)
	}
}

// luma uses the ITU-R BT.601 weights with rounding
func luma(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

// Gray returns a grayscale copy for template matching
func (f Frame) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	if f.Channels != 3 {
		copy(img.Pix, f.Pix)
		return img
	}
	for i := range img.Pix {
		p := f.Pix[i*3:]
		img.Pix[i] = luma(p[0], p[1], p[2])
	}
	return img
}

// Image converts the frame for encoding or display
func (f Frame) Image() image.Image {
	if f.Channels != 3 {
		return f.Gray()
	}
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.Width*f.Height; i++ {
		img.Pix[i*4] = f.Pix[i*3]
		img.Pix[i*4+1] = f.Pix[i*3+1]
		img.Pix[i*4+2] = f.Pix[i*3+2]
		img.Pix[i*4+3] = 0xFF
	}
	return img
}

// GrayFromRGBA converts a captured frame to luma
func GrayFromRGBA(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4:]
			dst.Pix[y*dst.Stride+x] = luma(p[0], p[1], p[2])
		}
	}
	return dst
}
