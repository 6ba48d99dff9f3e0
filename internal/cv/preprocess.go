package cv

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

var (
	// ErrCropOutOfBounds means the crop does not fit inside the scaled frame
	ErrCropOutOfBounds = errors.New("crop out of bounds")
	// ErrInvalidShrinkRatio means the ratio is outside (0, 1]
	ErrInvalidShrinkRatio = errors.New("shrink ratio must be in (0, 1]")
)

// Crop is measured in scaled coordinates. Bottom and Right are exclusive.
type Crop struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// Preprocessor turns a captured window image into an observation
type Preprocessor struct {
	UseRGB      bool
	ShrinkRatio float64
	Crop        Crop
}

// ScaledSize returns the frame size after shrinking, truncating toward zero
func (p Preprocessor) ScaledSize(srcW, srcH int) (int, int) {
	return int(float64(srcW) * p.ShrinkRatio), int(float64(srcH) * p.ShrinkRatio)
}

// Validate checks the ratio and that the crop fits a srcW x srcH capture
func (p Preprocessor) Validate(srcW, srcH int) error {
	if p.ShrinkRatio <= 0 || p.ShrinkRatio > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidShrinkRatio, p.ShrinkRatio)
	}

	w, h := p.ScaledSize(srcW, srcH)
	c := p.Crop
	if c.Top < 0 || c.Top >= c.Bottom || c.Bottom > h ||
		c.Left < 0 || c.Left >= c.Right || c.Right > w {
		return fmt.Errorf("%w: crop top=%d bottom=%d left=%d right=%d, scaled frame %dx%d",
			ErrCropOutOfBounds, c.Top, c.Bottom, c.Left, c.Right, w, h)
	}
	return nil
}

// OutputShape is the canonical observation shape for a srcW x srcH capture
func (p Preprocessor) OutputShape(srcW, srcH int) ([]int, error) {
	if err := p.Validate(srcW, srcH); err != nil {
		return nil, err
	}
	h := p.Crop.Bottom - p.Crop.Top
	w := p.Crop.Right - p.Crop.Left
	if p.UseRGB {
		return []int{h, w, 3}, nil
	}
	return []int{h, w}, nil
}

// Process converts to gray (unless UseRGB), shrinks bilinearly and crops.
// src is not modified.
func (p Preprocessor) Process(src *image.RGBA) (Frame, error) {
	b := src.Bounds()
	if err := p.Validate(b.Dx(), b.Dy()); err != nil {
		return Frame{}, err
	}
	w, h := p.ScaledSize(b.Dx(), b.Dy())
	c := p.Crop

	if !p.UseRGB {
		gray := GrayFromRGBA(src)
		scaled := image.NewGray(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), draw.Src, nil)

		out := Frame{Width: c.Right - c.Left, Height: c.Bottom - c.Top, Channels: 1}
		out.Pix = make([]uint8, out.Width*out.Height)
		for y := 0; y < out.Height; y++ {
			start := scaled.PixOffset(c.Left, c.Top+y)
			copy(out.Pix[y*out.Width:(y+1)*out.Width], scaled.Pix[start:start+out.Width])
		}
		return out, nil
	}

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(scaled, scaled.Bounds(), src, b, draw.Src, nil)

	out := Frame{Width: c.Right - c.Left, Height: c.Bottom - c.Top, Channels: 3}
	out.Pix = make([]uint8, out.Width*out.Height*3)
	i := 0
	for y := 0; y < out.Height; y++ {
		row := scaled.Pix[scaled.PixOffset(c.Left, c.Top+y):]
		for x := 0; x < out.Width; x++ {
			out.Pix[i] = row[x*4]
			out.Pix[i+1] = row[x*4+1]
			out.Pix[i+2] = row[x*4+2]
			i += 3
		}
	}
	return out, nil
}
