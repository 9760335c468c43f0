// Package codec provides framerelay codecs and the RGB helpers they share.
package codec

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"github.com/Zereker/framerelay"
)

// BytesPerPixel is the size of one packed RGB pixel in Frame.Data.
const BytesPerPixel = 3

// ErrInvalidFrame is returned when a frame's data does not match its dimensions.
var ErrInvalidFrame = errors.New("invalid frame")

// ToImage converts a packed RGB frame to image.RGBA (alpha = 255).
func ToImage(frame *framerelay.Frame) (*image.RGBA, error) {
	if frame == nil {
		return nil, errors.Wrap(ErrInvalidFrame, "nil frame")
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, errors.Wrapf(ErrInvalidFrame, "dimensions %dx%d", frame.Width, frame.Height)
	}
	expected := frame.Width * frame.Height * BytesPerPixel
	if len(frame.Data) != expected {
		return nil, errors.Wrapf(ErrInvalidFrame, "rgb data size: got %d, expected %d", len(frame.Data), expected)
	}

	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i := 0; i < frame.Width*frame.Height; i++ {
		img.Pix[i*4+0] = frame.Data[i*3+0]
		img.Pix[i*4+1] = frame.Data[i*3+1]
		img.Pix[i*4+2] = frame.Data[i*3+2]
		img.Pix[i*4+3] = 255
	}
	return img, nil
}

// FromImage packs any image into an RGB frame. Alpha is dropped.
func FromImage(img image.Image) *framerelay.Frame {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]byte, 0, width*height*BytesPerPixel)

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < height; y++ {
			start := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			row := rgba.Pix[start : start+width*4]
			for x := 0; x < width; x++ {
				data = append(data, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	} else {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
				data = append(data, c.R, c.G, c.B)
			}
		}
	}

	return &framerelay.Frame{Data: data, Width: width, Height: height}
}
