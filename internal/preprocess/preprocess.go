// Package preprocess turns uploaded images into the normalized tensors the
// network was trained on.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when the upload is not an image in a supported format.
var ErrDecode = errors.New("cannot identify image file")

// DefaultMaxPixels is the largest image Decode accepts, the same ceiling
// Pillow applies against decompression bombs.
const DefaultMaxPixels = 89478485

// Options controls the input transform.
type Options struct {
	Size      int        // output is Size x Size
	Mean      [3]float32 // per-channel mean, RGB order
	Std       [3]float32 // per-channel standard deviation, RGB order
	MaxPixels int        // decode limit, 0 disables it
}

// DefaultOptions matches the training-time transform: 224x224 with ImageNet statistics.
func DefaultOptions() Options {
	return Options{
		Size:      224,
		Mean:      [3]float32{0.485, 0.456, 0.406},
		Std:       [3]float32{0.229, 0.224, 0.225},
		MaxPixels: DefaultMaxPixels,
	}
}

// Shape returns the NCHW tensor shape produced by ToTensor.
func (o Options) Shape() []int64 {
	return []int64{1, 3, int64(o.Size), int64(o.Size)}
}

// Len returns the number of values produced by ToTensor.
func (o Options) Len() int {
	return 3 * o.Size * o.Size
}

// Decode reads an image in any registered format. The dimensions are taken
// from the header first, and images larger than maxPixels are rejected
// before any pixel data is allocated. A maxPixels of 0 disables the check.
func Decode(r io.Reader, maxPixels int) (image.Image, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("unable to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: empty image", ErrDecode)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && pixels > int64(maxPixels) {
		return nil, "", fmt.Errorf("%w: %dx%d image exceeds the %d pixel limit",
			ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// ToTensor resizes img to a square of opts.Size, converts it to RGB, scales
// to [0,1] and normalizes each channel. The result is planar CHW with an
// implicit batch dimension of one.
//
// Alpha is dropped by keeping the straight (non-premultiplied) colour of each
// pixel. Grayscale and paletted inputs expand to three equal channels.
func ToTensor(img image.Image, opts Options) ([]float32, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("invalid target size %d", opts.Size)
	}
	for c := 0; c < 3; c++ {
		if opts.Std[c] == 0 {
			return nil, fmt.Errorf("zero std for channel %d", c)
		}
	}

	size := uint(opts.Size)
	resized := resize.Resize(size, size, img, resize.Bilinear)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	data := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := color.NRGBAModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			idx := y*width + x
			data[idx] = (float32(px.R)/255 - opts.Mean[0]) / opts.Std[0]
			data[plane+idx] = (float32(px.G)/255 - opts.Mean[1]) / opts.Std[1]
			data[2*plane+idx] = (float32(px.B)/255 - opts.Mean[2]) / opts.Std[2]
		}
	}
	return data, nil
}
