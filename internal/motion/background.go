package motion

import (
	"image"
	"image/color"
)

// background is a running-average grayscale model, the Go stand-in for
// cv2.createBackgroundSubtractorMOG2() (no OpenCV binding is available in
// this module's dependency set). Each call to apply blends the new frame
// into the model and returns a foreground mask of pixels that differ from
// it by more than threshold.
type background struct {
	width, height int
	model         []float64 // grayscale running average, row-major
	alpha         float64   // learning rate
	threshold     float64   // absolute intensity difference to call "foreground"
}

func newBackground(alpha, threshold float64) *background {
	if alpha <= 0 {
		alpha = 0.05
	}
	if threshold <= 0 {
		threshold = 25
	}
	return &background{alpha: alpha, threshold: threshold}
}

// apply blends img into the running model and returns a boolean mask,
// one entry per pixel in row-major order, true where foreground motion
// was detected.
func (b *background) apply(img image.Image) (mask []bool, width, height int) {
	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()

	if b.model == nil || b.width != width || b.height != height {
		b.model = make([]float64, width*height)
		b.width, b.height = width, height
		fillGray(b.model, img, bounds)
		return make([]bool, width*height), width, height
	}

	mask = make([]bool, width*height)
	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gr, _, _, _ := color.GrayModel.Convert(img.At(x, y)).RGBA()
			gray := float64(gr >> 8)

			diff := gray - b.model[idx]
			if diff < 0 {
				diff = -diff
			}
			mask[idx] = diff > b.threshold

			b.model[idx] = b.model[idx]*(1-b.alpha) + gray*b.alpha
			idx++
		}
	}
	return mask, width, height
}

func fillGray(dst []float64, img image.Image, bounds image.Rectangle) {
	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gr, _, _, _ := color.GrayModel.Convert(img.At(x, y)).RGBA()
			dst[idx] = float64(gr >> 8)
			idx++
		}
	}
}
