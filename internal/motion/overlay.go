package motion

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	boxColor    = color.RGBA{0, 255, 0, 255}
	zoneColor   = color.RGBA{255, 0, 0, 255}
	recColor    = color.RGBA{255, 0, 0, 255}
	textColor   = color.RGBA{255, 255, 255, 255}
)

// Annotate draws the zone rectangle, each detection's bounding box, an
// object counter and an optional "REC" indicator onto a mutable copy of
// img, grounded on the cv2.rectangle/cv2.putText calls in
// camera_manager.py's detect() and drawn with the same
// golang.org/x/image/font approach internal/stream/mjpeg.go uses for
// overlay text.
func Annotate(img image.Image, state State, zone *Zone, recording bool) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	if zone != nil {
		drawPolygon(out, zone.Points[:], zoneColor)
		drawText(out, bounds.Min.X+5, bounds.Min.Y+15, "Zone", zoneColor)
	}

	for _, d := range state.Detections {
		drawRect(out, d.Box, boxColor)
	}

	drawText(out, bounds.Min.X+5, bounds.Max.Y-10, fmt.Sprintf("Objects: %d", state.ObjectCount), textColor)

	if recording {
		drawText(out, bounds.Max.X-50, bounds.Min.Y+15, "REC", recColor)
	}

	return out
}

func drawRect(img *image.RGBA, b BoundingBox, c color.Color) {
	x0, y0, x1, y1 := b.X, b.Y, b.X+b.Width, b.Y+b.Height
	for x := x0; x < x1; x++ {
		img.Set(x, y0, c)
		img.Set(x, y1-1, c)
	}
	for y := y0; y < y1; y++ {
		img.Set(x0, y, c)
		img.Set(x1-1, y, c)
	}
}

func drawPolygon(img *image.RGBA, pts []image.Point, c color.Color) {
	n := len(pts)
	for i := 0; i < n; i++ {
		drawLine(img, pts[i], pts[(i+1)%n], c)
	}
}

func drawLine(img *image.RGBA, p0, p1 image.Point, c color.Color) {
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	err := dx + dy

	x, y := p0.X, p0.Y
	for {
		img.Set(x, y, c)
		if x == p1.X && y == p1.Y {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func drawText(img *image.RGBA, x, y int, label string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}
