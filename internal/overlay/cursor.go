// Package overlay paints the pointer onto captured rasters for surfaces that do
// not render the OS cursor themselves (headless browsers).
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Pointer is the pointer state to paint.
type Pointer struct {
	X, Y int
	// Click paints a ripple around the hotspot, shown on the first capture after a click.
	Click bool
	// Pressed marks a held button (mid-drag) by tinting the sprite.
	Pressed bool
}

var (
	outlineColor = color.RGBA{0, 0, 0, 255}
	fillColor    = color.RGBA{255, 255, 255, 255}
	pressedColor = color.RGBA{255, 214, 102, 255}
	rippleColor  = color.RGBA{66, 133, 244, 255}
)

// arrow outlines the sprite relative to the hotspot.
var arrow = []image.Point{
	{0, 0}, {0, 16}, {4, 12}, {7, 18}, {10, 17}, {7, 11}, {12, 11},
}

// Draw returns a copy of frame with the pointer painted at p.
// Pixels outside the frame are clipped.
func Draw(frame image.Image, p Pointer) *image.RGBA {
	bounds := frame.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, frame, bounds.Min, draw.Src)

	if p.Click {
		drawRipple(out, p.X, p.Y, 15)
	}

	fill := fillColor
	if p.Pressed {
		fill = pressedColor
	}
	for dy := 0; dy < 18; dy++ {
		for dx := 0; dx < 13; dx++ {
			if insideArrow(dx, dy) {
				setPixel(out, p.X+dx, p.Y+dy, fill)
			}
		}
	}
	for i := range arrow {
		a, b := arrow[i], arrow[(i+1)%len(arrow)]
		drawLine(out, p.X+a.X, p.Y+a.Y, p.X+b.X, p.Y+b.Y, outlineColor)
	}
	return out
}

// insideArrow approximates the arrow as a triangle plus a shaft.
func insideArrow(dx, dy int) bool {
	if dx < 0 || dy < 0 || dy > 16 {
		return false
	}
	if dy <= 11 {
		return dx <= dy*12/16
	}
	return dx <= 4
}

// drawLine is Bresenham's line algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixel(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func drawRipple(img *image.RGBA, x, y, radius int) {
	for deg := 0.0; deg < 360; deg++ {
		rad := deg * math.Pi / 180
		px := x + int(math.Round(float64(radius)*math.Cos(rad)))
		py := y + int(math.Round(float64(radius)*math.Sin(rad)))
		setPixel(img, px, py, rippleColor)
		setPixel(img, px+1, py, rippleColor)
		setPixel(img, px, py+1, rippleColor)
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{x, y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
