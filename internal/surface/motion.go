package surface

import (
	"image"
	"time"
)

// motionStepInterval is the time between intermediate pointer positions.
const motionStepInterval = 10 * time.Millisecond

// Step is one intermediate pointer position of an animated move.
type Step struct {
	Point image.Point
	Wait  time.Duration
}

// Path interpolates a pointer move from one point to another over duration with
// ease-in-out timing. The last step is always the destination. A zero duration
// yields the destination alone.
func Path(from, to image.Point, duration time.Duration) []Step {
	steps := int(duration / motionStepInterval)
	if steps < 1 {
		return []Step{{Point: to}}
	}

	path := make([]Step, 0, steps)
	for i := 1; i <= steps; i++ {
		t := easeInOutQuad(float64(i) / float64(steps))
		p := image.Point{
			X: int(float64(from.X) + t*float64(to.X-from.X)),
			Y: int(float64(from.Y) + t*float64(to.Y-from.Y)),
		}
		path = append(path, Step{Point: p, Wait: motionStepInterval})
	}
	path[len(path)-1].Point = to
	return path
}

// easeInOutQuad provides smooth acceleration/deceleration
func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - (-2*t+2)*(-2*t+2)/2
}
