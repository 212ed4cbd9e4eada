package renderer

import (
	"math"

	"github.com/ivlev/sketch2video/internal/sketch"
)

// CameraKey pins the camera at a time measured from the start of a frame.
type CameraKey struct {
	Time float64 `yaml:"time"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Zoom float64 `yaml:"zoom"`
}

func (k CameraKey) state() sketch.CameraState {
	z := k.Zoom
	if z <= 0 {
		z = 1
	}
	return sketch.CameraState{X: k.X, Y: k.Y, Zoom: z}
}

// InterpolateCamera calculates the camera at currentTime by easing between
// the surrounding keys. Keys must be sorted by Time.
func InterpolateCamera(keys []CameraKey, currentTime float64) sketch.CameraState {
	if len(keys) == 0 {
		return sketch.CameraState{Zoom: 1}
	}
	if currentTime <= keys[0].Time {
		return keys[0].state()
	}
	if currentTime >= keys[len(keys)-1].Time {
		return keys[len(keys)-1].state()
	}

	var prev, next CameraKey
	for i := 0; i < len(keys)-1; i++ {
		if currentTime >= keys[i].Time && currentTime < keys[i+1].Time {
			prev, next = keys[i], keys[i+1]
			break
		}
	}

	span := next.Time - prev.Time
	if span == 0 {
		span = 0.001
	}
	t := easeInOutCubic((currentTime - prev.Time) / span)

	a, b := prev.state(), next.state()
	return sketch.CameraState{
		X:    lerp(a.X, b.X, t),
		Y:    lerp(a.Y, b.Y, t),
		Zoom: lerp(a.Zoom, b.Zoom, t),
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}
