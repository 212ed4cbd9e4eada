// Package timeline maps wall-clock time onto frame progress and phases.
package timeline

import "github.com/ivlev/sketch2video/internal/config"

type Phase int

const (
	PhaseTransition Phase = iota
	PhaseSketch
	PhasePause
	PhaseColor
	PhaseHold
)

func (p Phase) String() string {
	switch p {
	case PhaseTransition:
		return "transition"
	case PhaseSketch:
		return "sketch"
	case PhasePause:
		return "pause"
	case PhaseColor:
		return "color"
	case PhaseHold:
		return "hold"
	}
	return "unknown"
}

// PhaseOf classifies a progress value. Negative progress is the camera
// transition, [0, SketchEnd) sketching, [SketchEnd, ColorStart) the pause,
// [ColorStart, ColorEnd] the colour sweep and anything later the hold.
func PhaseOf(progress float64, tm config.Timing) Phase {
	switch {
	case progress < 0:
		return PhaseTransition
	case progress < tm.SketchEnd:
		return PhaseSketch
	case progress < tm.ColorStart:
		return PhasePause
	case progress <= tm.ColorEnd:
		return PhaseColor
	default:
		return PhaseHold
	}
}

// OrDefault returns the default timing when tm is unset and tm with its
// degenerate values repaired otherwise.
func OrDefault(tm config.Timing) config.Timing {
	if tm == (config.Timing{}) {
		return config.DefaultTiming()
	}
	return tm.Normalize()
}
