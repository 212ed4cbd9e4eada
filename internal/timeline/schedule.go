package timeline

import (
	"math"
	"sort"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/sketch"
)

// DefaultSketchSeconds is used for frames without an explicit duration.
const DefaultSketchSeconds = 4.0

// FrameSpec is the timing-relevant part of a project frame.
type FrameSpec struct {
	Duration   float64 // seconds spent sketching
	Hold       float64 // seconds at the finished frame, 0 for the default
	Transition sketch.CameraTransition
}

// Segment is a span of wall-clock time in which progress moves linearly.
type Segment struct {
	Frame      int
	Phase      Phase
	Start, End float64
	From, To   float64
}

// State is everything a renderer needs to know about one instant.
type State struct {
	Time      float64
	Frame     int
	Phase     Phase
	Progress  float64
	LocalTime float64 // seconds since the frame's first segment began
	Finished  bool
}

type Schedule struct {
	Timing     config.Timing
	Segments   []Segment
	frameStart []float64
}

// NewSchedule lays frames out back to back. The first frame and frames
// entering with a cut get no transition segment.
func NewSchedule(frames []FrameSpec, tm config.Timing) *Schedule {
	tm = OrDefault(tm)
	s := &Schedule{Timing: tm, frameStart: make([]float64, len(frames))}
	t := 0.0

	add := func(frame int, ph Phase, secs, from, to float64) {
		if secs <= 0 {
			return
		}
		s.Segments = append(s.Segments, Segment{Frame: frame, Phase: ph, Start: t, End: t + secs, From: from, To: to})
		t += secs
	}

	for i, f := range frames {
		s.frameStart[i] = t
		if i > 0 && !f.Transition.IsCut() {
			add(i, PhaseTransition, f.Transition.Duration, -1, 0)
		}

		dur := f.Duration
		if dur <= 0 {
			dur = DefaultSketchSeconds
		}
		rate := tm.SketchEnd / dur // progress per second while sketching
		add(i, PhaseSketch, dur, 0, tm.SketchEnd)
		add(i, PhasePause, (tm.ColorStart-tm.SketchEnd)/(rate*speed(tm.PauseSpeed)), tm.SketchEnd, tm.ColorStart)
		add(i, PhaseColor, (tm.ColorEnd-tm.ColorStart)/(rate*speed(tm.ColorSpeed)), tm.ColorStart, tm.ColorEnd)

		hold := f.Hold
		if hold <= 0 {
			hold = tm.HoldDuration
		}
		add(i, PhaseHold, hold, tm.ColorEnd, tm.ColorEnd+1)
	}
	return s
}

func speed(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// Total is the schedule length in seconds.
func (s *Schedule) Total() float64 {
	if len(s.Segments) == 0 {
		return 0
	}
	return s.Segments[len(s.Segments)-1].End
}

// Frames returns the number of project frames covered.
func (s *Schedule) Frames() int { return len(s.frameStart) }

// FrameStart returns the time at which frame i begins.
func (s *Schedule) FrameStart(i int) float64 {
	if i < 0 || i >= len(s.frameStart) {
		return 0
	}
	return s.frameStart[i]
}

// At maps absolute seconds onto a frame and its progress. Times outside the
// schedule are clamped.
func (s *Schedule) At(t float64) State {
	if len(s.Segments) == 0 {
		return State{Finished: true}
	}
	total := s.Total()
	if t < 0 || math.IsNaN(t) {
		t = 0
	}
	if t >= total {
		last := s.Segments[len(s.Segments)-1]
		return State{
			Time:      total,
			Frame:     last.Frame,
			Phase:     last.Phase,
			Progress:  last.To,
			LocalTime: total - s.frameStart[last.Frame],
			Finished:  true,
		}
	}

	i := sort.Search(len(s.Segments), func(i int) bool { return s.Segments[i].End > t })
	seg := s.Segments[i]
	frac := (t - seg.Start) / (seg.End - seg.Start)
	return State{
		Time:      t,
		Frame:     seg.Frame,
		Phase:     seg.Phase,
		Progress:  seg.From + (seg.To-seg.From)*frac,
		LocalTime: t - s.frameStart[seg.Frame],
	}
}
