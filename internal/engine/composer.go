package engine

import (
	"image"
	"math"

	"github.com/ivlev/sketch2video/internal/renderer"
	"github.com/ivlev/sketch2video/internal/scene"
	"github.com/ivlev/sketch2video/internal/timeline"
)

// Composer renders any instant of a prepared project. It is safe for
// concurrent use once built.
type Composer struct {
	Scene      *scene.Project
	Frames     []PreparedFrame
	Schedule   *timeline.Schedule
	Background image.Image

	// finals[i] is frame i as it looks when it ends, used as the previous
	// composite of frame i+1.
	finals []*image.RGBA
}

func NewComposer(sc *scene.Project, frames []PreparedFrame, bg image.Image) *Composer {
	c := &Composer{
		Scene:      sc,
		Frames:     frames,
		Schedule:   sc.Schedule(),
		Background: bg,
		finals:     make([]*image.RGBA, len(frames)),
	}
	for i := range frames {
		dst := image.NewRGBA(image.Rect(0, 0, sc.Width, sc.Height))
		renderer.RenderFrame(dst, c.input(i, sc.Timing.ColorEnd+1, math.Inf(1)))
		c.finals[i] = dst
	}
	return c
}

func (c *Composer) input(frame int, progress, localTime float64) renderer.FrameInput {
	f := c.Frames[frame]
	var prev image.Image
	if frame > 0 {
		prev = c.finals[frame-1]
	}
	return renderer.FrameInput{
		Progress:   progress,
		Camera:     renderer.InterpolateCamera(f.Camera, localTime),
		Transition: f.Transition,
		Previous:   prev,
		Items:      f.Items,
		Background: c.Background,
		Settings:   c.Scene.Settings,
		Timing:     c.Scene.Timing,
	}
}

// Render draws the state into dst and returns the tool pose.
func (c *Composer) Render(dst *image.RGBA, st timeline.State) renderer.HandPose {
	if len(c.Frames) == 0 {
		renderer.RenderProcessing(dst, c.Background)
		return renderer.HandPose{}
	}
	frame := min(max(st.Frame, 0), len(c.Frames)-1)
	return renderer.RenderFrame(dst, c.input(frame, st.Progress, st.LocalTime))
}
