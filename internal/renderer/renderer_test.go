package renderer

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/sketch"
)

const canvasW, canvasH = 100, 80

var (
	paperColor = color.RGBA{250, 248, 240, 255}
	red        = color.RGBA{255, 0, 0, 255}
)

func background() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	draw.Draw(img, img.Bounds(), image.NewUniform(paperColor), image.Point{}, draw.Src)
	return img
}

func solidCanvas(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// lineItem covers the canvas and has one horizontal path of 11 points
// through y=40, x=10..90.
func lineItem(id string, c color.RGBA) sketch.ProcessedItem {
	var pts []sketch.Point
	for i := 0; i <= 10; i++ {
		pts = append(pts, sketch.Point{X: 0.1 + float64(i)*0.08, Y: 0.5})
	}
	return sketch.ProcessedItem{
		ID:          id,
		Type:        sketch.ItemImage,
		Paths:       []sketch.Path{{Points: pts, Strength: 1}},
		ColorCanvas: solidCanvas(canvasW, canvasH, c),
		Width:       canvasW,
		Height:      canvasH,
	}
}

// squareItem is a small composite with no paths.
func squareItem(x, y int) sketch.ProcessedItem {
	return sketch.ProcessedItem{
		ID:          "square",
		ColorCanvas: solidCanvas(10, 10, red),
		X:           x,
		Y:           y,
		Width:       10,
		Height:      10,
	}
}

func input(progress float64, items ...sketch.ProcessedItem) FrameInput {
	s := config.DefaultSettings()
	s.ShowHand = true
	return FrameInput{
		Progress:   progress,
		Items:      items,
		Background: background(),
		Settings:   s,
		Timing:     config.DefaultTiming(),
	}
}

func render(in FrameInput) (*image.RGBA, HandPose) {
	dst := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	pose := RenderFrame(dst, in)
	return dst, pose
}

// composite is the ground truth: paper with every colour canvas on top.
func composite(items ...sketch.ProcessedItem) *image.RGBA {
	img := background()
	for _, it := range items {
		draw.Draw(img, it.Bounds(), it.ColorCanvas, image.Point{}, draw.Over)
	}
	return img
}

func TestProgressZeroDrawsNoStrokes(t *testing.T) {
	got, pose := render(input(0, lineItem("a", red)))
	if !bytes.Equal(got.Pix, background().Pix) {
		t.Error("Progress 0 must leave the paper untouched")
	}
	if pose.Visible {
		t.Error("No point drawn yet, hand should be hidden")
	}
}

func TestSettledItemsShowComposite(t *testing.T) {
	a := lineItem("a", color.RGBA{0, 0, 255, 255})
	b := lineItem("b", red)

	// Halfway: a has finished its slice, b is at local progress 0
	got, _ := render(input(0.5, a, b))
	if !bytes.Equal(got.Pix, composite(a).Pix) {
		t.Error("Expected exactly the first item's composite")
	}
}

func TestSketchPrefix(t *testing.T) {
	got, pose := render(input(0.5, lineItem("a", red)))

	// 11 points at local 0.5 draws floor(5.5)=5 points, x=10..42
	if got.RGBAAt(25, 40) == paperColor {
		t.Error("Expected stroke pixels inside the drawn prefix")
	}
	if got.RGBAAt(80, 40) != paperColor {
		t.Error("Pixels past the prefix must stay blank")
	}
	if !pose.Visible || math.Abs(pose.X-42) > 1e-9 || math.Abs(pose.Y-40) > 1e-9 {
		t.Errorf("Pose = %+v, want tip at (42,40)", pose)
	}
	if math.Abs(pose.Angle) > 1e-9 {
		t.Errorf("Angle = %f, want 0 for a left-to-right stroke", pose.Angle)
	}
}

func TestEmptyItemRevealedInstantly(t *testing.T) {
	sq := squareItem(20, 20)
	got, _ := render(input(0.2, sq))
	if got.RGBAAt(25, 25) != red {
		t.Error("Item without paths should show its composite while active")
	}
}

func TestPauseShowsFullOutline(t *testing.T) {
	got, pose := render(input(1.05, lineItem("a", red)))
	if got.RGBAAt(80, 40) == paperColor {
		t.Error("Pause should show the whole outline")
	}
	if got.RGBAAt(50, 10) != paperColor {
		t.Error("Pause must not fill the composite")
	}
	if pose.Visible {
		t.Error("Hand must be hidden during the pause")
	}
}

func TestColorSweep(t *testing.T) {
	got, pose := render(input(1.55, lineItem("a", red)))

	// colour fraction 0.5, clip line at y=40
	if got.RGBAAt(5, 10) != red {
		t.Errorf("Above the clip line: got %v, want composite", got.RGBAAt(5, 10))
	}
	if got.RGBAAt(5, 70) != paperColor {
		t.Errorf("Below the clip line: got %v, want paper", got.RGBAAt(5, 70))
	}
	if !pose.Visible || pose.Y != 40 {
		t.Errorf("Pose = %+v, want visible on the clip line", pose)
	}
}

func TestDegenerateTimingIsRepaired(t *testing.T) {
	in := input(1.1, lineItem("a", red))
	in.Timing.ColorEnd = in.Timing.ColorStart

	_, pose := render(in)
	if math.IsNaN(pose.X) || math.IsNaN(pose.Y) || math.IsInf(pose.X, 0) {
		t.Fatalf("Pose = %+v, want finite", pose)
	}
	if !pose.Visible || pose.Y != 0 || pose.X != canvasW/2 {
		t.Errorf("Pose = %+v, want sweep start at the top centre", pose)
	}
}

func TestFullRevealMatchesComposite(t *testing.T) {
	items := []sketch.ProcessedItem{squareItem(5, 5), squareItem(60, 50)}
	items[1].ID = "other"
	items[1].ColorCanvas = solidCanvas(10, 10, color.RGBA{0, 128, 0, 255})

	for _, p := range []float64{2.0, 2.5} {
		got, pose := render(input(p, items...))
		if !bytes.Equal(got.Pix, composite(items...).Pix) {
			t.Errorf("Progress %.1f differs from the ground truth composite", p)
		}
		if pose.Visible {
			t.Errorf("Progress %.1f: hand should be hidden", p)
		}
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	in := input(0.3, lineItem("a", red), squareItem(60, 10))
	in.Camera = sketch.CameraState{X: 3, Y: -2, Zoom: 1.2}

	for _, p := range []float64{-0.4, 0, 0.3, 0.75, 1.0, 1.1, 1.6, 2.0, 3.0} {
		in.Progress = p
		in.Previous = solidCanvas(canvasW, canvasH, red)
		in.Transition = sketch.CameraTransition{Type: sketch.TransitionZoom, Duration: 1}
		a, pa := render(in)
		b, pb := render(in)
		if !bytes.Equal(a.Pix, b.Pix) || pa != pb {
			t.Errorf("Progress %.2f: two renders differ", p)
		}
	}
}

func TestTransitionPan(t *testing.T) {
	in := input(-0.5)
	in.Previous = solidCanvas(canvasW, canvasH, red)
	in.Transition = sketch.CameraTransition{Type: sketch.TransitionPan, Direction: sketch.DirRight, Duration: 1}

	got, pose := render(in)
	if got.RGBAAt(10, 30) != red {
		t.Errorf("Left: got %v, want previous composite", got.RGBAAt(10, 30))
	}
	if got.RGBAAt(90, 30) != paperColor {
		t.Errorf("Right: got %v, want new background", got.RGBAAt(90, 30))
	}
	if pose.Visible {
		t.Error("Hand must be hidden during transitions")
	}
}

func TestCameraPan(t *testing.T) {
	in := input(3, squareItem(20, 20))
	in.Camera = sketch.CameraState{X: 10, Zoom: 1}

	got, _ := render(in)
	if c := got.RGBAAt(35, 25); c.R < 200 || c.G > 50 {
		t.Errorf("Shifted square missing at x=35: %v", c)
	}
	if got.RGBAAt(22, 25) != paperColor {
		t.Errorf("Original square position should be paper: %v", got.RGBAAt(22, 25))
	}
}

func TestDrawHand(t *testing.T) {
	dst := background()
	DrawHand(dst, HandPose{X: 30, Y: 30}, config.StylePencil)
	if !bytes.Equal(dst.Pix, background().Pix) {
		t.Error("Hidden pose must not draw")
	}

	DrawHand(dst, HandPose{X: 30, Y: 30, Visible: true}, config.StyleMarker)
	if bytes.Equal(dst.Pix, background().Pix) {
		t.Error("Visible pose drew nothing")
	}
}

func TestRenderProcessing(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	RenderProcessing(dst, background())
	if dst.RGBAAt(2, 2) != paperColor {
		t.Error("Corners should show the paper")
	}
	if dst.RGBAAt(2, canvasH/2) == paperColor {
		t.Error("Expected the placeholder band across the middle")
	}
}

func TestInterpolateCamera(t *testing.T) {
	keys := []CameraKey{
		{Time: 0.0, Zoom: 1.0},
		{Time: 2.0, X: 100, Y: 50, Zoom: 1.5},
		{Time: 4.0, X: 200, Y: 100, Zoom: 2.0},
	}

	tests := []struct {
		time         float64
		expectedZoom float64
	}{
		{0.0, 1.0},
		{1.0, 1.25},
		{2.0, 1.5},
		{3.0, 1.75},
		{4.0, 2.0},
		{5.0, 2.0},
	}

	for _, tt := range tests {
		state := InterpolateCamera(keys, tt.time)
		if math.Abs(state.Zoom-tt.expectedZoom) > 1e-9 {
			t.Errorf("At time %.1f: expected zoom %.2f, got %.2f", tt.time, tt.expectedZoom, state.Zoom)
		}
	}

	if got := InterpolateCamera(nil, 1); !got.IsIdentity() {
		t.Errorf("No keys should give the identity camera, got %+v", got)
	}
	if got := InterpolateCamera([]CameraKey{{Time: 1, X: 5}}, 0); got.Zoom != 1 || got.X != 5 {
		t.Errorf("Unset zoom should read as 1, got %+v", got)
	}
}
