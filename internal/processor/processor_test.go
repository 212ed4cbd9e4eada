package processor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/ivlev/sketch2video/internal/analyzer"
	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/sketch"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func settings(order config.DrawingOrder) config.Settings {
	s := config.DefaultSettings()
	s.DrawingOrder = order
	return s
}

func TestRasterizeLayerIdentity(t *testing.T) {
	l := sketch.ImageLayer{ID: "sq", Image: solid(100, 100, color.Black), X: 50, Y: 30}

	img, pos, err := RasterizeLayer(l)
	if err != nil {
		t.Fatalf("RasterizeLayer failed: %v", err)
	}
	if pos != image.Pt(50-ItemMargin, 30-ItemMargin) {
		t.Errorf("Unexpected position %v", pos)
	}
	if img.Bounds().Dx() != 100+2*ItemMargin || img.Bounds().Dy() != 100+2*ItemMargin {
		t.Errorf("Unexpected size %v", img.Bounds())
	}
	if got := img.RGBAAt(ItemMargin, ItemMargin); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("Expected opaque black at the square corner, got %v", got)
	}
	if got := img.RGBAAt(0, 0); got.A != 0 {
		t.Errorf("Expected transparent margin, got %v", got)
	}
}

func TestRasterizeLayerRotation(t *testing.T) {
	l := sketch.ImageLayer{ID: "bar", Image: solid(200, 50, color.Black), X: 0, Y: 0, Rotation: 90}

	img, _, err := RasterizeLayer(l)
	if err != nil {
		t.Fatalf("RasterizeLayer failed: %v", err)
	}
	w, h := img.Bounds().Dx()-2*ItemMargin, img.Bounds().Dy()-2*ItemMargin
	if w < 49 || w > 52 || h < 199 || h > 202 {
		t.Errorf("Expected a rotated 50x200 box, got %dx%d", w, h)
	}
}

func TestRasterizeLayerOpacity(t *testing.T) {
	half := 0.5
	l := sketch.ImageLayer{ID: "half", Image: solid(10, 10, color.White), Opacity: &half}

	img, _, err := RasterizeLayer(l)
	if err != nil {
		t.Fatalf("RasterizeLayer failed: %v", err)
	}
	got := img.RGBAAt(ItemMargin+5, ItemMargin+5)
	if got.A < 126 || got.A > 129 {
		t.Errorf("Expected half alpha, got %v", got)
	}
}

func TestProcessItemsSquare(t *testing.T) {
	in := Input{
		Layers:       []sketch.ImageLayer{{ID: "square", Image: solid(100, 100, color.Black), X: 100, Y: 100}},
		CanvasWidth:  640,
		CanvasHeight: 480,
		Settings:     settings(config.OrderTopToBottom),
	}

	res, err := ProcessItems(context.Background(), in)
	if err != nil {
		t.Fatalf("ProcessItems failed: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(res.Items))
	}

	item := res.Items[0]
	if len(item.Paths) != 1 {
		t.Fatalf("Expected a single outline path, got %d", len(item.Paths))
	}
	n := len(item.Paths[0].Points)
	if n < 380 || n > 420 {
		t.Errorf("Expected roughly 400 points, got %d", n)
	}
	if item.TotalPoints() != n {
		t.Errorf("TotalPoints %d does not match path points %d", item.TotalPoints(), n)
	}
	if item.Type != sketch.ItemImage || item.ColorCanvas == nil {
		t.Errorf("Unexpected item %+v", item)
	}
	for _, p := range item.Paths[0].Points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			t.Fatalf("Point out of normalized range: %v", p)
		}
	}
	t.Logf("Square traced into %d points", n)
}

func TestProcessItemsOrdersLayers(t *testing.T) {
	in := Input{
		Layers: []sketch.ImageLayer{
			{ID: "B", Image: solid(60, 60, color.Black), X: 20, Y: 300},
			{ID: "A", Image: solid(60, 60, color.Black), X: 300, Y: 20},
		},
		CanvasWidth:  640,
		CanvasHeight: 480,
		Settings:     settings(config.OrderTopToBottom),
	}

	res, err := ProcessItems(context.Background(), in)
	if err != nil {
		t.Fatalf("ProcessItems failed: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].ID != "A" || res.Items[1].ID != "B" {
		t.Errorf("Expected A before B, got %v", ids(res.Items))
	}
}

func TestProcessItemsSkipsBrokenLayer(t *testing.T) {
	in := Input{
		Layers: []sketch.ImageLayer{
			{ID: "broken"},
			{ID: "ok", Image: solid(40, 40, color.Black), X: 10, Y: 10},
		},
		Texts:        []sketch.TextElement{{ID: "empty", Text: "   "}},
		CanvasWidth:  200,
		CanvasHeight: 200,
		Settings:     settings(config.OrderRandom),
	}

	res, err := ProcessItems(context.Background(), in)
	if err != nil {
		t.Fatalf("ProcessItems failed: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "ok" {
		t.Errorf("Expected only the valid layer, got %v", ids(res.Items))
	}
	if len(res.Errors) != 2 {
		t.Fatalf("Expected 2 item errors, got %d", len(res.Errors))
	}
	if !errors.Is(res.Errors[0].Err, ErrNoImage) || !errors.Is(res.Errors[1].Err, ErrEmptyBounds) {
		t.Errorf("Unexpected errors: %v", res.Errors)
	}
}

func TestProcessItemsBlankLayer(t *testing.T) {
	in := Input{
		Layers:       []sketch.ImageLayer{{ID: "blank", Image: image.NewRGBA(image.Rect(0, 0, 50, 50))}},
		CanvasWidth:  100,
		CanvasHeight: 100,
	}
	res, err := ProcessItems(context.Background(), in)
	if err != nil {
		t.Fatalf("ProcessItems failed: %v", err)
	}
	if len(res.Items) != 1 || len(res.Items[0].Paths) != 0 {
		t.Errorf("Expected one item with no paths, got %+v", res.Items)
	}
}

func TestProcessItemsText(t *testing.T) {
	in := Input{
		Texts: []sketch.TextElement{{
			ID: "title", Text: "Hi\nthere", X: 320, Y: 40, FontSize: 48, Color: "#202020", Bold: true, Align: "center",
		}},
		CanvasWidth:  640,
		CanvasHeight: 480,
		Settings:     settings(config.OrderSmartFlow),
	}

	res, err := ProcessItems(context.Background(), in)
	if err != nil {
		t.Fatalf("ProcessItems failed: %v", err)
	}
	if len(res.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d (errors %v)", len(res.Items), res.Errors)
	}
	item := res.Items[0]
	if item.Type != sketch.ItemText || len(item.Paths) == 0 {
		t.Errorf("Expected traced text paths, got %d", len(item.Paths))
	}
	// Centred on x=320
	mid := item.X + item.Width/2
	if mid < 310 || mid > 330 {
		t.Errorf("Expected text centred near 320, got %d", mid)
	}
	t.Logf("Text produced %d paths, %d points", len(item.Paths), item.TotalPoints())
}

func TestProcessItemsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := Input{
		Layers:       []sketch.ImageLayer{{ID: "sq", Image: solid(30, 30, color.Black)}},
		CanvasWidth:  100,
		CanvasHeight: 100,
	}
	if _, err := ProcessItems(ctx, in); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCacheReusesResult(t *testing.T) {
	img := solid(30, 30, color.Black)
	in := Input{
		Layers:       []sketch.ImageLayer{{ID: "sq", Image: img, X: 10, Y: 10}},
		CanvasWidth:  100,
		CanvasHeight: 100,
		Settings:     config.DefaultSettings(),
	}

	var c Cache
	if _, err := c.Get(context.Background(), in); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := c.Get(context.Background(), in); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c.Misses() != 1 {
		t.Errorf("Expected 1 miss for identical input, got %d", c.Misses())
	}

	in.Settings.EdgeSensitivity = 0.9
	if _, err := c.Get(context.Background(), in); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	in.Layers[0].X = 20
	if _, err := c.Get(context.Background(), in); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if c.Misses() != 3 {
		t.Errorf("Expected settings and layer changes to recompute, got %d misses", c.Misses())
	}

	// Render-only settings do not invalidate
	in.Settings.ShowHand = !in.Settings.ShowHand
	in.Settings.PaperColor = "#000"
	if Key(in) != c.key {
		t.Error("Render-only settings changed the key")
	}
}

func ids(items []sketch.ProcessedItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestRasterizeLayerZeroOpacity(t *testing.T) {
	zero := 0.0
	l := sketch.ImageLayer{ID: "hidden", Image: solid(10, 10, color.Black), Opacity: &zero}

	img, _, err := RasterizeLayer(l)
	if err != nil {
		t.Fatalf("RasterizeLayer failed: %v", err)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			t.Fatalf("Expected a fully transparent raster, found alpha %d", img.Pix[i])
		}
	}

	res, err := ProcessItems(context.Background(), Input{
		Layers:       []sketch.ImageLayer{l},
		CanvasWidth:  50,
		CanvasHeight: 50,
	})
	if err != nil {
		t.Fatalf("ProcessItems failed: %v", err)
	}
	if len(res.Items) != 1 || len(res.Items[0].Paths) != 0 {
		t.Errorf("Hidden layer should have no strokes, got %+v", res.Items)
	}
}

func TestProcessItemsUnknownDetector(t *testing.T) {
	s := config.DefaultSettings()
	s.EdgeDetector = "canny"
	in := Input{
		Layers: []sketch.ImageLayer{
			{ID: "a", Image: solid(20, 20, color.Black)},
			{ID: "b", Image: solid(20, 20, color.Black), X: 30},
		},
		CanvasWidth:  100,
		CanvasHeight: 100,
		Settings:     s,
	}

	res, err := ProcessItems(context.Background(), in)
	if err != nil {
		t.Fatalf("An unknown detector should not fail the batch: %v", err)
	}
	if len(res.Items) != 0 || len(res.Errors) != 2 {
		t.Fatalf("Expected 2 item errors, got %d items and %v", len(res.Items), res.Errors)
	}
	for _, e := range res.Errors {
		if !errors.Is(e.Err, analyzer.ErrUnknownVariant) {
			t.Errorf("Item %s: got %v, want ErrUnknownVariant", e.ID, e.Err)
		}
	}

	s.EdgeDetector = "sobel-nms"
	in.Settings = s
	if Key(in) == Key(Input{Layers: in.Layers, CanvasWidth: 100, CanvasHeight: 100, Settings: config.DefaultSettings()}) {
		t.Error("Detector variant should be part of the key")
	}
	res, err = ProcessItems(context.Background(), in)
	if err != nil || len(res.Items) != 2 {
		t.Errorf("Named default detector: items %d, err %v", len(res.Items), err)
	}
}
