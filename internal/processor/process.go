// Package processor turns image layers and text elements into processed
// items: traced, smoothed and ordered paths plus the colour composite used as
// ground truth by the compositor.
package processor

import (
	"context"
	"fmt"
	"image"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/sketch2video/internal/analyzer"
	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/organizer"
	"github.com/ivlev/sketch2video/internal/sketch"
	"github.com/ivlev/sketch2video/internal/tracer"
)

// Input is everything a processed item set depends on.
type Input struct {
	Layers       []sketch.ImageLayer
	Texts        []sketch.TextElement
	CanvasWidth  int
	CanvasHeight int
	Settings     config.Settings
}

// ItemError records an item that was skipped.
type ItemError struct {
	ID  string
	Err error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %s: %v", e.ID, e.Err)
}

// Result is one complete processed item set. It is replaced wholesale, never
// patched.
type Result struct {
	Items  []sketch.ProcessedItem
	Errors []ItemError
	Key    uint64
}

type job struct {
	id     string
	typ    sketch.ItemType
	render func() (*image.RGBA, image.Point, error)
}

type slot struct {
	item sketch.ProcessedItem
	err  error
}

// Workers bounds per-item parallelism in ProcessItems.
var Workers = runtime.NumCPU()

// ProcessItems rasterizes and analyses every layer and then every text
// element. Items that fail are logged, reported in Result.Errors and skipped.
// Cancelling ctx aborts the whole batch and returns ctx.Err().
func ProcessItems(ctx context.Context, in Input) (Result, error) {
	settings := in.Settings.Normalize()
	// an unknown variant fails every item rather than the batch
	detector, detectorErr := analyzer.NewDetector(settings.EdgeDetector)

	jobs := make([]job, 0, len(in.Layers)+len(in.Texts))
	for _, l := range in.Layers {
		jobs = append(jobs, job{id: l.ID, typ: sketch.ItemImage, render: func() (*image.RGBA, image.Point, error) {
			return RasterizeLayer(l)
		}})
	}
	for _, t := range in.Texts {
		jobs = append(jobs, job{id: t.ID, typ: sketch.ItemText, render: func() (*image.RGBA, image.Point, error) {
			return RasterizeText(t)
		}})
	}

	slots := make([]slot, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if detectorErr != nil {
				slots[i] = slot{err: detectorErr}
				return nil
			}
			item, err := processOne(gctx, j, detector, settings)
			slots[i] = slot{item: item, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Key: Key(in)}
	items := make([]sketch.ProcessedItem, 0, len(slots))
	for i, s := range slots {
		if s.err != nil {
			log.Printf("[!] Объект %s пропущен: %v", jobs[i].id, s.err)
			res.Errors = append(res.Errors, ItemError{ID: jobs[i].id, Err: s.err})
			continue
		}
		items = append(items, s.item)
	}
	res.Items = organizer.OrderItems(items, settings.DrawingOrder, in.CanvasWidth, in.CanvasHeight)
	return res, nil
}

func processOne(ctx context.Context, j job, detector analyzer.Detector, settings config.Settings) (sketch.ProcessedItem, error) {
	colorCanvas, pos, err := j.render()
	if err != nil {
		return sketch.ProcessedItem{}, err
	}
	if err := ctx.Err(); err != nil {
		return sketch.ProcessedItem{}, err
	}

	analysis := downscale(colorCanvas, settings.AnalysisMaxSide)
	edges, err := detector.Detect(analysis, settings.EdgeSensitivity)
	if err != nil {
		return sketch.ProcessedItem{}, fmt.Errorf("edge detection: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return sketch.ProcessedItem{}, err
	}

	paths := tracer.Trace(edges)
	paths = tracer.SmoothPaths(paths, settings.StrokeSmoothness)
	paths = organizer.Organize(paths, settings.DrawingOrder)

	b := colorCanvas.Bounds()
	return sketch.ProcessedItem{
		ID:          j.id,
		Type:        j.typ,
		Paths:       paths,
		ColorCanvas: colorCanvas,
		X:           pos.X,
		Y:           pos.Y,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}
