// Package engine exports a project: it processes every frame's items, steps
// the timeline at a fixed rate and writes rendered frames in order.
package engine

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/sketch2video/internal/config"
	"github.com/ivlev/sketch2video/internal/processor"
	"github.com/ivlev/sketch2video/internal/renderer"
	"github.com/ivlev/sketch2video/internal/scene"
	"github.com/ivlev/sketch2video/internal/sketch"
	"github.com/ivlev/sketch2video/internal/source"
	"github.com/ivlev/sketch2video/internal/system"
	"github.com/ivlev/sketch2video/internal/texture"
	"github.com/ivlev/sketch2video/internal/timeline"
	"github.com/ivlev/sketch2video/internal/video"
)

// PreparedFrame is a project frame after processing.
type PreparedFrame struct {
	Items      []sketch.ProcessedItem
	Camera     []renderer.CameraKey
	Transition sketch.CameraTransition
}

// BuildInput loads the frame's layer sources and assembles processor input.
// Layers whose source cannot be loaded are logged and left out.
func BuildInput(sc *scene.Project, f scene.Frame, loader *source.Loader) processor.Input {
	layers := make([]sketch.ImageLayer, 0, len(f.Layers))
	for _, l := range f.Layers {
		img, err := loader.Load(l.Source)
		if err != nil {
			// Битый слой не должен ронять весь кадр
			log.Printf("[!] Слой %s пропущен: %v", l.ID, err)
			continue
		}
		layers = append(layers, sketch.ImageLayer{
			ID:       l.ID,
			Image:    img,
			X:        l.X,
			Y:        l.Y,
			Width:    l.Width,
			Height:   l.Height,
			Rotation: l.Rotation,
			ScaleX:   l.ScaleX,
			ScaleY:   l.ScaleY,
			Opacity:  l.Opacity,
		})
	}
	return processor.Input{
		Layers:       layers,
		Texts:        f.TextElements(),
		CanvasWidth:  sc.Width,
		CanvasHeight: sc.Height,
		Settings:     sc.Settings,
	}
}

// PrepareFrame turns processed items into a renderable frame, generating
// camera keys when the frame asks for an automatic camera.
func PrepareFrame(sc *scene.Project, i int, items []sketch.ProcessedItem) PreparedFrame {
	f := sc.Frames[i]
	pf := PreparedFrame{Items: items, Camera: f.Camera, Transition: f.CameraTransition()}
	if f.AutoCamera && len(f.Camera) == 0 {
		start := 0.0
		if i > 0 && !pf.Transition.IsCut() {
			start = pf.Transition.Duration
		}
		dur := f.Duration
		if dur <= 0 {
			dur = timeline.DefaultSketchSeconds
		}
		pf.Camera = scene.NewDirector(sc.Width, sc.Height).CameraKeys(items, start, dur)
	}
	return pf
}

// Prepare processes every frame of the project in order.
func Prepare(ctx context.Context, sc *scene.Project, loader *source.Loader) ([]PreparedFrame, error) {
	frames := make([]PreparedFrame, len(sc.Frames))
	// Кадры обрабатываются последовательно, объекты внутри кадра - параллельно
	for i, f := range sc.Frames {
		res, err := processor.ProcessItems(ctx, BuildInput(sc, f, loader))
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.ID, err)
		}
		frames[i] = PrepareFrame(sc, i, res.Items)
		fmt.Printf("[>] Кадр %d/%d: объектов %d, ошибок %d\n", i+1, len(sc.Frames), len(res.Items), len(res.Errors))
	}
	return frames, nil
}

// Project is one export run.
type Project struct {
	Config *config.Config
	Scene  *scene.Project
	Loader *source.Loader
	Sink   video.FrameSink
	// Pool отдает буферы кадров; nil - создается под размер холста
	Pool *system.FramePool

	textures texture.Generator
}

func NewProject(cfg *config.Config, sc *scene.Project, loader *source.Loader, sink video.FrameSink) *Project {
	return &Project{Config: cfg, Scene: sc, Loader: loader, Sink: sink}
}

// FrameCount is the number of output frames for a schedule at fps.
func FrameCount(s *timeline.Schedule, fps int) int {
	n := int(math.Ceil(s.Total()*float64(fps) - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()
	sc := p.Scene
	if len(sc.Frames) == 0 {
		return fmt.Errorf("проект не содержит кадров")
	}

	fmt.Println("--- [PROJECT: SKETCH ENGINE] ---")
	fmt.Printf("[*] Проект: %s | Кадров: %d\n", p.Config.InputPath, len(sc.Frames))
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Порядок: %s | Стиль: %s\n", sc.Width, sc.Height, sc.FPS, sc.Settings.DrawingOrder, sc.Settings.StrokeStyle)
	fmt.Println("-----------------------------")

	// 1. Анализ: контуры и пути для каждого кадра проекта
	processStart := time.Now()
	frames, err := Prepare(ctx, sc, p.Loader)
	if err != nil {
		return err
	}
	processTime := time.Since(processStart)

	// 2. Фон и финальные композиты кадров (нужны для переходов)
	bg := p.textures.Background(sc.Width, sc.Height, sc.Settings.Paper(), sc.Settings.Texture, sc.Settings.TextureIntensity)
	comp := NewComposer(sc, frames, bg)

	// 3. Шагаем таймлайн с фиксированным шагом 1/fps, независимо от скорости рендера
	driver := timeline.NewDriver(comp.Schedule)
	driver.Play()
	total := FrameCount(comp.Schedule, sc.FPS)
	states := make([]timeline.State, total)
	for i := range states {
		states[i] = driver.State()
		driver.Advance(1 / float64(sc.FPS))
	}

	workers := p.Config.Workers
	if workers <= 0 {
		workers = 1
	}
	fmt.Printf("[*] Рендеринг %d кадров (%.2fs), потоков: %d\n", total, comp.Schedule.Total(), workers)

	pool := p.Pool
	if pool == nil || pool.Bounds() != image.Rect(0, 0, sc.Width, sc.Height) {
		pool = system.NewFramePool(sc.Width, sc.Height)
		p.Pool = pool
	}

	// 4. Рендерим пачками параллельно, пишем строго по порядку
	renderStart := time.Now()
	var writeTime time.Duration
	batch := workers * 2
	for start := 0; start < total; start += batch {
		end := min(start+batch, total)
		bufs := make([]*image.RGBA, end-start)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				buf := pool.Get()
				comp.Render(buf, states[i])
				bufs[i-start] = buf
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			releaseAll(pool, bufs)
			return err
		}

		ws := time.Now()
		for i, buf := range bufs {
			if err := p.Sink.WriteFrame(buf); err != nil {
				// Возвращаем в пул и этот, и еще не записанные буферы
				releaseAll(pool, bufs[i:])
				return fmt.Errorf("кадр %d: %w", start+i, err)
			}
			pool.Put(buf)
		}
		writeTime += time.Since(ws)
		fmt.Printf("[>] Готово: %d/%d\n", end, total)
	}
	renderTime := time.Since(renderStart) - writeTime

	if err := p.Sink.Close(); err != nil {
		return fmt.Errorf("ошибка сборки финального видео: %w", err)
	}

	if p.Config.ShowStats {
		p.report(time.Since(startTime), processTime, renderTime, writeTime, total)
	}
	return nil
}

// releaseAll returns buffers to the pool; nil entries were never taken.
func releaseAll(pool *system.FramePool, bufs []*image.RGBA) {
	for _, b := range bufs {
		pool.Put(b)
	}
}

func (p *Project) report(totalTime, processTime, renderTime, writeTime time.Duration, frames int) {
	fps := float64(frames) / totalTime.Seconds()
	stats, err := system.CollectStats()
	if err != nil {
		log.Printf("[!] Статистика системы неполная: %v", err)
	}

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Processing (edges/paths): %.2fs\n"+
			"Rendering (CPU): %.2fs\n"+
			"Encoding/Writing: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"Frame buffers: %d\n"+
			"System: %s\n"+
			"----------------------------\n",
		p.Config.BuildVersion, totalTime.Seconds(), processTime.Seconds(), renderTime.Seconds(), writeTime.Seconds(), fps, p.Pool.Allocated(), stats,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Input: %s | Frames: %d | Total: %.2fs | Process: %.2fs | Render: %.2fs | FPS: %.2f | RSS: %.1fMB\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		filepath.Base(p.Config.InputPath),
		frames,
		totalTime.Seconds(),
		processTime.Seconds(),
		renderTime.Seconds(),
		fps,
		stats.ProcessRSSMB,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}
