// Package preview serves rendered frames of a project over HTTP while the
// project file is edited. Edits are picked up with POST /reload and
// reprocessed in the background.
package preview

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/ivlev/sketch2video/internal/engine"
	"github.com/ivlev/sketch2video/internal/processor"
	"github.com/ivlev/sketch2video/internal/renderer"
	"github.com/ivlev/sketch2video/internal/scene"
	"github.com/ivlev/sketch2video/internal/sketch"
	"github.com/ivlev/sketch2video/internal/source"
	"github.com/ivlev/sketch2video/internal/system"
	"github.com/ivlev/sketch2video/internal/texture"
	"github.com/ivlev/sketch2video/internal/timeline"
)

// Server owns one project: a scheduler per timeline frame, the driver used
// for playback and the composer built from the latest results.
type Server struct {
	path     string
	debounce time.Duration
	loader   *source.Loader
	textures texture.Generator

	mu         sync.Mutex
	scene      *scene.Project
	schedulers []*processor.Scheduler
	caches     []*processor.Cache
	pool       *system.FramePool
	driver     *timeline.Driver
	comp       *engine.Composer
	dirty      bool
	lastTick   time.Time
	now        func() time.Time
}

// New loads the project at path and starts processing it. A zero debounce
// uses processor.DefaultDebounce.
func New(path string, debounce time.Duration) (*Server, error) {
	s := &Server{
		path:     path,
		debounce: debounce,
		loader:   source.NewLoader(filepath.Dir(path)),
		now:      time.Now,
	}
	if err := s.Reload(false); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the project file and requests reprocessing of every frame.
// Work still running for the old file is superseded. Cached item sets are
// dropped when force is set or the settings changed; otherwise frames whose
// inputs are unchanged come straight from the cache.
func (s *Server) Reload(force bool) error {
	sc, err := scene.ReadProject(s.path)
	if err != nil {
		return fmt.Errorf("ошибка чтения проекта: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.schedulers) < len(sc.Frames) {
		cache := &processor.Cache{}
		sched := processor.NewScheduler(s.debounce, cache)
		sched.OnResult(func(processor.Result) { s.markDirty() })
		s.schedulers = append(s.schedulers, sched)
		s.caches = append(s.caches, cache)
	}
	for _, extra := range s.schedulers[len(sc.Frames):] {
		extra.Close()
	}
	s.schedulers = s.schedulers[:len(sc.Frames)]
	s.caches = s.caches[:len(sc.Frames)]

	if force || (s.scene != nil && s.scene.Settings != sc.Settings) {
		for _, c := range s.caches {
			c.Invalidate()
		}
	}
	if s.pool == nil || s.pool.Bounds() != image.Rect(0, 0, sc.Width, sc.Height) {
		s.pool = system.NewFramePool(sc.Width, sc.Height)
	}

	s.scene = sc
	if s.driver == nil {
		s.driver = timeline.NewDriver(sc.Schedule())
	} else {
		s.driver.SetSchedule(sc.Schedule())
	}
	for i, f := range sc.Frames {
		s.schedulers[i].Request(engine.BuildInput(sc, f, s.loader))
	}
	s.dirty = true
	return nil
}

func (s *Server) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Status is the JSON body of GET /status.
type Status struct {
	Processing bool    `json:"processing"`
	Generation uint64  `json:"generation"`
	Frames     int     `json:"frames"`
	Items      int     `json:"items"`
	Duration   float64 `json:"duration"`
	Time       float64 `json:"time"`
	Playing    bool    `json:"playing"`
	Phase      string  `json:"phase"`
	Error      string  `json:"error,omitempty"`
}

func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{Frames: len(s.scene.Frames)}
	for _, sched := range s.schedulers {
		snap := sched.Snapshot()
		st.Processing = st.Processing || snap.Processing
		st.Generation += snap.Generation
		st.Items += len(snap.Items)
		if snap.Err != nil && st.Error == "" {
			st.Error = snap.Err.Error()
		}
	}
	ds := s.driver.State()
	st.Duration = s.scene.Schedule().Total()
	st.Time = ds.Time
	st.Playing = s.driver.Playing()
	st.Phase = ds.Phase.String()
	return st
}

// composer returns a composer for the current results, or nil while any
// frame is still processing.
func (s *Server) composer() *engine.Composer {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([][]sketch.ProcessedItem, len(s.schedulers))
	for i, sched := range s.schedulers {
		snap := sched.Snapshot()
		if snap.Processing {
			return nil
		}
		items[i] = snap.Items
	}
	if s.comp != nil && !s.dirty {
		return s.comp
	}

	frames := make([]engine.PreparedFrame, len(items))
	for i := range items {
		frames[i] = engine.PrepareFrame(s.scene, i, items[i])
	}
	s.comp = engine.NewComposer(s.scene, frames, s.background())
	s.dirty = false
	return s.comp
}

func (s *Server) background() *image.RGBA {
	sc := s.scene
	return s.textures.Background(sc.Width, sc.Height, sc.Settings.Paper(), sc.Settings.Texture, sc.Settings.TextureIntensity)
}

// RenderAt draws the frame at time t, or at the playhead when t is negative.
// A playing driver advances by the wall-clock time since the last call. The
// frame comes from a pool; hand it back with Release.
func (s *Server) RenderAt(t float64) *image.RGBA {
	comp := s.composer()

	s.mu.Lock()
	now := s.now()
	var st timeline.State
	switch {
	case t >= 0:
		st = s.driver.Seek(t)
	case s.lastTick.IsZero():
		st = s.driver.State()
	default:
		st = s.driver.Advance(now.Sub(s.lastTick).Seconds())
	}
	s.lastTick = now
	bg := s.background()
	dst := s.pool.Get()
	s.mu.Unlock()

	if comp == nil {
		renderer.RenderProcessing(dst, bg)
		return dst
	}
	comp.Render(dst, st)
	return dst
}

// Release returns a frame from RenderAt to the pool.
func (s *Server) Release(img *image.RGBA) {
	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()
	pool.Put(img)
}

func (s *Server) Play() {
	s.mu.Lock()
	s.lastTick = s.now()
	s.driver.Play()
	s.mu.Unlock()
}

func (s *Server) Pause() {
	s.mu.Lock()
	s.driver.Pause()
	s.mu.Unlock()
}

// Wait blocks until every frame finished processing.
func (s *Server) Wait(ctx context.Context) error {
	s.mu.Lock()
	scheds := append([]*processor.Scheduler(nil), s.schedulers...)
	s.mu.Unlock()
	for _, sched := range scheds {
		if err := sched.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close stops all background processing.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sched := range s.schedulers {
		sched.Close()
	}
}
