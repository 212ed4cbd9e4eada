package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ivlev/sketch2video/internal/sketch"
)

// DefaultDebounce is the idle delay before a processing request starts.
const DefaultDebounce = 50 * time.Millisecond

var ErrSuperseded = errors.New("processing request superseded")

// Snapshot is the scheduler state seen by a renderer.
type Snapshot struct {
	Items      []sketch.ProcessedItem
	Processing bool
	Generation uint64
	Err        error
}

// Scheduler runs processing in the background after input settles. Each
// request bumps a generation counter and cancels in-flight work; a result is
// applied only if its generation is still current.
type Scheduler struct {
	delay   time.Duration
	process func(context.Context, Input) (Result, error)

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	processing bool
	current    Result
	lastErr    error
	onResult   func(Result)
	closed     bool
}

// NewScheduler creates a scheduler backed by cache. A zero delay uses
// DefaultDebounce.
func NewScheduler(delay time.Duration, cache *Cache) *Scheduler {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if cache == nil {
		cache = &Cache{}
	}
	return &Scheduler{delay: delay, process: cache.Get}
}

// OnResult registers a callback invoked with every applied result.
func (s *Scheduler) OnResult(fn func(Result)) {
	s.mu.Lock()
	s.onResult = fn
	s.mu.Unlock()
}

// Request schedules processing of in, superseding anything pending or running.
func (s *Scheduler) Request(in Input) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.generation
	}

	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.processing = true
	s.timer = time.AfterFunc(s.delay, func() { s.run(gen, in) })
	return gen
}

func (s *Scheduler) run(gen uint64, in Input) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.process(ctx, in)
	cancel()

	s.mu.Lock()
	if gen != s.generation {
		// a newer request owns the state now
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	s.processing = false
	s.lastErr = err
	if err == nil {
		s.current = res
	}
	cb := s.onResult
	s.mu.Unlock()

	if err == nil && cb != nil {
		cb(res)
	}
}

// Snapshot returns the latest applied items and whether work is pending.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Items:      s.current.Items,
		Processing: s.processing,
		Generation: s.generation,
		Err:        s.lastErr,
	}
}

// Wait blocks until no request is pending or running.
func (s *Scheduler) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := s.Snapshot()
		if !snap.Processing {
			return snap.Err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close cancels pending work. Later requests are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.processing = false
	s.lastErr = ErrSuperseded
}
