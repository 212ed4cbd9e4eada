package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// FramePool recycles canvas-sized RGBA buffers. A project has one canvas
// size, so the pool holds a single size and ignores foreign buffers.
type FramePool struct {
	rect image.Rectangle
	pool sync.Pool

	inUse     atomic.Int64
	allocated atomic.Int64
}

func NewFramePool(width, height int) *FramePool {
	p := &FramePool{rect: image.Rect(0, 0, width, height)}
	p.pool.New = func() any {
		p.allocated.Add(1)
		return image.NewRGBA(p.rect)
	}
	return p
}

// Get returns a buffer with undefined contents; renderers overwrite every
// pixel.
func (p *FramePool) Get() *image.RGBA {
	p.inUse.Add(1)
	return p.pool.Get().(*image.RGBA)
}

// Put hands a buffer back. nil and buffers of another size are dropped.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil || img.Rect != p.rect {
		return
	}
	p.inUse.Add(-1)
	p.pool.Put(img)
}

func (p *FramePool) Bounds() image.Rectangle { return p.rect }

// InUse is the number of buffers taken and not yet returned.
func (p *FramePool) InUse() int64 { return p.inUse.Load() }

// Allocated counts buffers the pool had to create.
func (p *FramePool) Allocated() int64 { return p.allocated.Load() }
