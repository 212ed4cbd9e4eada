package timeline

import "sync"

// Driver owns the playhead. Export steps it with a fixed delta, the preview
// server seeks it; both read the same Schedule.
type Driver struct {
	mu      sync.Mutex
	sched   *Schedule
	t       float64
	playing bool
}

func NewDriver(s *Schedule) *Driver {
	return &Driver{sched: s}
}

// SetSchedule swaps the schedule, keeping the playhead where possible.
func (d *Driver) SetSchedule(s *Schedule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sched = s
	d.t = d.clamp(d.t)
}

func (d *Driver) Play() {
	d.mu.Lock()
	d.playing = true
	d.mu.Unlock()
}

func (d *Driver) Pause() {
	d.mu.Lock()
	d.playing = false
	d.mu.Unlock()
}

func (d *Driver) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// Seek moves the playhead to t seconds.
func (d *Driver) Seek(t float64) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t = d.clamp(t)
	return d.sched.At(d.t)
}

// Advance moves a playing driver forward by dt seconds and stops it at the
// end of the schedule. A paused driver only reports its state.
func (d *Driver) Advance(dt float64) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.playing && dt > 0 {
		d.t = d.clamp(d.t + dt)
		if d.t >= d.sched.Total() {
			d.playing = false
		}
	}
	return d.sched.At(d.t)
}

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sched.At(d.t)
}

func (d *Driver) Time() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t
}

func (d *Driver) Finished() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t >= d.sched.Total()
}

func (d *Driver) clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if total := d.sched.Total(); t > total {
		return total
	}
	return t
}
