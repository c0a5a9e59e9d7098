package debounce

import (
	"sync"
	"time"
)

// State is the lifecycle of the debouncer's current timer.
type State int

const (
	Idle State = iota
	Armed
	Fired
	Cancelled
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	case Cancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Stats counts timer transitions since creation.
type Stats struct {
	Armed     int
	Fired     int
	Cancelled int
}

// Debouncer owns a single settling timer. Each Trigger cancels the pending
// timer and arms a new one; only a timer that survives the whole window runs
// its callback.
type Debouncer struct {
	mu     sync.Mutex
	clock  Clock
	window time.Duration
	timer  Timer
	gen    uint64
	state  State
	stats  Stats
}

func New(clock Clock, window time.Duration) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock, window: window}
}

// Trigger (re)arms the timer to run fn once the window elapses without
// another Trigger or Stop.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelLocked()
	d.gen++
	gen := d.gen
	d.state = Armed
	d.stats.Armed++

	d.timer = d.clock.AfterFunc(d.window, func() {
		d.mu.Lock()
		// a real timer may already be running when Stop is called on it
		if gen != d.gen || d.state != Armed {
			d.mu.Unlock()
			return
		}
		d.state = Fired
		d.stats.Fired++
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

// Stop cancels a pending timer. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	if d.state != Armed || d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.state = Cancelled
	d.stats.Cancelled++
	return true
}

func (d *Debouncer) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Debouncer) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Debouncer) Window() time.Duration {
	return d.window
}
