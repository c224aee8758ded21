package need

import (
	"sync"
	"time"
)

// DefaultDebounce matches the 300ms quiet period of the search box.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces a burst of search keystrokes into a single delayed
// callback. Each Input cancels the previous pending fire and reschedules,
// so only the last term of a burst is ever delivered.
type Debouncer struct {
	delay time.Duration
	fire  func(term string)

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(delay time.Duration, fire func(term string)) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, fire: fire}
}

// Input schedules term for delivery after the quiet period, replacing any
// pending delivery.
func (d *Debouncer) Input(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.fire(term)
		}
	})
}

// Flush delivers a pending term immediately, if any. Used by tests and by
// explicit "search now" actions.
func (d *Debouncer) Flush(term string) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	stopped := d.stopped
	d.mu.Unlock()
	if !stopped {
		d.fire(term)
	}
}

// Stop cancels any pending delivery. The consumer is going away; firing
// after Stop would mutate a discarded session.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
