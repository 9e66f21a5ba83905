package workspace

import (
	"sync"
	"time"

	"shipyard/internal/history"
)

// AutoSaver runs save once interval passes without a Touch.
type AutoSaver struct {
	interval  time.Duration
	save      func()
	afterFunc history.AfterFunc

	mu      sync.Mutex
	timer   history.Timer
	gen     uint64
	stopped bool
}

// NewAutoSaver returns an idle auto-saver. afterFunc defaults to
// time.AfterFunc.
func NewAutoSaver(interval time.Duration, save func(), afterFunc history.AfterFunc) *AutoSaver {
	if afterFunc == nil {
		afterFunc = func(d time.Duration, f func()) history.Timer { return time.AfterFunc(d, f) }
	}
	return &AutoSaver{interval: interval, save: save, afterFunc: afterFunc}
}

// Touch restarts the countdown.
func (a *AutoSaver) Touch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.timer = a.afterFunc(a.interval, func() { a.fire(gen) })
}

func (a *AutoSaver) fire(gen uint64) {
	a.mu.Lock()
	if a.stopped || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()
	a.save()
}

// Stop cancels the countdown permanently.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
