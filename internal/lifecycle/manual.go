package lifecycle

import (
	"sync"
	"time"
)

// ManualScheduler is a Scheduler whose timers only run when fired
// explicitly. It lets tests drive reconnects deterministically.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*ManualTimer
}

type ManualTimer struct {
	Delay   time.Duration
	f       func()
	sched   *ManualScheduler
	stopped bool
	fired   bool
}

func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &ManualTimer{Delay: d, f: f, sched: m}
	m.timers = append(m.timers, t)
	return t
}

func (t *ManualTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns the timers that have neither fired nor been stopped.
func (m *ManualScheduler) Pending() []*ManualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ManualTimer
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// FireAll runs every pending timer whose delay equals d, in creation order,
// and returns how many ran. A zero d matches every delay.
func (m *ManualScheduler) FireAll(d time.Duration) int {
	n := 0
	for _, t := range m.Pending() {
		if d != 0 && t.Delay != d {
			continue
		}
		if t.Fire() {
			n++
		}
	}
	return n
}

// Fire runs the timer's function unless it was stopped or already fired.
func (t *ManualTimer) Fire() bool {
	t.sched.mu.Lock()
	if t.stopped || t.fired {
		t.sched.mu.Unlock()
		return false
	}
	t.fired = true
	t.sched.mu.Unlock()
	t.f()
	return true
}
