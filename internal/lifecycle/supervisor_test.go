package lifecycle

import (
	"sync"
	"testing"
	"time"
)

func TestScheduleIsIdempotent(t *testing.T) {
	sched := &ManualScheduler{}
	calls := 0
	s := NewSupervisor(5*time.Second, sched, func() { calls++ }, nil)

	if !s.Schedule() {
		t.Fatal("first Schedule should start a timer")
	}
	for i := 0; i < 10; i++ {
		if s.Schedule() {
			t.Fatalf("Schedule #%d started a second timer", i+2)
		}
	}
	if got := len(sched.Pending()); got != 1 {
		t.Fatalf("pending timers = %d, want 1", got)
	}
	if sched.Pending()[0].Delay != 5*time.Second {
		t.Errorf("delay = %s, want 5s", sched.Pending()[0].Delay)
	}

	sched.FireAll(0)
	if calls != 1 {
		t.Errorf("reconnect calls = %d, want 1", calls)
	}
	if s.Pending() {
		t.Error("timer should clear itself after firing")
	}

	// A fresh disconnect after the timer fired may schedule again.
	if !s.Schedule() {
		t.Error("Schedule after fire should start a new timer")
	}
}

func TestCancelPreventsReconnect(t *testing.T) {
	sched := &ManualScheduler{}
	calls := 0
	s := NewSupervisor(time.Second, sched, func() { calls++ }, nil)

	s.Schedule()
	timer := sched.Pending()[0]
	s.Cancel()

	if s.Pending() {
		t.Error("Cancel should clear the pending timer")
	}
	if timer.Fire() {
		t.Error("stopped timer should not fire")
	}
	if calls != 0 {
		t.Errorf("reconnect calls = %d, want 0", calls)
	}
	s.Cancel() // no-op
}

// A timer that already started running when Cancel happened must not reach
// the reconnect function.
func TestCancelRacingWithFire(t *testing.T) {
	var captured func()
	sched := schedulerFunc(func(d time.Duration, f func()) Timer {
		captured = f
		return stopNoop{}
	})
	calls := 0
	s := NewSupervisor(time.Second, sched, func() { calls++ }, nil)

	s.Schedule()
	s.Cancel()
	captured()

	if calls != 0 {
		t.Errorf("reconnect calls = %d, want 0", calls)
	}
}

func TestScheduleConcurrent(t *testing.T) {
	sched := &ManualScheduler{}
	s := NewSupervisor(time.Second, sched, func() {}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Schedule()
		}()
	}
	wg.Wait()

	if got := len(sched.Pending()); got != 1 {
		t.Errorf("pending timers = %d, want 1", got)
	}
}

func TestRealSchedulerFires(t *testing.T) {
	done := make(chan struct{})
	s := NewSupervisor(time.Millisecond, RealScheduler(), func() { close(done) }, nil)
	s.Schedule()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconnect was not called")
	}
}

type schedulerFunc func(d time.Duration, f func()) Timer

func (fn schedulerFunc) AfterFunc(d time.Duration, f func()) Timer { return fn(d, f) }

type stopNoop struct{}

func (stopNoop) Stop() bool { return false }
