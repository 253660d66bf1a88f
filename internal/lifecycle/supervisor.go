// internal/lifecycle/supervisor.go
// Provides the per-transport reconnect supervisor.
package lifecycle

import (
	"sync"
	"time"

	"github.com/erilali/mcbridge/internal/logger"
)

// Timer is a pending deferred call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. The real implementation is time.AfterFunc;
// tests substitute a manual one.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler returns the wall-clock scheduler.
func RealScheduler() Scheduler { return realScheduler{} }

// Supervisor holds at most one pending reconnect timer. When the timer fires
// it clears itself and calls the reconnect function.
type Supervisor struct {
	mu        sync.Mutex
	delay     time.Duration
	scheduler Scheduler
	reconnect func()
	timer     Timer
	seq       uint64 // identifies the pending timer; bumped on Cancel
	logger    *logger.Logger
}

func NewSupervisor(delay time.Duration, scheduler Scheduler, reconnect func(), log *logger.Logger) *Supervisor {
	if scheduler == nil {
		scheduler = RealScheduler()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Supervisor{
		delay:     delay,
		scheduler: scheduler,
		reconnect: reconnect,
		logger:    log,
	}
}

// Schedule starts the reconnect timer. It returns false without doing
// anything when a timer is already pending.
func (s *Supervisor) Schedule() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.logger.Debug("Reconnect already scheduled")
		return false
	}
	s.seq++
	seq := s.seq
	s.logger.Infof("Reconnecting in %s...", s.delay)
	s.timer = s.scheduler.AfterFunc(s.delay, func() { s.fire(seq) })
	return true
}

func (s *Supervisor) fire(seq uint64) {
	s.mu.Lock()
	if s.timer == nil || s.seq != seq {
		// cancelled after the timer had already started running
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()
	s.reconnect()
}

// Cancel clears any pending timer. Once Cancel returns, a timer that was
// pending will not call reconnect.
func (s *Supervisor) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.seq++
	s.logger.Debug("Pending reconnect cancelled")
}

func (s *Supervisor) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
