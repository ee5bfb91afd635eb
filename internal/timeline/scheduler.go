package timeline

import (
	"sync"
	"time"
)

// FrameHandle identifies a pending frame callback. Zero means none.
type FrameHandle uint64

// Scheduler is the host's frame-callback primitive.
type Scheduler interface {
	RequestFrame(fn func()) FrameHandle
	CancelFrame(h FrameHandle)
}

// TimerScheduler runs each requested frame once after a fixed interval on a
// timer goroutine, holding lock. Callers that share state with the engine
// pass the Locker that guards every other engine call. A nil lock gets a
// private mutex, which only serializes frames with each other.
type TimerScheduler struct {
	interval time.Duration
	lock     sync.Locker

	mu     sync.Mutex
	next   FrameHandle
	timers map[FrameHandle]*time.Timer
}

func NewTimerScheduler(fps int, lock sync.Locker) *TimerScheduler {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	if lock == nil {
		lock = new(sync.Mutex)
	}
	return &TimerScheduler{
		interval: time.Second / time.Duration(fps),
		lock:     lock,
		timers:   make(map[FrameHandle]*time.Timer),
	}
}

func (s *TimerScheduler) RequestFrame(fn func()) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	h := s.next
	s.timers[h] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		delete(s.timers, h)
		s.mu.Unlock()

		s.lock.Lock()
		defer s.lock.Unlock()
		fn()
	})
	return h
}

func (s *TimerScheduler) CancelFrame(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[h]; ok {
		t.Stop()
		delete(s.timers, h)
	}
}

// Pending returns the number of frames not yet fired or cancelled.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
