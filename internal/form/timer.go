package form

import (
	"sync"
	"time"
)

// Timer 已调度的一次性回调
type Timer interface {
	Stop() bool
}

// Scheduler creates one-shot timers. Tests replace it to control time.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RedirectHandle is the disposable handle of one armed redirect. The owner must
// call Cancel in its teardown path; Controller.Close does so for the pending handle.
type RedirectHandle struct {
	c     *Controller
	timer Timer
	delay time.Duration

	mu        sync.Mutex
	cancelled bool
	fired     bool
}

// Cancel stops the redirect. It reports whether the redirect was still pending.
func (h *RedirectHandle) Cancel() bool {
	if h == nil {
		return false
	}
	return h.c.cancelRedirect(h)
}

// Pending reports whether the redirect can still fire.
func (h *RedirectHandle) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.cancelled && !h.fired
}

// Delay is the configured time between arming and firing.
func (h *RedirectHandle) Delay() time.Duration { return h.delay }

// claim marks the handle as fired; false if it was cancelled first.
func (h *RedirectHandle) claim() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled || h.fired {
		return false
	}
	h.fired = true
	return true
}

// stop marks the handle cancelled and stops its timer.
func (h *RedirectHandle) stop() bool {
	h.mu.Lock()
	if h.cancelled || h.fired {
		h.mu.Unlock()
		return false
	}
	h.cancelled = true
	h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
	return true
}
