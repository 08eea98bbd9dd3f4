package shithead

import (
	"sync"
	"time"
)

// countdownTimer races a deadline against cancellation. Exactly one of the
// two outcomes wins: either the deadline elapses and onTimeout runs once, or
// Cancel is called first and onTimeout never runs.
type countdownTimer struct {
	cancel     chan struct{}
	cancelOnce sync.Once
}

func startCountdown(duration time.Duration, onTimeout func()) *countdownTimer {
	t := &countdownTimer{cancel: make(chan struct{})}
	deadline := time.NewTimer(duration)
	go func() {
		defer deadline.Stop()
		select {
		case <-deadline.C:
			onTimeout()
		case <-t.cancel:
		}
	}()
	return t
}

// Cancel suppresses the timeout callback if it has not fired yet. Safe to
// call any number of times, including after the timer has already fired.
func (t *countdownTimer) Cancel() {
	t.cancelOnce.Do(func() { close(t.cancel) })
}
