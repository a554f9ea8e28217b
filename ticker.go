package pulseout

import (
	"sync"
	"time"
)

// Ticker drives the feed loop. Start calls fn every period until Stop is called.
// Start on a running ticker replaces the previous schedule.
type Ticker interface {
	Start(period time.Duration, fn func())
	Stop()
}

// Clock supplies the current time for elapsed-time bookkeeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return systemClock{}
}

// timeTicker runs the callback on its own goroutine using a time.Ticker.
type timeTicker struct {
	mu   sync.Mutex
	done chan struct{}
}

// NewTimeTicker returns a Ticker backed by time.Ticker.
func NewTimeTicker() Ticker {
	return &timeTicker{}
}

func (t *timeTicker) Start(period time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		close(t.done)
	}

	done := make(chan struct{})
	t.done = done

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Stop does not wait for a callback in progress to return.
func (t *timeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		close(t.done)
		t.done = nil
	}
}
