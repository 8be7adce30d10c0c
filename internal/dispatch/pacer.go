package dispatch

import (
	"sync"
	"time"
)

// Pacer spaces consecutive sends by a fixed interval.
type Pacer struct {
	mu            sync.Mutex
	nextAllowedAt time.Time
	interval      time.Duration
	sleep         func(time.Duration)
}

func NewPacer(interval time.Duration) *Pacer {
	if interval < 0 {
		interval = 0
	}
	return &Pacer{interval: interval, sleep: time.Sleep}
}

func (p *Pacer) WaitTurn() {
	p.mu.Lock()
	now := time.Now()
	scheduled := now
	if p.nextAllowedAt.After(now) {
		scheduled = p.nextAllowedAt
	}
	p.nextAllowedAt = scheduled.Add(p.interval)
	p.mu.Unlock()

	if wait := time.Until(scheduled); wait > 0 {
		p.sleep(wait)
	}
}
