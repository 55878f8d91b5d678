// Package tick provides the fixed-rate event that drives the control loop.
package tick

import "time"

// Period is the control loop rate: 1 kHz.
const Period = time.Millisecond

// Source delivers ticks. The loop waits on C and handles one tick per value.
type Source interface {
	C() <-chan time.Time
	Stop()
}

// Ticker is a Source backed by time.Ticker. Ticks missed while the loop is
// busy are dropped by the runtime, never queued up.
type Ticker struct {
	t *time.Ticker
}

// NewTicker starts a ticker with the given period.
func NewTicker(period time.Duration) *Ticker {
	return &Ticker{t: time.NewTicker(period)}
}

func (t *Ticker) C() <-chan time.Time { return t.t.C }

func (t *Ticker) Stop() { t.t.Stop() }

// Manual is a Source for tests: each Fire blocks until the loop has taken
// the tick.
type Manual struct {
	ch      chan time.Time
	stopped bool
}

// NewManual returns a Manual with an unbuffered channel.
func NewManual() *Manual {
	return &Manual{ch: make(chan time.Time)}
}

func (m *Manual) C() <-chan time.Time { return m.ch }

// Fire delivers one tick carrying t.
func (m *Manual) Fire(t time.Time) {
	m.ch <- t
}

// FireN delivers n ticks.
func (m *Manual) FireN(n int) {
	for i := 0; i < n; i++ {
		m.ch <- time.Time{}
	}
}

// Stop marks the source stopped. The channel is left open, as with
// time.Ticker.
func (m *Manual) Stop() { m.stopped = true }

// Stopped reports whether Stop was called.
func (m *Manual) Stopped() bool { return m.stopped }
