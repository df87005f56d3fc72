// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package scheduler implements the single-threaded cooperative event loop
// that multiplexes packet-source readiness against expiry timers. No
// operation in the core blocks; timer callbacks are handed to the loop
// through one channel and packet readers are polled by the loop itself,
// so the trigger engine and ban trie are touched from exactly one
// goroutine, which is what guarantees BAN-before-UNBAN ordering without
// locking (spec.md §5).
package scheduler

import (
	"context"
	"time"

	"grimm.is/ddosentinel/internal/clock"
	"grimm.is/ddosentinel/internal/logging"
)

// defaultBatchSize bounds how many packets the loop drains per readiness
// event before yielding back to select, mirroring the source's `ctr =
// 5000` drain loop in src_nfq_handle.
const defaultBatchSize = 5000

var logger = logging.WithComponent("scheduler")

// work is a single unit of serialized execution: a fired timer callback
// queued by AfterFunc. Packet batches are drained by Run polling the
// registered readers directly, not through this channel.
type work func()

// Loop is the cooperative event loop. Construct with New, register a
// packet source with RegisterReader, then call Run.
type Loop struct {
	clock     clock.Clock
	batchSize int
	workCh    chan work
	readers   []Reader
}

// Reader is the minimal packet-source contract the loop polls: Poll
// drains up to batchSize ready packets (dissecting and injecting each
// one through whatever pipeline the reader was constructed with) and
// returns the number handled. Zero means nothing was ready.
type Reader interface {
	Poll(batchSize int) (int, error)
}

// Option configures a Loop at construction time.
type Option func(*Loop)

// WithClock overrides the loop's wall-clock source.
func WithClock(c clock.Clock) Option {
	return func(l *Loop) { l.clock = c }
}

// WithBatchSize overrides the per-readiness-event drain bound.
func WithBatchSize(n int) Option {
	return func(l *Loop) { l.batchSize = n }
}

// New returns a Loop with no registered readers.
func New(opts ...Option) *Loop {
	l := &Loop{
		clock:     clock.Real{},
		batchSize: defaultBatchSize,
		workCh:    make(chan work, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RegisterReader adds a packet source to be polled each loop iteration.
func (l *Loop) RegisterReader(r Reader) {
	l.readers = append(l.readers, r)
}

// Now returns the loop's current wall-clock time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// AfterFunc arms a one-shot timer that, on fire, enqueues cb to run
// serialized on the loop goroutine rather than the timer's own goroutine.
// This is what lets expiry callbacks safely touch the ban trie.
func (l *Loop) AfterFunc(d time.Duration, cb func()) *time.Timer {
	return time.AfterFunc(d, func() {
		select {
		case l.workCh <- cb:
		default:
			// The work channel is unbuffered-equivalent (cap 1) and
			// already holds a pending item; block until it drains so no
			// timer callback is dropped.
			l.workCh <- cb
		}
	})
}

// Run polls all registered readers in a tight drain loop, interleaved
// with any timer callbacks queued via AfterFunc, until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cb := <-l.workCh:
			cb()
		default:
		}

		idle := true
		for _, r := range l.readers {
			n, err := r.Poll(l.batchSize)
			if err != nil {
				logger.Warn("reader poll failed", "err", err)
				continue
			}
			if n > 0 {
				idle = false
			}
		}

		if idle {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case cb := <-l.workCh:
				cb()
			case <-time.After(time.Millisecond):
			}
		}
	}
}
