// package delivery coordinates the full lifecycle of a request, from
// classification through resolution, acquisition and the final upload.
package delivery

import (
	"sync"
	"time"
)

// Reporter throttles and serializes progress updates for one request.
//
// Accepted percents are strictly increasing and never reach 100; completion
// is communicated by the delivery itself, not by the progress stream. Sink
// calls happen on a dedicated goroutine and are best effort: when the sink is
// still busy with the previous update, new ones are dropped rather than
// blocking the transfer.
type Reporter struct {
	sink     func(percent int)
	interval time.Duration
	minDelta int

	mu       sync.Mutex
	last     int
	lastSent time.Time
	now      func() time.Time

	updates chan int
	done    chan struct{}
	closed  sync.Once
}

// NewReporter starts a reporter feeding sink. An update is forwarded when it
// advances past the last accepted percent by at least minDelta and at least
// interval has elapsed since the last forward; the first update always
// passes. Close must be called when the request finishes.
func NewReporter(sink func(percent int), interval time.Duration, minDelta int) *Reporter {
	r := &Reporter{
		sink:     sink,
		interval: interval,
		minDelta: minDelta,
		last:     -1,
		now:      time.Now,
		updates:  make(chan int, 1),
		done:     make(chan struct{}),
	}

	go r.dispatch()

	return r
}

func (r *Reporter) dispatch() {
	defer close(r.done)
	for percent := range r.updates {
		r.sink(percent)
	}
}

// Report offers a percent to the reporter. Safe for concurrent use; never
// blocks.
func (r *Reporter) Report(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 99 {
		percent = 99
	}

	r.mu.Lock()
	if percent <= r.last {
		r.mu.Unlock()
		return
	}
	now := r.now()
	if r.last >= 0 {
		if percent-r.last < r.minDelta || now.Sub(r.lastSent) < r.interval {
			r.mu.Unlock()
			return
		}
	}
	r.last = percent
	r.lastSent = now
	r.mu.Unlock()

	select {
	case r.updates <- percent:
	default:
	}
}

// Close stops the dispatch goroutine and waits for any in-flight sink call.
// Report must not be called after Close.
func (r *Reporter) Close() {
	r.closed.Do(func() { close(r.updates) })
	<-r.done
}
