package edge

import (
	"sync/atomic"
	"time"
)

// QueueCapacity is the number of pending events the firmware queue holds.
const QueueCapacity = 10

// pollInterval is how long Receive sleeps between empty polls. TinyGo runs
// goroutines cooperatively, so the sleep is what lets other goroutines run.
const pollInterval = time.Millisecond

// Queue is a fixed-capacity FIFO of 32-bit values with exactly one producer
// and one consumer. The producer side is safe to call from an interrupt
// handler: it never blocks and never allocates.
//
// Read and write positions run over [0, 2*cap) so that a full queue can be
// told apart from an empty one without an extra flag.
type Queue struct {
	buf     []uint32
	head    atomic.Uint32 // next slot to read, owned by the consumer
	tail    atomic.Uint32 // next slot to write, owned by the producer
	dropped atomic.Uint32
	closed  atomic.Bool
}

// NewQueue returns an empty queue with room for capacity values.
// A capacity below one is treated as one.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{buf: make([]uint32, capacity)}
}

// TrySend appends v to the queue. If the queue is full or closed the value
// is dropped, the drop counter is incremented and TrySend returns false.
func (q *Queue) TrySend(v uint32) bool {
	if q.closed.Load() {
		q.dropped.Add(1)
		return false
	}
	t := q.tail.Load()
	if q.length(q.head.Load(), t) == uint32(len(q.buf)) {
		q.dropped.Add(1)
		return false
	}
	q.buf[t%uint32(len(q.buf))] = v
	q.tail.Store(q.next(t))
	return true
}

// TryReceive pops the oldest value without blocking.
func (q *Queue) TryReceive() (uint32, bool) {
	h := q.head.Load()
	if h == q.tail.Load() {
		return 0, false
	}
	v := q.buf[h%uint32(len(q.buf))]
	q.head.Store(q.next(h))
	return v, true
}

// Receive blocks until a value is available and returns it. It returns
// false once the queue has been closed and every pending value consumed.
func (q *Queue) Receive() (uint32, bool) {
	for {
		if v, ok := q.TryReceive(); ok {
			return v, true
		}
		if q.closed.Load() {
			// A send may have landed between the poll and the close check.
			return q.TryReceive()
		}
		time.Sleep(pollInterval)
	}
}

// Close stops the queue from accepting values. Pending values can still
// be received.
func (q *Queue) Close() {
	q.closed.Store(true)
}

// Len returns the number of pending values.
func (q *Queue) Len() int {
	return int(q.length(q.head.Load(), q.tail.Load()))
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Dropped returns the number of values rejected by TrySend.
func (q *Queue) Dropped() uint32 {
	return q.dropped.Load()
}

func (q *Queue) next(i uint32) uint32 {
	i++
	if i == 2*uint32(len(q.buf)) {
		i = 0
	}
	return i
}

func (q *Queue) length(head, tail uint32) uint32 {
	if tail >= head {
		return tail - head
	}
	return 2*uint32(len(q.buf)) - head + tail
}
