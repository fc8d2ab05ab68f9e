// Package edge implements the interrupt side of the pulse counter: a shared
// edge counter, a fixed-capacity event queue that interrupt handlers can
// push into without blocking, and the consumer that drains it.
//
// Nothing in this package touches the machine package, so the handoff logic
// runs under `go test` on the host as well as on the Pico.
package edge

import "sync/atomic"

// Counter is the running edge count. It is written from interrupt context
// and read from the reporting loop, so every access is atomic.
type Counter struct {
	count  atomic.Uint32
	clears atomic.Uint32
}

// Inc adds one edge to the count.
func (c *Counter) Inc() {
	c.count.Add(1)
}

// Reset sets the count back to zero.
func (c *Counter) Reset() {
	c.count.Store(0)
}

func (c *Counter) press() {
	c.clears.Add(1)
}

// Load returns the current count.
func (c *Counter) Load() uint32 {
	return c.count.Load()
}

// Clears returns how many clear button presses have been seen since boot.
// Release edges are not counted; contact bounce on press can still add
// extra presses.
func (c *Counter) Clears() uint32 {
	return c.clears.Load()
}
