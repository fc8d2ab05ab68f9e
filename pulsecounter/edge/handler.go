package edge

import (
	"io"
	"log/slog"
)

// Handler is the body of the GPIO interrupt service routine. One Handler
// serves both the counter input and the clear button.
type Handler struct {
	counter  *Counter
	events   *Queue
	clearPin uint32
}

// NewHandler returns a Handler that clears the counter on clearPin and
// counts edges on every other pin it is attached to.
func NewHandler(counter *Counter, events *Queue, clearPin uint32) *Handler {
	return &Handler{
		counter:  counter,
		events:   events,
		clearPin: clearPin,
	}
}

// OnEdge is called from interrupt context with the pin that fired and the
// level sampled on that pin inside the handler. It must not block or
// allocate.
//
// Any edge on the clear pin resets the counter, but only a low level
// (button pressed against the pull-up) counts as a press and queues an
// event, so contact chatter on release does not flood the consumer. Edges
// on every other pin count.
func (h *Handler) OnEdge(pin uint32, level bool) {
	if pin != h.clearPin {
		h.counter.Inc()
		return
	}
	h.counter.Reset()
	if !level {
		h.counter.press()
		h.events.TrySend(pin)
	}
}

// Consumer is the background task that drains the event queue.
type Consumer struct {
	events   *Queue
	clearPin uint32
	logger   *slog.Logger
	onClear  func()
}

// NewConsumer creates a Consumer for events. A nil logger discards output.
// onClear, if non-nil, is called from the consumer goroutine after each
// clear event.
func NewConsumer(events *Queue, clearPin uint32, logger *slog.Logger, onClear func()) *Consumer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Consumer{
		events:   events,
		clearPin: clearPin,
		logger:   logger,
		onClear:  onClear,
	}
}

// Run processes events until the queue is closed. On the firmware the queue
// is never closed, so Run should be called in its own goroutine.
func (c *Consumer) Run() {
	for {
		pin, ok := c.events.Receive()
		if !ok {
			return
		}
		c.handle(pin)
	}
}

func (c *Consumer) handle(pin uint32) {
	if pin != c.clearPin {
		c.logger.Debug("edge:ignored event", slog.Uint64("pin", uint64(pin)))
		return
	}
	c.logger.Info("clearing counter")
	if c.onClear != nil {
		c.onClear()
	}
}
