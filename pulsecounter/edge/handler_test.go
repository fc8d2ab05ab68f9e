package edge

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

const (
	testCountPin = 16
	testClearPin = 20
)

func TestHandlerCountsEdges(t *testing.T) {
	var c Counter
	q := NewQueue(QueueCapacity)
	h := NewHandler(&c, q, testClearPin)

	for i := 0; i < 250; i++ {
		h.OnEdge(testCountPin, true)
	}
	if c.Load() != 250 {
		t.Errorf("want count 250, got %d", c.Load())
	}
	if q.Len() != 0 {
		t.Errorf("counting edges should not queue events, got %d", q.Len())
	}
}

func TestHandlerClearPin(t *testing.T) {
	tests := []struct {
		name       string
		level      bool
		wantEvents int
		wantClears uint32
	}{
		{name: "pressed", level: false, wantEvents: 1, wantClears: 1},
		{name: "released", level: true, wantEvents: 0, wantClears: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Counter
			q := NewQueue(QueueCapacity)
			h := NewHandler(&c, q, testClearPin)
			for i := 0; i < 10; i++ {
				h.OnEdge(testCountPin, true)
			}

			h.OnEdge(testClearPin, tt.level)

			if c.Load() != 0 {
				t.Errorf("want count cleared, got %d", c.Load())
			}
			if c.Clears() != tt.wantClears {
				t.Errorf("want %d clears, got %d", tt.wantClears, c.Clears())
			}
			if q.Len() != tt.wantEvents {
				t.Fatalf("want %d events, got %d", tt.wantEvents, q.Len())
			}
			if tt.wantEvents > 0 {
				pin, _ := q.TryReceive()
				if pin != testClearPin {
					t.Errorf("want event for pin %d, got %d", testClearPin, pin)
				}
			}
		})
	}
}

func TestHandlerChatterFillsQueue(t *testing.T) {
	var c Counter
	q := NewQueue(QueueCapacity)
	h := NewHandler(&c, q, testClearPin)

	// A bouncing button produces many presses faster than the consumer runs.
	for i := 0; i < 15; i++ {
		h.OnEdge(testClearPin, false)
		h.OnEdge(testClearPin, true)
	}
	if q.Len() != QueueCapacity {
		t.Errorf("want full queue, got %d", q.Len())
	}
	if q.Dropped() != 5 {
		t.Errorf("want 5 dropped events, got %d", q.Dropped())
	}
	if c.Clears() != 15 {
		t.Errorf("want 15 presses, got %d", c.Clears())
	}
}

func TestHandlerDoesNotAllocate(t *testing.T) {
	var c Counter
	q := NewQueue(QueueCapacity)
	h := NewHandler(&c, q, testClearPin)
	allocs := testing.AllocsPerRun(100, func() {
		h.OnEdge(testCountPin, true)
		h.OnEdge(testClearPin, false)
		q.TryReceive()
	})
	if allocs != 0 {
		t.Errorf("OnEdge allocated %v times per run", allocs)
	}
}

func TestConsumerRun(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	q := NewQueue(QueueCapacity)
	var clears int
	cons := NewConsumer(q, testClearPin, logger, func() { clears++ })

	q.TrySend(testClearPin)
	q.TrySend(testCountPin)
	q.TrySend(testClearPin)
	q.Close()
	cons.Run()

	if clears != 2 {
		t.Errorf("want 2 clear callbacks, got %d", clears)
	}
	if n := strings.Count(buf.String(), "clearing counter"); n != 2 {
		t.Errorf("want 2 log lines, got %d:\n%s", n, buf.String())
	}
}

func TestConsumerNilLogger(t *testing.T) {
	q := NewQueue(QueueCapacity)
	cons := NewConsumer(q, testClearPin, nil, nil)
	q.TrySend(testClearPin)
	q.Close()
	cons.Run()
}

func TestHandlerSinglePressCountsOnce(t *testing.T) {
	var c Counter
	q := NewQueue(QueueCapacity)
	h := NewHandler(&c, q, testClearPin)

	h.OnEdge(testClearPin, false) // press
	h.OnEdge(testClearPin, true)  // release

	if c.Clears() != 1 {
		t.Errorf("want 1 press for a press and release, got %d", c.Clears())
	}
}

// The consumer is started before any event arrives, as on the firmware, and
// the clear hook must already be in place when it runs.
func TestConsumerHookWhileRunning(t *testing.T) {
	var c Counter
	q := NewQueue(QueueCapacity)
	h := NewHandler(&c, q, testClearPin)
	cleared := make(chan struct{}, 1)
	cons := NewConsumer(q, testClearPin, nil, func() { cleared <- struct{}{} })

	done := make(chan struct{})
	go func() {
		cons.Run()
		close(done)
	}()

	h.OnEdge(testClearPin, false)
	select {
	case <-cleared:
	case <-time.After(time.Second):
		t.Fatal("clear hook not called")
	}
	q.Close()
	<-done
}
