package edge

import (
	"sync"
	"testing"
)

func TestCounterConcurrentIncrements(t *testing.T) {
	var c Counter
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	if c.Load() != 4000 {
		t.Errorf("want 4000, got %d", c.Load())
	}
}

func TestCounterReset(t *testing.T) {
	var c Counter
	c.Inc()
	c.Inc()
	c.Reset()
	if c.Load() != 0 {
		t.Errorf("want 0 after reset, got %d", c.Load())
	}
	c.Inc()
	if c.Load() != 1 {
		t.Errorf("want 1, got %d", c.Load())
	}
	if c.Clears() != 0 {
		t.Errorf("Reset alone is not a button press, got %d clears", c.Clears())
	}
}
