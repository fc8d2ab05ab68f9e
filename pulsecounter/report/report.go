// Package report prints the running edge count to the console once per
// interval and fans each reading out to optional sinks (LCD, MQTT).
package report

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"
)

// DefaultInterval is the console reporting period.
const DefaultInterval = time.Second

// Snapshot is one reading of the counter state.
type Snapshot struct {
	Count     uint32        `json:"count"`
	Clears    uint32        `json:"clears"`
	Dropped   uint32        `json:"dropped"`    // Clear events lost to a full queue.
	SinceBoot time.Duration `json:"since_boot"` // Nanoseconds since boot.
}

// Sink receives every snapshot. Sinks run on the reporting goroutine and
// must not block.
type Sink func(Snapshot)

// Counter is the counter state read on each report.
type Counter interface {
	Load() uint32
	Clears() uint32
}

// Queue exposes the event queue's drop tally.
type Queue interface {
	Dropped() uint32
}

// Reporter writes a "counts: N" line per report.
type Reporter struct {
	Out      io.Writer
	Counter  Counter
	Queue    Queue         // Optional.
	Interval time.Duration // Defaults to DefaultInterval.
	Logger   *slog.Logger  // Optional.
	Sinks    []Sink
	Start    time.Time // Boot time. Defaults to the first report.

	buf []byte
}

// Report takes a snapshot, writes it to Out and passes it to every sink.
// Sinks are called even if the write fails.
func (r *Reporter) Report() (Snapshot, error) {
	if r.Start.IsZero() {
		r.Start = time.Now()
	}
	s := Snapshot{
		Count:     r.Counter.Load(),
		Clears:    r.Counter.Clears(),
		SinceBoot: time.Since(r.Start),
	}
	if r.Queue != nil {
		s.Dropped = r.Queue.Dropped()
	}

	// Preallocated so the heap isn't churned by fmt once per second.
	if r.buf == nil {
		r.buf = make([]byte, 0, 24)
	}
	r.buf = r.buf[:0]
	r.buf = append(r.buf, "counts: "...)
	r.buf = strconv.AppendUint(r.buf, uint64(s.Count), 10)
	r.buf = append(r.buf, '\n')
	_, err := r.Out.Write(r.buf)

	for _, sink := range r.Sinks {
		sink(s)
	}
	if err != nil {
		return s, errors.New("report: write:" + err.Error())
	}
	return s, nil
}

// Run reports once per Interval forever. Write errors are logged and the
// loop keeps going.
func (r *Reporter) Run() {
	ticker := time.NewTicker(r.interval())
	defer ticker.Stop()
	for {
		_, err := r.Report()
		if err != nil && r.Logger != nil {
			r.Logger.Error("report failed", slog.String("err", err.Error()))
		}
		<-ticker.C
	}
}

func (r *Reporter) interval() time.Duration {
	if r.Interval <= 0 {
		return DefaultInterval
	}
	return r.Interval
}

// ChannelSink forwards snapshots to ch without blocking. When ch is full
// the snapshot is dropped; the next one carries newer data anyway.
func ChannelSink(ch chan<- Snapshot) Sink {
	return func(s Snapshot) {
		select {
		case ch <- s:
		default:
		}
	}
}
