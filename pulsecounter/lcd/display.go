// Package lcd shows counter readings on a 16x2 HD44780 display through a
// channel, so the reporting loop never waits on the I2C bus.
//
// Example usage:
//
//	messages := make(chan lcd.Message, 10)
//	handler := lcd.NewHandler(&device, messages, logger)
//	go handler.Run()
//
//	lcd.Send(messages, "counts: 42", "")
package lcd

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/harveysanders/pulsecounter/pulsecounter/report"
)

// Screen is the subset of *hd44780i2c.Device used by the handler.
type Screen interface {
	ClearDisplay()
	SetCursor(x, y uint8)
	Print(data []byte)
}

// Message represents a two-line LCD message.
type Message struct {
	Line1 []byte
	Line2 []byte
}

// Handler processes LCD messages from a channel.
type Handler struct {
	screen   Screen
	messages <-chan Message
	logger   *slog.Logger
	columns  int
}

// NewHandler creates a new 16x2 LCD message handler.
func NewHandler(screen Screen, messages <-chan Message, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		screen:   screen,
		messages: messages,
		logger:   logger,
		columns:  16,
	}
}

// Run displays messages until the channel is closed.
// Run should be called in a separate goroutine.
func (h *Handler) Run() {
	for msg := range h.messages {
		h.display(msg)
	}
}

func (h *Handler) display(msg Message) {
	h.logger.Debug("lcd:display", slog.String("line1", string(msg.Line1)))
	h.screen.ClearDisplay()
	h.screen.SetCursor(0, 0)
	h.screen.Print(h.truncate(msg.Line1))
	h.screen.SetCursor(0, 1)
	h.screen.Print(h.truncate(msg.Line2))
}

// truncate reslices in place, no allocation.
func (h *Handler) truncate(line []byte) []byte {
	if len(line) > h.columns {
		return line[:h.columns]
	}
	return line
}

// Start opens the display and runs a Handler for it in a new goroutine.
// The display is optional: if open fails the error is logged and Start
// returns nil, which every caller treats as "no display".
func Start(open func() (Screen, error), logger *slog.Logger) chan<- Message {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	screen, err := open()
	if err != nil {
		logger.Error("lcd:disabled", slog.String("reason", err.Error()))
		return nil
	}
	messages := make(chan Message, 10)
	go NewHandler(screen, messages, logger).Run()
	return messages
}

// Send queues a message without blocking. It reports whether the message
// was accepted; a full channel drops it and a nil channel (no display)
// accepts nothing.
func Send(messages chan<- Message, line1, line2 string) bool {
	if messages == nil {
		return false
	}
	select {
	case messages <- Message{Line1: []byte(line1), Line2: []byte(line2)}:
		return true
	default:
		return false
	}
}

// FromSnapshot formats a counter reading for the display:
//
//	counts: 123456
//	clr:3 drop:0
func FromSnapshot(s report.Snapshot) Message {
	line1 := make([]byte, 0, 16)
	line1 = append(line1, "counts: "...)
	line1 = strconv.AppendUint(line1, uint64(s.Count), 10)

	line2 := make([]byte, 0, 16)
	line2 = append(line2, "clr:"...)
	line2 = strconv.AppendUint(line2, uint64(s.Clears), 10)
	line2 = append(line2, " drop:"...)
	line2 = strconv.AppendUint(line2, uint64(s.Dropped), 10)
	return Message{Line1: line1, Line2: line2}
}

// SnapshotSink returns a report.Sink that shows each reading on the
// display, dropping it if the handler is still busy.
func SnapshotSink(messages chan<- Message) report.Sink {
	return func(s report.Snapshot) {
		select {
		case messages <- FromSnapshot(s):
		default:
		}
	}
}
