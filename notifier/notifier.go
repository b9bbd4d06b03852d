// Package notifier delivers user-facing status messages.
package notifier

import (
	"fmt"
	"io"
	"sync"

	"github.com/vitwit/crosspay/logger"
)

// Notifier shows one message per outcome, optionally with an explorer link,
// and toggles a busy indicator around long-running actions.
type Notifier interface {
	Notify(message, link string)
	SetBusy(busy bool)
}

type Noop struct{}

func (Noop) Notify(string, string) {}
func (Noop) SetBusy(bool)          {}

// Writer prints messages to an io.Writer, one per line.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(message, link string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if link != "" {
		fmt.Fprintf(w.out, "%s\n  %s\n", message, link)
		return
	}
	fmt.Fprintln(w.out, message)
}

func (w *Writer) SetBusy(busy bool) {
	if !busy {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.out, "Processing...")
}

// Log forwards messages to a logger.
type Log struct {
	log logger.Logger
}

func NewLog(l logger.Logger) *Log {
	return &Log{log: logger.OrNoop(l)}
}

func (l *Log) Notify(message, link string) {
	fields := map[string]any{}
	if link != "" {
		fields["link"] = link
	}
	l.log.Info(message, fields)
}

func (l *Log) SetBusy(busy bool) {
	l.log.Debug("busy", map[string]any{"busy": busy})
}

// Recorder keeps every notification in memory. Useful in tests and for
// callers that render messages themselves.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
	Busy     []bool
}

type Message struct {
	Text string
	Link string
}

func (r *Recorder) Notify(message, link string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, Message{Text: message, Link: link})
}

func (r *Recorder) SetBusy(busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Busy = append(r.Busy, busy)
}

// Snapshot returns a copy of the recorded messages.
func (r *Recorder) Snapshot() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.Messages...)
}
