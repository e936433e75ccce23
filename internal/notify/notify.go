package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nikolayk812/cartstore/internal/logger"
	"github.com/nikolayk812/cartstore/internal/port"
)

// Log forwards messages to the structured logger.
type Log struct {
	log *logger.Logger
}

func NewLog(log *logger.Logger) *Log {
	return &Log{log: log}
}

func (n *Log) NotifyError(ctx context.Context, message string) {
	n.log.Warn(n.log.WithField(ctx, "notification", "error"), message)
}

// Writer prints one line per message, for terminals.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	prefix string
}

func NewWriter(out io.Writer, prefix string) *Writer {
	return &Writer{out: out, prefix: prefix}
}

func (n *Writer) NotifyError(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// a failed write has nowhere else to go
	_, _ = fmt.Fprintf(n.out, "%s%s\n", n.prefix, message)
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

func (n *Recorder) NotifyError(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, message)
}

func (n *Recorder) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.messages...)
}

// Multi fans a message out to several notifiers.
type Multi []port.Notifier

func (m Multi) NotifyError(ctx context.Context, message string) {
	for _, n := range m {
		n.NotifyError(ctx, message)
	}
}
