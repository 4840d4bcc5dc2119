// Package sink implements the destinations handlers write rendered records
// to: console streams, watched files and syslog.
package sink

import (
	"errors"
	"io"
	"os"
	"sync"

	"go.uber.org/zap/zapcore"
)

// ErrClosed is returned by writes to a closed sink.
var ErrClosed = errors.New("sink closed")

// Sink receives rendered records. Implementations are safe for concurrent use.
type Sink interface {
	WriteLevel(lvl zapcore.Level, p []byte) error
	Sync() error
	Close() error
}

// Console writes to a process stream. Closing it does not close the stream.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewConsole binds a console sink to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) WriteLevel(_ zapcore.Level, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	_, err := c.w.Write(p)
	return err
}

// Sync flushes writers that buffer. Terminal streams are left alone since
// fsync on a tty fails on most platforms.
func (c *Console) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.w.(interface{ Sync() error }); ok && !isStdStream(c.w) {
		return f.Sync()
	}
	return nil
}

func (c *Console) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func isStdStream(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (f == os.Stdout || f == os.Stderr)
}
