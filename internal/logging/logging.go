// Package logging owns the process logging pipeline. A Context is built once
// at startup, receives validated documents through Apply, and hands out
// loggers that route records through whatever pipeline is installed.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/rse-logconf/internal/registry"
	"github.com/eugenenazirov/rse-logconf/internal/sink"
)

// Policy decides what Apply does when a handler's target is unavailable.
type Policy int

const (
	// PolicyAbort fails the whole apply and leaves the previous pipeline
	// untouched.
	PolicyAbort Policy = iota
	// PolicyDegrade installs the remaining handlers and logs a warning for
	// each one that was skipped.
	PolicyDegrade
)

// ParsePolicy resolves "abort" or "degrade".
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "abort":
		return PolicyAbort, nil
	case "degrade":
		return PolicyDegrade, nil
	default:
		return PolicyAbort, fmt.Errorf("unknown resource policy %q (want abort or degrade)", raw)
	}
}

func (p Policy) String() string {
	if p == PolicyDegrade {
		return "degrade"
	}
	return "abort"
}

// Option configures a Context.
type Option func(*Context)

// WithStreams overrides the process streams console handlers bind to.
func WithStreams(stdout, stderr io.Writer) Option {
	return func(c *Context) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithPolicy selects the resource failure policy.
func WithPolicy(p Policy) Option {
	return func(c *Context) {
		c.policy = p
	}
}

// WithSyslogDialer replaces the syslog connector, primarily for tests.
func WithSyslogDialer(dial sink.SyslogDialer) Option {
	return func(c *Context) {
		c.dial = dial
	}
}

// Context is an explicitly owned logging subsystem. Tests construct one per
// case; programs construct one at startup and pass it to components.
type Context struct {
	mu       sync.Mutex
	state    atomic.Pointer[pipeline]
	handlers *registry.Registry[*handler]

	stdout io.Writer
	stderr io.Writer
	policy Policy
	dial   sink.SyslogDialer
}

// NewContext returns a context with an empty pipeline. Records are dropped
// until a document is applied.
func NewContext(opts ...Option) *Context {
	c := &Context{
		handlers: registry.New[*handler](),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		dial:     sink.DialSyslog,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Store(emptyPipeline())
	return c
}

// Policy returns the configured resource failure policy.
func (c *Context) Policy() Policy {
	return c.policy
}

// Logger returns a logger named name. The empty name is the root logger.
// Loggers resolve their route on every record, so they follow later applies.
func (c *Context) Logger(name string) *Logger {
	z := zap.New(&routingCore{ctx: c},
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(c.stderr))),
	)
	if name != "" {
		z = z.Named(name)
	}
	return &Logger{z: z}
}

// HandlerNames lists the installed handlers.
func (c *Context) HandlerNames() []string {
	return c.handlers.Names()
}

// Sync flushes every installed handler.
func (c *Context) Sync() error {
	return c.state.Load().sync()
}

// Close releases every handler resource and leaves an empty pipeline behind.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Store(emptyPipeline())
	return c.handlers.Close()
}
