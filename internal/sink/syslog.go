package sink

import (
	"bytes"
	"fmt"
	"log/syslog"
	"sync"

	"go.uber.org/zap/zapcore"
)

// SyslogWriter is the subset of *syslog.Writer the sink uses.
type SyslogWriter interface {
	Debug(m string) error
	Info(m string) error
	Warning(m string) error
	Err(m string) error
	Crit(m string) error
	Close() error
}

// SyslogDialer connects to a syslog endpoint. An empty network selects the
// local daemon.
type SyslogDialer func(network, raddr string, priority syslog.Priority, tag string) (SyslogWriter, error)

// DialSyslog is the SyslogDialer backed by log/syslog.
func DialSyslog(network, raddr string, priority syslog.Priority, tag string) (SyslogWriter, error) {
	w, err := syslog.Dial(network, raddr, priority, tag)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Syslog forwards records to syslog with a severity derived from the record
// level. The writer reconnects on its own after transport errors.
type Syslog struct {
	mu     sync.Mutex
	w      SyslogWriter
	closed bool
}

// ConnectSyslog dials the endpoint with the given facility.
func ConnectSyslog(dial SyslogDialer, network, raddr string, facility syslog.Priority, tag string) (*Syslog, error) {
	if dial == nil {
		dial = DialSyslog
	}
	w, err := dial(network, raddr, facility|syslog.LOG_INFO, tag)
	if err != nil {
		target := raddr
		if target == "" {
			target = "local syslog"
		}
		return nil, fmt.Errorf("connect %s: %w", target, err)
	}
	return &Syslog{w: w}, nil
}

func (s *Syslog) WriteLevel(lvl zapcore.Level, p []byte) error {
	msg := string(bytes.TrimRight(p, "\n"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	switch {
	case lvl <= zapcore.DebugLevel:
		return s.w.Debug(msg)
	case lvl == zapcore.InfoLevel:
		return s.w.Info(msg)
	case lvl == zapcore.WarnLevel:
		return s.w.Warning(msg)
	case lvl == zapcore.ErrorLevel:
		return s.w.Err(msg)
	default:
		return s.w.Crit(msg)
	}
}

func (s *Syslog) Sync() error { return nil }

func (s *Syslog) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}
