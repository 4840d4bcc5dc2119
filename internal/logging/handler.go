package logging

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/eugenenazirov/rse-logconf/internal/format"
	"github.com/eugenenazirov/rse-logconf/internal/logconf"
	"github.com/eugenenazirov/rse-logconf/internal/severity"
	"github.com/eugenenazirov/rse-logconf/internal/sink"
)

const (
	fallbackHandlerName = "<fallback>"
	fallbackTemplate    = "%(asctime)s\t%(levelname)s\t%(name)s\t%(message)s"
)

// handler binds a formatter to a sink. Write failures are reported through
// zap's error output at most errorReportBurst times per errorReportEvery.
type handler struct {
	name     string
	kind     logconf.HandlerKind
	level    zapcore.Level
	enc      zapcore.Encoder
	sink     sink.Sink
	errLimit *rate.Limiter
	closed   atomic.Bool
}

const (
	errorReportEvery = time.Second
	errorReportBurst = 5
)

func newHandler(name string, kind logconf.HandlerKind, level zapcore.Level, enc zapcore.Encoder, s sink.Sink) *handler {
	return &handler{
		name:     name,
		kind:     kind,
		level:    level,
		enc:      enc,
		sink:     s,
		errLimit: rate.NewLimiter(rate.Every(errorReportEvery), errorReportBurst),
	}
}

func (h *handler) enabled(lvl zapcore.Level) bool {
	return lvl >= h.level && !h.closed.Load()
}

func (h *handler) write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := h.enc.EncodeEntry(ent, fields)
	if err != nil {
		return fmt.Errorf("handler %q: encode: %w", h.name, err)
	}
	defer buf.Free()

	err = h.sink.WriteLevel(ent.Level, buf.Bytes())
	if err == nil || errors.Is(err, sink.ErrClosed) {
		return nil
	}
	if !h.errLimit.Allow() {
		return nil
	}
	return fmt.Errorf("handler %q: %w", h.name, err)
}

func (h *handler) Close() error {
	h.closed.Store(true)
	return h.sink.Close()
}

// buildHandler acquires the handler's target. Errors mean the target is
// unavailable; the document itself has already been validated.
func (c *Context) buildHandler(name string, spec logconf.HandlerSpec, f *format.Formatter) (*handler, error) {
	kind, err := logconf.ParseHandlerKind(spec.Class)
	if err != nil {
		return nil, err
	}
	level := severity.Debug.Zap()
	if spec.Level != "" {
		lvl, err := severity.Parse(spec.Level)
		if err != nil {
			return nil, err
		}
		level = lvl.Zap()
	}
	enc := format.NewEncoder(f)

	switch kind {
	case logconf.KindConsole:
		stream, err := logconf.ParseStream(spec.Stream)
		if err != nil {
			return nil, err
		}
		w := c.stderr
		if stream == logconf.Stdout {
			w = c.stdout
		}
		return newHandler(name, kind, level, enc, sink.NewConsole(w)), nil

	case logconf.KindWatchedFile:
		wf, err := sink.OpenWatchedFile(spec.File(), sink.WatchedFileOptions{
			Truncate:      spec.Mode == "w",
			Delay:         spec.Delay,
			CheckInterval: spec.CheckInterval,
		})
		if err != nil {
			return nil, err
		}
		return newHandler(name, kind, level, enc, wf), nil

	case logconf.KindSyslog:
		facility, err := logconf.ParseFacility(spec.Facility)
		if err != nil {
			return nil, err
		}
		network, addr, err := spec.SyslogTarget()
		if err != nil {
			return nil, err
		}
		s, err := sink.ConnectSyslog(c.dial, network, addr, facility, spec.Tag)
		if err != nil {
			return nil, err
		}
		return newHandler(name, kind, level, enc.WithoutNewline(), s), nil
	}
	return nil, fmt.Errorf("unsupported handler kind %s", kind)
}

// fallbackHandler writes to stderr when degradation left the root without
// any handler.
func (c *Context) fallbackHandler() (*handler, error) {
	f, err := format.New(fallbackTemplate, "")
	if err != nil {
		return nil, err
	}
	return newHandler(fallbackHandlerName, logconf.KindConsole, severity.Debug.Zap(), format.NewEncoder(f), sink.NewConsole(c.stderr)), nil
}
