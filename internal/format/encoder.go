package format

import (
	"os"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// Encoder adapts a Formatter to zapcore.Encoder. Context fields are
// accumulated but not rendered; templates only see record attributes.
type Encoder struct {
	*zapcore.MapObjectEncoder
	formatter *Formatter
	pid       int
	newline   bool
}

// NewEncoder returns an encoder that renders one line per entry.
func NewEncoder(f *Formatter) *Encoder {
	return &Encoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		formatter:        f,
		pid:              os.Getpid(),
		newline:          true,
	}
}

// WithoutNewline returns a copy that omits the line terminator, for sinks
// that frame records themselves.
func (e *Encoder) WithoutNewline() *Encoder {
	clone := e.clone()
	clone.newline = false
	return clone
}

func (e *Encoder) Clone() zapcore.Encoder {
	return e.clone()
}

func (e *Encoder) clone() *Encoder {
	fields := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		fields.Fields[k] = v
	}
	return &Encoder{
		MapObjectEncoder: fields,
		formatter:        e.formatter,
		pid:              e.pid,
		newline:          e.newline,
	}
}

func (e *Encoder) EncodeEntry(ent zapcore.Entry, _ []zapcore.Field) (*buffer.Buffer, error) {
	rec := Record{
		Time:    ent.Time,
		Level:   ent.Level,
		Logger:  ent.LoggerName,
		Message: ent.Message,
		PID:     e.pid,
	}
	if ent.Caller.Defined {
		rec.Line = ent.Caller.Line
		rec.Function = ent.Caller.Function
	}

	buf := bufferPool.Get()
	buf.Write(e.formatter.AppendFormat(nil, rec))
	if e.newline {
		buf.AppendByte('\n')
	}
	return buf, nil
}
