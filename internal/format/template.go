package format

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field identifies a record attribute a template can substitute.
type Field int

const (
	FieldTimestamp Field = iota + 1
	FieldProcess
	FieldLevel
	FieldLogger
	FieldMessage
	FieldLine
	FieldFunction
)

var fieldAliases = map[string]Field{
	"asctime":   FieldTimestamp,
	"timestamp": FieldTimestamp,
	"process":   FieldProcess,
	"pid":       FieldProcess,
	"levelname": FieldLevel,
	"level":     FieldLevel,
	"severity":  FieldLevel,
	"name":      FieldLogger,
	"logger":    FieldLogger,
	"message":   FieldMessage,
	"lineno":    FieldLine,
	"line":      FieldLine,
	"funcName":  FieldFunction,
	"function":  FieldFunction,
}

// ErrMalformedTemplate is returned for templates with a broken placeholder.
var ErrMalformedTemplate = errors.New("malformed template")

// UnknownFieldError reports a placeholder naming a field no record carries.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown template field %q (known: %s)", e.Field, strings.Join(KnownFields(), ", "))
}

// KnownFields lists every accepted placeholder name.
func KnownFields() []string {
	out := make([]string, 0, len(fieldAliases))
	for name := range fieldAliases {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type segment struct {
	literal string
	field   Field
	width   int
	left    bool
	conv    byte
}

// Template is a compiled output template in %(field)s form.
type Template struct {
	source   string
	segments []segment
	uses     map[Field]bool
}

// ParseTemplate compiles src. "%%" is a literal percent; placeholders take an
// optional "-" flag and width, and end in s or d.
func ParseTemplate(src string) (*Template, error) {
	t := &Template{source: src, uses: make(map[Field]bool)}
	var lit strings.Builder

	for i := 0; i < len(src); {
		c := src[i]
		if c != '%' {
			lit.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(src) {
			return nil, fmt.Errorf("%w: trailing %% at offset %d", ErrMalformedTemplate, i)
		}
		if src[i+1] == '%' {
			lit.WriteByte('%')
			i += 2
			continue
		}
		if src[i+1] != '(' {
			return nil, fmt.Errorf("%w: expected %%( at offset %d", ErrMalformedTemplate, i)
		}
		end := strings.IndexByte(src[i+2:], ')')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated placeholder at offset %d", ErrMalformedTemplate, i)
		}
		name := src[i+2 : i+2+end]
		field, ok := fieldAliases[name]
		if !ok {
			return nil, &UnknownFieldError{Field: name}
		}

		j := i + 2 + end + 1
		seg := segment{field: field}
		if j < len(src) && src[j] == '-' {
			seg.left = true
			j++
		}
		start := j
		for j < len(src) && src[j] >= '0' && src[j] <= '9' {
			j++
		}
		if j > start {
			seg.width, _ = strconv.Atoi(src[start:j])
		}
		if j >= len(src) || (src[j] != 's' && src[j] != 'd') {
			return nil, fmt.Errorf("%w: placeholder %q needs an s or d conversion", ErrMalformedTemplate, name)
		}
		seg.conv = src[j]
		if seg.conv == 'd' && field != FieldProcess && field != FieldLine {
			return nil, fmt.Errorf("%w: field %q is not numeric", ErrMalformedTemplate, name)
		}

		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String()})
			lit.Reset()
		}
		t.segments = append(t.segments, seg)
		t.uses[field] = true
		i = j + 1
	}
	if lit.Len() > 0 {
		t.segments = append(t.segments, segment{literal: lit.String()})
	}
	return t, nil
}

// Uses reports whether the template substitutes f.
func (t *Template) Uses(f Field) bool {
	return t.uses[f]
}

func (t *Template) String() string {
	return t.source
}

func pad(b []byte, s string, width int, left bool) []byte {
	n := width - len(s)
	if n <= 0 {
		return append(b, s...)
	}
	if left {
		b = append(b, s...)
		return append(b, strings.Repeat(" ", n)...)
	}
	b = append(b, strings.Repeat(" ", n)...)
	return append(b, s...)
}
