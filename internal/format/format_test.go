package format

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

var fixedTime = time.Date(2024, 11, 1, 12, 30, 45, 123_000_000, time.UTC)

func TestParseTemplateRejectsUnknownField(t *testing.T) {
	t.Parallel()

	_, err := ParseTemplate("%(asctime)s %(hostname)s")
	var unknown *UnknownFieldError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFieldError, got %v", err)
	}
	if unknown.Field != "hostname" {
		t.Fatalf("expected offending field hostname, got %q", unknown.Field)
	}
}

func TestParseTemplateMalformed(t *testing.T) {
	t.Parallel()

	cases := []string{
		"%(message",
		"%(message)",
		"%(message)x",
		"50%",
		"%s",
		"%(message)d",
	}
	for _, tc := range cases {
		if _, err := ParseTemplate(tc); !errors.Is(err, ErrMalformedTemplate) {
			t.Fatalf("ParseTemplate(%q): expected ErrMalformedTemplate, got %v", tc, err)
		}
	}
}

func TestFormatterRendersAllFields(t *testing.T) {
	t.Parallel()

	f, err := New("%(asctime)s - RSE - PID %(process)d - %(funcName)s:%(lineno)d - %(levelname)s - %(name)s - %(message)s 100%%", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	got := f.Format(Record{
		Time:     fixedTime,
		Level:    zapcore.WarnLevel,
		Logger:   "rse.auth",
		Message:  "cache miss",
		Line:     42,
		Function: "github.com/x/rse/auth.(*Cache).Get",
		PID:      1234,
	})
	want := "2024-11-01 12:30:45,123 - RSE - PID 1234 - Get:42 - WARNING - rse.auth - cache miss 100%"
	if got != want {
		t.Fatalf("unexpected rendering:\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatterPaddingAndRootName(t *testing.T) {
	t.Parallel()

	f, err := New("[%(levelname)-8s][%(name)6s] %(message)s", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	got := f.Format(Record{Level: zapcore.InfoLevel, Message: "m"})
	if want := "[INFO    ][  root] m"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatterDatefmt(t *testing.T) {
	t.Parallel()

	f, err := New("%(asctime)s|%(message)s", "%Y/%m/%d %H:%M:%S.%L")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	got := f.Format(Record{Time: fixedTime, Message: "x"})
	if want := "2024/11/01 12:30:45.123|x"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if !f.Template().Uses(FieldTimestamp) || f.Template().Uses(FieldProcess) {
		t.Fatalf("unexpected field usage report")
	}
}

func TestEncoderEncodesOneLine(t *testing.T) {
	t.Parallel()

	f, err := New("%(asctime)s\t%(levelname)s\t%(message)s", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	enc := NewEncoder(f)
	enc.AddString("ignored", "context")

	buf, err := enc.Clone().EncodeEntry(zapcore.Entry{
		Time:    fixedTime,
		Level:   zapcore.InfoLevel,
		Message: "hello",
	}, nil)
	if err != nil {
		t.Fatalf("EncodeEntry returned error: %v", err)
	}
	defer buf.Free()

	if want := "2024-11-01 12:30:45,123\tINFO\thello\n"; buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}

	bare, err := enc.WithoutNewline().EncodeEntry(zapcore.Entry{Time: fixedTime, Level: zapcore.ErrorLevel, Message: "x"}, nil)
	if err != nil {
		t.Fatalf("EncodeEntry returned error: %v", err)
	}
	defer bare.Free()
	if strings.HasSuffix(bare.String(), "\n") {
		t.Fatalf("expected no trailing newline, got %q", bare.String())
	}
}
