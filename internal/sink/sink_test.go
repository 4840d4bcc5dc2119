package sink

import (
	"bytes"
	"errors"
	"log/syslog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestConsoleWritesUntilClosed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)
	if err := c.WriteLevel(zapcore.InfoLevel, []byte("one\n")); err != nil {
		t.Fatalf("WriteLevel returned error: %v", err)
	}
	if err := c.Sync(); err != nil {
		t.Fatalf("Sync returned error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := c.WriteLevel(zapcore.InfoLevel, []byte("two\n")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if buf.String() != "one\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestWatchedFileCreatesDirectoryAndAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "rse.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	w, err := OpenWatchedFile(path, WatchedFileOptions{})
	if err != nil {
		t.Fatalf("OpenWatchedFile returned error: %v", err)
	}
	defer w.Close()

	if err := w.WriteLevel(zapcore.InfoLevel, []byte("appended\n")); err != nil {
		t.Fatalf("WriteLevel returned error: %v", err)
	}
	if got := readFile(t, path); got != "existing\nappended\n" {
		t.Fatalf("unexpected content %q", got)
	}

	fresh := filepath.Join(t.TempDir(), "a", "b", "c.log")
	w2, err := OpenWatchedFile(fresh, WatchedFileOptions{Truncate: true})
	if err != nil {
		t.Fatalf("OpenWatchedFile returned error: %v", err)
	}
	defer w2.Close()
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected file to be created: %v", err)
	}
}

func TestWatchedFileReopensAfterRotation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rse.log")
	w, err := OpenWatchedFile(path, WatchedFileOptions{})
	if err != nil {
		t.Fatalf("OpenWatchedFile returned error: %v", err)
	}
	defer w.Close()

	if err := w.WriteLevel(zapcore.InfoLevel, []byte("before\n")); err != nil {
		t.Fatalf("WriteLevel returned error: %v", err)
	}
	rotated := filepath.Join(dir, "rse.log.1")
	if err := os.Rename(path, rotated); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := w.WriteLevel(zapcore.InfoLevel, []byte("after\n")); err != nil {
		t.Fatalf("WriteLevel returned error: %v", err)
	}

	if got := readFile(t, rotated); got != "before\n" {
		t.Fatalf("rotated file content %q", got)
	}
	if got := readFile(t, path); got != "after\n" {
		t.Fatalf("reopened file content %q", got)
	}
}

func TestWatchedFileCheckIntervalThrottlesStat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rse.log")
	w, err := OpenWatchedFile(path, WatchedFileOptions{CheckInterval: time.Hour})
	if err != nil {
		t.Fatalf("OpenWatchedFile returned error: %v", err)
	}
	defer w.Close()

	// The first write consumes the check; later writes within the interval
	// keep using the open handle.
	if err := w.WriteLevel(zapcore.InfoLevel, []byte("first\n")); err != nil {
		t.Fatalf("WriteLevel returned error: %v", err)
	}
	rotated := filepath.Join(dir, "rse.log.1")
	if err := os.Rename(path, rotated); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := w.WriteLevel(zapcore.InfoLevel, []byte("second\n")); err != nil {
		t.Fatalf("WriteLevel returned error: %v", err)
	}
	if got := readFile(t, rotated); got != "first\nsecond\n" {
		t.Fatalf("expected both lines in the original file, got %q", got)
	}
}

func TestWatchedFileDelayOpensOnFirstWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "delayed.log")
	w, err := OpenWatchedFile(path, WatchedFileOptions{Delay: true})
	if err != nil {
		t.Fatalf("OpenWatchedFile returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file before the first write, got %v", err)
	}
	if err := w.WriteLevel(zapcore.InfoLevel, []byte("x\n")); err != nil {
		t.Fatalf("WriteLevel returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
	if err := w.WriteLevel(zapcore.InfoLevel, []byte("y\n")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if got := readFile(t, path); got != "x\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestWatchedFileUnavailableTarget(t *testing.T) {
	t.Parallel()

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("seed blocker: %v", err)
	}
	if _, err := OpenWatchedFile(filepath.Join(blocker, "rse.log"), WatchedFileOptions{}); err == nil {
		t.Fatalf("expected error when the parent path is a file")
	}
}

func TestWatchedFileConcurrentWriters(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rse.log")
	w, err := OpenWatchedFile(path, WatchedFileOptions{})
	if err != nil {
		t.Fatalf("OpenWatchedFile returned error: %v", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := w.WriteLevel(zapcore.InfoLevel, []byte("line\n")); err != nil {
					t.Errorf("WriteLevel failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if got := strings.Count(readFile(t, path), "line\n"); got != 16*20 {
		t.Fatalf("expected %d lines, got %d", 16*20, got)
	}
}

type recordingSyslog struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

func (r *recordingSyslog) add(prefix, m string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, prefix+" "+m)
	return nil
}

func (r *recordingSyslog) Debug(m string) error   { return r.add("debug", m) }
func (r *recordingSyslog) Info(m string) error    { return r.add("info", m) }
func (r *recordingSyslog) Warning(m string) error { return r.add("warning", m) }
func (r *recordingSyslog) Err(m string) error     { return r.add("err", m) }
func (r *recordingSyslog) Crit(m string) error    { return r.add("crit", m) }
func (r *recordingSyslog) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func TestSyslogMapsSeverities(t *testing.T) {
	t.Parallel()

	rec := &recordingSyslog{}
	var gotPriority syslog.Priority
	dial := func(network, raddr string, priority syslog.Priority, tag string) (SyslogWriter, error) {
		gotPriority = priority
		return rec, nil
	}

	s, err := ConnectSyslog(dial, "", "", syslog.LOG_LOCAL0, "rse")
	if err != nil {
		t.Fatalf("ConnectSyslog returned error: %v", err)
	}
	if gotPriority != syslog.LOG_LOCAL0|syslog.LOG_INFO {
		t.Fatalf("unexpected priority %v", gotPriority)
	}

	levels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel, zapcore.DPanicLevel}
	for _, lvl := range levels {
		if err := s.WriteLevel(lvl, []byte("m\n")); err != nil {
			t.Fatalf("WriteLevel returned error: %v", err)
		}
	}
	want := []string{"debug m", "info m", "warning m", "err m", "crit m"}
	if strings.Join(rec.lines, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", rec.lines, want)
	}

	if err := s.Close(); err != nil || !rec.closed {
		t.Fatalf("expected writer to be closed, err=%v", err)
	}
	if err := s.WriteLevel(zapcore.InfoLevel, []byte("late")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSyslogDialFailure(t *testing.T) {
	t.Parallel()

	dial := func(string, string, syslog.Priority, string) (SyslogWriter, error) {
		return nil, errors.New("connection refused")
	}
	if _, err := ConnectSyslog(dial, "udp", "localhost:514", syslog.LOG_USER, ""); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestSyslogOverUnixDatagram(t *testing.T) {
	t.Parallel()

	dir, err := os.MkdirTemp("", "sl")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	addr := filepath.Join(dir, "log.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: addr, Net: "unixgram"})
	if err != nil {
		t.Skipf("unix datagram sockets unavailable: %v", err)
	}
	defer conn.Close()

	s, err := ConnectSyslog(nil, "unixgram", addr, syslog.LOG_USER, "rse")
	if err != nil {
		t.Fatalf("ConnectSyslog returned error: %v", err)
	}
	defer s.Close()

	if err := s.WriteLevel(zapcore.ErrorLevel, []byte("disk full\n")); err != nil {
		t.Fatalf("WriteLevel returned error: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 2048)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read datagram: %v", err)
	}
	msg := string(buf[:n])
	// <11> is facility user (1) * 8 + severity err (3).
	if !strings.HasPrefix(msg, "<11>") || !strings.Contains(msg, "rse[") || !strings.HasSuffix(strings.TrimSpace(msg), "disk full") {
		t.Fatalf("unexpected syslog datagram %q", msg)
	}
}
