package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// WatchedFileOptions tunes a WatchedFile.
type WatchedFileOptions struct {
	// Truncate opens the first file with O_TRUNC instead of O_APPEND.
	Truncate bool
	// Delay defers opening until the first write.
	Delay bool
	// CheckInterval bounds how often the path is re-checked. Zero checks on
	// every write.
	CheckInterval time.Duration
}

// WatchedFile appends to a path and reopens it when the file at that path is
// removed or replaced, for example by logrotate. It does not rotate itself.
type WatchedFile struct {
	mu       sync.Mutex
	path     string
	opts     WatchedFileOptions
	file     *os.File
	info     os.FileInfo
	opened   bool
	closed   bool
	throttle *rate.Sometimes
}

// OpenWatchedFile creates the parent directory and, unless opts.Delay is set,
// opens path. Failures mean the target is unavailable.
func OpenWatchedFile(path string, opts WatchedFileOptions) (*WatchedFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	w := &WatchedFile{path: path, opts: opts}
	if opts.CheckInterval > 0 {
		w.throttle = &rate.Sometimes{Interval: opts.CheckInterval}
	}
	if !opts.Delay {
		if err := w.open(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Path returns the watched path.
func (w *WatchedFile) Path() string {
	return w.path
}

func (w *WatchedFile) open() error {
	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if w.opts.Truncate && !w.opened {
		flag = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(w.path, flag, filePerm)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.info = info
	w.opened = true
	return nil
}

// reopenIfMoved swaps the handle when the path no longer names the open file.
func (w *WatchedFile) reopenIfMoved() error {
	current, err := os.Stat(w.path)
	if err == nil && os.SameFile(current, w.info) {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stat log file: %w", err)
	}
	_ = w.file.Close()
	w.file = nil
	return w.open()
}

func (w *WatchedFile) WriteLevel(_ zapcore.Level, p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if w.file == nil {
		if err := w.open(); err != nil {
			return err
		}
	} else {
		var err error
		if w.throttle == nil {
			err = w.reopenIfMoved()
		} else {
			w.throttle.Do(func() { err = w.reopenIfMoved() })
		}
		if err != nil {
			return err
		}
	}
	_, err := w.file.Write(p)
	return err
}

func (w *WatchedFile) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close releases the file handle. It is safe to call more than once.
func (w *WatchedFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
