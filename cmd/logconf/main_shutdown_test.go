package main

import (
	"bytes"
	"os"
	osSignal "os/signal"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/eugenenazirov/rse-logconf/internal/logconf"
	"github.com/eugenenazirov/rse-logconf/internal/logging"
)

func TestWaitForPipeStopsOnSignal(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, sig ...os.Signal) {
		go func() {
			ch <- syscall.SIGTERM
		}()
	}

	var stdout bytes.Buffer
	lc := logging.NewContext(logging.WithStreams(&stdout, &stdout))
	doc, err := logconf.LoadBytes([]byte(`
version: 1
root:
  level: INFO
  handlers: [console]
handlers:
  console:
    class: console-stream
    formatter: brief
    stream: ext://sys.stdout
formatters:
  brief:
    format: "%(levelname)s %(message)s"
`))
	if err != nil {
		t.Fatalf("LoadBytes returned error: %v", err)
	}
	if err := lc.Apply(doc); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	t.Cleanup(func() {
		_ = lc.Close()
	})

	cancelled := make(chan struct{}, 1)
	cancel := func() {
		cancelled <- struct{}{}
	}

	done := make(chan error)
	if err := waitForPipe(done, cancel, lc.Logger("rse")); err != nil {
		t.Fatalf("waitForPipe returned error: %v", err)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatalf("expected the pipe context to be cancelled")
	}
	if !strings.Contains(stdout.String(), "INFO stopping pipe") {
		t.Fatalf("expected shutdown to be logged, got %q", stdout.String())
	}
}
