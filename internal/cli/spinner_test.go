package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureSpinner(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	old := spinnerOut
	spinnerOut = buf
	t.Cleanup(func() { spinnerOut = old })
	return buf
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	buf := captureSpinner(t)
	s := newSpinnerWithContext(context.Background(), "Building layout...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Building layout...") {
		t.Errorf("spinner output missing message: %q", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("spinner did not clear its line: %q", out)
	}
	if s.Cancelled() {
		t.Error("Cancelled() = true after a plain Stop")
	}
}

func TestSpinnerCancelled(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 20*time.Millisecond)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureSpinner(t)
			ctx, cancel := tt.ctx()
			s := newSpinnerWithContext(ctx, "Fetching catalogue...")
			s.Start()
			cancel()
			time.Sleep(50 * time.Millisecond)
			if !s.Cancelled() {
				t.Error("Cancelled() = false after the context ended")
			}
			s.Stop()
		})
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	captureSpinner(t)
	s := newSpinnerWithContext(context.Background(), "Evaluating alternatives...")
	s.Start()
	s.Stop()
	s.Stop()
	s.StopWithSuccess("done")
}

func TestSpinnerStopWithMessage(t *testing.T) {
	captureSpinner(t)
	var out bytes.Buffer
	old := stdout
	stdout = &out
	t.Cleanup(func() { stdout = old })

	s := newSpinnerWithContext(context.Background(), "Building layout...")
	s.Start()
	s.StopWithError("Layout failed")
	if !strings.Contains(out.String(), "Layout failed") {
		t.Errorf("stdout = %q, want the error message", out.String())
	}
}

func TestSpinnerStopBeforeStart(t *testing.T) {
	buf := captureSpinner(t)
	s := newSpinnerWithContext(context.Background(), "Building layout...")

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Start()
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop before Start did not return")
	}
	time.Sleep(100 * time.Millisecond)
	if out := buf.String(); out != "" {
		t.Errorf("stopped spinner drew %q", out)
	}
}
