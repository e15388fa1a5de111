package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestNew_WithOptions(t *testing.T) {
	w := newTestWatcher(t, WithDebounce(50*time.Millisecond))
	if w.debounce != 50*time.Millisecond {
		t.Errorf("debounce = %v, want 50ms", w.debounce)
	}
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestWatcher_WatchUnwatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadline.toml")

	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := w.Watch(path); err != nil {
		t.Fatalf("second Watch() error = %v", err)
	}
	if got := len(w.WatchedFiles()); got != 1 {
		t.Errorf("WatchedFiles() has %d entries, want 1", got)
	}

	if err := w.Unwatch(path); err != nil {
		t.Fatalf("Unwatch() error = %v", err)
	}
	if got := len(w.WatchedFiles()); got != 0 {
		t.Errorf("WatchedFiles() has %d entries after Unwatch, want 0", got)
	}
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threadline.toml")
	if err := os.WriteFile(path, []byte(`locale = "en"`), 0644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t, WithDebounce(20*time.Millisecond))
	events := make(chan Event, 16)
	w.OnChange(func(e Event) { events <- e })

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	w.Start()
	if !w.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	// Unrelated files in the same directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`locale = "fr"`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case e := <-events:
		abs, _ := filepath.Abs(path)
		if e.Path != abs {
			t.Errorf("event path = %q, want %q", e.Path, abs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestWatcher_QueueCoalesces(t *testing.T) {
	w := newTestWatcher(t)
	now := time.Now()

	w.queueEvent(Event{Path: "/a", Op: OpCreate, Time: now})
	w.queueEvent(Event{Path: "/a", Op: OpWrite, Time: now.Add(time.Millisecond)})
	if got := w.pendingFiles["/a"].Op; got != OpCreate {
		t.Errorf("create+write = %v, want create", got)
	}

	w.queueEvent(Event{Path: "/a", Op: OpRemove, Time: now.Add(2 * time.Millisecond)})
	if got := w.pendingFiles["/a"].Op; got != OpRemove {
		t.Errorf("+remove = %v, want remove", got)
	}

	var delivered []Event
	w.OnChange(func(e Event) { delivered = append(delivered, e) })
	w.flushPending(now.Add(time.Second))

	if len(delivered) != 1 || delivered[0].Op != OpRemove {
		t.Errorf("flushed %v, want one remove event", delivered)
	}
	if len(w.pendingFiles) != 0 {
		t.Error("pending events left after flush")
	}
}
