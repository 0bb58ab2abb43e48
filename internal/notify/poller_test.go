package notify

import (
	"context"
	"testing"
	"time"
)

func TestPollerStartStop(t *testing.T) {
	f := &stubFetcher{count: 2}
	c := newTestClient(f)
	p := NewPoller(c, 10*time.Millisecond)

	cmd := p.Start()
	if cmd == nil {
		t.Fatal("Start returned no subscription command")
	}
	if !p.Running() {
		t.Fatal("poller not running after Start")
	}

	// The initial immediate fetch delivers a result.
	msg := cmd()
	count, ok := msg.(CountMsg)
	if !ok {
		t.Fatalf("message type %T, want CountMsg", msg)
	}
	if count.Surface != c.Surface() {
		t.Errorf("surface = %q, want %q", count.Surface, c.Surface())
	}
	if count.Err != nil || count.Count != 2 {
		t.Errorf("result = %+v, want count 2", count)
	}

	p.Stop()
	if p.Running() {
		t.Error("poller still running after Stop")
	}
}

func TestPollerStopIsIdempotent(t *testing.T) {
	p := NewPoller(newTestClient(&stubFetcher{}), 10*time.Millisecond)

	p.Start()
	p.Stop()
	p.Stop() // must not panic on a closed channel
}

func TestPollerStartWhileRunningIsNoop(t *testing.T) {
	p := NewPoller(newTestClient(&stubFetcher{}), 10*time.Millisecond)

	if p.Start() == nil {
		t.Fatal("first Start returned nil")
	}
	if p.Start() != nil {
		t.Error("second Start returned a command while running")
	}
	p.Stop()
}

func TestPollerRestartsAfterStop(t *testing.T) {
	// A surface remounts after login, so a stopped poller must be
	// startable again.
	p := NewPoller(newTestClient(&stubFetcher{count: 1}), 10*time.Millisecond)

	p.Start()
	p.Stop()

	cmd := p.Start()
	if cmd == nil {
		t.Fatal("restart returned no command")
	}
	if !p.Running() {
		t.Error("poller not running after restart")
	}
	p.Stop()
}

func TestPollerStopsPolling(t *testing.T) {
	f := &stubFetcher{count: 1}
	c := newTestClient(f)
	p := NewPoller(c, 10*time.Millisecond)

	p.Start()
	waitFor(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.countFetches >= 1 // at least the initial fetch happened
	})
	p.Stop()

	// Let any in-flight request settle, then verify the tick loop is
	// actually dead: the fetch count must stay flat.
	time.Sleep(30 * time.Millisecond)
	f.mu.Lock()
	before := f.countFetches
	f.mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	f.mu.Lock()
	after := f.countFetches
	f.mu.Unlock()
	if after != before {
		t.Errorf("fetches continued after Stop: %d -> %d", before, after)
	}
}

func TestPollerDefaultInterval(t *testing.T) {
	p := NewPoller(newTestClient(&stubFetcher{}), 0)
	if p.interval != 60*time.Second {
		t.Errorf("interval = %v, want 60s", p.interval)
	}
}

func TestPollerReportsErrors(t *testing.T) {
	f := &stubFetcher{countErr: context.DeadlineExceeded}
	c := newTestClient(f)
	p := NewPoller(c, 10*time.Millisecond)

	cmd := p.Start()
	defer p.Stop()

	msg := cmd()
	count, ok := msg.(CountMsg)
	if !ok {
		t.Fatalf("message type %T, want CountMsg", msg)
	}
	if count.Err == nil {
		t.Error("poll error not propagated in CountMsg")
	}
}
