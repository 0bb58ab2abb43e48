package notify

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// CountMsg is a tea.Msg carrying the result of one unread-count poll.
type CountMsg struct {
	Surface string
	Count   int
	Err     error
}

// fetchTimeout is the maximum time allowed for a single poll request.
const fetchTimeout = 30 * time.Second

// Poller periodically fetches the unread count for one surface while
// that surface is mounted. Stop halts the ticker unconditionally; a
// request already in flight may still deliver one final message, which
// an unmounted surface ignores.
type Poller struct {
	client   *Client
	interval time.Duration
	resultCh chan CountMsg

	mu      gosync.Mutex
	stopCh  chan struct{}
	running bool
}

// NewPoller creates a poller for the given client. A non-positive
// interval falls back to 60 seconds.
func NewPoller(client *Client, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{
		client:   client,
		interval: interval,
		resultCh: make(chan CountMsg, 16),
	}
}

// Start launches the polling goroutine and returns a subscription
// command that waits for the first result. Starting an already-running
// poller is a no-op. A stopped poller can be started again, which is
// how a surface remounts after login.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go p.loop(stopCh)

	return p.waitForResult()
}

// Stop halts the polling loop. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// loop runs the polling ticker. Each tick issues its own request in a
// fresh goroutine, so a hung request never delays later ticks.
func (p *Poller) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial fetch immediately so the badge fills in on mount.
	go p.pollOnce()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			go p.pollOnce()
		}
	}
}

// pollOnce performs a single count fetch and reports the result.
func (p *Poller) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	n, err := p.client.FetchUnreadCount(ctx)
	p.sendResult(CountMsg{
		Surface: p.client.Surface(),
		Count:   n,
		Err:     err,
	})
}

// sendResult sends a CountMsg on the result channel without blocking.
func (p *Poller) sendResult(msg CountMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if the channel is full to avoid blocking the poller.
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll
// result. Called after processing a CountMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
