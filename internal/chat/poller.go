// Package chat drives the message re-fetch loop for an open
// conversation.
package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahelp-app/ahelp-cli/internal/domain"
)

// Fetcher fetches a conversation's messages. *api.Client satisfies it.
type Fetcher interface {
	Messages(ctx context.Context, conversationID int64) ([]domain.Message, error)
}

// Sink receives each successful fetch result. It runs with the poller
// lock held and must not call back into the Poller.
type Sink func(conversationID int64, messages []domain.Message)

// Poller re-fetches the watched conversation's messages on a fixed
// interval. At most one poll loop runs at a time: Watch cancels the
// previous loop before starting the next, and a generation counter
// discards responses that were in flight when the watch changed.
type Poller struct {
	fetch    Fetcher
	interval time.Duration
	sink     Sink

	mu       sync.Mutex
	gen      uint64
	convID   int64
	watching bool
	cancel   context.CancelFunc
}

func NewPoller(fetch Fetcher, interval time.Duration, sink Sink) *Poller {
	return &Poller{fetch: fetch, interval: interval, sink: sink}
}

// Watch starts polling conversationID: one immediate fetch, then one per
// interval. Any previous watch is stopped first.
func (p *Poller) Watch(ctx context.Context, conversationID int64) {
	p.mu.Lock()
	p.stopLocked()
	p.gen++
	gen := p.gen
	p.convID = conversationID
	p.watching = true
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go p.loop(ctx, gen, conversationID)
}

// Refresh performs one out-of-band fetch of the watched conversation,
// used right after sending so the sender sees their message without
// waiting for the next tick. No-op when nothing is watched.
func (p *Poller) Refresh(ctx context.Context) {
	p.mu.Lock()
	if !p.watching {
		p.mu.Unlock()
		return
	}
	gen, convID := p.gen, p.convID
	p.mu.Unlock()

	p.poll(ctx, gen, convID)
}

// Stop cancels the active watch. Safe to call repeatedly.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.gen++
}

func (p *Poller) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.watching = false
	p.convID = 0
}

func (p *Poller) loop(ctx context.Context, gen uint64, convID int64) {
	p.poll(ctx, gen, convID)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, gen, convID)
		}
	}
}

// poll fetches once and delivers the result unless the watch changed
// while the request was in flight. Failures are logged and swallowed so
// the next tick retries on its own.
func (p *Poller) poll(ctx context.Context, gen uint64, convID int64) {
	msgs, err := p.fetch.Messages(ctx, convID)
	if err != nil {
		slog.Warn("message poll failed", "conversation_id", convID, "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		// Stale response: the selection changed after this fetch started.
		return
	}
	if p.sink != nil {
		p.sink(convID, msgs)
	}
}
