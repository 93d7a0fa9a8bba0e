// Package events fans out loop observations to in-process subscribers.
package events

import (
	"sync"

	"github.com/vadiminshakov/rsitrader/internal/domain"
)

// IndicatorBroadcaster fans out snapshots to all subscribers via buffered channels.
type IndicatorBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan domain.IndicatorSnapshot]struct{}
	buffer int
	last   *domain.IndicatorSnapshot
}

// NewIndicatorBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewIndicatorBroadcaster(buffer int) *IndicatorBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &IndicatorBroadcaster{
		subs:   make(map[chan domain.IndicatorSnapshot]struct{}),
		buffer: buffer,
	}
}

// Publish sends the snapshot to all subscribers, dropping if a reader is slow.
func (b *IndicatorBroadcaster) Publish(s domain.IndicatorSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.last = &s
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
			// drop slow consumer
		}
	}
}

// Last returns the most recent snapshot, if any.
func (b *IndicatorBroadcaster) Last() (domain.IndicatorSnapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.last == nil {
		return domain.IndicatorSnapshot{}, false
	}
	return *b.last, true
}

// Subscribe returns a channel that receives snapshots until Unsubscribe is called.
func (b *IndicatorBroadcaster) Subscribe() chan domain.IndicatorSnapshot {
	ch := make(chan domain.IndicatorSnapshot, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *IndicatorBroadcaster) Unsubscribe(ch chan domain.IndicatorSnapshot) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
