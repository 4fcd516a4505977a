package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "hotelaudit/internal/app/outbox"
)

// OutboxEntry is a queued record plus its delivery bookkeeping.
type OutboxEntry struct {
	Record    appoutbox.EventRecord
	Attempts  int
	NotBefore time.Time
	LastError string
}

// Outbox is a bounded in-memory queue. When full, the oldest entry is dropped.
type Outbox struct {
	mu       sync.Mutex
	pending  []*OutboxEntry
	inflight map[string]*OutboxEntry
	capacity int
	dropped  int
	now      func() time.Time
}

func NewOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Outbox{
		inflight: make(map[string]*OutboxEntry),
		capacity: capacity,
		now:      time.Now,
	}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) >= o.capacity {
		o.pending = o.pending[1:]
		o.dropped++
	}
	o.pending = append(o.pending, &OutboxEntry{Record: record})
	return nil
}

// Claim hands out the first entry whose retry time has passed, or nil.
func (o *Outbox) Claim(ctx context.Context) (*OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for i, entry := range o.pending {
		if entry.NotBefore.After(now) {
			continue
		}
		o.pending = append(o.pending[:i], o.pending[i+1:]...)
		o.inflight[entry.Record.ID] = entry
		claimed := *entry
		return &claimed, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, id)
	return nil
}

// MarkFailed puts the entry back in the queue until retryAt.
func (o *Outbox) MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.inflight[id]
	if !ok {
		return nil
	}
	delete(o.inflight, id)
	entry.Attempts++
	entry.NotBefore = retryAt
	entry.LastError = reason
	o.pending = append(o.pending, entry)
	return nil
}

// Stats reports queued, in-flight and dropped counts.
func (o *Outbox) Stats() (pending, inflight, dropped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending), len(o.inflight), o.dropped
}

var _ appoutbox.Outbox = (*Outbox)(nil)
