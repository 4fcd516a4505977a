package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotelaudit/internal/infra/storage/memory"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

// Producer publishes one message to a topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Store is the queue the worker drains.
type Store interface {
	Claim(ctx context.Context) (*memory.OutboxEntry, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error
}

// Worker polls the store and publishes each record as a CloudEvents JSON envelope.
type Worker struct {
	Store       Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	Backoff     []time.Duration
	Logger      *slog.Logger
	OnPublish   func(topic string, err error)
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				return err
			}
		}
	}
}

// drain publishes every entry that is currently due.
func (w *Worker) drain(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		published, err := w.processOnce(ctx)
		if err != nil || !published {
			return err
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	entry, err := w.Store.Claim(ctx)
	if err != nil || entry == nil {
		return false, err
	}
	rec := entry.Record
	topic := w.topicFor(rec.Name)
	payload, headers, err := w.envelope(entry)
	if err != nil {
		w.logWarn("outbox record cannot be encoded", rec.ID, err)
		return true, w.Store.MarkSent(ctx, rec.ID)
	}
	err = w.Producer.Publish(ctx, topic, rec.Aggregate, payload, headers)
	if w.OnPublish != nil {
		w.OnPublish(topic, err)
	}
	if err != nil {
		w.logWarn("outbox publish failed", rec.ID, err)
		if markErr := w.Store.MarkFailed(ctx, rec.ID, w.nextRetry(entry.Attempts), err.Error()); markErr != nil {
			return false, markErr
		}
		return false, nil
	}
	return true, w.Store.MarkSent(ctx, rec.ID)
}

func (w *Worker) envelope(entry *memory.OutboxEntry) ([]byte, map[string]string, error) {
	rec := entry.Record
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	var data map[string]any
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              id,
		"type":            rec.Name + ".v1",
		"source":          w.source(),
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

// topicFor maps "audit.completed" to "<prefix>audit.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://hotelaudit"
}

func (w *Worker) logWarn(msg, id string, err error) {
	if w.Logger != nil {
		w.Logger.Warn(msg, "event_id", id, "error", err)
	}
}
