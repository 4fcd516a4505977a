package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelaudit/internal/domain/shared/events"
)

type sampleEvent struct {
	Run string    `json:"run"`
	At  time.Time `json:"-"`
}

func (e sampleEvent) EventName() string     { return "sample.happened" }
func (e sampleEvent) AggregateID() string   { return e.Run }
func (e sampleEvent) OccurredAt() time.Time { return e.At }

type sliceOutbox struct {
	records []EventRecord
	err     error
}

func (o *sliceOutbox) Add(_ context.Context, rec EventRecord) error {
	if o.err != nil {
		return o.err
	}
	o.records = append(o.records, rec)
	return nil
}

func TestJSONEventEncoder(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	enc := JSONEventEncoder{IDGenerator: func() string { return "fixed" }}

	rec, err := enc.Encode(sampleEvent{Run: "r1", At: at})

	require.NoError(t, err)
	assert.Equal(t, "fixed", rec.ID)
	assert.Equal(t, "sample.happened", rec.Name)
	assert.Equal(t, "r1", rec.Aggregate)
	assert.Equal(t, at, rec.OccurredAt)
	assert.JSONEq(t, `{"run":"r1"}`, string(rec.Payload))
	assert.NotNil(t, rec.Headers)

	rec, err = JSONEventEncoder{}.Encode(sampleEvent{})
	require.NoError(t, err)
	assert.Len(t, rec.ID, 36)
}

func TestRecord(t *testing.T) {
	box := &sliceOutbox{}

	require.NoError(t, Record(t.Context(), box, nil, sampleEvent{Run: "a"}, sampleEvent{Run: "b"}))
	require.Len(t, box.records, 2)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(box.records[1].Payload, &payload))
	assert.Equal(t, "b", payload["run"])

	assert.NoError(t, Record(t.Context(), nil, nil, sampleEvent{}))
	assert.NoError(t, Record(t.Context(), box, nil))

	full := &sliceOutbox{err: errors.New("full")}
	assert.EqualError(t, Record(t.Context(), full, nil, sampleEvent{}), "full")
}

var _ events.DomainEvent = sampleEvent{}
