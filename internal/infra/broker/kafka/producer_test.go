package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("hotelaudit-test")

	assert.Equal(t, "hotelaudit-test", cfg.ClientID)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.True(t, cfg.Producer.Idempotent)
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, 1, cfg.Net.MaxOpenRequests)
	assert.NoError(t, cfg.Validate())
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil, nil)
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func TestProducer_Publish(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"ok":true}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerFrom(mock)

	require.NoError(t, p.Publish(t.Context(), "audit.events.v1", "run-1", []byte(`{"ok":true}`), map[string]string{"content-type": "application/cloudevents+json"}))
	assert.ErrorIs(t, p.Publish(t.Context(), "audit.events.v1", "run-2", []byte(`{}`), nil), sarama.ErrOutOfBrokers)

	require.NoError(t, p.Close())
}

func TestProducer_PublishHonorsContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	p := NewProducerFrom(mock)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, "audit.events.v1", "run", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
	assert.NoError(t, (*Producer)(nil).Close())
}
