package kafka

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kalpovskii/todos/internal/app/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writerStub struct {
	writeFn func(ctx context.Context, msgs ...kafka.Message) error
	closed  bool
}

func (w *writerStub) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.writeFn(ctx, msgs...)
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	event := models.TodoEvent{
		Action: models.ActionCreated,
		Todo:   models.Todo{ID: "abc", Title: "Buy milk", CreatedAt: "2024-01-02T03:04:05.000Z"},
		At:     at,
	}

	t.Run("writes keyed json message", func(t *testing.T) {
		var got []kafka.Message
		stub := &writerStub{writeFn: func(_ context.Context, msgs ...kafka.Message) error {
			got = append(got, msgs...)
			return nil
		}}
		p := &Producer{writer: stub, logger: log.New(&bytes.Buffer{})}

		p.Publish(context.Background(), event)

		require.Len(t, got, 1)
		assert.Equal(t, "abc", string(got[0].Key))
		assert.Equal(t, at, got[0].Time)

		decoded, err := DecodeEvent(got[0].Value)
		require.NoError(t, err)
		assert.Equal(t, event, decoded)
	})

	t.Run("logs write failure", func(t *testing.T) {
		var buf bytes.Buffer
		stub := &writerStub{writeFn: func(context.Context, ...kafka.Message) error {
			return errors.New("broker unavailable")
		}}
		p := &Producer{writer: stub, logger: log.New(&buf)}

		p.Publish(context.Background(), event)

		assert.Contains(t, buf.String(), "failed to write kafka message")
		assert.Contains(t, buf.String(), "broker unavailable")
	})

	t.Run("close", func(t *testing.T) {
		stub := &writerStub{}
		p := &Producer{writer: stub, logger: log.New(&bytes.Buffer{})}
		require.NoError(t, p.Close())
		assert.True(t, stub.closed)
	})
}

func TestNewProducer_FlushesQuickly(t *testing.T) {
	p := NewProducer("localhost:9092", "todos", log.New(&bytes.Buffer{}))
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.Equal(t, "todos", w.Topic)
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := DecodeEvent([]byte("created"))
	assert.Error(t, err)
}
