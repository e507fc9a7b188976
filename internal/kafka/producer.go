package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kalpovskii/todos/internal/app/models"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes todo events. Failures are logged and dropped.
type Producer struct {
	writer messageWriter
	logger *log.Logger
}

func NewProducer(broker, topic string, logger *log.Logger) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (p *Producer) Publish(ctx context.Context, event models.TodoEvent) {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode todo event", "err", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.Todo.ID),
		Value: value,
		Time:  event.At,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to write kafka message", "action", event.Action, "id", event.Todo.ID, "err", err)
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// DecodeEvent parses a message value written by Producer.
func DecodeEvent(value []byte) (models.TodoEvent, error) {
	var e models.TodoEvent
	err := json.Unmarshal(value, &e)
	return e, err
}
