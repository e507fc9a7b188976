package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kalpovskii/todos/internal/config"
	todokafka "github.com/kalpovskii/todos/internal/kafka"
	"github.com/kalpovskii/todos/internal/logging"
	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if !cfg.EventsEnabled() || cfg.KafkaLogFile == "" {
		logger.Fatal("TODOS_KAFKA_BROKER, TODOS_KAFKA_TOPIC or TODOS_KAFKA_LOG_FILE is not configured")
	}

	file, err := os.OpenFile(cfg.KafkaLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Fatal("failed to open log file", "path", cfg.KafkaLogFile, "err", err)
	}
	defer file.Close()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.KafkaBroker},
		Topic:   cfg.KafkaTopic,
		GroupID: "todos-logger",
	})
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Kafka logger started", "topic", cfg.KafkaTopic, "file", cfg.KafkaLogFile)
	consume(ctx, r, file, logger)
}

// consume appends one line per message to out until ctx is done.
func consume(ctx context.Context, r messageReader, out io.Writer, logger *log.Logger) {
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			logger.Error("error reading message", "err", err)
			continue
		}

		if _, err := io.WriteString(out, formatLine(m)); err != nil {
			logger.Error("error writing log line", "err", err)
		}
	}
}

func formatLine(m kafka.Message) string {
	event, err := todokafka.DecodeEvent(m.Value)
	if err != nil {
		return fmt.Sprintf("[%s] %s\n", m.Time.Format(time.RFC3339), string(m.Value))
	}
	return fmt.Sprintf("[%s] %s %s %q\n", event.At.Format(time.RFC3339), event.Action, event.Todo.ID, event.Todo.Title)
}
