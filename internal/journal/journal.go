// Package journal публикует исполненные сделки во внешний поток.
package journal

import (
	"context"
	"time"

	"grid_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
)

// Event: сообщение о сделке позиции.
type Event struct {
	InstID   string       `json:"inst_id"`
	Position int          `json:"position"`
	Trade    models.Trade `json:"trade"`
}

type Publisher interface {
	Publish(ctx context.Context, events []Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka пишет события с ключом inst_id, чтобы сделки инструмента шли по порядку.
type Kafka struct {
	w messageWriter
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Zstd,
	}}
}

func (k *Kafka) Publish(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		payload, err := sonic.Marshal(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.InstID),
			Value: payload,
			Time:  time.UnixMilli(e.Trade.Timestamp),
		})
	}
	return k.w.WriteMessages(ctx, msgs...)
}

func (k *Kafka) Close() error {
	return k.w.Close()
}

// Nop: когда брокеры не настроены.
type Nop struct{}

func (Nop) Publish(context.Context, []Event) error { return nil }
func (Nop) Close() error                           { return nil }
