package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes events to a Kafka topic, keyed by order id so all
// events for one order land on the same partition.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (n *KafkaNotifier) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
