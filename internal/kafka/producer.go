package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	EventRequestCreated       = "request.created"
	EventRequestStatusChanged = "request.status_changed"
	EventMessageAppended      = "message.appended"
	EventRequestReindexed     = "request.reindexed"
)

// RequestEventProducer lets tests swap the producer for a fake.
type RequestEventProducer interface {
	ProduceRequestEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Producer writes request events to a Kafka topic. It is best-effort and
// never fails the caller.
type Producer struct {
	writer *kafka.Writer
	topic  string
	log    zerolog.Logger
}

// NewProducer returns a producer. With no brokers or no topic every method is a no-op.
func NewProducer(brokers []string, topic string, log zerolog.Logger) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		topic: topic,
		log:   log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Enabled() bool {
	return p.writer != nil
}

// ProduceRequestEvent sends {"event": event, ...payload}. The request id, when
// present, is used as the message key so a thread stays on one partition.
func (p *Producer) ProduceRequestEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		p.log.Error().Err(err).Str("event", event).Msg("kafka: marshal request event")
		return
	}
	var key []byte
	if id, ok := payload["request_id"].(string); ok {
		key = []byte(id)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: body}); err != nil {
		p.log.Error().Err(err).Str("event", event).Str("topic", p.topic).Msg("kafka: write request event")
	}
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
