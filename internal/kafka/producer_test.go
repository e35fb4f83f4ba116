package kafka

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestProducerDisabledIsNoop(t *testing.T) {
	for _, p := range []*Producer{
		NewProducer(nil, "topic", zerolog.Nop()),
		NewProducer([]string{"localhost:9092"}, "", zerolog.Nop()),
	} {
		if p.Enabled() {
			t.Fatalf("expected disabled producer")
		}
		p.ProduceRequestEvent(context.Background(), EventRequestCreated, map[string]interface{}{"request_id": "1"})
		if err := p.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
}

func TestProducerEnabled(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "work-buddy.requests", zerolog.Nop())
	if !p.Enabled() {
		t.Fatalf("expected enabled producer")
	}
	if p.writer.Topic != "work-buddy.requests" {
		t.Fatalf("unexpected topic %s", p.writer.Topic)
	}
}
