package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Producer publishes order lifecycle events asynchronously. Publishing
// happens after the database commit and is best-effort: a broker outage
// must never fail or block an order operation.
type Producer struct {
	w       *kafka.Writer
	log     logrus.FieldLogger
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int, log logrus.FieldLogger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				_ = p.w.Close()
				return
			}
			p.write(m)
		default:
			_ = p.w.Close()
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.WithError(err).WithField("event_type", headerValue(m, "x-event-type")).
			Warn("publish event failed")
	}
}

// Publish enqueues an envelope without blocking the caller; if the
// buffer is full the event is dropped and logged.
func (p *Producer) Publish(key []byte, env Envelope) {
	value, err := json.Marshal(env)
	if err != nil {
		p.log.WithError(err).Error("marshal event envelope")
		return
	}

	msg := kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(env.EventType)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}

	select {
	case p.inbox <- msg:
	default:
		p.log.WithField("event_type", env.EventType).Warn("event buffer full, dropping event")
	}
}

// Close stops accepting events; the loop flushes what is already queued.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the publish loop has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
