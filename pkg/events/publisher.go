package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lintang-b-s/navguide/pkg/concurrent"
	da "github.com/lintang-b-s/navguide/pkg/datastructure"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultWriteTimeout = 5 * time.Second

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

type message struct {
	Source   string      `json:"source"`
	Advisory da.Advisory `json:"advisory"`
}

// Publisher forwards advisories to a Kafka topic. Report never blocks on the broker: messages
// are written in order from the publisher's own loop.
type Publisher struct {
	writer  MessageWriter
	loop    *concurrent.Looper
	log     *zap.Logger
	source  string
	timeout time.Duration
}

// NewPublisher starts a publisher. source identifies this process in every message.
func NewPublisher(writer MessageWriter, source string, log *zap.Logger) *Publisher {
	p := &Publisher{
		writer:  writer,
		loop:    concurrent.NewLooper("kafka-publisher", log),
		log:     log,
		source:  source,
		timeout: defaultWriteTimeout,
	}
	p.loop.Start()
	return p
}

func (p *Publisher) Report(advisory da.Advisory) {
	ok := p.loop.Post(func() {
		p.publish(advisory)
	})
	if !ok {
		p.log.Debug("publisher closed, dropping advisory", zap.String("message", advisory.Message))
	}
}

func (p *Publisher) publish(advisory da.Advisory) {
	value, err := json.Marshal(message{Source: p.source, Advisory: advisory})
	if err != nil {
		p.log.Error("marshal advisory", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(advisory.Kind),
		Value: value,
		Time:  advisory.Time,
	})
	if err != nil {
		p.log.Warn("publish advisory", zap.String("kind", string(advisory.Kind)), zap.Error(err))
	}
}

// Close flushes queued advisories and closes the writer.
func (p *Publisher) Close() error {
	p.loop.Close()
	return p.writer.Close()
}
