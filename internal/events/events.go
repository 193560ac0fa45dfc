// Package events: commit sonrası dış sistemlere giden bildirimler.
// Yayın asenkrondur, hata olursa sadece loglanır.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated = "order.created"
	TypeCariDebit    = "cari.debit"
	TypeCariPayment  = "cari.payment"
)

type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	BranchID   uint      `json:"branch_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type Publisher interface {
	Publish(evt Event)
	Close() error
}

// NopPublisher: KAFKA_BROKERS tanımlı değilse kullanılır
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}
func (NopPublisher) Close() error  { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	log     zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func ParseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// New: broker listesi boşsa NopPublisher döner
func New(brokers, topic string, log zerolog.Logger) Publisher {
	list := ParseBrokers(brokers)
	if len(list) == 0 {
		return NopPublisher{}
	}
	return newKafkaPublisher(NewKafkaWriter(list, topic), log)
}

func newKafkaPublisher(w messageWriter, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		log:     log.With().Str("component", "events").Logger(),
		timeout: 5 * time.Second,
	}
}

func encode(evt Event) (kafka.Message, error) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%s", evt.Type, evt.Key)),
		Value: value,
	}, nil
}

func (p *KafkaPublisher) Publish(evt Event) {
	msg, err := encode(evt)
	if err != nil {
		p.log.Error().Err(err).Str("type", evt.Type).Msg("event encode edilemedi")
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.log.Error().Err(err).Str("type", evt.Type).Str("key", evt.Key).Msg("event yayınlanamadı")
		}
	}()
}

func (p *KafkaPublisher) Close() error {
	p.wg.Wait()
	return p.writer.Close()
}
