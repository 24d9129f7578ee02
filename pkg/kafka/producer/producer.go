package producer

import (
	"github.com/Shopify/sarama"

	"fixgateway/pkg/collector"
)

// Producer wraps a sarama sync producer so callers publish with a single
// call and share one connection for the process lifetime.
type Producer struct {
	producer sarama.SyncProducer
}

func New(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}

	return &Producer{producer: p}, nil
}

func (p *Producer) Publish(topic string, payload []byte) error {
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return err
	}

	collector.OutgoingKafkaCounter.Inc()
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
