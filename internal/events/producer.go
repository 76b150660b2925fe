package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// Producer publishes order events to the configured topic. The publish is
// synchronous and fire-and-forget from the caller's point of view: there is
// no outbox and no redelivery beyond the client's own send retries.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logrus.Logger
}

func NewProducer(brokers, topic string, logger *logrus.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// newProducerFromSarama is used by tests to inject a mock sync producer.
func newProducerFromSarama(p sarama.SyncProducer, topic string, logger *logrus.Logger) *Producer {
	return &Producer{producer: p, topic: topic, logger: logger}
}

// Publish marshals the payload and sends it keyed by the order id.
func (p *Producer) Publish(orderID int64, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(orderID, 10)),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     p.topic,
		"partition": partition,
		"offset":    offset,
		"order_id":  orderID,
	}).Info("Event published to Kafka")

	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
