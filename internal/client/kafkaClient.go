package client

import (
	"context"
	"fmt"

	"codehut/internal/config"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	log "github.com/sirupsen/logrus"
)

type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close()
}

type kafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewEventPublisher connects a Kafka producer, or returns a no-op publisher when no brokers are configured.
func NewEventPublisher(cfg *config.Kafka) (EventPublisher, error) {
	if !cfg.Enabled() {
		return &noopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &kafkaPublisher{producer: producer, topic: cfg.PurchaseTopic}
	go p.watchDeliveries()

	log.WithFields(log.Fields{
		"kafka_servers": cfg.BootstrapServers,
		"topic":         cfg.PurchaseTopic,
	}).Info("Kafka producer ready")

	return p, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
	}, nil)
}

func (p *kafkaPublisher) watchDeliveries() {
	for ev := range p.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				log.WithError(e.TopicPartition.Error).WithField("key", string(e.Key)).Error("Kafka delivery failed")
			}
		case kafka.Error:
			log.WithError(e).Error("Kafka error")
		}
	}
}

func (p *kafkaPublisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}

type noopPublisher struct{}

func (p *noopPublisher) Publish(context.Context, string, []byte) error { return nil }

func (p *noopPublisher) Close() {}
