package kafka

import (
	"fmt"
	"time"

	"wallet-service/src/pkg/log"

	k "gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

type kafkaProducer struct {
	producer *k.Producer
	log      log.Log
}

func NewProducer(cfg *k.ConfigMap, logger log.Log) (Producer, error) {
	p, err := k.NewProducer(cfg)
	if err != nil {
		return nil, err
	}

	return &kafkaProducer{
		producer: p,
		log:      logger,
	}, nil
}

// Publish sends one message and waits for the broker delivery report.
func (p *kafkaProducer) Publish(message *k.Message) error {
	deliveryChan := make(chan k.Event, 1)
	defer close(deliveryChan)

	if err := p.producer.Produce(message, deliveryChan); err != nil {
		p.log.Error("kafka-producer", fmt.Sprintf("produce failed: %v", err), "Publish", "")
		return err
	}

	select {
	case e := <-deliveryChan:
		m, ok := e.(*k.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if m.TopicPartition.Error != nil {
			p.log.Error("kafka-producer", fmt.Sprintf("delivery failed: %v", m.TopicPartition.Error), "Publish", "")
			return m.TopicPartition.Error
		}
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("delivery report timeout")
	}
}

func (p *kafkaProducer) Close() {
	p.producer.Flush(3000)
	p.producer.Close()
}
