// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package stateif

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/db47h/tickit"
)

// Kafka is the external-bus StateInterface variant (spec §4.6), enabling
// components to run in separate OS processes. Each topic maps 1:1 onto a
// Kafka topic using the conventional naming from spec §6
// ("tickit-<component>-in" / "-out" / "tickit-control").
//
// Grounded on other_examples' confluent-kafka-go producer/consumer usage
// (pedeveaux-kafka-ride-sharing): one shared Producer, one Consumer per
// subscribed topic, JSON-free raw-byte payloads (the envelope's wire
// encoding is the caller's concern per spec §6).
type Kafka struct {
	producer *kafka.Producer
	brokers  string
	groupID  string
	consumers []*kafka.Consumer
}

// NewKafka connects a producer to brokers (a comma-separated
// "host:port" list) and returns a Kafka state interface. groupID scopes
// consumer-group offsets for every topic subscribed through this instance.
func NewKafka(brokers, groupID string) (*Kafka, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return nil, tickit.NewTransportError(ControlTopic, err)
	}
	return &Kafka{producer: p, brokers: brokers, groupID: groupID}, nil
}

// Publish implements StateInterface by producing payload on topic, tagged
// with a correlation id for tracing across the bus.
func (k *Kafka) Publish(ctx context.Context, topic string, payload []byte) error {
	id := uuid.New().String()
	deliveryChan := make(chan kafka.Event, 1)
	err := k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          payload,
		Headers:        []kafka.Header{{Key: "tickit-correlation-id", Value: []byte(id)}},
	}, deliveryChan)
	if err != nil {
		return tickit.NewTransportError(topic, err)
	}
	select {
	case ev := <-deliveryChan:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return tickit.NewTransportError(topic, errors.New("unexpected kafka delivery event"))
		}
		if m.TopicPartition.Error != nil {
			return tickit.NewTransportError(topic, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe implements StateInterface by creating a dedicated consumer
// for topic and streaming its messages, in partition order, onto the
// returned channel until ctx is cancelled.
func (k *Kafka) Subscribe(ctx context.Context, topic string) (<-chan Message, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": k.brokers,
		"group.id":          k.groupID,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, tickit.NewTransportError(topic, err)
	}
	if err := c.Subscribe(topic, nil); err != nil {
		c.Close()
		return nil, tickit.NewTransportError(topic, err)
	}
	k.consumers = append(k.consumers, c)

	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			ev := c.Poll(200)
			switch e := ev.(type) {
			case *kafka.Message:
				select {
				case out <- Message{Topic: topic, Payload: e.Value}:
				case <-ctx.Done():
					return
				}
			case kafka.Error:
				// non-fatal poll errors are ignored and polling
				// continues; a fatal one surfaces as a closed channel.
				if e.IsFatal() {
					return
				}
			}
		}
	}()
	return out, nil
}

// Close implements StateInterface, releasing the producer and every
// consumer created via Subscribe.
func (k *Kafka) Close() error {
	k.producer.Close()
	for _, c := range k.consumers {
		c.Close()
	}
	return nil
}
