// Package kafka mirrors notification-bus events onto a Kafka topic for
// out-of-process consumers. Publishing is best effort: failures are
// counted and logged, never surfaced to the caller.
package kafka

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"courier-dispatch/internal/logx"
)

type counter interface {
	Inc()
}

type asyncProducer interface {
	Input() chan<- *sarama.ProducerMessage
	Errors() <-chan *sarama.ProducerError
	Close() error
}

// Sink publishes bus events to a single Kafka topic through an async
// producer, so a slow or unreachable broker never stalls the caller.
// The bus topic name travels as the message key, so one Kafka topic
// carries the whole stream partitioned by audience.
type Sink struct {
	producer asyncProducer
	topic    string
	errs     counter
	logger   logx.Logger
	now      func() time.Time
	drained  sync.WaitGroup
}

// NewSink creates a Kafka sink. Returns nil when brokers or topic are
// not configured; a nil sink accepts publishes and drops them.
func NewSink(brokers []string, topic string, errs counter, logger logx.Logger) (*Sink, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	s := &Sink{
		producer: producer,
		topic:    topic,
		errs:     errs,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.watchErrors()
	return s, nil
}

// watchErrors drains the producer error channel until Close. Every
// failed delivery is counted and logged with the bus topic it carried.
func (s *Sink) watchErrors() {
	s.drained.Add(1)
	go func() {
		defer s.drained.Done()
		for pe := range s.producer.Errors() {
			key := ""
			if pe.Msg != nil && pe.Msg.Key != nil {
				if k, err := pe.Msg.Key.Encode(); err == nil {
					key = string(k)
				}
			}
			if s.errs != nil {
				s.errs.Inc()
			}
			s.logger.Warn("kafka sink publish failed",
				logx.String("topic", key),
				logx.Err(pe.Err),
			)
		}
	}()
}

// Publish mirrors one bus event onto the Kafka topic. The send is
// non-blocking: when the producer input queue is full the event is
// dropped, counted and logged.
func (s *Sink) Publish(topic, event string, payload any) {
	if s == nil {
		return
	}

	b, err := json.Marshal(EventDTO{
		Topic:   topic,
		Event:   event,
		Payload: payload,
		TS:      s.now(),
	})
	if err != nil {
		if s.errs != nil {
			s.errs.Inc()
		}
		s.logger.Warn("kafka sink publish failed",
			logx.String("topic", topic),
			logx.String("event", event),
			logx.Err(err),
		)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(topic),
		Value: sarama.ByteEncoder(b),
	}

	select {
	case s.producer.Input() <- msg:
	default:
		if s.errs != nil {
			s.errs.Inc()
		}
		s.logger.Warn("kafka sink dropped event: producer queue full",
			logx.String("topic", topic),
			logx.String("event", event),
		)
	}
}

// Close flushes in-flight messages, shuts the producer down and waits
// for the error watcher to drain.
func (s *Sink) Close() error {
	if s == nil {
		return nil
	}
	err := s.producer.Close()
	s.drained.Wait()
	return err
}
