package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// ConfirmationSubject is the subject line of every booking confirmation
const ConfirmationSubject = "Appointment Confirmation - MediBook"

// Notifier delivers a message to a recipient. Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// =============================================================================
// Log
// =============================================================================

// LogNotifier writes the message to the application log instead of delivering it.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info(body)
	return nil
}

// =============================================================================
// Kafka
// =============================================================================

// ConfirmationEvent is the payload published for every notification
type ConfirmationEvent struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes confirmations for a downstream mailer to consume.
type KafkaNotifier struct {
	writer messageWriter
	log    *logrus.Logger
	now    func() time.Time
}

func NewKafkaNotifier(brokers []string, topic string, log *logrus.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		// one confirmation per write; flush immediately instead of after the 1s default
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return newKafkaNotifier(writer, log)
}

func newKafkaNotifier(writer messageWriter, log *logrus.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: writer, log: log, now: time.Now}
}

func (n *KafkaNotifier) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(ConfirmationEvent{
		To:      to,
		Subject: subject,
		Body:    body,
		SentAt:  n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(to),
		Value: payload,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish confirmation: %w", err)
	}

	n.log.WithField("to", to).Debug("Confirmation published")
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// =============================================================================
// Circuit breaker
// =============================================================================

// BreakerTripThreshold is the number of consecutive failures that opens the breaker
const BreakerTripThreshold = 5

// BreakerNotifier stops calling a failing notifier until the breaker half-opens again.
type BreakerNotifier struct {
	next    Notifier
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerNotifier(next Notifier, log *logrus.Logger, openTimeout time.Duration) *BreakerNotifier {
	settings := gobreaker.Settings{
		Name:    "notifier",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= BreakerTripThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &BreakerNotifier{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (n *BreakerNotifier) Send(ctx context.Context, to, subject, body string) error {
	_, err := n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.next.Send(ctx, to, subject, body)
	})
	return err
}

func (n *BreakerNotifier) State() gobreaker.State {
	return n.breaker.State()
}
