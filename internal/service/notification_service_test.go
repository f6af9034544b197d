package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/sony/gobreaker/v2"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type failingNotifier struct {
	calls int
	err   error
}

func (n *failingNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.calls++
	return n.err
}

func TestLogNotifierWritesFields(t *testing.T) {
	log, hook := test.NewNullLogger()

	err := NewLogNotifier(log).Send(context.Background(), "ana@email.com", ConfirmationSubject, "See you soon")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("no log entry")
	}
	if entry.Level != logrus.InfoLevel || entry.Message != "See you soon" {
		t.Errorf("entry = %v %q", entry.Level, entry.Message)
	}
	if entry.Data["to"] != "ana@email.com" || entry.Data["subject"] != ConfirmationSubject {
		t.Errorf("fields = %v", entry.Data)
	}
}

func TestKafkaNotifierPublishesEvent(t *testing.T) {
	log, _ := test.NewNullLogger()
	writer := &fakeWriter{}
	n := newKafkaNotifier(writer, log)
	fixed := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	if err := n.Send(context.Background(), "ana@email.com", ConfirmationSubject, "body"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "ana@email.com" {
		t.Errorf("key = %q", msg.Key)
	}

	var event ConfirmationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Subject != ConfirmationSubject || event.Body != "body" || !event.SentAt.Equal(fixed) {
		t.Errorf("event = %+v", event)
	}

	if err := n.Close(); err != nil || !writer.closed {
		t.Errorf("close: %v closed=%v", err, writer.closed)
	}
}

func TestKafkaNotifierWrapsWriterError(t *testing.T) {
	log, _ := test.NewNullLogger()
	boom := errors.New("broker unavailable")
	n := newKafkaNotifier(&fakeWriter{err: boom}, log)

	if err := n.Send(context.Background(), "a@b.c", "s", "b"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestBreakerNotifierOpensAfterConsecutiveFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	inner := &failingNotifier{err: errors.New("smtp down")}
	n := NewBreakerNotifier(inner, log, time.Minute)

	for i := 0; i < BreakerTripThreshold; i++ {
		if err := n.Send(context.Background(), "a@b.c", "s", "b"); err == nil {
			t.Fatalf("call %d should fail", i)
		}
	}

	if n.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", n.State())
	}

	err := n.Send(context.Background(), "a@b.c", "s", "b")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if inner.calls != BreakerTripThreshold {
		t.Errorf("inner calls = %d, want %d", inner.calls, BreakerTripThreshold)
	}

	if hook.LastEntry() == nil || hook.LastEntry().Level != logrus.WarnLevel {
		t.Error("expected state change warning")
	}
}

func TestBreakerNotifierPassesThroughSuccess(t *testing.T) {
	log, _ := test.NewNullLogger()
	inner := &failingNotifier{}
	n := NewBreakerNotifier(inner, log, time.Minute)

	if err := n.Send(context.Background(), "a@b.c", "s", "b"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if n.State() != gobreaker.StateClosed || inner.calls != 1 {
		t.Errorf("state = %s, calls = %d", n.State(), inner.calls)
	}
}

func TestKafkaWriterFlushesEachConfirmation(t *testing.T) {
	log, _ := test.NewNullLogger()
	n := NewKafkaNotifier([]string{"127.0.0.1:9092"}, "appointment.confirmations", log)
	defer n.Close()

	w, ok := n.writer.(*kafka.Writer)
	if !ok {
		t.Fatalf("writer = %T", n.writer)
	}
	if w.BatchSize != 1 || w.BatchTimeout <= 0 || w.BatchTimeout >= time.Second {
		t.Errorf("batching = size %d timeout %v; want a single message flushed well under 1s", w.BatchSize, w.BatchTimeout)
	}
	if w.WriteTimeout <= 0 {
		t.Errorf("write timeout = %v", w.WriteTimeout)
	}
}
