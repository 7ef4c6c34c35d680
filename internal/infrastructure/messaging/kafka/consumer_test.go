package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rostertag/internal/config"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/rostertag/pkg/errors"
)

type mockReader struct {
	msgs      chan kafka.Message
	fetchErrs []error
	mu        sync.Mutex
	committed []kafka.Message
	closed    atomic.Bool
}

func newMockReader(msgs ...kafka.Message) *mockReader {
	ch := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	return &mockReader{msgs: ch}
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.fetchErrs) > 0 {
		err := m.fetchErrs[0]
		m.fetchErrs = m.fetchErrs[1:]
		m.mu.Unlock()
		return kafka.Message{}, err
	}
	m.mu.Unlock()
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case msg := <-m.msgs:
		return msg, nil
	}
}

func (m *mockReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockReader) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *mockReader) commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

type mockPublisher struct {
	mu   sync.Mutex
	msgs []*ProducerMessage
	err  error
}

func (p *mockPublisher) Publish(_ context.Context, msg *ProducerMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *mockPublisher) published() []*ProducerMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*ProducerMessage(nil), p.msgs...)
}

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "test-group",
		Topics:  []string{"jobs"},
		RetryConfig: RetryConfig{
			MaxRetries:      2,
			RetryBackoff:    time.Millisecond,
			DeadLetterTopic: "jobs.dlq",
		},
	}
}

func runConsumer(t *testing.T, reader *mockReader, dlq Publisher, handler MessageHandler) *Consumer {
	t.Helper()
	c := NewConsumerWithReader(reader, testConsumerConfig(), dlq, logging.NewNopLogger())
	c.Subscribe("jobs", handler)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	reader := newMockReader(kafka.Message{
		Topic:   "jobs",
		Key:     []byte("job-1"),
		Value:   []byte(`{"a":1}`),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("extract.requested")}},
	})
	got := make(chan *Message, 1)
	c := runConsumer(t, reader, nil, func(_ context.Context, msg *Message) error {
		got <- msg
		return nil
	})

	select {
	case msg := <-got:
		assert.Equal(t, "job-1", string(msg.Key))
		assert.Equal(t, "extract.requested", msg.Headers["event_type"])
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestConsumer_RetryThenSuccess(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: "jobs", Value: []byte("x")})
	var calls atomic.Int32
	dlq := &mockPublisher{}
	c := runConsumer(t, reader, dlq, func(context.Context, *Message) error {
		if calls.Add(1) == 1 {
			return errors.New("transient")
		}
		return nil
	})

	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Processed)
	assert.Equal(t, int64(1), stats.Retried)
	assert.Empty(t, dlq.published())
}

func TestConsumer_ExhaustedGoesToDeadLetter(t *testing.T) {
	reader := newMockReader(kafka.Message{
		Topic:   "jobs",
		Key:     []byte("job-9"),
		Value:   []byte("x"),
		Headers: []kafka.Header{{Key: "trace", Value: []byte("t1")}},
	})
	var calls atomic.Int32
	dlq := &mockPublisher{}
	c := runConsumer(t, reader, dlq, func(context.Context, *Message) error {
		calls.Add(1)
		return errors.New("boom")
	})

	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())

	published := dlq.published()
	require.Len(t, published, 1)
	dl := published[0]
	assert.Equal(t, "jobs.dlq", dl.Topic)
	assert.Equal(t, "job-9", string(dl.Key))
	assert.Equal(t, "jobs", dl.Headers["original_topic"])
	assert.Equal(t, "boom", dl.Headers["error_message"])
	assert.Equal(t, "3", dl.Headers["attempts"])
	assert.Equal(t, "t1", dl.Headers["trace"])

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.DeadLettered)
}

func TestConsumer_PermanentSkipsRetries(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: "jobs", Value: []byte("not json")})
	var calls atomic.Int32
	dlq := &mockPublisher{}
	runConsumer(t, reader, dlq, func(context.Context, *Message) error {
		calls.Add(1)
		return Permanent(errors.New("malformed"))
	})

	assert.Eventually(t, func() bool { return len(dlq.published()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "1", dlq.published()[0].Headers["attempts"])
}

func TestConsumer_DeadLetterFailureStillCommits(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: "jobs", Value: []byte("x")})
	dlq := &mockPublisher{err: errors.New("broker down")}
	c := runConsumer(t, reader, dlq, func(context.Context, *Message) error {
		return Permanent(errors.New("bad"))
	})

	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), c.Stats().DeadLettered)
}

func TestConsumer_UnknownTopicIsCommitted(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: "other", Value: []byte("x")})
	var calls atomic.Int32
	runConsumer(t, reader, nil, func(context.Context, *Message) error {
		calls.Add(1)
		return nil
	})

	assert.Eventually(t, func() bool { return reader.commits() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestConsumer_RecoversFromFetchErrors(t *testing.T) {
	old := fetchErrorBackoff
	fetchErrorBackoff = time.Millisecond
	t.Cleanup(func() { fetchErrorBackoff = old })

	reader := newMockReader(kafka.Message{Topic: "jobs", Value: []byte("x")})
	reader.fetchErrs = []error{errors.New("rebalance"), errors.New("rebalance")}
	c := runConsumer(t, reader, nil, func(context.Context, *Message) error { return nil })

	assert.Eventually(t, func() bool { return c.Stats().Processed == 1 }, time.Second, 5*time.Millisecond)
}

func TestConsumer_StartTwiceAndClose(t *testing.T) {
	reader := newMockReader()
	c := NewConsumerWithReader(reader, testConsumerConfig(), nil, nil)
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, c.Close())
	assert.True(t, reader.closed.Load())
	assert.NoError(t, c.Close())
}

func TestProcessMessage_CancelledDuringBackoff(t *testing.T) {
	cfg := testConsumerConfig()
	cfg.RetryConfig.RetryBackoff = time.Hour
	dlq := &mockPublisher{}
	c := NewConsumerWithReader(newMockReader(), cfg, dlq, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.processMessage(ctx, &Message{Topic: "jobs"}, func(context.Context, *Message) error {
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dlq.published())
}

func TestIsPermanent(t *testing.T) {
	base := errors.New("bad payload")
	assert.False(t, IsPermanent(base))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.True(t, IsPermanent(fmt.Errorf("handler: %w", Permanent(base))))
	assert.ErrorIs(t, Permanent(base), base)
	assert.Nil(t, Permanent(nil))
}

func TestValidateConsumerConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ConsumerConfig)
	}{
		{"no brokers", func(c *ConsumerConfig) { c.Brokers = nil }},
		{"no group", func(c *ConsumerConfig) { c.GroupID = "" }},
		{"no topics", func(c *ConsumerConfig) { c.Topics = nil }},
		{"negative retries", func(c *ConsumerConfig) { c.RetryConfig.MaxRetries = -1 }},
	}
	require.NoError(t, ValidateConsumerConfig(testConsumerConfig()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConsumerConfig()
			tt.mutate(&cfg)
			err := ValidateConsumerConfig(cfg)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeValidation))
		})
	}
}

func TestConsumerConfigFromKafka(t *testing.T) {
	cfg := ConsumerConfigFromKafka(config.KafkaConfig{
		Brokers:      []string{"b1:9092", "b2:9092"},
		GroupID:      "g",
		RequestTopic: "req",
		DLQTopic:     "dlq",
		MaxRetries:   4,
		RetryBackoff: 2 * time.Second,
	})
	assert.Equal(t, []string{"req"}, cfg.Topics)
	assert.Equal(t, "dlq", cfg.RetryConfig.DeadLetterTopic)
	assert.Equal(t, 4, cfg.RetryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryConfig.RetryBackoff)
}

//Personal.AI order the ending
