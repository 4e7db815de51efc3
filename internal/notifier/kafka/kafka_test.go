package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fractalizend/screener/internal/notifier"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafka_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Kafka)(nil)
}

func TestKafka_Init(t *testing.T) {
	k := &Kafka{}
	err := k.Init(notifier.Config{Params: map[string]any{
		"brokers": []any{"localhost:9092"},
		"topic":   "screener.alerts",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, k.brokers)
	assert.NotNil(t, k.writer)

	assert.Error(t, (&Kafka{}).Init(notifier.Config{}))
}

func TestKafka_NewDefersWriter(t *testing.T) {
	k := New(nil, "")
	assert.Nil(t, k.writer)

	require.NoError(t, k.Init(notifier.Config{Params: map[string]any{
		"brokers": "kafka-1:9092,kafka-2:9092",
		"topic":   "alerts",
	}}))
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, k.brokers)
	assert.NotNil(t, k.writer)
	assert.NoError(t, k.Close())
}

func TestKafka_Send(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{topic: "screener.alerts", writer: w}

	err := k.Send(context.Background(), notifier.Message{
		Text:      "XAUUSD 30m up",
		Pair:      "XAUUSD",
		Timeframe: "30",
		Kind:      "direction",
		Value:     "up",
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	m := w.msgs[0]
	assert.Equal(t, "screener.alerts", m.Topic)
	assert.Equal(t, "XAUUSD", string(m.Key))

	var body notifier.Message
	require.NoError(t, json.Unmarshal(m.Value, &body))
	assert.Equal(t, "up", body.Value)
}

func TestKafka_SendDestinationTopic(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{topic: "default", writer: w}

	k.Send(context.Background(), notifier.Message{Destination: "vip.alerts"})
	assert.Equal(t, "vip.alerts", w.msgs[0].Topic)
}

func TestKafka_SendError(t *testing.T) {
	k := &Kafka{topic: "t", writer: &fakeWriter{err: errors.New("broker down")}}
	assert.Error(t, k.Send(context.Background(), notifier.Message{}))
}

func TestKafka_Close(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w}
	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Gzip, parseCompression(""))
}
