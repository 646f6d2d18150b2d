package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w, topic: "dispute.documents"}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Outcome{
		Type:       TypeGenerated,
		PaymentID:  "pay_1",
		Category:   "fraud",
		FileName:   "chargeback_fraud_1042.pdf",
		Degraded:   []string{"identity_proof"},
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "dispute.documents", msg.Topic)
	assert.Equal(t, []byte("pay_1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, []kafka.Header{{Key: "event_type", Value: []byte(TypeGenerated)}}, msg.Headers)

	var decoded Outcome
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "chargeback_fraud_1042.pdf", decoded.FileName)
	assert.Equal(t, []string{"identity_proof"}, decoded.Degraded)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNew(t *testing.T) {
	p, err := New(nil, "")
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish(context.Background(), Outcome{Type: TypeFailed}))

	_, err = New([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	p, err = New([]string{"localhost:9092"}, "dispute.documents")
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
}
