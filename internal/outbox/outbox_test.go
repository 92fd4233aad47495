package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var eventCols = []string{"id", "event_id", "aggregate_type", "aggregate_id", "event_type", "payload", "topic", "created_at", "attempts"}

type recordingProducer struct {
	fail      map[int64]error
	published []Event
}

func (p *recordingProducer) Publish(_ context.Context, e Event) error {
	if err := p.fail[e.ID]; err != nil {
		return err
	}
	p.published = append(p.published, e)
	return nil
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e, err := NewEvent("order_events", "order", "12", "order.placed", map[string]any{"orderId": 12}, at)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, e.EventID)
	assert.JSONEq(t, `{"orderId":12}`, string(e.Payload))
	assert.Equal(t, at, e.CreatedAt)
}

func TestRepositorySave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	e, err := NewEvent("order_events", "order", "1", "order.placed", map[string]int{"orderId": 1}, time.Now())
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(e.EventID.String(), "order", "1", "order.placed", []byte(e.Payload), "order_events", e.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, NewRepository().Save(context.Background(), tx, e))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerProcessBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs(50, 10).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow(1, uuid.NewString(), "order", "7", "order.placed", []byte(`{}`), "order_events", now, 0).
			AddRow(2, uuid.NewString(), "order", "8", "order.placed", []byte(`{}`), "order_events", now, 3))
	mock.ExpectExec("SET published_at = NOW\\(\\)").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("attempts = attempts \\+ 1").WithArgs("broker down", int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	producer := &recordingProducer{fail: map[int64]error{2: errors.New("broker down")}}
	w := NewWorker(db, NewRepository(), producer, zap.NewNop(), WorkerConfig{})

	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, producer.published, 1)
	assert.Equal(t, "7", producer.published[0].AggregateID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerProcessBatch_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox").WillReturnRows(sqlmock.NewRows(eventCols))
	mock.ExpectCommit()

	w := NewWorker(db, NewRepository(), &recordingProducer{}, zap.NewNop(), WorkerConfig{BatchSize: 5, MaxAttempts: 3})
	n, err := w.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKafkaProducerPublish(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, config)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]any
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got["eventType"] != "order.status_changed" {
			return errors.New("unexpected event type")
		}
		return nil
	})

	p := NewKafkaProducerFrom(sp, zap.NewNop())
	defer p.Close()

	e, err := NewEvent("order_events", "order", "3", "order.status_changed", map[string]string{"status": "shipped"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), e))
}

func TestKafkaProducerBreakerOpens(t *testing.T) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, config)
	for i := 0; i < 5; i++ {
		sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	p := NewKafkaProducerFrom(sp, zap.NewNop())
	defer p.Close()

	e, err := NewEvent("order_events", "order", "3", "order.placed", struct{}{}, time.Now())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.Error(t, p.Publish(context.Background(), e))
	}

	// open breaker: fails without reaching the producer
	err = p.Publish(context.Background(), e)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}
