package outbox

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wichananm65/marketplace-backend/internal/database"
	"github.com/wichananm65/marketplace-backend/internal/logger"
)

type WorkerConfig struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// Worker relays unpublished events to the producer.
type Worker struct {
	db       *sql.DB
	repo     *Repository
	producer Producer
	log      *zap.Logger
	cfg      WorkerConfig
	tracer   trace.Tracer
}

func NewWorker(db *sql.DB, repo *Repository, producer Producer, log *zap.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Worker{
		db:       db,
		repo:     repo,
		producer: producer,
		log:      log,
		cfg:      cfg,
		tracer:   otel.Tracer("outbox-worker"),
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	logger.Info(ctx, w.log, "starting outbox worker")

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(context.WithoutCancel(ctx), w.log, "outbox worker stopping")
			return nil
		case <-ticker.C:
			if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
				logger.Error(ctx, w.log, "error processing outbox batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes one batch and returns how many events were
// delivered. A failed delivery is recorded on the event and retried on a
// later batch until MaxAttempts is reached.
func (w *Worker) ProcessBatch(ctx context.Context) (int, error) {
	ctx, span := w.tracer.Start(ctx, "OutboxWorker.ProcessBatch")
	defer span.End()

	published := 0
	err := database.WithTx(ctx, w.db, w.log, func(tx *sql.Tx) error {
		events, err := w.repo.FetchUnpublished(ctx, tx, w.cfg.BatchSize, w.cfg.MaxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		logger.Debug(ctx, w.log, "processing outbox events", zap.Int("count", len(events)))

		for _, e := range events {
			if err := w.producer.Publish(ctx, e); err != nil {
				logger.Warn(ctx, w.log, "outbox publish failed",
					zap.Int64("id", e.ID),
					zap.String("event_type", e.EventType),
					zap.Error(err),
				)
				if err := w.repo.MarkFailed(ctx, tx, e.ID, err.Error()); err != nil {
					return err
				}
				continue
			}
			if err := w.repo.MarkPublished(ctx, tx, e.ID); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return published, nil
}
