package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Repository struct {
	tracer trace.Tracer
}

func NewRepository() *Repository {
	return &Repository{tracer: otel.Tracer("outbox/repository")}
}

const (
	saveEventQuery = `
		INSERT INTO outbox (event_id, aggregate_type, aggregate_id, event_type, payload, topic, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	fetchUnpublishedQuery = `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, payload, topic, created_at, attempts
		FROM outbox
		WHERE published_at IS NULL AND attempts < $2
		ORDER BY created_at ASC, id ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	markPublishedQuery = `
		UPDATE outbox
		SET published_at = NOW(), last_error = NULL
		WHERE id = $1
	`
	markFailedQuery = `
		UPDATE outbox
		SET last_error = $1, attempts = attempts + 1
		WHERE id = $2
	`
)

// Save writes e inside the caller's transaction.
func (r *Repository) Save(ctx context.Context, tx *sql.Tx, e Event) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("aggregate_id", e.AggregateID),
		attribute.String("event_type", e.EventType),
	)

	_, err := tx.ExecContext(ctx, saveEventQuery,
		e.EventID.String(), e.AggregateType, e.AggregateID, e.EventType, []byte(e.Payload), e.Topic, e.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("save outbox event: %w", err)
	}
	return nil
}

// FetchUnpublished locks up to batchSize pending events, skipping rows
// another worker holds.
func (r *Repository) FetchUnpublished(ctx context.Context, tx *sql.Tx, batchSize, maxAttempts int) ([]Event, error) {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.FetchUnpublished")
	defer span.End()

	span.SetAttributes(attribute.Int("batch_size", batchSize))

	rows, err := tx.QueryContext(ctx, fetchUnpublishedQuery, batchSize, maxAttempts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			eventID string
			payload []byte
		)
		if err := rows.Scan(&e.ID, &eventID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &e.Topic, &e.CreatedAt, &e.Attempts); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning event: %w", err)
		}
		if err := e.EventID.UnmarshalText([]byte(eventID)); err != nil {
			return nil, fmt.Errorf("event %d has a bad event id: %w", e.ID, err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("result_count", len(events)))
	return events, nil
}

func (r *Repository) MarkPublished(ctx context.Context, tx *sql.Tx, id int64) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.MarkPublished")
	defer span.End()

	if _, err := tx.ExecContext(ctx, markPublishedQuery, id); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, tx *sql.Tx, id int64, errMsg string) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.MarkFailed")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", id),
		attribute.String("outbox.error_message", errMsg),
	)

	if _, err := tx.ExecContext(ctx, markFailedQuery, errMsg, id); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
