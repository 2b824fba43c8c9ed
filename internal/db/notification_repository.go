package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *NotificationRepository) Create(ctx context.Context, entity *NotificationEntity) (*NotificationEntity, error) {
	query := `INSERT INTO notification_outbox (id, payment_id, payload, created_at, updated_at, scheduled_at)
	          VALUES ($1, $2, $3, $4, $4, $4) RETURNING id`
	err := r.pool.QueryRow(ctx, query, entity.ID, entity.PaymentID, entity.Payload, entity.CreatedAt).Scan(&entity.ID)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

// GetUnpublished locks and returns up to limit outbox rows that are due for
// publishing. Rows locked by a concurrent poller are skipped.
func (r *NotificationRepository) GetUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]*NotificationEntity, error) {
	query := `SELECT id, payment_id, payload, created_at, updated_at, scheduled_at, published_at,
	                 delivered_at, publish_attempts, delivery_attempts, error
	          FROM notification_outbox
	          WHERE published_at IS NULL AND scheduled_at <= now()
	          ORDER BY scheduled_at
	          LIMIT $1
	          FOR UPDATE SKIP LOCKED`
	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*NotificationEntity
	for rows.Next() {
		var entity NotificationEntity
		err := rows.Scan(
			&entity.ID, &entity.PaymentID, &entity.Payload, &entity.CreatedAt, &entity.UpdatedAt,
			&entity.ScheduledAt, &entity.PublishedAt, &entity.DeliveredAt,
			&entity.PublishAttempts, &entity.DeliveryAttempts, &entity.Error,
		)
		if err != nil {
			return nil, err
		}
		entities = append(entities, &entity)
	}
	return entities, rows.Err()
}

// Update persists the publish bookkeeping fields after a poll cycle.
func (r *NotificationRepository) Update(ctx context.Context, tx pgx.Tx, entity *NotificationEntity) error {
	query := `UPDATE notification_outbox
	          SET scheduled_at = $2, published_at = $3, publish_attempts = $4, error = $5, updated_at = now()
	          WHERE id = $1`
	_, err := tx.Exec(ctx, query, entity.ID, entity.ScheduledAt, entity.PublishedAt, entity.PublishAttempts, entity.Error)
	return err
}

func (r *NotificationRepository) SelectForUpdateByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*NotificationEntity, error) {
	query := `SELECT id, payment_id, payload, created_at, updated_at, scheduled_at, published_at,
	                 delivered_at, publish_attempts, delivery_attempts, error
	          FROM notification_outbox WHERE id = $1 FOR UPDATE`
	row := tx.QueryRow(ctx, query, id)

	var entity NotificationEntity
	err := row.Scan(
		&entity.ID, &entity.PaymentID, &entity.Payload, &entity.CreatedAt, &entity.UpdatedAt,
		&entity.ScheduledAt, &entity.PublishedAt, &entity.DeliveredAt,
		&entity.PublishAttempts, &entity.DeliveryAttempts, &entity.Error,
	)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// RescheduleDelivery records a failed delivery attempt and the next retry time.
func (r *NotificationRepository) RescheduleDelivery(ctx context.Context, tx pgx.Tx, id uuid.UUID, scheduledAt time.Time, attempts int, errMsg string) error {
	query := `UPDATE notification_outbox
	          SET scheduled_at = $2, published_at = NULL, delivery_attempts = $3, error = $4, updated_at = now()
	          WHERE id = $1`
	_, err := tx.Exec(ctx, query, id, scheduledAt, attempts, errMsg)
	return err
}

// MarkDeliveryFailed records a delivery that exhausted its attempts. The row
// keeps its published_at stamp so it is never picked up again.
func (r *NotificationRepository) MarkDeliveryFailed(ctx context.Context, tx pgx.Tx, id uuid.UUID, attempts int, errMsg string) error {
	query := `UPDATE notification_outbox
	          SET delivery_attempts = $2, error = $3, updated_at = now()
	          WHERE id = $1`
	_, err := tx.Exec(ctx, query, id, attempts, errMsg)
	return err
}

// MarkDelivered stamps a successful delivery.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, tx pgx.Tx, id uuid.UUID, attempts int, deliveredAt time.Time) error {
	query := `UPDATE notification_outbox
	          SET delivered_at = $2, delivery_attempts = $3, error = NULL, updated_at = now()
	          WHERE id = $1`
	_, err := tx.Exec(ctx, query, id, deliveredAt, attempts)
	return err
}
