package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// NotificationRepository appends delivered message records.
type NotificationRepository interface {
	Create(ctx context.Context, record *domain.NotificationRecord) error
	ListByMobile(ctx context.Context, mobile string) ([]domain.NotificationRecord, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, record *domain.NotificationRecord) error {
	const query = `
        INSERT INTO sms_logs (mobile_number, message, sent_at)
        VALUES ($1,$2,$3)
        RETURNING id`
	return QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query,
		record.MobileNumber,
		record.Message,
		record.SentAt,
	).Scan(&record.ID)
}

func (r *notificationRepository) ListByMobile(ctx context.Context, mobile string) ([]domain.NotificationRecord, error) {
	const query = `
        SELECT id, mobile_number, message, sent_at
        FROM sms_logs WHERE mobile_number=$1 ORDER BY sent_at DESC`
	rows, err := QuerierFromCtx(ctx, r.pool).Query(ctx, query, mobile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.NotificationRecord
	for rows.Next() {
		var record domain.NotificationRecord
		if err := rows.Scan(&record.ID, &record.MobileNumber, &record.Message, &record.SentAt); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
