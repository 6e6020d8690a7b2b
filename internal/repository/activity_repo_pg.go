package repository

import (
	"context"

	"github.com/andhikadk/smi-test/internal/domain"
)

type ActivityRepository interface {
	Append(ctx context.Context, activity string, userID *int64) error
	ListRecent(ctx context.Context, limit int) ([]domain.ActivityLog, error)
}

type PGActivityRepository struct {
	db DBTX
}

func NewActivityRepository(db DBTX) ActivityRepository {
	return &PGActivityRepository{db: db}
}

func (r *PGActivityRepository) Append(ctx context.Context, activity string, userID *int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO activity_logs (user_id, activity) VALUES ($1, $2)`, userID, activity)
	return translateWriteErr(err)
}

func (r *PGActivityRepository) ListRecent(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, activity, created_at FROM activity_logs
		ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.ActivityLog, 0)
	for rows.Next() {
		var l domain.ActivityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Activity, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

var _ ActivityRepository = (*PGActivityRepository)(nil)
