package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go-account-service/internal/domain"
)

type LogRepo struct{ db *gorm.DB }

func NewLogRepo(db *gorm.DB) *LogRepo { return &LogRepo{db: db} }

func (r *LogRepo) Append(ctx context.Context, e *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *LogRepo) CountSince(ctx context.Context, typ, logCtx string, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.AuditLog{}).
		Where("type = ? AND context = ? AND create_time > ?", typ, logCtx, since).
		Count(&n).Error
	return n, err
}

func (r *LogRepo) DeleteSince(ctx context.Context, typ, logCtx string, since time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("type = ? AND context = ? AND create_time > ?", typ, logCtx, since).
		Delete(&domain.AuditLog{})
	return res.RowsAffected, res.Error
}

func (r *LogRepo) Recent(ctx context.Context, typ string, limit int) ([]domain.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&domain.AuditLog{})
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	var entries []domain.AuditLog
	err := q.Order("create_time DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
