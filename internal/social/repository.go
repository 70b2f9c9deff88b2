package social

import (
	"context"

	"octopus-backend/internal/shared/db"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

type repo struct{ store *db.Store }

func NewRepository(s *db.Store) Repository { return &repo{store: s} }

func (r *repo) Create(ctx context.Context, n *Notification) error {
	return r.store.Base.WithContext(ctx).Create(n).Error
}

func (r *repo) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	var out []Notification
	err := r.store.Base.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *repo) MarkRead(ctx context.Context, id, recipientID string) error {
	return r.store.Base.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true).Error
}

func (r *repo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := r.store.Base.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}
