package message

import (
	"context"
	"time"

	"octopus-backend/internal/shared/db"
)

// Repository is the thin persistence boundary for messages. Ordering,
// clamping and counter rules live in the conversation service.
type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	// ListBetween returns messages between the unordered pair, newest first.
	ListBetween(ctx context.Context, userA, userB string, limit, offset int) ([]Message, error)
	// MarkSeen flips is_seen on the given ids, but only for rows the user
	// actually received. Returns how many rows changed.
	MarkSeen(ctx context.Context, ids []string, receiverID string) (int64, error)
	// SendersOf lists the distinct senders among the given ids received by
	// receiverID.
	SendersOf(ctx context.Context, ids []string, receiverID string) ([]string, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
}

type repo struct{ store *db.Store }

func NewRepository(s *db.Store) Repository { return &repo{store: s} }

func (r *repo) Create(ctx context.Context, m *Message) error {
	return r.store.Base.WithContext(ctx).Create(m).Error
}

func (r *repo) GetByID(ctx context.Context, id string) (*Message, error) {
	var m Message
	if err := r.store.Base.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repo) ListBetween(ctx context.Context, userA, userB string, limit, offset int) ([]Message, error) {
	var out []Message
	err := r.store.Base.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *repo) MarkSeen(ctx context.Context, ids []string, receiverID string) (int64, error) {
	res := r.store.Base.WithContext(ctx).
		Model(&Message{}).
		Where("id IN ? AND receiver_id = ?", ids, receiverID).
		Updates(map[string]any{"is_seen": true, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *repo) SendersOf(ctx context.Context, ids []string, receiverID string) ([]string, error) {
	var senders []string
	err := r.store.Base.WithContext(ctx).
		Model(&Message{}).
		Distinct("sender_id").
		Where("id IN ? AND receiver_id = ?", ids, receiverID).
		Pluck("sender_id", &senders).Error
	return senders, err
}

func (r *repo) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var n int64
	err := r.store.Base.WithContext(ctx).
		Model(&Message{}).
		Where("receiver_id = ? AND is_seen = ?", receiverID, false).
		Count(&n).Error
	return n, err
}
