package push

import (
	"context"
	"time"

	"octopus-backend/internal/shared/db"

	"gorm.io/gorm/clause"
)

type Repository interface {
	// Upsert registers a token keyed by (user_id, platform); any previous
	// token for that pair is superseded. Idempotent under retry.
	Upsert(ctx context.Context, userID, token, platform string) error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByTokens prunes dead tokens in one statement.
	DeleteByTokens(ctx context.Context, tokens []string) error
	ListByUser(ctx context.Context, userID string) ([]Token, error)
}

type repo struct{ store *db.Store }

func NewRepository(s *db.Store) Repository { return &repo{store: s} }

func (r *repo) Upsert(ctx context.Context, userID, token, platform string) error {
	now := time.Now().UTC()
	t := &Token{
		UserID:    userID,
		Token:     token,
		Platform:  platform,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.store.Base.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}},
		DoUpdates: clause.Assignments(map[string]any{
			"token":      token,
			"updated_at": now,
		}),
	}).Create(t).Error
}

func (r *repo) DeleteByToken(ctx context.Context, token string) error {
	return r.store.Base.WithContext(ctx).Delete(&Token{}, "token = ?", token).Error
}

func (r *repo) DeleteByTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.store.Base.WithContext(ctx).Delete(&Token{}, "token IN ?", tokens).Error
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Token, error) {
	var out []Token
	err := r.store.Base.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&out).Error
	return out, err
}
