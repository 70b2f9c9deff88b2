package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"octopus-backend/internal/events"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrValidation = errors.New("validation")

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type Service interface {
	Create(ctx context.Context, recipientID, actorID, typ, postID string) (*Notification, error)
	List(ctx context.Context, recipientID string, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

type service struct {
	repo Repository
	feed Publisher
}

func NewService(repo Repository, feed Publisher) Service {
	return &service{repo: repo, feed: feed}
}

func (s *service) Create(ctx context.Context, recipientID, actorID, typ, postID string) (*Notification, error) {
	if recipientID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: recipient_id and actor_id required", ErrValidation)
	}
	if !types[typ] {
		return nil, fmt.Errorf("%w: unknown notification type %q", ErrValidation, typ)
	}

	n := &Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        typ,
		PostID:      postID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	ev := events.NotificationCreated{
		NotificationID: n.ID,
		RecipientID:    n.RecipientID,
		ActorID:        n.ActorID,
		Type:           n.Type,
		PostID:         n.PostID,
		CreatedAt:      n.CreatedAt,
	}
	b, _ := json.Marshal(ev)
	if err := s.feed.Publish(ctx, n.RecipientID, b); err != nil {
		log.Warn().Err(err).Str("notification_id", n.ID).Msg("notification feed publish")
	}
	return n, nil
}

func (s *service) List(ctx context.Context, recipientID string, limit int) ([]Notification, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByRecipient(ctx, recipientID, limit)
}

func (s *service) MarkRead(ctx context.Context, id, recipientID string) error {
	if id == "" || recipientID == "" {
		return fmt.Errorf("%w: id and user_id required", ErrValidation)
	}
	return s.repo.MarkRead(ctx, id, recipientID)
}

func (s *service) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}
