package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"octopus-backend/internal/events"
	"octopus-backend/internal/message"
	"octopus-backend/internal/metrics"

	"github.com/rs/zerolog/log"
)

// ErrValidation marks caller mistakes; everything else from this service
// is a persistence failure.
var ErrValidation = errors.New("validation")

// Publisher feeds message inserts into the change stream. Publish failures
// never fail the write that triggered them.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type Body struct {
	Text      string
	Photo     string
	ReplyToID string
}

type Service interface {
	AppendMessage(ctx context.Context, senderID, receiverID string, body Body) (*message.Message, error)
	MarkSeen(ctx context.Context, messageIDs []string, userID string) error
	ListConversations(ctx context.Context, userID string) ([]Summary, error)
	ListMessages(ctx context.Context, userA, userB string, limit, offset int) ([]message.Message, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type service struct {
	messages message.Repository
	convs    Repository
	feed     Publisher
}

func NewService(messages message.Repository, convs Repository, feed Publisher) Service {
	return &service{messages: messages, convs: convs, feed: feed}
}

func (s *service) AppendMessage(ctx context.Context, senderID, receiverID string, body Body) (*message.Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, fmt.Errorf("%w: sender_id and receiver_id required", ErrValidation)
	}
	if body.Text == "" && body.Photo == "" {
		return nil, fmt.Errorf("%w: message or photo required", ErrValidation)
	}

	now := time.Now().UTC()
	msg := &message.Message{
		ID:         message.NewID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       body.Text,
		Photo:      body.Photo,
		ReplyToID:  body.ReplyToID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.convs.UpsertOnMessage(ctx, senderID, receiverID, msg.ID, msg.CreatedAt); err != nil {
		return nil, err
	}
	metrics.MessagesStored.Inc()

	s.publish(ctx, msg)
	return msg, nil
}

func (s *service) publish(ctx context.Context, msg *message.Message) {
	ev := events.MessageCreated{
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		Text:       msg.Text,
		Photo:      msg.Photo,
		CreatedAt:  msg.CreatedAt,
	}
	b, _ := json.Marshal(ev)
	if err := s.feed.Publish(ctx, msg.ReceiverID, b); err != nil {
		log.Warn().Err(err).Str("message_id", msg.ID).Msg("message feed publish")
	}
}

// MarkSeen flips the seen flag on the caller's received messages and zeroes
// the caller's unread counter toward each distinct sender involved. The
// reset is deliberate: the counter goes to zero even when unseen messages
// from that sender remain outside the given set.
func (s *service) MarkSeen(ctx context.Context, messageIDs []string, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id required", ErrValidation)
	}
	if len(messageIDs) == 0 {
		return nil
	}
	if _, err := s.messages.MarkSeen(ctx, messageIDs, userID); err != nil {
		return err
	}
	senders, err := s.messages.SendersOf(ctx, messageIDs, userID)
	if err != nil {
		return err
	}
	for _, sender := range senders {
		if err := s.convs.ResetUnread(ctx, userID, sender); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) ListConversations(ctx context.Context, userID string) ([]Summary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	rows, err := s.convs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(rows))
	for _, row := range rows {
		out = append(out, annotate(row, userID))
	}
	return out, nil
}

func (s *service) ListMessages(ctx context.Context, userA, userB string, limit, offset int) ([]message.Message, error) {
	if userA == "" || userB == "" {
		return nil, fmt.Errorf("%w: user1 and user2 required", ErrValidation)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	msgs, err := s.messages.ListBetween(ctx, userA, userB, limit, offset)
	if err != nil {
		return nil, err
	}
	// Storage order is newest-first; clients want chronological.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user_id required", ErrValidation)
	}
	return s.messages.CountUnread(ctx, userID)
}
