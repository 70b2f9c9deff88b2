package conversation

import (
	"context"
	"time"

	"octopus-backend/internal/shared/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is a summary joined with its last message for listing.
type Row struct {
	ID               string    `json:"id"`
	User1ID          string    `json:"user1_id"`
	User2ID          string    `json:"user2_id"`
	LastMessageID    string    `json:"last_message_id"`
	LastMessageAt    time.Time `json:"last_message_at"`
	User1UnreadCount int       `json:"user1_unread_count"`
	User2UnreadCount int       `json:"user2_unread_count"`
	UpdatedAt        time.Time `json:"updated_at"`
	LastMessageText  string    `json:"last_message_text,omitempty"`
	LastMessagePhoto string    `json:"last_message_photo,omitempty"`
}

type Repository interface {
	// UpsertOnMessage records a new message on the pair summary in one
	// conditional statement: create with the receiver's counter at 1, or
	// bump it atomically. Concurrent writes in opposite directions must
	// not lose an increment or create two rows.
	UpsertOnMessage(ctx context.Context, senderID, receiverID, messageID string, at time.Time) error
	// ResetUnread zeroes the counter on userID's side of the (userID,
	// otherID) pair summary.
	ResetUnread(ctx context.Context, userID, otherID string) error
	ListByUser(ctx context.Context, userID string) ([]Row, error)
	GetByPair(ctx context.Context, a, b string) (*Conversation, error)
}

type repo struct{ store *db.Store }

func NewRepository(s *db.Store) Repository { return &repo{store: s} }

func (r *repo) UpsertOnMessage(ctx context.Context, senderID, receiverID, messageID string, at time.Time) error {
	u1, u2 := PairKey(senderID, receiverID)
	inc1, inc2 := 0, 0
	if receiverID == u1 {
		inc1 = 1
	} else {
		inc2 = 1
	}
	now := time.Now().UTC()

	c := &Conversation{
		ID:               uuid.NewString(),
		User1ID:          u1,
		User2ID:          u2,
		LastMessageID:    messageID,
		LastMessageAt:    at,
		User1UnreadCount: inc1,
		User2UnreadCount: inc2,
		UpdatedAt:        now,
	}
	return r.store.Base.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user1_id"}, {Name: "user2_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_message_id":    messageID,
			"last_message_at":    at,
			"user1_unread_count": gorm.Expr("user1_unread_count + ?", inc1),
			"user2_unread_count": gorm.Expr("user2_unread_count + ?", inc2),
			"updated_at":         now,
		}),
	}).Create(c).Error
}

func (r *repo) ResetUnread(ctx context.Context, userID, otherID string) error {
	u1, u2 := PairKey(userID, otherID)
	col := "user2_unread_count"
	if userID == u1 {
		col = "user1_unread_count"
	}
	return r.store.Base.WithContext(ctx).
		Model(&Conversation{}).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Updates(map[string]any{col: 0, "updated_at": time.Now().UTC()}).Error
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Row, error) {
	var rows []Row
	err := r.store.Base.WithContext(ctx).
		Table("chat_conversations AS c").
		Select("c.*, m.message AS last_message_text, m.photo AS last_message_photo").
		Joins("LEFT JOIN chat_messages m ON m.id = c.last_message_id").
		Where("c.user1_id = ? OR c.user2_id = ?", userID, userID).
		Order("c.last_message_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repo) GetByPair(ctx context.Context, a, b string) (*Conversation, error) {
	u1, u2 := PairKey(a, b)
	var c Conversation
	if err := r.store.Base.WithContext(ctx).
		First(&c, "user1_id = ? AND user2_id = ?", u1, u2).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
