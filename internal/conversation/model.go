package conversation

import "time"

// Conversation is the denormalized summary of one unordered user pair.
// The pair is stored in canonical order (user1_id <= user2_id) so exactly
// one row exists per pair regardless of who messaged first.
type Conversation struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	User1ID          string    `gorm:"uniqueIndex:idx_conversation_pair" json:"user1_id"`
	User2ID          string    `gorm:"uniqueIndex:idx_conversation_pair" json:"user2_id"`
	LastMessageID    string    `json:"last_message_id"`
	LastMessageAt    time.Time `json:"last_message_at"`
	User1UnreadCount int       `json:"user1_unread_count"`
	User2UnreadCount int       `json:"user2_unread_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Conversation) TableName() string { return "chat_conversations" }

// PairKey normalizes an unordered pair to its canonical storage order.
func PairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
