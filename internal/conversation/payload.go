package conversation

import "time"

// Summary is a conversation row annotated for one side of the pair.
type Summary struct {
	ID               string    `json:"id"`
	User1ID          string    `json:"user1_id"`
	User2ID          string    `json:"user2_id"`
	LastMessageID    string    `json:"last_message_id"`
	LastMessageAt    time.Time `json:"last_message_at"`
	User1UnreadCount int       `json:"user1_unread_count"`
	User2UnreadCount int       `json:"user2_unread_count"`
	LastMessageText  string    `json:"last_message_text,omitempty"`
	LastMessagePhoto string    `json:"last_message_photo,omitempty"`
	OtherUserID      string    `json:"other_user_id"`
	UnreadCount      int       `json:"unread_count"`
}

func annotate(row Row, userID string) Summary {
	sum := Summary{
		ID:               row.ID,
		User1ID:          row.User1ID,
		User2ID:          row.User2ID,
		LastMessageID:    row.LastMessageID,
		LastMessageAt:    row.LastMessageAt,
		User1UnreadCount: row.User1UnreadCount,
		User2UnreadCount: row.User2UnreadCount,
		LastMessageText:  row.LastMessageText,
		LastMessagePhoto: row.LastMessagePhoto,
	}
	if row.User1ID == userID {
		sum.OtherUserID = row.User2ID
		sum.UnreadCount = row.User1UnreadCount
	} else {
		sum.OtherUserID = row.User1ID
		sum.UnreadCount = row.User2UnreadCount
	}
	return sum
}

type sendMessageRequest struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"message"`
	Photo      string `json:"photo"`
	ReplyToID  string `json:"reply_to_id"`
}

type markSeenRequest struct {
	MessageIDs []string `json:"message_ids"`
	UserID     string   `json:"user_id"`
}
