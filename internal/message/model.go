package message

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Message is immutable once stored except for the seen flag.
type Message struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	SenderID   string    `gorm:"index" json:"sender_id"`
	ReceiverID string    `gorm:"index" json:"receiver_id"`
	Text       string    `gorm:"column:message" json:"message,omitempty"`
	Photo      string    `json:"photo,omitempty"`
	ReplyToID  string    `json:"reply_to_id,omitempty"`
	IsSeen     bool      `json:"is_seen"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Message) TableName() string { return "chat_messages" }

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewID returns an opaque id that still sorts by creation time.
func NewID() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), b)
}
