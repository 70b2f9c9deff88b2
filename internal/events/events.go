// Package events carries the change-feed event types and the bridge that
// turns row inserts into push deliveries.
package events

import "time"

// MessageCreated is published on every stored chat message.
type MessageCreated struct {
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"message,omitempty"`
	Photo      string    `json:"photo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NotificationCreated is published on every stored social notification.
type NotificationCreated struct {
	NotificationID string    `json:"notification_id"`
	RecipientID    string    `json:"recipient_id"`
	ActorID        string    `json:"actor_id"`
	Type           string    `json:"type"`
	PostID         string    `json:"post_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
