package social

import "time"

// Notification is a social-interaction event addressed to one user.
type Notification struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	RecipientID string    `gorm:"index" json:"recipient_id"`
	ActorID     string    `json:"actor_id"`
	Type        string    `json:"type"`
	PostID      string    `json:"post_id,omitempty"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

var types = map[string]bool{
	"like":           true,
	"comment":        true,
	"mention":        true,
	"tag":            true,
	"follow":         true,
	"friend_request": true,
	"friend_accept":  true,
}
