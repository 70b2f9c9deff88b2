package push

import "time"

// Token is one registered device. A user holds at most one active token
// per platform: re-registering on the same platform replaces the row.
type Token struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_push_user_platform" json:"user_id"`
	Token     string    `gorm:"index" json:"token"`
	Platform  string    `gorm:"uniqueIndex:idx_push_user_platform" json:"platform"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Token) TableName() string { return "push_tokens" }

var platforms = map[string]bool{"ios": true, "android": true, "web": true}
