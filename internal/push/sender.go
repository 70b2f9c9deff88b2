package push

import (
	"context"
	"errors"
)

// ErrTokenNotRegistered is the permanent failure class: the provider has
// confirmed the token will never work again and it should be pruned.
// Every other send error is transient and leaves the token registered.
var ErrTokenNotRegistered = errors.New("token not registered")

// Payload is one logical notification, fanned out to every device token
// the target user has registered.
type Payload struct {
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Image  string            `json:"image,omitempty"`
	Type   string            `json:"type,omitempty"`
	ID     string            `json:"id,omitempty"`
	UserID string            `json:"userId,omitempty"`
	Badge  int               `json:"badge,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

type Result struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Sender delivers to a single device token.
type Sender interface {
	Send(ctx context.Context, token string, p Payload) error
}
