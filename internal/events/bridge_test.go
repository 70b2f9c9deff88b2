package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"octopus-backend/internal/push"
	"octopus-backend/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeliverer struct {
	mu       sync.Mutex
	users    []string
	payloads []push.Payload
}

func (f *fakeDeliverer) Deliver(_ context.Context, userID string, p push.Payload) (push.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
	f.payloads = append(f.payloads, p)
	return push.Result{Success: 1}, nil
}

func (f *fakeDeliverer) last(t *testing.T) (string, push.Payload) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.payloads, "no delivery recorded")
	return f.users[len(f.users)-1], f.payloads[len(f.payloads)-1]
}

func (f *fakeDeliverer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type fakeProfiles struct {
	profiles map[string]*users.Profile
}

func (f *fakeProfiles) Resolve(_ context.Context, userID string) (*users.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, users.ErrNotFound
	}
	return p, nil
}

type fixedCount int64

func (c fixedCount) UnreadCount(context.Context, string) (int64, error) { return int64(c), nil }
func (c fixedCount) CountUnread(context.Context, string) (int64, error) { return int64(c), nil }

func newTestBridge(d *fakeDeliverer, p *fakeProfiles, badge int64) *Bridge {
	return NewBridge(d, p, fixedCount(badge), fixedCount(badge), 4)
}

func drain(t *testing.T, b *Bridge) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.Drain(ctx)
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestHandleMessageEvent(t *testing.T) {
	ctx := context.Background()
	profiles := &fakeProfiles{profiles: map[string]*users.Profile{
		"sender": {FullName: "Alice Smith", ProfilePhotoURL: "https://cdn/alice.jpg"},
	}}

	t.Run("text message", func(t *testing.T) {
		d := &fakeDeliverer{}
		b := newTestBridge(d, profiles, 3)

		ev := MessageCreated{MessageID: "m1", SenderID: "sender", ReceiverID: "rcpt", Text: "hello"}
		require.NoError(t, b.HandleMessageEvent(ctx, "chat.messages.created", []byte("rcpt"), encode(t, ev)))
		drain(t, b)

		user, p := d.last(t)
		assert.Equal(t, "rcpt", user)
		assert.Equal(t, "Alice Smith", p.Title)
		assert.Equal(t, "hello", p.Body)
		assert.Equal(t, "https://cdn/alice.jpg", p.Image)
		assert.Equal(t, "message", p.Type)
		assert.Equal(t, "sender", p.UserID)
		assert.Equal(t, 3, p.Badge)
		assert.Equal(t, "sender", p.Data["chatWithId"])
		assert.Equal(t, "Alice Smith", p.Data["chatWith"])
	})

	t.Run("photo-only message gets a placeholder body", func(t *testing.T) {
		d := &fakeDeliverer{}
		b := newTestBridge(d, profiles, 1)

		ev := MessageCreated{MessageID: "m2", SenderID: "sender", ReceiverID: "rcpt", Photo: "https://cdn/p.jpg"}
		require.NoError(t, b.HandleMessageEvent(ctx, "chat.messages.created", nil, encode(t, ev)))
		drain(t, b)

		_, p := d.last(t)
		assert.Equal(t, "📷 Sent a photo", p.Body)
	})

	t.Run("unknown sender is skipped", func(t *testing.T) {
		d := &fakeDeliverer{}
		b := newTestBridge(d, profiles, 1)

		ev := MessageCreated{MessageID: "m3", SenderID: "ghost", ReceiverID: "rcpt", Text: "boo"}
		require.NoError(t, b.HandleMessageEvent(ctx, "chat.messages.created", nil, encode(t, ev)))
		drain(t, b)

		assert.Zero(t, d.count())
	})

	t.Run("malformed payload is dropped without error", func(t *testing.T) {
		d := &fakeDeliverer{}
		b := newTestBridge(d, profiles, 1)

		require.NoError(t, b.HandleMessageEvent(ctx, "chat.messages.created", nil, []byte("{not json")))
		drain(t, b)

		assert.Zero(t, d.count())
	})
}

func TestHandleNotificationEvent(t *testing.T) {
	ctx := context.Background()
	profiles := &fakeProfiles{profiles: map[string]*users.Profile{
		"actor": {FullName: "Bob Jones", ProfilePhotoURL: "https://cdn/bob.jpg"},
	}}

	bodies := map[string]string{
		"like":           "Bob Jones liked your post",
		"comment":        "Bob Jones commented on your post",
		"mention":        "Bob Jones mentioned you in a comment",
		"tag":            "Bob Jones tagged you in a post",
		"follow":         "Bob Jones started following you",
		"friend_request": "Bob Jones sent you a friend request",
		"friend_accept":  "Bob Jones accepted your friend request",
	}
	for typ, want := range bodies {
		t.Run(typ, func(t *testing.T) {
			d := &fakeDeliverer{}
			b := newTestBridge(d, profiles, 2)

			ev := NotificationCreated{NotificationID: "n1", RecipientID: "rcpt", ActorID: "actor", Type: typ, PostID: "p9"}
			require.NoError(t, b.HandleNotificationEvent(ctx, "social.notifications.created", nil, encode(t, ev)))
			drain(t, b)

			user, p := d.last(t)
			assert.Equal(t, "rcpt", user)
			assert.Equal(t, "Octopus", p.Title)
			assert.Equal(t, want, p.Body)
			assert.Equal(t, typ, p.Type)
			assert.Equal(t, "p9", p.ID)
			assert.Equal(t, "actor", p.UserID)
			assert.Equal(t, 2, p.Badge)
		})
	}

	t.Run("unknown type falls back to a generic body", func(t *testing.T) {
		d := &fakeDeliverer{}
		b := newTestBridge(d, profiles, 0)

		ev := NotificationCreated{NotificationID: "n2", RecipientID: "rcpt", ActorID: "actor", Type: "poke"}
		require.NoError(t, b.HandleNotificationEvent(ctx, "social.notifications.created", nil, encode(t, ev)))
		drain(t, b)

		_, p := d.last(t)
		assert.Equal(t, "New notification", p.Body)
	})

	t.Run("unknown actor is skipped", func(t *testing.T) {
		d := &fakeDeliverer{}
		b := newTestBridge(d, profiles, 0)

		ev := NotificationCreated{NotificationID: "n3", RecipientID: "rcpt", ActorID: "ghost", Type: "like"}
		require.NoError(t, b.HandleNotificationEvent(ctx, "social.notifications.created", nil, encode(t, ev)))
		drain(t, b)

		assert.Zero(t, d.count())
	})
}
