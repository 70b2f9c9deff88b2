package conversation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"octopus-backend/internal/events"
	"octopus-backend/internal/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	mu     sync.Mutex
	events [][]byte
}

func (f *fakeFeed) Publish(_ context.Context, _ string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, value)
	return nil
}

func newTestService(t *testing.T) (Service, message.Repository, Repository, *fakeFeed) {
	t.Helper()
	store := newTestStore(t)
	msgRepo := message.NewRepository(store)
	convRepo := NewRepository(store)
	feed := &fakeFeed{}
	return NewService(msgRepo, convRepo, feed), msgRepo, convRepo, feed
}

func TestAppendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("valid message is stored and returned unseen", func(t *testing.T) {
		svc, msgRepo, _, feed := newTestService(t)

		msg, err := svc.AppendMessage(ctx, "u1", "u2", Body{Text: "hello"})
		require.NoError(t, err)
		assert.False(t, msg.IsSeen)
		assert.NotEmpty(t, msg.ID)

		stored, err := msgRepo.GetByID(ctx, msg.ID)
		require.NoError(t, err)
		assert.Equal(t, msg.ID, stored.ID)
		assert.Equal(t, "hello", stored.Text)
		assert.Equal(t, "u1", stored.SenderID)
		assert.Equal(t, "u2", stored.ReceiverID)
		assert.False(t, stored.IsSeen)

		require.Len(t, feed.events, 1)
		var ev events.MessageCreated
		require.NoError(t, json.Unmarshal(feed.events[0], &ev))
		assert.Equal(t, msg.ID, ev.MessageID)
		assert.Equal(t, "u2", ev.ReceiverID)
	})

	t.Run("photo-only message is valid", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		msg, err := svc.AppendMessage(ctx, "u1", "u2", Body{Photo: "https://cdn/img.jpg"})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/img.jpg", msg.Photo)
	})

	t.Run("missing participants", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		_, err := svc.AppendMessage(ctx, "", "u2", Body{Text: "x"})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = svc.AppendMessage(ctx, "u1", "", Body{Text: "x"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty body", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)
		_, err := svc.AppendMessage(ctx, "u1", "u2", Body{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAppendMessage_Scenario(t *testing.T) {
	// u1 -> u2 "hello", then u2 -> u1 "hi": one summary row, last message
	// "hi", one unread on each side.
	ctx := context.Background()
	svc, _, convRepo, _ := newTestService(t)

	_, err := svc.AppendMessage(ctx, "u1", "u2", Body{Text: "hello"})
	require.NoError(t, err)
	reply, err := svc.AppendMessage(ctx, "u2", "u1", Body{Text: "hi"})
	require.NoError(t, err)

	c, err := convRepo.GetByPair(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Equal(t, reply.ID, c.LastMessageID)
	assert.Equal(t, 1, c.User1UnreadCount)
	assert.Equal(t, 1, c.User2UnreadCount)

	sums, err := svc.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "u2", sums[0].OtherUserID)
	assert.Equal(t, 1, sums[0].UnreadCount)
	assert.Equal(t, "hi", sums[0].LastMessageText)
}

func TestMarkSeen(t *testing.T) {
	ctx := context.Background()
	svc, msgRepo, convRepo, _ := newTestService(t)

	m1, err := svc.AppendMessage(ctx, "u1", "u2", Body{Text: "one"})
	require.NoError(t, err)
	m2, err := svc.AppendMessage(ctx, "u1", "u2", Body{Text: "two"})
	require.NoError(t, err)
	other, err := svc.AppendMessage(ctx, "u3", "u1", Body{Text: "elsewhere"})
	require.NoError(t, err)

	t.Run("counter resets to zero even with unseen messages left over", func(t *testing.T) {
		require.NoError(t, svc.MarkSeen(ctx, []string{m1.ID}, "u2"))

		got, err := msgRepo.GetByID(ctx, m1.ID)
		require.NoError(t, err)
		assert.True(t, got.IsSeen)

		got, err = msgRepo.GetByID(ctx, m2.ID)
		require.NoError(t, err)
		assert.False(t, got.IsSeen)

		// m2 is still unseen, yet the pair counter reset outright.
		c, err := convRepo.GetByPair(ctx, "u1", "u2")
		require.NoError(t, err)
		assert.Equal(t, 0, c.User2UnreadCount)
	})

	t.Run("ids owned by someone else are a no-op", func(t *testing.T) {
		require.NoError(t, svc.MarkSeen(ctx, []string{other.ID}, "u2"))

		got, err := msgRepo.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.False(t, got.IsSeen)

		c, err := convRepo.GetByPair(ctx, "u1", "u3")
		require.NoError(t, err)
		assert.Equal(t, 1, c.User1UnreadCount)
	})

	t.Run("empty set is a no-op", func(t *testing.T) {
		require.NoError(t, svc.MarkSeen(ctx, nil, "u2"))
	})

	t.Run("missing user is a validation error", func(t *testing.T) {
		assert.ErrorIs(t, svc.MarkSeen(ctx, []string{m1.ID}, ""), ErrValidation)
	})
}

func TestListMessages_Order(t *testing.T) {
	ctx := context.Background()
	svc, msgRepo, _, _ := newTestService(t)
	base := time.Now().UTC().Add(-time.Hour)

	for i, text := range []string{"first", "second", "third"} {
		m := &message.Message{
			ID:         message.NewID(),
			SenderID:   "u1",
			ReceiverID: "u2",
			Text:       text,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, msgRepo.Create(ctx, m))
	}

	msgs, err := svc.ListMessages(ctx, "u1", "u2", 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	// Chronological, even though storage returns newest first.
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "third", msgs[2].Text)
}

type recordingMsgRepo struct {
	message.Repository
	limit, offset int
}

func (r *recordingMsgRepo) ListBetween(_ context.Context, _, _ string, limit, offset int) ([]message.Message, error) {
	r.limit, r.offset = limit, offset
	return nil, nil
}

func TestListMessages_Clamping(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name                    string
		limit, offset           int
		wantLimit, wantOffset   int
	}{
		{"defaults", 0, 0, 50, 0},
		{"negative", -5, -3, 50, 0},
		{"over cap", 5000, 10, 1000, 10},
		{"in range", 7, 2, 7, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recordingMsgRepo{}
			svc := NewService(rec, nil, &fakeFeed{})
			_, err := svc.ListMessages(ctx, "a", "b", tc.limit, tc.offset)
			require.NoError(t, err)
			assert.Equal(t, tc.wantLimit, rec.limit)
			assert.Equal(t, tc.wantOffset, rec.offset)
		})
	}
}

func TestUnreadCount(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t)

	_, err := svc.AppendMessage(ctx, "u1", "u2", Body{Text: "a"})
	require.NoError(t, err)
	_, err = svc.AppendMessage(ctx, "u3", "u2", Body{Text: "b"})
	require.NoError(t, err)

	n, err := svc.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.UnreadCount(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}
