package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"octopus-backend/internal/metrics"
	"octopus-backend/internal/push"
	"octopus-backend/internal/users"

	"github.com/rs/zerolog/log"
)

type Deliverer interface {
	Deliver(ctx context.Context, userID string, p push.Payload) (push.Result, error)
}

type ProfileResolver interface {
	Resolve(ctx context.Context, userID string) (*users.Profile, error)
}

// UnreadCounter reports a user's unread message count for the badge.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// SocialCounter reports a user's unread social notifications for the badge.
type SocialCounter interface {
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

var socialTemplates = map[string]string{
	"like":           "%s liked your post",
	"comment":        "%s commented on your post",
	"mention":        "%s mentioned you in a comment",
	"tag":            "%s tagged you in a post",
	"follow":         "%s started following you",
	"friend_request": "%s sent you a friend request",
	"friend_accept":  "%s accepted your friend request",
}

// Bridge turns change-feed inserts into push deliveries. Deliveries run on
// a bounded pool detached from the consumer loop, so a slow provider never
// stalls feed consumption and a delivery abandoned at shutdown is simply
// lost. Consumption is at-least-once and there is no dedup key: a
// resubscribe after a stream interruption may deliver a notification twice.
type Bridge struct {
	push     Deliverer
	profiles ProfileResolver
	unread   UnreadCounter
	social   SocialCounter
	slots    chan struct{}
	wg       sync.WaitGroup
}

func NewBridge(d Deliverer, p ProfileResolver, u UnreadCounter, s SocialCounter, workers int) *Bridge {
	if workers <= 0 {
		workers = 32
	}
	return &Bridge{
		push:     d,
		profiles: p,
		unread:   u,
		social:   s,
		slots:    make(chan struct{}, workers),
	}
}

// HandleMessageEvent is the consumer callback for message inserts.
// Malformed events are dropped (returning an error would loop forever on
// the same offset).
func (b *Bridge) HandleMessageEvent(ctx context.Context, topic string, key, value []byte) error {
	metrics.FeedEvents.WithLabelValues(topic).Inc()
	var ev MessageCreated
	if err := json.Unmarshal(value, &ev); err != nil {
		log.Error().Err(err).Str("key", string(key)).Msg("decode message event")
		return nil
	}
	b.dispatch(func(ctx context.Context) { b.notifyMessage(ctx, ev) })
	return nil
}

// HandleNotificationEvent is the consumer callback for social inserts.
func (b *Bridge) HandleNotificationEvent(ctx context.Context, topic string, key, value []byte) error {
	metrics.FeedEvents.WithLabelValues(topic).Inc()
	var ev NotificationCreated
	if err := json.Unmarshal(value, &ev); err != nil {
		log.Error().Err(err).Str("key", string(key)).Msg("decode notification event")
		return nil
	}
	b.dispatch(func(ctx context.Context) { b.notifySocial(ctx, ev) })
	return nil
}

func (b *Bridge) dispatch(fn func(context.Context)) {
	b.slots <- struct{}{}
	b.wg.Add(1)
	go func() {
		defer func() {
			<-b.slots
			b.wg.Done()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		fn(ctx)
	}()
}

// Drain waits for in-flight deliveries, bounded by the caller's context.
func (b *Bridge) Drain(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (b *Bridge) notifyMessage(ctx context.Context, ev MessageCreated) {
	sender, err := b.profiles.Resolve(ctx, ev.SenderID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			log.Warn().Str("sender_id", ev.SenderID).Msg("sender not found, skipping notification")
		} else {
			log.Error().Err(err).Str("sender_id", ev.SenderID).Msg("resolve sender")
		}
		return
	}

	badge := int64(1)
	if n, err := b.unread.UnreadCount(ctx, ev.ReceiverID); err == nil {
		badge = n
	}

	title := sender.FullName
	if title == "" {
		title = "New Message"
	}
	body := ev.Text
	if body == "" {
		body = "📷 Sent a photo"
	}

	res, err := b.push.Deliver(ctx, ev.ReceiverID, push.Payload{
		Title:  title,
		Body:   body,
		Image:  sender.ProfilePhotoURL,
		Type:   "message",
		UserID: ev.SenderID,
		Badge:  int(badge),
		Data: map[string]string{
			"chatWithId": ev.SenderID,
			"chatWith":   sender.FullName,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("receiver_id", ev.ReceiverID).Msg("message notification")
		return
	}
	log.Info().
		Str("receiver_id", ev.ReceiverID).
		Int("success", res.Success).
		Int("failed", res.Failed).
		Msg("message notification sent")
}

func (b *Bridge) notifySocial(ctx context.Context, ev NotificationCreated) {
	actor, err := b.profiles.Resolve(ctx, ev.ActorID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			log.Warn().Str("actor_id", ev.ActorID).Msg("actor not found, skipping notification")
		} else {
			log.Error().Err(err).Str("actor_id", ev.ActorID).Msg("resolve actor")
		}
		return
	}

	body := "New notification"
	if tmpl, ok := socialTemplates[ev.Type]; ok {
		body = fmt.Sprintf(tmpl, actor.FullName)
	}

	var badge int64
	if n, err := b.social.CountUnread(ctx, ev.RecipientID); err == nil {
		badge = n
	}

	res, err := b.push.Deliver(ctx, ev.RecipientID, push.Payload{
		Title:  "Octopus",
		Body:   body,
		Image:  actor.ProfilePhotoURL,
		Type:   ev.Type,
		ID:     ev.PostID,
		UserID: ev.ActorID,
		Badge:  int(badge),
	})
	if err != nil {
		log.Error().Err(err).Str("recipient_id", ev.RecipientID).Msg("social notification")
		return
	}
	log.Info().
		Str("recipient_id", ev.RecipientID).
		Str("type", ev.Type).
		Int("success", res.Success).
		Int("failed", res.Failed).
		Msg("social notification sent")
}
