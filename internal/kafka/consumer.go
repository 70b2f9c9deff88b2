package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	k "github.com/segmentio/kafka-go"
)

type Handler func(ctx context.Context, topic string, key, value []byte) error

// Consumer reads one topic with a consumer group and commits offsets only
// after the handler returns, giving at-least-once delivery. Fetch errors
// back off exponentially; the reader resubscribes on its own once the
// broker is reachable again.
type Consumer struct {
	reader *k.Reader
	handle Handler
}

func NewConsumer(brokers, groupID, topic string, h Handler) *Consumer {
	return &Consumer{
		reader: k.NewReader(k.ReaderConfig{
			Brokers:        strings.Split(brokers, ","),
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10 << 20,
			StartOffset:    k.FirstOffset,
			CommitInterval: time.Second,
		}),
		handle: h,
	}
}

func (c *Consumer) Close() error { return c.reader.Close() }

func (c *Consumer) Run(ctx context.Context) error {
	topic := c.reader.Config().Topic
	log.Info().
		Str("topic", topic).
		Str("group", c.reader.Config().GroupID).
		Msg("kafka consumer started")

	backoff := time.Second
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Str("topic", topic).Msg("kafka fetch")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.handle(ctx, m.Topic, m.Key, m.Value); err != nil {
			// Leave the offset uncommitted so the event is retried.
			log.Error().Err(err).Str("topic", topic).Msg("feed handler")
			continue
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("kafka commit")
		}
	}
}
