package push

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"octopus-backend/internal/metrics"

	"github.com/rs/zerolog/log"
)

var ErrValidation = errors.New("validation")

type Service interface {
	Register(ctx context.Context, userID, token, platform string) error
	Unregister(ctx context.Context, token string) error
	// Deliver fans one notification out to every token of the user. Partial
	// failures never error; the only error path is the token lookup itself.
	Deliver(ctx context.Context, userID string, p Payload) (Result, error)
}

type service struct {
	tokens Repository
	sender Sender
}

func NewService(tokens Repository, sender Sender) Service {
	return &service{tokens: tokens, sender: sender}
}

func (s *service) Register(ctx context.Context, userID, token, platform string) error {
	if userID == "" || token == "" || platform == "" {
		return fmt.Errorf("%w: user_id, token, and platform required", ErrValidation)
	}
	if !platforms[platform] {
		return fmt.Errorf("%w: platform must be ios, android, or web", ErrValidation)
	}
	return s.tokens.Upsert(ctx, userID, token, platform)
}

func (s *service) Unregister(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token required", ErrValidation)
	}
	return s.tokens.DeleteByToken(ctx, token)
}

func (s *service) Deliver(ctx context.Context, userID string, p Payload) (Result, error) {
	tokens, err := s.tokens.ListByUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if len(tokens) == 0 {
		return Result{}, nil
	}

	// One attempt per token, all in flight at once. Every attempt settles
	// before outcomes are classified; one failure never cancels the rest.
	outcomes := make([]error, len(tokens))
	var wg sync.WaitGroup
	for i, t := range tokens {
		wg.Add(1)
		go func(i int, t Token) {
			defer wg.Done()
			outcomes[i] = s.sender.Send(ctx, t.Token, p)
		}(i, t)
	}
	wg.Wait()

	var res Result
	var dead []string
	for i, sendErr := range outcomes {
		t := tokens[i]
		switch {
		case sendErr == nil:
			res.Success++
			metrics.PushDelivered.WithLabelValues(t.Platform).Inc()
		case errors.Is(sendErr, ErrTokenNotRegistered):
			res.Failed++
			dead = append(dead, t.Token)
			metrics.PushFailed.WithLabelValues(t.Platform, "permanent").Inc()
		default:
			res.Failed++
			metrics.PushFailed.WithLabelValues(t.Platform, "transient").Inc()
			log.Warn().Err(sendErr).Str("user_id", userID).Str("platform", t.Platform).Msg("push send")
		}
	}

	if len(dead) > 0 {
		if err := s.tokens.DeleteByTokens(ctx, dead); err != nil {
			log.Error().Err(err).Int("tokens", len(dead)).Msg("prune dead tokens")
		} else {
			metrics.TokensPruned.Add(float64(len(dead)))
		}
	}
	return res, nil
}
