package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const evaluationFeedBufferSize = 16

// ErrFeedUnavailable is returned when no Redis pub/sub backs the live feed.
var ErrFeedUnavailable = errors.New("evaluation feed unavailable")

// EvaluationFeed streams evaluation.completed events to a single learner.
type EvaluationFeed interface {
	// Subscribe returns a channel of the learner's events and a cleanup func
	// that must be called once the consumer is done. The channel is closed
	// after cleanup or when ctx ends.
	Subscribe(ctx context.Context, learnerID uint) (<-chan EvaluationCompletedEvent, func(), error)
}

type evaluationFeed struct {
	redis   *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewEvaluationFeed listens on the Redis channel EventPublisher writes to.
func NewEvaluationFeed(redisClient *redis.Client, channelBase string, logger zerolog.Logger) EvaluationFeed {
	channel := ""
	if base := strings.TrimSpace(channelBase); base != "" {
		channel = evaluationCompletedChannel(base)
	}

	return &evaluationFeed{
		redis:   redisClient,
		channel: channel,
		logger:  logger.With().Str("component", "evaluation_feed").Logger(),
	}
}

func (f *evaluationFeed) Subscribe(ctx context.Context, learnerID uint) (<-chan EvaluationCompletedEvent, func(), error) {
	if f.redis == nil || f.channel == "" {
		return nil, nil, ErrFeedUnavailable
	}

	pubsub := f.redis.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	events := make(chan EvaluationCompletedEvent, evaluationFeedBufferSize)
	var once sync.Once
	cleanup := func() {
		once.Do(func() { _ = pubsub.Close() })
	}

	go func() {
		defer close(events)
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				cleanup()
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event EvaluationCompletedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					f.logger.Warn().Err(err).Msg("invalid evaluation event payload")
					continue
				}
				if event.LearnerID != learnerID {
					continue
				}
				select {
				case events <- event:
				default:
					f.logger.Warn().Uint("learner_id", learnerID).Uint("evaluation_id", event.EvaluationID).Msg("dropping evaluation event for slow consumer")
				}
			}
		}
	}()

	return events, cleanup, nil
}
