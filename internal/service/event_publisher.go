package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/middleware"
	"github.com/noah-isme/englishmastery-api/internal/observability"
)

// EvaluationCompletedEvent is broadcast after an evaluation is stored.
type EvaluationCompletedEvent struct {
	Source        string    `json:"source"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	EvaluationID  uint      `json:"evaluation_id"`
	LearnerID     uint      `json:"learner_id"`
	LessonID      *uint     `json:"lesson_id,omitempty"`
	Mode          string    `json:"mode"`
	Score         float64   `json:"score"`
	Band          string    `json:"band"`
	Achievements  []string  `json:"achievements"`
	SentAt        time.Time `json:"sent_at"`
}

// EventPublisher fans domain events out to the message bus.
type EventPublisher interface {
	PublishEvaluationCompleted(ctx context.Context, event EvaluationCompletedEvent) error
}

type eventPublisher struct {
	nats         *nats.Conn
	natsSubject  string
	redis        *redis.Client
	redisChannel string
	nodeID       string
	logger       zerolog.Logger
}

// NewEventPublisher publishes to NATS and Redis pub/sub when each is configured.
// With neither transport the publisher is a no-op.
func NewEventPublisher(natsConn *nats.Conn, redisClient *redis.Client, channelBase string, logger zerolog.Logger) EventPublisher {
	subject := ""
	channel := ""
	if base := strings.TrimSpace(channelBase); base != "" {
		subject = strings.ReplaceAll(base, ":", ".") + ".evaluation.completed"
		channel = evaluationCompletedChannel(base)
	}

	return &eventPublisher{
		nats:         natsConn,
		natsSubject:  subject,
		redis:        redisClient,
		redisChannel: channel,
		nodeID:       uuid.NewString(),
		logger:       logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *eventPublisher) PublishEvaluationCompleted(ctx context.Context, event EvaluationCompletedEvent) error {
	event.Source = p.nodeID
	if event.CorrelationID == "" {
		event.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}
	if event.Achievements == nil {
		event.Achievements = []string{}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.nats != nil && p.natsSubject != "" {
		msg := nats.NewMsg(p.natsSubject)
		msg.Data = payload
		if event.CorrelationID != "" {
			msg.Header.Set(middleware.CorrelationHeader, event.CorrelationID)
		}
		if err := p.nats.PublishMsg(msg); err != nil {
			observability.EventsPublished().WithLabelValues(p.natsSubject, "error").Inc()
			return err
		}
		observability.EventsPublished().WithLabelValues(p.natsSubject, "success").Inc()
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.EventsPublished().WithLabelValues(p.redisChannel, "error").Inc()
			return err
		}
		observability.EventsPublished().WithLabelValues(p.redisChannel, "success").Inc()
	}

	p.logger.Debug().
		Uint("evaluation_id", event.EvaluationID).
		Str("mode", event.Mode).
		Str("correlation_id", event.CorrelationID).
		Msg("evaluation completed event published")

	return nil
}

func evaluationCompletedChannel(base string) string {
	return base + ":evaluation.completed"
}
