package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/observability"
)

// ErrQuotaExceeded indicates the learner used every evaluation allowed today.
var ErrQuotaExceeded = errors.New("daily evaluation quota exceeded")

// QuotaReservation is one evaluation taken from a learner's daily allowance.
// It remembers the day it was counted against so a release after midnight
// returns the slot to the right counter.
type QuotaReservation struct {
	// Remaining is the allowance left today, or -1 when metering is off.
	Remaining int
	key       string
}

// QuotaService meters evaluations per learner per UTC day.
type QuotaService interface {
	// Consume reserves one evaluation.
	Consume(ctx context.Context, learnerID uint) (QuotaReservation, error)
	// Release returns a reservation after an evaluation failed upstream.
	Release(ctx context.Context, reservation QuotaReservation)
}

type quotaService struct {
	redis  *redis.Client
	limit  int
	logger zerolog.Logger
	now    func() time.Time
}

// NewQuotaService constructs a Redis-backed quota. A nil client or a
// non-positive limit disables metering.
func NewQuotaService(redisClient *redis.Client, limit int, logger zerolog.Logger) QuotaService {
	return &quotaService{
		redis:  redisClient,
		limit:  limit,
		logger: logger.With().Str("component", "quota_service").Logger(),
		now:    time.Now,
	}
}

func (s *quotaService) enabled() bool {
	return s.redis != nil && s.limit > 0
}

func (s *quotaService) Consume(ctx context.Context, learnerID uint) (QuotaReservation, error) {
	unmetered := QuotaReservation{Remaining: -1}
	if !s.enabled() {
		return unmetered, nil
	}

	now := s.now().UTC()
	key := s.key(learnerID, now)

	count, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		// Fail open when Redis is unavailable.
		s.logger.Warn().Err(err).Uint("learner_id", learnerID).Msg("quota check failed, allowing request")
		return unmetered, nil
	}

	if count == 1 {
		endOfDay := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
		if err := s.redis.ExpireAt(ctx, key, endOfDay.Add(time.Hour)).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to set quota expiry")
		}
	}

	if count > int64(s.limit) {
		if err := s.redis.Decr(ctx, key).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to roll back quota counter")
		}
		observability.QuotaRejected().Inc()
		return QuotaReservation{}, ErrQuotaExceeded
	}

	return QuotaReservation{Remaining: s.limit - int(count), key: key}, nil
}

func (s *quotaService) Release(ctx context.Context, reservation QuotaReservation) {
	if !s.enabled() || reservation.key == "" {
		return
	}

	if err := s.redis.Decr(ctx, reservation.key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", reservation.key).Msg("failed to release quota reservation")
	}
}

func (s *quotaService) key(learnerID uint, day time.Time) string {
	return fmt.Sprintf("quota:evaluations:v1:%d:%s", learnerID, day.Format("20060102"))
}
