package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/middleware"
	"github.com/noah-isme/englishmastery-api/internal/service"
)

const (
	streamEventReady     = "stream.ready"
	streamEventCompleted = "evaluation.completed"
	streamPingInterval   = 30 * time.Second
)

type streamMessage struct {
	Event string                            `json:"event"`
	Data  *service.EvaluationCompletedEvent `json:"data,omitempty"`
}

// EvaluationStreamHandler pushes a learner's completed evaluations over a websocket.
type EvaluationStreamHandler struct {
	feed   service.EvaluationFeed
	logger zerolog.Logger
}

// NewEvaluationStreamHandler constructs the live evaluation stream handler.
func NewEvaluationStreamHandler(feed service.EvaluationFeed, logger zerolog.Logger) *EvaluationStreamHandler {
	return &EvaluationStreamHandler{
		feed:   feed,
		logger: logger.With().Str("component", "evaluation_stream_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *EvaluationStreamHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("request_ctx", middleware.ContextWithCorrelation(c.UserContext(), middleware.GetCorrelationID(c)))
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *EvaluationStreamHandler) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	learnerID := websocketLearnerID(conn)
	if learnerID == 0 {
		closeWebsocket(conn, websocket.ClosePolicyViolation, "learner id missing")
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	logger := h.logger.With().Uint("learner_id", learnerID).Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).Logger()

	events, unsubscribe, err := h.feed.Subscribe(ctx, learnerID)
	if err != nil {
		if !errors.Is(err, service.ErrFeedUnavailable) {
			logger.Error().Err(err).Msg("failed to subscribe to evaluation feed")
		}
		closeWebsocket(conn, websocket.CloseInternalServerErr, "evaluation feed unavailable")
		return
	}
	defer unsubscribe()

	// Only control frames are expected from the client; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(streamMessage{Event: streamEventReady}); err != nil {
		return
	}
	logger.Info().Msg("evaluation stream connected")
	defer logger.Info().Msg("evaluation stream disconnected")

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(streamMessage{Event: streamEventCompleted, Data: &event}); err != nil {
				logger.Debug().Err(err).Msg("evaluation stream write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				logger.Debug().Err(err).Msg("evaluation stream ping failed")
				return
			}
		}
	}
}

func websocketLearnerID(conn *websocket.Conn) uint {
	switch id := conn.Locals("user_id").(type) {
	case uint:
		return id
	case int:
		if id > 0 {
			return uint(id)
		}
	case float64:
		if id > 0 {
			return uint(id)
		}
	}
	return 0
}

func closeWebsocket(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}
