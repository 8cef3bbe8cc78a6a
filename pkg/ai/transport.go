package ai

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// RetryConfig bounds the transport-level retry policy applied to model calls.
type RetryConfig struct {
	MaxRetries int
	WaitMin    time.Duration
	WaitMax    time.Duration
}

// NewHTTPClient returns an HTTP client that retries connection errors, 429
// and 5xx responses with exponential backoff. Response bodies that decode to
// unusable model output are not retried here.
func NewHTTPClient(cfg RetryConfig, logger zerolog.Logger) *http.Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.WaitMin <= 0 {
		cfg.WaitMin = 500 * time.Millisecond
	}
	if cfg.WaitMax < cfg.WaitMin {
		cfg.WaitMax = 5 * time.Second
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = cfg.WaitMin
	client.RetryWaitMax = cfg.WaitMax
	client.Logger = leveledLogger{logger: logger.With().Str("component", "ai_transport").Logger()}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return client.StandardClient()
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger zerolog.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Trace().Fields(keysAndValues).Msg(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
