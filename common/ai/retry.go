package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/LexiconIndonesia/jobscout-service/common/config"
)

// Policy controls retry behavior for model calls.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// PolicyFromConfig builds a retry policy from the AI configuration.
func PolicyFromConfig(cfg config.AIConfig) Policy {
	return Policy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
}

// Retry runs fn up to MaxAttempts times with exponential backoff between
// attempts. The context cancels waits between attempts.
func Retry[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) mo.Result[T] {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := p.InitialBackoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return mo.Ok(v)
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		log.Warn().Int("attempt", attempt).Err(err).Dur("backoff", backoff).Msg("Retrying after failure")

		select {
		case <-ctx.Done():
			return mo.Err[T](ctx.Err())
		case <-time.After(backoff):
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return mo.Err[T](lastErr)
}
