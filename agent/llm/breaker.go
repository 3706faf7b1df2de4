package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	contractx "github.com/tanpawarit/Chative-A2A-Customer-Service/agent/contract"
	logx "github.com/tanpawarit/Chative-A2A-Customer-Service/pkg/logger"
)

const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 30 * time.Second
	defaultBreakerInterval           = 60 * time.Second
)

var _ contractx.Generator = (*BreakerGenerator)(nil)

// BreakerGenerator stops calling a failing model for a while so that agents
// fall back immediately instead of waiting on every request.
type BreakerGenerator struct {
	inner   contractx.Generator
	breaker *gobreaker.CircuitBreaker[string]
}

func NewBreakerGenerator(name string, inner contractx.Generator, maxFailures uint32, openTimeout time.Duration) *BreakerGenerator {
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	if openTimeout <= 0 {
		openTimeout = defaultBreakerTimeout
	}
	logger := logx.Component("llm.breaker")

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm:" + name,
		MaxRequests: 1,
		Interval:    defaultBreakerInterval,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logStateChange(logger, name, from, to)
		},
	})

	return &BreakerGenerator{inner: inner, breaker: cb}
}

func logStateChange(logger zerolog.Logger, name string, from, to gobreaker.State) {
	logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
}

func (g *BreakerGenerator) Generate(ctx context.Context, systemPrompt string, userText string) (string, error) {
	out, err := g.breaker.Execute(func() (string, error) {
		return g.inner.Generate(ctx, systemPrompt, userText)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %s: %v", contractx.ErrModelInvoke, g.breaker.Name(), err)
		}
		return "", err
	}
	return out, nil
}

func (g *BreakerGenerator) State() gobreaker.State {
	return g.breaker.State()
}
