package client

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/weftlabs/weft/model"
)

// RetryPolicy bounds how a client retries a failing network call.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Base is the delay before the second try. It doubles per try
	// up to Max, with jitter.
	Base time.Duration
	Max  time.Duration
}

var DefaultRetry = RetryPolicy{
	Attempts: 4,
	Base:     100 * time.Millisecond,
	Max:      2 * time.Second,
}

func (p RetryPolicy) norm() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = DefaultRetry.Attempts
	}
	if p.Base <= 0 {
		p.Base = DefaultRetry.Base
	}
	if p.Max < p.Base {
		p.Max = p.Base
	}
	return p
}

// transient reports whether another attempt could change the outcome.
// Domain outcomes like NotFound or TransferSuperseded are answers,
// not failures, and never retried.
func transient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch model.CodeOf(err) {
	case model.ErrTimeout, model.ErrInternal:
		return true
	}
	return false
}

func withRetry[T any](ctx context.Context, p RetryPolicy, log *slog.Logger, name string, fn func(context.Context) (T, error)) (T, error) {
	delay := p.Base
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil || attempt >= p.Attempts || !transient(err) {
			return v, err
		}
		sleep := delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
		log.Debug("retrying", "call", name, "attempt", attempt, "in", sleep, "err", err)
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(sleep):
		}
		delay *= 2
		if delay > p.Max {
			delay = p.Max
		}
	}
}
