package util

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy 有界重试策略，供平台适配器和台账提交共用
type RetryPolicy struct {
	MaxAttempts int
	Retryable   func(err error) bool

	MinBackoff time.Duration // default 200ms
	MaxBackoff time.Duration // default 5s
	JitterFrac float64       // default 0.20
}

// Retry 执行 fn，失败且可重试时按指数退避再次执行，最多 MaxAttempts 次。
// MaxAttempts <= 1 时只执行一次。
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff(attempt - 1)):
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	minB := p.MinBackoff
	maxB := p.MaxBackoff
	j := p.JitterFrac
	if minB <= 0 {
		minB = 200 * time.Millisecond
	}
	if maxB <= 0 {
		maxB = 5 * time.Second
	}
	if j <= 0 {
		j = 0.20
	}
	d := time.Duration(float64(minB) * math.Pow(2, float64(attempt-1)))
	if d > maxB {
		d = maxB
	}
	delta := float64(d) * j
	low := float64(d) - delta
	if low < 0 {
		low = 0
	}
	return time.Duration(low + rand.Float64()*2*delta)
}
