package util

import (
	"codepulse_backend/internal/model"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	d, err := ParseDate("2024-02-29", loc)
	require.NoError(t, err)
	assert.Equal(t, 29, d.Day())
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("2023-02-29", loc)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDate("29/02/2024", nil)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestMonthHelpers(t *testing.T) {
	from, to, err := MonthRange(2024, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", from)
	assert.Equal(t, "2024-02-29", to)

	from, to, err = MonthRange(2023, 12)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-01", from)
	assert.Equal(t, "2023-12-31", to)

	for _, m := range []int{0, 13, -1} {
		_, _, err := MonthRange(2024, m)
		assert.ErrorIs(t, err, ErrInvalidMonth)
	}

	assert.Equal(t, 29, DaysInMonth(2024, 2))
	assert.Equal(t, 28, DaysInMonth(2023, 2))
	assert.Equal(t, 30, DaysInMonth(2024, 4))

	d := time.Date(2024, 3, 17, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), MonthStart(d))
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), Day(d))
	assert.True(t, SameMonth(d, MonthStart(d)))
	assert.False(t, SameMonth(MonthStart(d), MonthStart(d).AddDate(0, 0, -1)))
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, MinBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryRespectsRetryable(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Retry(context.Background(), RetryPolicy{
		MaxAttempts: 5,
		MinBackoff:  time.Millisecond,
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
	}, func(ctx context.Context) error {
		calls++
		return fatal
	})
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxAttempts: 3, MinBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}, func(ctx context.Context) error {
		calls++
		return errors.New("still down")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	_ = Retry(context.Background(), RetryPolicy{}, func(ctx context.Context) error {
		calls++
		return errors.New("once")
	})
	assert.Equal(t, 1, calls)
}

func TestRetryCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, RetryPolicy{MaxAttempts: 3, MinBackoff: time.Hour, MaxBackoff: time.Hour}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffBounds(t *testing.T) {
	p := RetryPolicy{MinBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, JitterFrac: 0.1}
	for attempt := 1; attempt <= 6; attempt++ {
		d := p.backoff(attempt)
		assert.GreaterOrEqual(t, d, 90*time.Millisecond)
		assert.LessOrEqual(t, d, 330*time.Millisecond)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	u := &model.User{Email: "jwt@example.com", Role: model.Admin}
	u.ID = 42

	token, err := GenerateJWT(u, "secret", time.Minute)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, model.Admin, claims.Role)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateJWT(u, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)
}
