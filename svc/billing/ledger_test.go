package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/shopnotes/svc/billing"
)

type redisMock struct {
	mock.Mock
}

func (m *redisMock) SetNX(ctx context.Context, key string, value any, exp time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, value, exp)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func (m *redisMock) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func TestRedisLedger(t *testing.T) {
	t.Parallel()

	t.Run("first and repeated delivery", func(t *testing.T) {
		t.Parallel()
		rm := &redisMock{}
		rm.On("SetNX", mock.Anything, "shopnotes:webhook:wh-1", mock.Anything, 48*time.Hour).Return(true, nil).Once()
		rm.On("SetNX", mock.Anything, "shopnotes:webhook:wh-1", mock.Anything, 48*time.Hour).Return(false, nil).Once()
		l := billing.NewRedisLedger(rm, 48*time.Hour)

		first, err := l.MarkDelivered(context.Background(), "wh-1")
		require.NoError(t, err)
		assert.True(t, first)

		first, err = l.MarkDelivered(context.Background(), "wh-1")
		require.NoError(t, err)
		assert.False(t, first)
		rm.AssertExpectations(t)
	})

	t.Run("forget deletes the key", func(t *testing.T) {
		t.Parallel()
		rm := &redisMock{}
		rm.On("Del", mock.Anything, []string{"shopnotes:webhook:wh-4"}).Return(1, nil).Once()

		require.NoError(t, billing.NewRedisLedger(rm, time.Hour).Forget(context.Background(), "wh-4"))
		rm.AssertExpectations(t)
	})

	t.Run("forget error", func(t *testing.T) {
		t.Parallel()
		rm := &redisMock{}
		rm.On("Del", mock.Anything, mock.Anything).Return(0, errors.New("connection refused"))

		err := billing.NewRedisLedger(rm, time.Hour).Forget(context.Background(), "wh-5")
		assert.ErrorIs(t, err, billing.ErrLedgerUnavailable)
	})

	t.Run("redis error", func(t *testing.T) {
		t.Parallel()
		rm := &redisMock{}
		rm.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("connection refused"))

		_, err := billing.NewRedisLedger(rm, time.Hour).MarkDelivered(context.Background(), "wh-2")
		assert.ErrorIs(t, err, billing.ErrLedgerUnavailable)
	})
}

func TestMemoryLedger(t *testing.T) {
	t.Parallel()

	l := billing.NewMemoryLedger(time.Hour)
	ctx := context.Background()

	first, err := l.MarkDelivered(ctx, "a")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = l.MarkDelivered(ctx, "a")
	require.NoError(t, err)
	assert.False(t, first)

	first, err = l.MarkDelivered(ctx, "b")
	require.NoError(t, err)
	assert.True(t, first)

	require.NoError(t, l.Forget(ctx, "a"))
	first, err = l.MarkDelivered(ctx, "a")
	require.NoError(t, err)
	assert.True(t, first)
}
