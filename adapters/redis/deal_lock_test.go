package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var lockDealID = uuid.MustParse("0191b2a0-1111-7222-8333-444455556666")

const lockKey = "dealbridge:deal:0191b2a0-1111-7222-8333-444455556666:lock"

func TestNewDealLock(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		opts    []DealLockOption
		wantKey string
	}{
		{
			name:    "default options",
			prefix:  "dealbridge:",
			wantKey: lockKey,
		},
		{
			name:   "custom options",
			prefix: "dealbridge:",
			opts: []DealLockOption{
				WithDealLockExpiry(5 * time.Second),
				WithDealLockRenewInterval(1 * time.Second),
				WithDealLockRetryDelay(100 * time.Millisecond),
			},
			wantKey: lockKey,
		},
		{
			name:    "empty prefix",
			prefix:  "",
			wantKey: "deal:0191b2a0-1111-7222-8333-444455556666:lock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)
			client, _, teardown := setupTest(t)
			defer teardown()

			lock := NewDealLock(client, tt.prefix, lockDealID, tt.opts...)
			require.NotNil(t, lock)
			// 鎖鍵由adapter自行組合
			assert.Equal(t, tt.wantKey, lock.(*DealLock).key)
		})
	}
}

func TestDealLock_Lock(t *testing.T) {
	t.Run("successful lock", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, teardown := setupTest(t)
		defer teardown()

		mock.Regexp().ExpectSetNX(lockKey, ".*", 4*time.Second).SetVal(true)
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(1))

		lock := NewDealLock(client, "dealbridge:", lockDealID)
		lockCtx, err := lock.Lock(context.Background())
		assert.NoError(t, err)
		assert.NotNil(t, lockCtx)

		ok, err := lock.Unlock()
		assert.NoError(t, err)
		assert.True(t, ok)

		select {
		case <-lockCtx.Done():
			// 解鎖後context應被取消
		case <-time.After(100 * time.Millisecond):
			t.Error("lock context was not cancelled after unlock")
		}
	})

	t.Run("lock with context cancellation", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, _, teardown := setupTest(t)
		defer teardown()

		lock := NewDealLock(client, "dealbridge:", lockDealID)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		lockCtx, err := lock.Lock(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, lockCtx)
	})

	t.Run("lock with redis error", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, teardown := setupTest(t)
		defer teardown()

		// 通訊失敗不重試，直接回報給呼叫端
		mock.Regexp().ExpectSetNX(lockKey, ".*", 4*time.Second).SetErr(redis.ErrClosed)

		lock := NewDealLock(client, "dealbridge:", lockDealID)
		lockCtx, err := lock.Lock(context.Background())
		assert.Error(t, err)
		assert.ErrorIs(t, err, redis.ErrClosed)
		assert.Nil(t, lockCtx)
	})

	t.Run("contended lock times out", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, teardown := setupTest(t)
		defer teardown()

		// 第一次鎖定成功
		mock.Regexp().ExpectSetNX(lockKey, ".*", 4*time.Second).SetVal(true)
		// 第二次鎖定失敗
		mock.Regexp().ExpectSetNX(lockKey, ".*", 4*time.Second).SetVal(false)
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(0))
		// 解鎖
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(1))

		lock := NewDealLock(client, "dealbridge:", lockDealID, WithDealLockRetryDelay(time.Second))
		lockCtx, err := lock.Lock(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, lockCtx)

		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		lockCtx, err = lock.Lock(ctx)
		assert.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Nil(t, lockCtx)

		ok, err := lock.Unlock()
		assert.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestDealLock_AutoRenew(t *testing.T) {
	t.Run("successful auto renew", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, teardown := setupTest(t)
		defer teardown()

		// 初始鎖定
		mock.Regexp().ExpectSetNX(lockKey, ".*", 2*time.Second).SetVal(true)
		// 兩次續期
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*", "2000"}).SetVal(int64(1))
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*", "2000"}).SetVal(int64(1))
		// 解鎖
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(1))

		lock := NewDealLock(client, "dealbridge:", lockDealID,
			WithDealLockExpiry(2*time.Second),
			WithDealLockRenewInterval(100*time.Millisecond))

		lockCtx, err := lock.Lock(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, lockCtx)

		time.Sleep(250 * time.Millisecond)
		assert.True(t, lock.Valid())

		ok, err := lock.Unlock()
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("auto renew fails", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, teardown := setupTest(t)
		defer teardown()

		// 初始鎖定成功
		mock.Regexp().ExpectSetNX(lockKey, ".*", 2*time.Second).SetVal(true)
		// 續期失敗
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*", "2000"}).SetErr(redis.ErrClosed)
		// 解鎖
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(-1))

		lock := NewDealLock(client, "dealbridge:", lockDealID,
			WithDealLockExpiry(2*time.Second),
			WithDealLockRenewInterval(100*time.Millisecond))

		lockCtx, err := lock.Lock(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, lockCtx)

		time.Sleep(150 * time.Millisecond)
		assert.False(t, lock.Valid())

		ok, err := lock.Unlock()
		assert.ErrorIs(t, err, redsync.ErrLockAlreadyExpired)
		assert.False(t, ok)
	})
}

func TestDealLock_Unlock(t *testing.T) {
	t.Run("unlock without lock", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, teardown := setupTest(t)
		defer teardown()

		// 解鎖失敗
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(-1))

		lock := NewDealLock(client, "dealbridge:", lockDealID)
		ok, err := lock.Unlock()
		assert.Error(t, err)
		assert.ErrorIs(t, err, redsync.ErrLockAlreadyExpired)
		assert.False(t, ok)
	})

	t.Run("double unlock", func(t *testing.T) {
		defer goleak.VerifyNone(t)
		client, mock, teardown := setupTest(t)
		defer teardown()

		// 鎖定成功
		mock.Regexp().ExpectSetNX(lockKey, ".*", 4*time.Second).SetVal(true)
		// 解鎖
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(1))
		mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(-1))

		lock := NewDealLock(client, "dealbridge:", lockDealID)
		lockCtx, err := lock.Lock(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, lockCtx)

		ok, err := lock.Unlock()
		assert.NoError(t, err)
		assert.True(t, ok)

		ok, err = lock.Unlock()
		assert.Error(t, err)
		assert.ErrorIs(t, err, redsync.ErrLockAlreadyExpired)
		assert.False(t, ok)
	})
}

func TestDealLock_Valid(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, mock, teardown := setupTest(t)
	defer teardown()

	// 鎖定成功
	mock.Regexp().ExpectSetNX(lockKey, ".*", 2*time.Second).SetVal(true)
	// 解鎖成功
	mock.Regexp().ExpectEvalSha(".*", []string{lockKey}, []string{".*"}).SetVal(int64(1))

	lock := NewDealLock(client, "dealbridge:", lockDealID, WithDealLockExpiry(2*time.Second))

	// 未鎖定時
	assert.False(t, lock.Valid())

	// 鎖定後
	lockCtx, err := lock.Lock(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, lockCtx)
	assert.True(t, lock.Valid())

	// 解鎖後
	ok, err := lock.Unlock()
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, lock.Valid())
}
