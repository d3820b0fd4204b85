package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 一次出價受理只包含讀取最低報價、削價檢查與單筆寫入，
// 預設過期時間抓受理流程長度的數倍即可，
// 自動續期只在儲存端偶發變慢時發揮作用。
const (
	defaultLockExpiry     = 4 * time.Second
	defaultLockRetryDelay = 200 * time.Millisecond
)

// DealLock 是以交易為粒度的分散式互斥鎖，用來序列化同一筆交易的
// 出價受理流程(讀取目前最低報價 → 削價檢查 → 寫入)。
// 沒有這把鎖，兩筆幾乎同時送達的出價會讀到同一個過期的比較基準，
// 雙雙通過削價檢查後都被寫入。
type DealLock struct {
	mutex   *redsync.Mutex
	key     string
	options dealLockOptions

	mu       sync.Mutex
	renewing bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type dealLockOptions struct {
	expiry        time.Duration
	retryDelay    time.Duration
	renewInterval time.Duration
}

type DealLockOption func(*dealLockOptions)

// WithDealLockExpiry 設置鎖過期時間
func WithDealLockExpiry(d time.Duration) DealLockOption {
	return func(o *dealLockOptions) {
		o.expiry = d
	}
}

// WithDealLockRetryDelay 設置持鎖競爭時的重試間隔
func WithDealLockRetryDelay(d time.Duration) DealLockOption {
	return func(o *dealLockOptions) {
		o.retryDelay = d
	}
}

// WithDealLockRenewInterval 設置自動續期間隔，未設定時為過期時間的三分之一
func WithDealLockRenewInterval(d time.Duration) DealLockOption {
	return func(o *dealLockOptions) {
		o.renewInterval = d
	}
}

// NewDealLock 建立指定交易的出價受理鎖，鎖鍵為 <keyPrefix>deal:<dealID>:lock。
func NewDealLock(client *redis.Client, keyPrefix string, dealID uuid.UUID, opts ...DealLockOption) IDealLock {
	options := dealLockOptions{
		expiry:     defaultLockExpiry,
		retryDelay: defaultLockRetryDelay,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.renewInterval <= 0 {
		options.renewInterval = options.expiry / 3
	}

	key := fmt.Sprintf("%sdeal:%s:lock", keyPrefix, dealID)
	rs := redsync.New(goredis.NewPool(client))
	return &DealLock{
		mutex:   rs.NewMutex(key, redsync.WithExpiry(options.expiry)),
		key:     key,
		options: options,
	}
}

// Lock 取得交易鎖並啟動自動續期。
// 鎖被其他提交持有時以固定間隔重試，直到 ctx 結束；
// 與 Redis 的通訊失敗直接回報。
// 回傳的 context 在鎖釋放或續期失敗時被取消。
func (l *DealLock) Lock(ctx context.Context) (context.Context, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		err := l.mutex.TryLockContext(ctx)
		if err == nil {
			lockCtx, cancel := context.WithCancel(ctx)
			l.mu.Lock()
			l.cancel = cancel
			l.mu.Unlock()
			l.startAutoRenew(lockCtx)
			return lockCtx, nil
		}
		var commErr *redsync.RedisError
		if errors.As(err, &commErr) {
			return nil, fmt.Errorf("failed to acquire lock on %s: %w", l.key, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.options.retryDelay):
		}
	}
}

// Unlock 停止自動續期並釋放鎖
func (l *DealLock) Unlock() (bool, error) {
	l.stopAutoRenew()
	l.wg.Wait()
	return l.mutex.Unlock()
}

// Valid 回報鎖是否仍然有效:自動續期仍在運作且尚未到達過期時間
func (l *DealLock) Valid() bool {
	l.mu.Lock()
	renewing := l.renewing
	l.mu.Unlock()
	return renewing && time.Now().Before(l.mutex.Until())
}

func (l *DealLock) startAutoRenew(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.renewing {
		return
	}

	l.renewing = true
	l.wg.Add(1)
	go l.renewLoop(ctx)
}

// renewLoop 以固定間隔延長鎖的過期時間。
// 延長失敗時停止續期，Valid 隨之轉為 false。
func (l *DealLock) renewLoop(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.options.renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := l.mutex.Extend()
			if err != nil || !ok {
				l.stopAutoRenew()
				return
			}
		}
	}
}

func (l *DealLock) stopAutoRenew() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.renewing {
		return
	}

	l.renewing = false
	if l.cancel != nil {
		l.cancel()
	}
}
