package feed

import (
	"sync"
)

// 訂閱通道的緩衝長度。通過削價檢查的出價事件頻率很低，
// 緩衝只需要吸收訂閱端短暫的消化延遲。
const subscriberBuffer = 8

// Channel 管理單一交易 (Deal) 的所有訂閱者，
// 並將收到的出價事件廣播給所有訂閱者。
// 廣播不等待訂閱者:緩衝已滿的訂閱者錯過該次事件，
// 同一筆交易的其他訂閱者不受影響。
type Channel[T any] struct {
	subscribers map[<-chan T]chan<- T
	mu          sync.RWMutex
}

// NewChannel 建立一個新的交易事件頻道。
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{
		subscribers: make(map[<-chan T]chan<- T),
	}
}

// Subscribe 建立一個帶緩衝的訂閱，回傳唯讀通道給呼叫者。
func (c *Channel[T]) Subscribe() <-chan T {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan T, subscriberBuffer)
	c.subscribers[ch] = ch
	return ch
}

// Unsubscribe 移除指定的訂閱並關閉其通道。
func (c *Channel[T]) Unsubscribe(ch <-chan T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if writeCh, exists := c.subscribers[ch]; exists {
		delete(c.subscribers, ch)
		close(writeCh)
	}
}

// UnsubscribeAll 關閉所有訂閱者的通道並清空訂閱清單。
func (c *Channel[T]) UnsubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, writeCh := range c.subscribers {
		close(writeCh)
	}
	clear(c.subscribers)
}

// Broadcast 將事件送往所有訂閱者，回傳實際送達的訂閱者數量。
// 錯過事件的訂閱者由訂閱端重新讀取交易狀態補齊。
func (c *Channel[T]) Broadcast(event T) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	delivered := 0
	for _, writeCh := range c.subscribers {
		select {
		case writeCh <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// IsIdle 判斷是否已無任何訂閱者。
func (c *Channel[T]) IsIdle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscribers) == 0
}
