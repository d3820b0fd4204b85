package feed

import (
	"context"
	"log/slog"
	"sync"
)

// hub 管理多筆交易的事件頻道。
// 事件由單一上游(Redis Stream 消費端)餵入，hub 只負責行程內的扇出，
// 不直接接觸 Redis，方便在測試中單獨驗證。
type hub[T any] struct {
	logger *slog.Logger

	mu     sync.RWMutex // 保護 active 和 channels 的讀寫
	active bool         // 標記 hub 是否正在運作中

	channels map[string]IChannel[T] // 儲存所有活躍的頻道，以 dealID 為鍵
}

// NewHub 建立一個新的交易事件集線器。
func NewHub[T any](logger *slog.Logger) IHub[T] {
	if logger == nil {
		logger = slog.Default()
	}

	return &hub[T]{
		logger:   logger.With(slog.String("caller", "FeedHub")),
		channels: make(map[string]IChannel[T]),
		active:   true,
	}
}

// Subscribe 訂閱指定交易的事件。
// dealID: 要訂閱的交易識別碼
// 返回: 用於接收事件的唯讀通道，以及可能的錯誤
func (h *hub[T]) Subscribe(dealID string) (<-chan T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active {
		return nil, context.Canceled
	}

	c, ok := h.channels[dealID]
	if !ok {
		c = NewChannel[T]()
		h.channels[dealID] = c
	}
	return c.Subscribe(), nil
}

// Publish 將事件廣播給指定交易的所有訂閱者。
// 沒有訂閱者的交易會直接略過，不視為錯誤。
func (h *hub[T]) Publish(dealID string, event T) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.active {
		return context.Canceled
	}

	if channel, ok := h.channels[dealID]; ok {
		delivered := channel.Broadcast(event)
		h.logger.Debug("bid event fanned out", slog.String("dealID", dealID), slog.Int("delivered", delivered))
	} else {
		h.logger.Debug("no subscribers for deal, event dropped", slog.String("dealID", dealID))
	}
	return nil
}

// Unsubscribe 取消訂閱指定的交易。
func (h *hub[T]) Unsubscribe(dealID string, ch <-chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.channels[dealID]
	if !ok {
		return
	}

	c.Unsubscribe(ch)
	if c.IsIdle() {
		delete(h.channels, dealID)
	}
}

// Done 停止集線器的運作，關閉所有訂閱者的通道。
func (h *hub[T]) Done() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.active {
		return
	}

	h.active = false
	for _, channel := range h.channels {
		channel.UnsubscribeAll()
	}
	clear(h.channels)
}
