package feed

// IChannel 定義了單一交易事件頻道的介面
type IChannel[T any] interface {
	// Subscribe 建立一個新的訂閱並返回接收事件的通道
	Subscribe() <-chan T
	// Unsubscribe 取消指定通道的訂閱
	Unsubscribe(ch <-chan T)
	// UnsubscribeAll 取消所有訂閱
	UnsubscribeAll()
	// Broadcast 將事件廣播給所有訂閱者，回傳實際送達的訂閱者數量
	Broadcast(event T) int
	// IsIdle 檢查是否沒有訂閱者
	IsIdle() bool
}

// IHub 定義了交易事件集線器的介面。
// 每筆交易對應一個頻道，出價事件由上游(stream 消費端)餵入，
// 訂閱者是盯著單筆交易的 SSE 連線或聊天訊息更新器。
type IHub[T any] interface {
	// Subscribe 訂閱指定交易的事件
	Subscribe(dealID string) (<-chan T, error)
	// Publish 將事件廣播給指定交易的所有訂閱者
	Publish(dealID string, event T) error
	// Unsubscribe 取消訂閱指定交易
	Unsubscribe(dealID string, ch <-chan T)
	// Done 停止集線器，釋放所有資源
	Done()
}
