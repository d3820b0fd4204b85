package redis

import "context"

// IProducer 定義了出價事件發佈端的操作介面
type IProducer interface {
	Start()
	Publish(event BidEvent) error
	Close()
}

// IConsumer 定義了出價事件消費端的操作介面
type IConsumer interface {
	Start()
	Subscribe() <-chan BidEvent
	Close()
}

// IDealLock 定義了交易鎖的操作介面
type IDealLock interface {
	Lock(ctx context.Context) (context.Context, error)
	Unlock() (bool, error)
	Valid() bool
}
