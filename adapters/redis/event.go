package redis

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// BidEvent 是受理一筆出價後發佈到 stream 的事件，
// 下游(聊天訊息更新器與 SSE 訂閱者)據此刷新目前最低報價。
type BidEvent struct {
	DealID     uuid.UUID
	SellerCode string
	SellerName string
	Amount     float64
	TaxType    string
	Normalized float64
	// Display 是雙計價基準的顯示字串，由引擎的顯示層產生
	Display   string
	CreatedAt time.Time
}

// encodeEvent 將事件序列化為 stream 訊息。
// stream 欄位值只能是字串，所以 msgpack 的結果再做 base64 編碼。
func encodeEvent(event BidEvent) (map[string]any, error) {
	bytes, err := msgpack.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal error: %w", err)
	}
	return map[string]any{
		"data": base64.StdEncoding.EncodeToString(bytes),
	}, nil
}

// decodeEvent 將 stream 訊息還原為事件
func decodeEvent(message map[string]any) (BidEvent, error) {
	var event BidEvent

	dataStr, ok := message["data"].(string)
	if !ok {
		return event, fmt.Errorf("data field not found or invalid type")
	}
	bytes, err := base64.StdEncoding.DecodeString(dataStr)
	if err != nil {
		return event, fmt.Errorf("base64 decode error: %w", err)
	}
	if err := msgpack.Unmarshal(bytes, &event); err != nil {
		return event, fmt.Errorf("msgpack unmarshal error: %w", err)
	}
	return event, nil
}
