package discord

import (
	"context"

	"github.com/google/uuid"

	"dealbridge/engine"
)

// INotifier 定義了交易訊息在聊天平台上的發布與維護介面
type INotifier interface {
	// PostDeal 在指定頻道發布交易訊息，回傳訊息ID
	PostDeal(channelID string, deal DealPost) (string, error)
	// UpdateBest 更新交易訊息上的目前最低報價
	UpdateBest(channelID, messageID string, deal DealPost) error
	// DisableDeal 停用交易訊息上的出價按鈕，交易關閉後不再重新開放
	DisableDeal(channelID, messageID string, deal DealPost) error
}

// BidSubmitter 是互動處理器所依賴的出價提交入口，
// 由服務端實作，HTTP 與聊天平台兩條路徑共用同一套提交邏輯。
type BidSubmitter interface {
	SubmitBid(ctx context.Context, req engine.SubmitRequest) (engine.SubmitResult, error)
}

// DealPost 是發布到聊天平台的交易訊息內容
type DealPost struct {
	ID          uuid.UUID
	Title       string
	Description string
	// Ceiling 交易的最高收購價，未設定時不顯示
	Ceiling *float64
	// BestDisplay 目前最低報價的雙軌顯示文字，尚無報價時為空
	BestDisplay string
}
