package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BidRecord 是記錄儲存回傳的單筆出價資料。
// Price 以原始型別呈現(數值或字串)，由 ParseAmount 統一轉換；
// 計價基準的表示法差異(純字串或帶名稱的物件)由儲存端適配層
// 先攤平成字串，引擎只看標籤本身。
type BidRecord struct {
	Price       any
	TaxType     string
	SubmittedAt time.Time
}

// DealRecord 是記錄儲存回傳的交易資料。
// FallbackCeiling 是交易的最高收購價，沒有任何出價時作為
// 比較基準；nil 表示未設定。
type DealRecord struct {
	FallbackCeiling any
	MessagingOpen   bool
}

// SellerRecord 是賣家名錄中的一筆賣家資料
type SellerRecord struct {
	ID   uuid.UUID
	Code string
	Name string
}

// NewBid 是通過驗證後要寫入記錄儲存的出價
type NewBid struct {
	DealID      uuid.UUID
	SellerID    uuid.UUID
	Amount      float64
	TaxType     TaxType
	SubmittedAt time.Time
}

// Store 定義了引擎依賴的記錄儲存介面。
// 讀取路徑的失敗由引擎降級處理(視為查無資料)，
// 寫入路徑的失敗會原封不動回傳給呼叫端。
type Store interface {
	// FindBidsByDeal 回傳關聯到指定交易的所有出價，依寫入順序排列
	FindBidsByDeal(ctx context.Context, dealID uuid.UUID) ([]BidRecord, error)
	// FindDeal 回傳指定交易的資料
	FindDeal(ctx context.Context, dealID uuid.UUID) (DealRecord, error)
	// CreateBid 寫入一筆新的出價
	CreateBid(ctx context.Context, bid NewBid) error
	// FindSellerByCode 依賣家代碼查詢賣家，查無資料時回傳 (nil, nil)
	FindSellerByCode(ctx context.Context, code string) (*SellerRecord, error)
}
