package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// 浮點比較容差，用來吸收稅率換算造成的捨入誤差
const tolerance = 1e-9

// Config 是引擎的組態。
// 所有門檻值都在建構時傳入，引擎本身不持有可變的全域狀態。
type Config struct {
	// VATRate 標準稅率，用於 VAT0 與毛價之間的換算
	VATRate float64
	// MinUndercutStep 新出價至少要比目前最低報價低多少(貨幣單位)
	MinUndercutStep float64
	// CurrencySymbol 顯示金額時使用的貨幣符號
	CurrencySymbol string
}

// DefaultConfig 回傳符合既有部署的預設組態
func DefaultConfig() Config {
	return Config{
		VATRate:         1.21,
		MinUndercutStep: 2.5,
		CurrencySymbol:  "€",
	}
}

// Engine 是報價正規化與削價檢查引擎。
// 引擎是純同步的請求/回應邏輯，不持有共享狀態，
// 同一筆交易的出價序列化由呼叫端負責(見 adapters/redis 的交易鎖)。
type Engine struct {
	store  Store
	logger *slog.Logger
	config Config
}

// New 建立一個新的引擎。
// 組態中未設定的門檻值會以預設值補齊。
func New(store Store, config Config, logger *slog.Logger) *Engine {
	if config.VATRate <= 0 {
		config.VATRate = DefaultConfig().VATRate
	}
	if config.MinUndercutStep <= 0 {
		config.MinUndercutStep = DefaultConfig().MinUndercutStep
	}
	if config.CurrencySymbol == "" {
		config.CurrencySymbol = DefaultConfig().CurrencySymbol
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		logger: logger.With(slog.String("caller", "Engine")),
		config: config,
	}
}

// SubmitRequest 是一次出價提交的輸入，
// 價格與計價基準保持表單送來的原始文字。
type SubmitRequest struct {
	DealID     uuid.UUID
	SellerCode string
	RawPrice   string
	TaxType    string
}

// SubmitResult 是一次出價提交的結果。
// Accepted 為 false 時 Reason 帶有可直接轉達給使用者的拒絕原因，
// MaxAllowed 在削價檢查失敗時帶有以出價者自身計價基準表示的可出上限。
type SubmitResult struct {
	Accepted   bool
	Reason     string
	Normalized float64
	MaxAllowed *NormalizedPrice
	Seller     *SellerRecord
}

// SubmitBid 處理一次完整的出價提交:
// 解析 → 計價基準檢查 → 賣家比對 → 削價檢查 → 寫入。
// 所有預期中的業務結果(格式錯誤、查無賣家、削價不足)都以
// 拒絕結果回傳，不會產生error；只有記錄儲存的寫入失敗
// 會以 error 回傳，讓呼叫端可以提示使用者重試。
func (e *Engine) SubmitBid(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	const op = "SubmitBid"

	// 解析價格
	raw, ok := ParseAmount(req.RawPrice)
	if !ok {
		return SubmitResult{Reason: fmt.Sprintf("%q is not a valid price", req.RawPrice)}, nil
	}
	if raw <= 0 {
		return SubmitResult{Reason: "price must be greater than zero"}, nil
	}
	// 解析計價基準
	taxType, ok := ParseTaxType(req.TaxType)
	if !ok {
		return SubmitResult{Reason: fmt.Sprintf("unrecognized tax type %q, expected Margin, VAT0 or VAT21", req.TaxType)}, nil
	}
	// 比對賣家名錄
	seller, err := e.store.FindSellerByCode(ctx, req.SellerCode)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("[%s] Fail to look up seller, err=%w", op, err)
	}
	if seller == nil {
		return SubmitResult{Reason: fmt.Sprintf("unknown seller code %q", req.SellerCode)}, nil
	}
	// 削價檢查
	verdict := e.ValidateUndercut(ctx, raw, taxType, req.DealID)
	if !verdict.Accepted {
		return SubmitResult{
			Reason:     fmt.Sprintf("bid too high: you may offer at most %s", e.FormatDisplay(*verdict.MaxAllowed)),
			MaxAllowed: verdict.MaxAllowed,
			Seller:     seller,
		}, nil
	}
	// 寫入出價，出價時間只保留日期精度
	now := time.Now()
	bid := NewBid{
		DealID:      req.DealID,
		SellerID:    seller.ID,
		Amount:      raw,
		TaxType:     taxType,
		SubmittedAt: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	if err := e.store.CreateBid(ctx, bid); err != nil {
		return SubmitResult{}, fmt.Errorf("[%s] Fail to create bid, err=%w", op, err)
	}
	e.logger.Info("Bid accepted",
		slog.String("op", op),
		slog.String("dealID", req.DealID.String()),
		slog.String("seller", seller.Code),
		slog.Float64("normalized", verdict.Normalized))
	return SubmitResult{
		Accepted:   true,
		Normalized: verdict.Normalized,
		Seller:     seller,
	}, nil
}
