package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UndercutResult 是一次削價檢查的結果。
// 拒絕時 MaxAllowed 帶有以出價者自身計價基準表示的可出上限
// (金額已無條件捨去到分)，CurrentBest 帶有當下的最低報價。
type UndercutResult struct {
	Accepted    bool
	Normalized  float64
	MaxAllowed  *NormalizedPrice
	CurrentBest *NormalizedPrice
}

// ValidateUndercut 判斷一筆新出價是否足夠便宜。
// 出價者以自己的計價基準思考，但競價永遠在同一個毛價基準上
// 比較：先正規化、在毛價側比較、拒絕時再換算回出價者的基準。
// 演算法:
//  1. 正規化新出價
//  2. 取得目前最低報價，沒有比較基準時無條件受理
//  3. 可出上限 = 最低報價的正規化值 - MinUndercutStep
//  4. 新出價的正規化值在容差內不超過上限即受理
//  5. 否則拒絕，將上限換算回出價者的計價基準並捨去到分
//
// 捨去(而非四捨五入)是刻意的：進位可能讓被拒絕的金額在
// 重新提交時看似恰好符合上限。
func (e *Engine) ValidateUndercut(ctx context.Context, raw float64, taxType TaxType, dealID uuid.UUID) UndercutResult {
	normalized, ok := e.Normalize(raw, taxType)
	if !ok {
		// 價格已在上游驗證過，這裡只防萬一
		return UndercutResult{}
	}

	best := e.ResolveBest(ctx, dealID)
	if best == nil {
		return UndercutResult{Accepted: true, Normalized: normalized}
	}

	maxAllowedGross := best.Normalized - e.config.MinUndercutStep
	if normalized <= maxAllowedGross+tolerance {
		return UndercutResult{Accepted: true, Normalized: normalized, CurrentBest: best}
	}

	display := floorCents(e.Denormalize(maxAllowedGross, taxType))
	return UndercutResult{
		Normalized: normalized,
		MaxAllowed: &NormalizedPrice{
			Normalized: maxAllowedGross,
			Raw:        display,
			TaxType:    taxType,
		},
		CurrentBest: best,
	}
}

// floorCents 將金額無條件捨去到小數第二位。
// 使用 decimal 運算避免浮點誤差讓捨去結果偏移一分。
func floorCents(v float64) float64 {
	return decimal.NewFromFloat(v).RoundFloor(2).InexactFloat64()
}
