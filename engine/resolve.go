package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ResolveBest 掃描指定交易的所有出價，回傳正規化後數值最低的報價。
// 演算法:
//  1. 讀取關聯到該交易的所有出價(依儲存端回傳順序)
//  2. 逐筆解析價格與計價基準並正規化，解析失敗的記錄直接略過
//  3. 追蹤最小的正規化值，同值時保留先遇到的那筆
//  4. 沒有任何有效出價時，改用交易的最高收購價(以 Margin 計價)
//  5. 兩者皆無時回傳 nil，表示沒有比較基準、任何出價皆可受理
//
// 讀取路徑的失敗一律降級為查無資料(回傳 nil)並記錄警告，
// 不會往呼叫端拋出錯誤：寧可放行一筆可能偏高的出價，
// 也不要因為外部儲存的故障擋下交易。
func (e *Engine) ResolveBest(ctx context.Context, dealID uuid.UUID) *NormalizedPrice {
	const op = "ResolveBest"

	records, err := e.store.FindBidsByDeal(ctx, dealID)
	if err != nil {
		e.logger.Warn("Fail to read bids, treating as no data",
			slog.String("op", op),
			slog.String("dealID", dealID.String()),
			slog.Any("error", err))
		records = nil
	}

	var best *NormalizedPrice
	for _, record := range records {
		raw, ok := ParseAmount(record.Price)
		if !ok {
			continue
		}
		taxType, ok := ParseTaxType(record.TaxType)
		if !ok {
			continue
		}
		normalized, ok := e.Normalize(raw, taxType)
		if !ok {
			continue
		}
		if best == nil || normalized < best.Normalized {
			best = &NormalizedPrice{Normalized: normalized, Raw: raw, TaxType: taxType}
		}
	}
	if best != nil {
		return best
	}

	// 沒有有效出價，改用交易的最高收購價作為比較基準
	deal, err := e.store.FindDeal(ctx, dealID)
	if err != nil {
		e.logger.Warn("Fail to read deal, treating as no data",
			slog.String("op", op),
			slog.String("dealID", dealID.String()),
			slog.Any("error", err))
		return nil
	}
	ceiling, ok := ParseAmount(deal.FallbackCeiling)
	if !ok {
		return nil
	}
	return &NormalizedPrice{Normalized: ceiling, Raw: ceiling, TaxType: TaxTypeMargin}
}
