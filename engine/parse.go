package engine

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseAmount 將來自記錄儲存的原始欄位值轉換為數值。
// 記錄儲存回傳的欄位型別不固定，可能是數值也可能是字串，
// 字串還可能帶有貨幣符號或使用逗號作為小數點。
// 處理流程:
//   - 數值型別直接檢查是否為有限數
//   - 字串先將第一個逗號修正為小數點，再移除所有非數字、
//     非小數點、非負號的字元後解析
//   - 其他型別一律視為無效
//
// 解析失敗回傳 (0, false)，不拋出錯誤。
func ParseAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		return parseAmountString(n.String())
	case string:
		return parseAmountString(n)
	}
	return 0, false
}

func parseAmountString(s string) (float64, bool) {
	// 逗號視為小數點(例如 "12,50")
	s = strings.Replace(s, ",", ".", 1)
	var cleaned strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			cleaned.WriteRune(r)
		}
	}
	value, err := strconv.ParseFloat(cleaned.String(), 64)
	if err != nil {
		return 0, false
	}
	return finite(value)
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
