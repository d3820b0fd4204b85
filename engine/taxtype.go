package engine

// TaxType 代表賣家報價時使用的計價基準
// 三種基準分別為差額課稅(Margin)、零稅率(VAT0)與含稅價(VAT21)
type TaxType string

const (
	TaxTypeMargin TaxType = "Margin"
	TaxTypeVAT0   TaxType = "VAT0"
	TaxTypeVAT21  TaxType = "VAT21"
)

// ParseTaxType 將字串解析為 TaxType。
// 僅接受與三個標籤完全相符(區分大小寫)的輸入，空字串、
// 前後有空白或大小寫不符的輸入一律視為無效。
// 這是阻擋格式錯誤的報價進入比較引擎的唯一關卡，故意從嚴。
func ParseTaxType(s string) (TaxType, bool) {
	switch TaxType(s) {
	case TaxTypeMargin, TaxTypeVAT0, TaxTypeVAT21:
		return TaxType(s), true
	}
	return "", false
}
