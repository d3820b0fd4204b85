package engine

// NormalizedPrice 代表換算為單一比較基準後的報價。
// Normalized 是用於排序比較的毛價，Raw 與 TaxType 保留
// 報價原本的金額與計價基準，供顯示層還原使用。
type NormalizedPrice struct {
	Normalized float64
	Raw        float64
	TaxType    TaxType
}

// Normalize 將 (金額, 計價基準) 換算為可比較的毛價。
// VAT0 的報價乘上標準稅率(預設 1.21)補成含稅價，
// Margin 與 VAT21 的報價本身已是毛價側，維持不變。
// 金額不是有限數時回傳 false；計價基準在上游已驗證過，
// 這裡對無法辨識的值採寬鬆處理，直接回傳原金額。
func (e *Engine) Normalize(price float64, taxType TaxType) (float64, bool) {
	price, ok := finite(price)
	if !ok {
		return 0, false
	}
	if taxType == TaxTypeVAT0 {
		return price * e.config.VATRate, true
	}
	return price, true
}

// Denormalize 是 Normalize 的精確反運算，
// 將毛價換算回指定計價基準下的金額，供顯示層使用。
// 兩者必須使用同一個稅率，否則會對使用者呈現矛盾的數字。
func (e *Engine) Denormalize(gross float64, taxType TaxType) float64 {
	if taxType == TaxTypeVAT0 {
		return gross / e.config.VATRate
	}
	return gross
}
