package engine

import "fmt"

// FormatDisplay 將報價轉為同時顯示兩種計價基準金額的字串，
// 例如 "€121.00 (VAT21) / €100.00 (VAT0)"。
// Margin 在 1.21 的換算關係上與 VAT21 同屬毛價側，
// 所以一樣搭配 VAT0 等值顯示。
// 這裡只做呈現，不做任何業務判斷；換算必須經由
// Normalize/Denormalize，確保與比較引擎呈現一致的數字。
func (e *Engine) FormatDisplay(p NormalizedPrice) string {
	sym := e.config.CurrencySymbol
	if p.TaxType == TaxTypeVAT0 {
		gross, _ := e.Normalize(p.Raw, TaxTypeVAT0)
		return fmt.Sprintf("%s%.2f (VAT0) / %s%.2f (VAT21)", sym, p.Raw, sym, gross)
	}
	net := e.Denormalize(p.Raw, TaxTypeVAT0)
	return fmt.Sprintf("%s%.2f (%s) / %s%.2f (VAT0)", sym, p.Raw, p.TaxType, sym, net)
}
