package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bid 代表賣家對收購交易提出的一筆報價
// 記錄金額、計價基準、賣家與對應的交易；報價一經建立即不可變更
type Bid struct {
	gorm.Model

	ID       uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	DealID   uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	SellerID uuid.UUID `gorm:"type:uuid;not null;<-:create"`
	Amount   float64   `gorm:"type:numeric(12,2);not null;<-:create"`
	TaxType  string    `gorm:"type:varchar(16);not null;<-:create"`
	// SubmittedAt 只保留日期精度
	SubmittedAt time.Time `gorm:"type:date;not null;<-:create"`

	// 外鍵關聯
	Deal   Deal
	Seller Seller
}

func (b *Bid) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
