package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deal 代表一筆對外徵求報價的收購交易
// 包含交易資訊、最高收購價、互動訊息狀態與對應的聊天訊息位置
type Deal struct {
	gorm.Model

	ID          uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text;not null"`
	// MaxPrice 是最高收購價(以 Margin 計價)，沒有任何出價時作為比較基準
	MaxPrice *float64 `gorm:"type:numeric(12,2)"`
	// Open 表示這筆交易的互動訊息是否仍接受出價，
	// 一旦關閉就不會再打開(只有重新發佈的交易才會是開啟狀態)
	Open      bool   `gorm:"not null;default:true"`
	ChannelID string `gorm:"type:varchar(64)"`
	MessageID string `gorm:"type:varchar(64)"`

	// 外鍵關聯
	Bids []Bid
}

func (d *Deal) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
