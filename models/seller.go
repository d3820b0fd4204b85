package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seller 代表賣家名錄中的一位賣家
// 賣家以代碼識別，報價時代碼比對不到任何賣家會被拒絕
type Seller struct {
	gorm.Model

	ID        uuid.UUID `gorm:"type:uuid;primaryKey;<-:create"`
	Code      string    `gorm:"type:varchar(32);uniqueIndex;not null;<-:create"`
	Name      string    `gorm:"type:varchar(255);not null"`
	DiscordID string    `gorm:"type:varchar(64)"`
}

func (s *Seller) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
