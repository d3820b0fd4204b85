package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dealbridge/engine"
	"dealbridge/models"
)

// Store 以 gorm 實作引擎依賴的記錄儲存介面。
// 價格與計價基準在這一層以原始型別交給引擎，
// 表示法的差異(欄位型別漂移)也在這一層攤平，引擎只看統一格式。
type Store struct {
	db *gorm.DB
}

// New 建立一個新的 Store
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindBidsByDeal 回傳關聯到指定交易的所有出價，依建立順序排列。
// 這是以關聯過濾的全表掃描，在本系統的資料量(數十到低數百筆
// 進行中交易)下可以接受。
func (s *Store) FindBidsByDeal(ctx context.Context, dealID uuid.UUID) ([]engine.BidRecord, error) {
	const op = "store.FindBidsByDeal"

	var bids []models.Bid
	result := s.db.WithContext(ctx).
		Where("deal_id = ?", dealID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}}).
		Find(&bids)
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to find bids, err=%w", op, result.Error)
	}

	records := make([]engine.BidRecord, len(bids))
	for i, bid := range bids {
		records[i] = engine.BidRecord{
			Price:       bid.Amount,
			TaxType:     bid.TaxType,
			SubmittedAt: bid.SubmittedAt,
		}
	}
	return records, nil
}

// FindDeal 回傳指定交易的資料
func (s *Store) FindDeal(ctx context.Context, dealID uuid.UUID) (engine.DealRecord, error) {
	const op = "store.FindDeal"

	deal := models.Deal{ID: dealID}
	if result := s.db.WithContext(ctx).First(&deal); result.Error != nil {
		return engine.DealRecord{}, fmt.Errorf("[%s] Fail to find deal, err=%w", op, result.Error)
	}

	record := engine.DealRecord{MessagingOpen: deal.Open}
	if deal.MaxPrice != nil {
		record.FallbackCeiling = *deal.MaxPrice
	}
	return record, nil
}

// CreateBid 寫入一筆通過驗證的出價
func (s *Store) CreateBid(ctx context.Context, bid engine.NewBid) error {
	const op = "store.CreateBid"

	record := models.Bid{
		DealID:      bid.DealID,
		SellerID:    bid.SellerID,
		Amount:      bid.Amount,
		TaxType:     string(bid.TaxType),
		SubmittedAt: bid.SubmittedAt,
	}
	if result := s.db.WithContext(ctx).Create(&record); result.Error != nil {
		return fmt.Errorf("[%s] Fail to create bid, err=%w", op, result.Error)
	}
	return nil
}

// FindSellerByCode 依賣家代碼查詢賣家，查無資料時回傳 (nil, nil)。
// 空代碼視同查無賣家；條件必須寫成明確的where子句，
// gorm 的結構體條件會忽略零值欄位，空代碼會退化成無條件查詢。
func (s *Store) FindSellerByCode(ctx context.Context, code string) (*engine.SellerRecord, error) {
	const op = "store.FindSellerByCode"

	if code == "" {
		return nil, nil
	}
	var seller models.Seller
	result := s.db.WithContext(ctx).Where("code = ?", code).First(&seller)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("[%s] Fail to find seller, err=%w", op, result.Error)
	}
	return &engine.SellerRecord{
		ID:   seller.ID,
		Code: seller.Code,
		Name: seller.Name,
	}, nil
}
