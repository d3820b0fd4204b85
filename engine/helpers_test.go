package engine_test

import (
	"context"

	"github.com/google/uuid"

	"dealbridge/engine"
)

// fakeStore 是測試用的記錄儲存，可注入資料與錯誤
type fakeStore struct {
	bids    []engine.BidRecord
	deal    engine.DealRecord
	sellers map[string]engine.SellerRecord
	created []engine.NewBid

	bidsErr   error
	dealErr   error
	createErr error
	sellerErr error
}

func (s *fakeStore) FindBidsByDeal(ctx context.Context, dealID uuid.UUID) ([]engine.BidRecord, error) {
	if s.bidsErr != nil {
		return nil, s.bidsErr
	}
	return s.bids, nil
}

func (s *fakeStore) FindDeal(ctx context.Context, dealID uuid.UUID) (engine.DealRecord, error) {
	if s.dealErr != nil {
		return engine.DealRecord{}, s.dealErr
	}
	return s.deal, nil
}

func (s *fakeStore) CreateBid(ctx context.Context, bid engine.NewBid) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, bid)
	return nil
}

func (s *fakeStore) FindSellerByCode(ctx context.Context, code string) (*engine.SellerRecord, error) {
	if s.sellerErr != nil {
		return nil, s.sellerErr
	}
	seller, ok := s.sellers[code]
	if !ok {
		return nil, nil
	}
	return &seller, nil
}

func newTestEngine(store *fakeStore) *engine.Engine {
	return engine.New(store, engine.DefaultConfig(), nil)
}
