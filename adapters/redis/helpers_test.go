package redis

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func init() {
	// 將日誌輸出重定向到io.Discard
	log.SetOutput(io.Discard)
}

func setupTest(t *testing.T) (*redis.Client, redismock.ClientMock, func()) {
	db, mock := redismock.NewClientMock()
	return db, mock, func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	}
}

func testEvent() BidEvent {
	return BidEvent{
		DealID:     uuid.MustParse("0191b2a0-1111-7222-8333-444455556666"),
		SellerCode: "S-100",
		SellerName: "Jansen Handel",
		Amount:     90,
		TaxType:    "VAT0",
		Normalized: 108.9,
		Display:    "€90.00 (VAT0) / €108.90 (VAT21)",
		CreatedAt:  time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}
