package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	discordAdapter "dealbridge/adapters/discord"
	"dealbridge/engine"
	"dealbridge/models"
)

// RegisterRoutes 將所有路由掛上gin router
func (impl *ServerImpl) RegisterRoutes(router *gin.Engine) {
	router.POST("/deals", impl.PostDeal)
	router.GET("/deals", impl.GetDeals)
	router.GET("/deals/:dealID", impl.GetDeal)
	router.POST("/deals/:dealID/bids", impl.PostDealBid)
	router.POST("/deals/:dealID/close", impl.PostDealClose)
	router.GET("/deals/:dealID/events", impl.GetDealEvents)
}

type CreateDealRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	MaxPrice    *float64 `json:"maxPrice"`
}

type PlaceBidRequest struct {
	SellerCode string `json:"sellerCode" binding:"required"`
	Price      string `json:"price" binding:"required"`
	TaxType    string `json:"taxType" binding:"required"`
}

type DealSummary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Open      bool      `json:"open"`
	BestOffer string    `json:"bestOffer,omitempty"`
}

type BidView struct {
	SellerCode  string    `json:"sellerCode"`
	SellerName  string    `json:"sellerName"`
	Display     string    `json:"display"`
	TaxType     string    `json:"taxType"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type DealDetail struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MaxPrice    *float64  `json:"maxPrice,omitempty"`
	Open        bool      `json:"open"`
	BestOffer   string    `json:"bestOffer,omitempty"`
	Bids        []BidView `json:"bids"`
}

// checkAdminToken 檢查請求是否帶有合法的管理token
func (impl *ServerImpl) checkAdminToken(c *gin.Context) bool {
	token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	return found && impl.config.AdminToken != "" && token == impl.config.AdminToken
}

// 發佈一筆新的收購交易，同時在聊天頻道張貼互動訊息
// (POST /deals)
func (impl *ServerImpl) PostDeal(c *gin.Context) {
	const op = "PostDeal"
	if !impl.checkAdminToken(c) {
		c.Status(http.StatusUnauthorized)
		return
	}
	var request CreateDealRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	// 處理交易描述
	deal := models.Deal{
		Title:       request.Title,
		Description: impl.htmlChecker.Sanitize(request.Description),
		MaxPrice:    request.MaxPrice,
		Open:        true,
	}
	if result := impl.db.Create(&deal); result.Error != nil {
		slog.Error("Fail to create deal", slog.String("op", op), slog.Any("error", result.Error))
		c.Status(http.StatusInternalServerError)
		return
	}
	// 張貼聊天訊息並記下訊息位置，張貼失敗不影響已建立的交易
	if impl.notifier != nil && impl.config.Discord.ChannelID != "" {
		messageID, err := impl.notifier.PostDeal(impl.config.Discord.ChannelID, discordAdapter.DealPost{
			ID:          deal.ID,
			Title:       deal.Title,
			Description: deal.Description,
			Ceiling:     deal.MaxPrice,
		})
		if err != nil {
			slog.Error("Fail to post deal message", slog.String("op", op), slog.String("dealID", deal.ID.String()), slog.Any("error", err))
		} else {
			updates := models.Deal{ChannelID: impl.config.Discord.ChannelID, MessageID: messageID}
			if result := impl.db.Model(&deal).Updates(updates); result.Error != nil {
				slog.Error("Fail to save deal message location", slog.String("op", op), slog.String("dealID", deal.ID.String()), slog.Any("error", result.Error))
			}
		}
	}
	c.Header("Location", deal.ID.String())
	c.JSON(http.StatusCreated, gin.H{"id": deal.ID})
}

// 列出所有收購交易
// (GET /deals)
func (impl *ServerImpl) GetDeals(c *gin.Context) {
	const op = "GetDeals"
	var deals []models.Deal
	if result := impl.db.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).Find(&deals); result.Error != nil {
		slog.Error("Fail to list deals", slog.String("op", op), slog.Any("error", result.Error))
		c.Status(http.StatusInternalServerError)
		return
	}
	output := make([]DealSummary, len(deals))
	for i, deal := range deals {
		output[i] = DealSummary{
			ID:    deal.ID,
			Title: deal.Title,
			Open:  deal.Open,
		}
		if best := impl.engine.ResolveBest(c.Request.Context(), deal.ID); best != nil {
			output[i].BestOffer = impl.engine.FormatDisplay(*best)
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(output), "deals": output})
}

// 取得單筆收購交易的詳細資訊，包含目前最低報價與出價紀錄
// (GET /deals/{dealID})
func (impl *ServerImpl) GetDeal(c *gin.Context) {
	const op = "GetDeal"
	dealID, err := uuid.Parse(c.Param("dealID"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	deal := models.Deal{ID: dealID}
	if result := impl.db.
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
		}).
		Preload("Bids.Seller").
		First(&deal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Fail to find deal", slog.String("op", op), slog.Any("error", result.Error))
		c.Status(http.StatusInternalServerError)
		return
	}
	// 整理出價紀錄，無法正規化的紀錄只保留原始欄位
	bids := make([]BidView, len(deal.Bids))
	for i, bid := range deal.Bids {
		bids[i] = BidView{
			SellerCode:  bid.Seller.Code,
			SellerName:  bid.Seller.Name,
			TaxType:     bid.TaxType,
			SubmittedAt: bid.SubmittedAt,
			Display:     fmt.Sprintf("%s%.2f (%s)", impl.config.Engine.CurrencySymbol, bid.Amount, bid.TaxType),
		}
		if taxType, ok := engine.ParseTaxType(bid.TaxType); ok {
			if normalized, ok := impl.engine.Normalize(bid.Amount, taxType); ok {
				bids[i].Display = impl.engine.FormatDisplay(engine.NormalizedPrice{
					Normalized: normalized,
					Raw:        bid.Amount,
					TaxType:    taxType,
				})
			}
		}
	}
	detail := DealDetail{
		ID:          deal.ID,
		Title:       deal.Title,
		Description: deal.Description,
		MaxPrice:    deal.MaxPrice,
		Open:        deal.Open,
		Bids:        bids,
	}
	if best := impl.engine.ResolveBest(c.Request.Context(), deal.ID); best != nil {
		detail.BestOffer = impl.engine.FormatDisplay(*best)
	}
	c.JSON(http.StatusOK, detail)
}

// 對收購交易提出報價
// (POST /deals/{dealID}/bids)
func (impl *ServerImpl) PostDealBid(c *gin.Context) {
	const op = "PostDealBid"
	dealID, err := uuid.Parse(c.Param("dealID"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	var request PlaceBidRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	// 檢查交易是否存在且仍接受出價；鎖內還會再檢查一次，
	// 這裡只是為了對應到正確的HTTP狀態碼
	deal := models.Deal{ID: dealID}
	if result := impl.db.First(&deal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Fail to find deal", slog.String("op", op), slog.Any("error", result.Error))
		c.Status(http.StatusInternalServerError)
		return
	}
	if !deal.Open {
		c.JSON(http.StatusGone, gin.H{"message": "this deal is closed for offers"})
		return
	}

	result, err := impl.SubmitBid(c.Request.Context(), engine.SubmitRequest{
		DealID:     dealID,
		SellerCode: request.SellerCode,
		RawPrice:   request.Price,
		TaxType:    request.TaxType,
	})
	if err != nil {
		slog.Error("Fail to submit bid", slog.String("op", op), slog.String("dealID", dealID.String()), slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "failed to save your offer, please try again"})
		return
	}
	if !result.Accepted {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": result.Reason})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"normalized": result.Normalized})
}

// 關閉收購交易，互動訊息的出價按鈕一併停用且不再重新開放
// (POST /deals/{dealID}/close)
func (impl *ServerImpl) PostDealClose(c *gin.Context) {
	const op = "PostDealClose"
	if !impl.checkAdminToken(c) {
		c.Status(http.StatusUnauthorized)
		return
	}
	dealID, err := uuid.Parse(c.Param("dealID"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	deal := models.Deal{ID: dealID}
	if result := impl.db.First(&deal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Fail to find deal", slog.String("op", op), slog.Any("error", result.Error))
		c.Status(http.StatusInternalServerError)
		return
	}
	if deal.Open {
		if result := impl.db.Model(&deal).Update("open", false); result.Error != nil {
			slog.Error("Fail to close deal", slog.String("op", op), slog.Any("error", result.Error))
			c.Status(http.StatusInternalServerError)
			return
		}
		if impl.notifier != nil && deal.ChannelID != "" && deal.MessageID != "" {
			post := discordAdapter.DealPost{
				ID:          deal.ID,
				Title:       deal.Title,
				Description: deal.Description,
				Ceiling:     deal.MaxPrice,
			}
			if best := impl.engine.ResolveBest(c.Request.Context(), deal.ID); best != nil {
				post.BestDisplay = impl.engine.FormatDisplay(*best)
			}
			if err := impl.notifier.DisableDeal(deal.ChannelID, deal.MessageID, post); err != nil {
				slog.Error("Fail to disable deal message", slog.String("op", op), slog.String("dealID", deal.ID.String()), slog.Any("error", err))
			}
		}
	}
	c.Status(http.StatusOK)
}

// 追蹤收購交易的出價事件
// (GET /deals/{dealID}/events)
func (impl *ServerImpl) GetDealEvents(c *gin.Context) {
	const op = "GetDealEvents"
	dealID, err := uuid.Parse(c.Param("dealID"))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	// 檢查交易是否存在
	deal := models.Deal{ID: dealID}
	if result := impl.db.First(&deal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		slog.Error("Fail to find deal", slog.String("op", op), slog.Any("error", result.Error))
		c.Status(http.StatusInternalServerError)
		return
	}
	if !deal.Open {
		c.JSON(http.StatusGone, gin.H{"message": "this deal is closed for offers"})
		return
	}
	// SSE請求合法，開始初始化串流
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Transfer-Encoding", "chunked")
	ch, err := impl.hub.Subscribe(dealID.String())
	if err != nil {
		slog.Error("Fail to subscribe to deal events", slog.String("op", op), slog.Any("error", err))
		c.Status(http.StatusInternalServerError)
		return
	}
LOOP:
	for {
		select {
		case <-w.CloseNotify():
			impl.hub.Unsubscribe(dealID.String(), ch)
			break LOOP
		case event, ok := <-ch:
			if !ok {
				break LOOP
			}
			c.SSEvent("bid", event)
			w.Flush()
		// 30秒沒有事件就發送一個空行，確保瀏覽器和反向代理不會斷開連線
		case <-time.After(30 * time.Second):
			w.WriteString("\n\n")
			w.Flush()
		}
	}
}
