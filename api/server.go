package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	discordAdapter "dealbridge/adapters/discord"
	"dealbridge/adapters/feed"
	redisAdapter "dealbridge/adapters/redis"
	"dealbridge/adapters/store"
	"dealbridge/engine"
	"dealbridge/models"
)

type ServerImpl struct {
	db             *gorm.DB
	redisClient    *redis.Client
	engine         *engine.Engine
	producer       redisAdapter.IProducer
	consumer       redisAdapter.IConsumer
	hub            feed.IHub[redisAdapter.BidEvent]
	notifier       discordAdapter.INotifier
	discordSession *discordgo.Session
	htmlChecker    *bluemonday.Policy
	wg             sync.WaitGroup
	cancelFunc     context.CancelFunc

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 未設定的貨幣符號以引擎預設值補齊，
	// HTTP回應和聊天訊息的金額顯示跟引擎使用同一個符號
	if config.Engine.CurrencySymbol == "" {
		config.Engine.CurrencySymbol = engine.DefaultConfig().CurrencySymbol
	}

	// 初始化資料庫連線
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	if err := db.AutoMigrate(&models.Seller{}, &models.Deal{}, &models.Bid{}); err != nil {
		return nil, fmt.Errorf("[%s] Fail to migrate models, err=%w", op, err)
	}

	// 初始化Redis連線
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	// 初始化出價事件的發佈端與消費端
	producer, err := redisAdapter.NewProducer(redisClient, config.Redis.StreamKeys.Bids)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create producer, err=%w", op, err)
	}
	consumer, err := redisAdapter.NewConsumer(redisClient, config.Redis.StreamKeys.Bids)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create consumer, err=%w", op, err)
	}

	impl := &ServerImpl{
		db:          db,
		redisClient: redisClient,
		engine:      engine.New(store.New(db), config.Engine, slog.Default()),
		producer:    producer,
		consumer:    consumer,
		hub:         feed.NewHub[redisAdapter.BidEvent](slog.Default()),
		htmlChecker: bluemonday.UGCPolicy(),
		config:      config,
	}

	// 初始化Discord整合，未設定token時跳過
	if config.Discord.Token != "" {
		session, err := discordgo.New("Bot " + config.Discord.Token)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create discord session, err=%w", op, err)
		}
		notifier, err := discordAdapter.NewNotifier(session, config.Engine.CurrencySymbol, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create discord notifier, err=%w", op, err)
		}
		discordAdapter.NewInteractionHandler(impl, slog.Default()).Register(session)
		impl.discordSession = session
		impl.notifier = notifier
	}

	return impl, nil
}

func (impl *ServerImpl) Start() error {
	const op = "Start"

	// 啟動Discord session
	if impl.discordSession != nil {
		if err := impl.discordSession.Open(); err != nil {
			return fmt.Errorf("[%s] Fail to open discord session, err=%w", op, err)
		}
	}
	// 啟動producer和consumer
	impl.producer.Start()
	impl.consumer.Start()
	// 啟動一個worker將Stream上的出價事件分發給訂閱者並更新聊天訊息
	ctx, cancel := context.WithCancel(context.Background())
	impl.cancelFunc = cancel
	slog.Info("Start bid event dispatch worker")
	impl.wg.Add(1)
	go func() {
		logger := slog.Default().With(slog.String("caller", "BidDispatch"))
		defer impl.wg.Done()
		defer slog.Info("Bid event dispatch worker stopped")
		ch := impl.consumer.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				logger.Debug("Receive bid event", slog.String("dealID", event.DealID.String()))
				if err := impl.hub.Publish(event.DealID.String(), event); err != nil {
					logger.Warn("Fail to fan out bid event", slog.Any("error", err))
				}
				if err := impl.updateDealMessage(ctx, event); err != nil {
					logger.Error("Fail to update deal message", slog.String("dealID", event.DealID.String()), slog.Any("error", err))
				}
			}
		}
	}()
	return nil
}

func (impl *ServerImpl) Close() {
	// 關閉worker
	if impl.cancelFunc != nil {
		impl.cancelFunc()
	}
	impl.wg.Wait()
	// 關閉consumer和producer
	impl.consumer.Close()
	impl.producer.Close()
	// 關閉事件集線器
	impl.hub.Done()
	// 關閉Discord session
	if impl.discordSession != nil {
		impl.discordSession.Close()
	}
}

// SubmitBid 是HTTP與聊天平台共用的出價提交入口。
// 受理流程(讀取最低報價 → 削價檢查 → 寫入)在交易鎖的保護下執行，
// 確保同一筆交易同時只有一筆出價在受理中。
func (impl *ServerImpl) SubmitBid(ctx context.Context, req engine.SubmitRequest) (engine.SubmitResult, error) {
	const op = "SubmitBid"

	// 取得Redis上交易的出價鎖
	dMutex := redisAdapter.NewDealLock(impl.redisClient, impl.config.Redis.KeyPrefix, req.DealID)
	lockCtx, err := dMutex.Lock(ctx)
	if err != nil {
		return engine.SubmitResult{}, fmt.Errorf("[%s] Fail to acquire deal lock, err=%w", op, err)
	}
	defer func() {
		if _, err := dMutex.Unlock(); err != nil {
			slog.Warn("Fail to release deal lock", slog.String("op", op), slog.Any("error", err))
		}
	}()

	// 在鎖內重新檢查交易狀態，關閉交易和出價受理之間的競爭在這裡收斂
	deal := models.Deal{ID: req.DealID}
	if result := impl.db.First(&deal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return engine.SubmitResult{Reason: fmt.Sprintf("unknown deal %q", req.DealID)}, nil
		}
		return engine.SubmitResult{}, fmt.Errorf("[%s] Fail to find deal, err=%w", op, result.Error)
	}
	if !deal.Open {
		return engine.SubmitResult{Reason: "this deal is closed for offers"}, nil
	}

	result, err := impl.engine.SubmitBid(lockCtx, req)
	if err != nil || !result.Accepted {
		return result, err
	}

	// 發佈出價事件；事件管線的失敗不影響已受理的出價
	raw, _ := engine.ParseAmount(req.RawPrice)
	taxType, _ := engine.ParseTaxType(req.TaxType)
	event := redisAdapter.BidEvent{
		DealID:     req.DealID,
		SellerCode: result.Seller.Code,
		SellerName: result.Seller.Name,
		Amount:     raw,
		TaxType:    string(taxType),
		Normalized: result.Normalized,
		Display:    impl.engine.FormatDisplay(engine.NormalizedPrice{Normalized: result.Normalized, Raw: raw, TaxType: taxType}),
		CreatedAt:  time.Now(),
	}
	if err := impl.producer.Publish(event); err != nil {
		slog.Error("Fail to publish bid event", slog.String("op", op), slog.String("dealID", req.DealID.String()), slog.Any("error", err))
	}
	return result, nil
}

// updateDealMessage 以事件帶來的新最低報價重建聊天訊息。
// 受理必定通過削價檢查，事件上的出價就是新的最低報價。
func (impl *ServerImpl) updateDealMessage(ctx context.Context, event redisAdapter.BidEvent) error {
	if impl.notifier == nil {
		return nil
	}

	deal := models.Deal{ID: event.DealID}
	if result := impl.db.WithContext(ctx).First(&deal); result.Error != nil {
		return fmt.Errorf("fail to find deal, err=%w", result.Error)
	}
	if deal.ChannelID == "" || deal.MessageID == "" {
		return nil
	}
	return impl.notifier.UpdateBest(deal.ChannelID, deal.MessageID, discordAdapter.DealPost{
		ID:          deal.ID,
		Title:       deal.Title,
		Description: deal.Description,
		Ceiling:     deal.MaxPrice,
		BestDisplay: event.Display,
	})
}
