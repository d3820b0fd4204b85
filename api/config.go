package api

import (
	"dealbridge/engine"
)

type ServerConfig struct {
	DB      DBConfig
	Redis   RedisConfig
	Discord DiscordConfig
	Engine  engine.Config

	// AdminToken 保護交易的建立與關閉操作
	AdminToken string
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix 所有鍵值的共用前綴，用於隔離同一個Redis上的多個部署
	KeyPrefix string

	StreamKeys RedisStreamKeys
}

type RedisStreamKeys struct {
	Bids string
}

type DiscordConfig struct {
	// Token 機器人憑證，留空時停用聊天平台整合
	Token string
	// ChannelID 交易訊息發佈的目標頻道
	ChannelID string
}
