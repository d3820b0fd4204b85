package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dealbridge/api"
	"dealbridge/engine"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")
	pflag.String("admin-token", "", "")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")

	// redis config
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")
	pflag.String("redis-key-prefix", "dealbridge:", "")

	// redis stream keys
	pflag.String("redis-stream-key-for-bids", "dealbridge-shared-bid-stream", "")

	// discord config
	pflag.String("discord-token", "", "")
	pflag.String("discord-channel-id", "", "")

	// engine config
	pflag.Float64("engine-vat-rate", 1.21, "")
	pflag.Float64("engine-min-undercut-step", 2.5, "")
	pflag.String("engine-currency-symbol", "€", "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("DEALBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		ServerConfig: api.ServerConfig{
			DB: api.DBConfig{
				User:     viper.GetString("db-user"),
				Password: viper.GetString("db-password"),
				Host:     viper.GetString("db-host"),
				Port:     viper.GetInt("db-port"),
				Database: viper.GetString("db-database"),
				Schema:   viper.GetString("db-schema"),
			},
			Redis: api.RedisConfig{
				Addr:      viper.GetString("redis-addr"),
				Password:  viper.GetString("redis-password"),
				DB:        viper.GetInt("redis-db"),
				KeyPrefix: viper.GetString("redis-key-prefix"),
				StreamKeys: api.RedisStreamKeys{
					Bids: viper.GetString("redis-stream-key-for-bids"),
				},
			},
			Discord: api.DiscordConfig{
				Token:     viper.GetString("discord-token"),
				ChannelID: viper.GetString("discord-channel-id"),
			},
			Engine: engine.Config{
				VATRate:         viper.GetFloat64("engine-vat-rate"),
				MinUndercutStep: viper.GetFloat64("engine-min-undercut-step"),
				CurrencySymbol:  viper.GetString("engine-currency-symbol"),
			},
			AdminToken: viper.GetString("admin-token"),
		},
	}
}

type Args struct {
	ServerURL    string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	return args.ServerURL != "" && args.ServerConfig.DB.Host != "" && args.ServerConfig.Redis.Addr != "" && args.ServerConfig.AdminToken != ""
}
