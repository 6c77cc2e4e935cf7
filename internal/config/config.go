package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Exchange ExchangeConfig
	Bot      BotConfig
	Session  SessionConfig
	Runtime  RuntimeConfig
}

type ExchangeConfig struct {
	BaseUrl string
	WSUrl   string
	ApiKey  string
	Token   string
}

type BotConfig struct {
	CallSymbol      string
	PutSymbol       string
	Exchange        string
	TickSize        float64
	MaxCycles       int
	SlippagePercent float64
	PollIntervalMs  int
}

type SessionConfig struct {
	Open          string
	Cutoff        string
	StaleAfterSec int
	MaxReconnects int
}

type RuntimeConfig struct {
	Log LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func Load() (*Config, error) {

	cfg := &Config{}
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.ReadInConfig()

	viper.SetDefault("bot.exchange", "NSE_FO")
	viper.SetDefault("bot.tick_size", 0.5)
	viper.SetDefault("bot.max_cycles", 2)
	viper.SetDefault("bot.slippage_percent", 1.0)
	viper.SetDefault("bot.poll_interval_ms", 500)
	viper.SetDefault("session.open", "09:16")
	viper.SetDefault("session.cutoff", "15:15")
	viper.SetDefault("session.stale_after_sec", 10)
	viper.SetDefault("session.max_reconnects", 5)

	cfg.Exchange = ExchangeConfig{
		BaseUrl: viper.GetString("exchange.base_url"),
		WSUrl:   viper.GetString("exchange.ws_url"),
		ApiKey:  envSub("exchange.api_key"),
		Token:   envSub("exchange.token"),
	}

	cfg.Bot = BotConfig{
		CallSymbol:      viper.GetString("bot.call_symbol"),
		PutSymbol:       viper.GetString("bot.put_symbol"),
		Exchange:        viper.GetString("bot.exchange"),
		TickSize:        viper.GetFloat64("bot.tick_size"),
		MaxCycles:       viper.GetInt("bot.max_cycles"),
		SlippagePercent: viper.GetFloat64("bot.slippage_percent"),
		PollIntervalMs:  viper.GetInt("bot.poll_interval_ms"),
	}

	cfg.Session = SessionConfig{
		Open:          viper.GetString("session.open"),
		Cutoff:        viper.GetString("session.cutoff"),
		StaleAfterSec: viper.GetInt("session.stale_after_sec"),
		MaxReconnects: viper.GetInt("session.max_reconnects"),
	}

	cfg.Runtime = RuntimeConfig{
		Log: LogConfig{
			Level:      viper.GetString("runtime.log.level"),
			Format:     viper.GetString("runtime.log.format"),
			File:       viper.GetString("runtime.log.file"),
			MaxSize:    viper.GetInt("runtime.log.max_size"),
			MaxBackups: viper.GetInt("runtime.log.max_backups"),
			MaxAge:     viper.GetInt("runtime.log.max_age"),
			Compress:   viper.GetBool("runtime.log.compress"),
		},
	}

	return cfg, nil
}

func envSub(key string) string {
	val := viper.GetString(key)
	if val == "" {
		return ""
	}

	re := regexp.MustCompile(`\$\{(\w+)\}`)
	return re.ReplaceAllStringFunc(val, func(match string) string {
		envKey := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(envKey)
	})
}
