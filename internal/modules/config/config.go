package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"grid_bot/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	okxAPIKeyENV      = "OKX_API_KEY"
	okxAPISecretENV   = "OKX_API_SECRET"
	okxPassphraseENV  = "OKX_PASSPHRASE"
	redisAddrENV      = "REDIS_ADDR"

	envPrefix         = "GRID"
	defaultConfigFile = "values_local.yaml"
)

const (
	TraderPaper = "paper"
	TraderOKX   = "okx"
)

// Strategy: параметры сетки. Денежные величины строками, чтобы не терять точность.
type Strategy struct {
	Kind        string   `mapstructure:"kind" yaml:"kind"`
	Investment  string   `mapstructure:"investment" yaml:"investment"`
	Range       []string `mapstructure:"range" yaml:"range"`
	Copies      int      `mapstructure:"copies" yaml:"copies,omitempty"`
	Percent     string   `mapstructure:"percent" yaml:"percent,omitempty"`
	PercentLost string   `mapstructure:"percent_lost" yaml:"percent_lost,omitempty"`
}

func (s Strategy) Params() strategy.Params {
	return strategy.Params{
		Kind:        s.Kind,
		Investment:  s.Investment,
		Range:       s.Range,
		Copies:      s.Copies,
		Percent:     s.Percent,
		PercentLost: s.PercentLost,
	}
}

type Trader struct {
	Mode         string  `mapstructure:"mode" yaml:"mode"`
	InstID       string  `mapstructure:"inst_id" yaml:"inst_id"`
	Commission   string  `mapstructure:"commission" yaml:"commission"`
	MaxFillParts int     `mapstructure:"max_fill_parts" yaml:"max_fill_parts"`
	RateLimit    float64 `mapstructure:"rate_limit_per_sec" yaml:"rate_limit_per_sec"`

	OKX struct {
		BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
		APIKey     string `mapstructure:"api_key" yaml:"api_key"`
		APISecret  string `mapstructure:"api_secret" yaml:"api_secret"`
		Passphrase string `mapstructure:"passphrase" yaml:"passphrase"`
		Simulated  bool   `mapstructure:"simulated" yaml:"simulated"`
	} `mapstructure:"okx" yaml:"okx"`
}

type Config struct {
	Service struct {
		Name       string `mapstructure:"name" yaml:"name"`
		LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
		HealthAddr string `mapstructure:"health_addr" yaml:"health_addr"`
	} `mapstructure:"service" yaml:"service"`

	Strategy Strategy `mapstructure:"strategy" yaml:"strategy"`
	Trader   Trader   `mapstructure:"trader" yaml:"trader"`

	Market struct {
		WSURL string `mapstructure:"ws_url" yaml:"ws_url"`
	} `mapstructure:"market" yaml:"market"`

	Telegram struct {
		Token  string `mapstructure:"token" yaml:"token"`
		ChatID int64  `mapstructure:"chat_id" yaml:"chat_id"`
	} `mapstructure:"telegram" yaml:"telegram"`

	DB string `mapstructure:"db_dsn" yaml:"db_dsn"`

	Redis struct {
		Addr     string        `mapstructure:"addr" yaml:"addr"`
		Password string        `mapstructure:"password" yaml:"password"`
		DB       int           `mapstructure:"db" yaml:"db"`
		Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
		LockTTL  time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
	} `mapstructure:"redis" yaml:"redis"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers" yaml:"brokers"`
		Topic   string   `mapstructure:"topic" yaml:"topic"`
	} `mapstructure:"kafka" yaml:"kafka"`

	Tracing struct {
		Host string `mapstructure:"host" yaml:"host"`
		Port int    `mapstructure:"port" yaml:"port"`
	} `mapstructure:"tracing" yaml:"tracing"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "grid_bot")
	v.SetDefault("service.log_level", "info")
	v.SetDefault("service.health_addr", ":8080")

	v.SetDefault("strategy.kind", "grid")
	v.SetDefault("strategy.percent_lost", "0")

	v.SetDefault("trader.mode", TraderPaper)
	v.SetDefault("trader.inst_id", "BTC-USDT")
	v.SetDefault("trader.commission", "0.001")
	v.SetDefault("trader.max_fill_parts", 1)
	v.SetDefault("trader.rate_limit_per_sec", 0)
	v.SetDefault("trader.okx.base_url", "https://www.okx.com")

	v.SetDefault("market.ws_url", "wss://ws.okx.com:8443/ws/v5/public")

	v.SetDefault("redis.prefix", "grid_bot:lock:")
	v.SetDefault("redis.lock_ttl", 30*time.Second)

	v.SetDefault("kafka.topic", "grid_bot.trades")
}

// NewConfig читает configs/$CONFIG_FILE (по умолчанию values_local.yaml).
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := getenvDefault(configFilePathENV, defaultConfigFile)
	return Load("configs/" + configFileName)
}

// Load читает yaml по пути, поверх накладывает GRID_* и секреты из окружения.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if token := os.Getenv(tokenTelegramENV); token != "" {
		cfg.Telegram.Token = token
	}
	cfg.Telegram.ChatID = int64FromEnv(chatTelegramENV, cfg.Telegram.ChatID)
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		cfg.DB = dsn
	}
	cfg.Trader.OKX.APIKey = getenvDefault(okxAPIKeyENV, cfg.Trader.OKX.APIKey)
	cfg.Trader.OKX.APISecret = getenvDefault(okxAPISecretENV, cfg.Trader.OKX.APISecret)
	cfg.Trader.OKX.Passphrase = getenvDefault(okxPassphraseENV, cfg.Trader.OKX.Passphrase)
	cfg.Redis.Addr = getenvDefault(redisAddrENV, cfg.Redis.Addr)
}

func (c *Config) Validate() error {
	switch c.Trader.Mode {
	case TraderPaper:
	case TraderOKX:
		if c.Trader.OKX.APIKey == "" || c.Trader.OKX.APISecret == "" || c.Trader.OKX.Passphrase == "" {
			return errors.New("config: okx trader requires api_key, api_secret and passphrase")
		}
	default:
		return fmt.Errorf("config: unknown trader.mode %q", c.Trader.Mode)
	}
	if c.Trader.InstID == "" {
		return errors.New("config: trader.inst_id is empty")
	}
	if len(c.Strategy.Range) != 2 {
		return fmt.Errorf("config: strategy.range must have 2 bounds, got %d", len(c.Strategy.Range))
	}
	if c.Trader.MaxFillParts < 0 {
		return errors.New("config: trader.max_fill_parts must be >= 0")
	}
	return nil
}

func int64FromEnv(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
