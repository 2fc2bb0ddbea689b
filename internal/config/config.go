// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Ledger    LedgerConfig    `koanf:"ledger"`
	Redis     RedisConfig     `koanf:"redis"`
	Quest     QuestConfig     `koanf:"quest"`
	Reward    RewardConfig    `koanf:"reward"`
	Platform  PlatformConfig  `koanf:"platform"`
	Owner     OwnerConfig     `koanf:"owner"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LedgerConfig selects the user ledger backend. The "memory" driver keeps
// every record in-process; "postgres" stores the ledger in a database.
type LedgerConfig struct {
	Driver          string        `koanf:"driver"`
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled      bool   `koanf:"enabled"`
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// QuestConfig bounds one quest cycle: how many ads a cycle requires and how
// many cycles a non-VIP user may complete per calendar day.
type QuestConfig struct {
	AdsRequired int `koanf:"ads_required"`
	DailyLimit  int `koanf:"daily_limit"`
}

type RewardConfig struct {
	CodePrefix  string        `koanf:"code_prefix"`
	Cost        int           `koanf:"cost"`
	VIPCost     int           `koanf:"vip_cost"`
	VIPDuration time.Duration `koanf:"vip_duration"`
}

// PlatformConfig points at the game platform that answers identity and
// gamepass-ownership checks.
type PlatformConfig struct {
	BaseURL    string        `koanf:"base_url"`
	GamepassID string        `koanf:"gamepass_id"`
	Timeout    time.Duration `koanf:"timeout"`
}

type OwnerConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		k := koanf.New(".")

		if err := loadDefaults(k); err != nil {
			loadErr = fmt.Errorf("load defaults: %w", err)
			return
		}

		if configPath != "" {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				loadErr = fmt.Errorf("load config file: %w", err)
				return
			}
		}

		if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
			loadErr = fmt.Errorf("load env vars: %w", err)
			return
		}

		cfg = &Config{}
		if err := k.Unmarshal("", cfg); err != nil {
			loadErr = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		if err := validate(cfg); err != nil {
			loadErr = fmt.Errorf("validate config: %w", err)
			return
		}
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Blux Portal",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"ledger.driver":             "memory",
		"ledger.max_open_conns":     25,
		"ledger.max_idle_conns":     5,
		"ledger.conn_max_lifetime":  "1h",
		"ledger.conn_max_idle_time": "30m",

		"redis.enabled":        false,
		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"quest.ads_required": 15,
		"quest.daily_limit":  5,

		"reward.code_prefix":  "BLUX",
		"reward.cost":         10,
		"reward.vip_cost":     1,
		"reward.vip_duration": "720h",

		"platform.base_url": "https://api.bluxgames.example",
		"platform.timeout":  "5s",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "blux-portal",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"LEDGER_DRIVER":        "ledger.driver",
	"LEDGER_URL":           "ledger.url",
	"DATABASE_URL":         "ledger.url",
	"REDIS_ENABLED":        "redis.enabled",
	"REDIS_URL":            "redis.url",
	"ENVIRONMENT":          "app.environment",
	"HOST":                 "server.host",
	"PORT":                 "server.port",
	"LOG_LEVEL":            "log.level",
	"LOG_FORMAT":           "log.format",
	"QUEST_ADS_REQUIRED":   "quest.ads_required",
	"QUEST_DAILY_LIMIT":    "quest.daily_limit",
	"REWARD_CODE_PREFIX":   "reward.code_prefix",
	"REWARD_COST":          "reward.cost",
	"REWARD_VIP_COST":      "reward.vip_cost",
	"REWARD_VIP_DURATION":  "reward.vip_duration",
	"PLATFORM_BASE_URL":    "platform.base_url",
	"PLATFORM_GAMEPASS_ID": "platform.gamepass_id",
	"PLATFORM_TIMEOUT":     "platform.timeout",
	"OWNER_USERNAME":       "owner.username",
	"OWNER_PASSWORD":       "owner.password",
	"RATE_LIMIT_REQUESTS":  "rate_limit.requests",
	"RATE_LIMIT_WINDOW":    "rate_limit.window",
	"RATE_LIMIT_BURST":     "rate_limit.burst",
	"OTEL_ENDPOINT":        "otel.endpoint",
	"OTEL_SERVICE_NAME":    "otel.service_name",
	"OTEL_ENABLED":         "otel.enabled",
	"OTEL_INSECURE":        "otel.insecure",
	"OTEL_SAMPLE_RATE":     "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	switch c.Ledger.Driver {
	case "memory":
	case "postgres":
		if c.Ledger.URL == "" {
			return fmt.Errorf("LEDGER_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown ledger driver %q", c.Ledger.Driver)
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when redis is enabled")
	}

	if c.Quest.AdsRequired <= 0 {
		return fmt.Errorf("quest.ads_required must be positive")
	}

	if c.Quest.DailyLimit <= 0 {
		return fmt.Errorf("quest.daily_limit must be positive")
	}

	if c.Reward.Cost <= 0 || c.Reward.VIPCost <= 0 {
		return fmt.Errorf("reward costs must be positive")
	}

	if c.Reward.VIPCost > c.Reward.Cost {
		return fmt.Errorf("reward.vip_cost cannot exceed reward.cost")
	}

	if c.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url is required")
	}

	if c.Owner.Username != "" && c.Owner.Password == "" {
		return fmt.Errorf("OWNER_PASSWORD is required when owner.username is set")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
