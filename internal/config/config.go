package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	NATS      NATSConfig
	LLM       LLMConfig
	Dialogue  DialogueConfig
	History   HistoryConfig
	RateLimit RateLimitConfig
	XMPP      XMPPConfig
	CORS      CORSConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	MigrationsPath string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig only carries the verification side: tokens are minted by the
// storefront's account service.
type JWTConfig struct {
	AccessSecret string
	Issuer       string
}

// NATSConfig is optional. An empty URL disables turn events and the XMPP bus.
type NATSConfig struct {
	URL string
}

func (c NATSConfig) Enabled() bool {
	return c.URL != ""
}

type LLMConfig struct {
	APIKey              string
	BaseURL             string
	Model               string
	ClassifyTimeout     time.Duration
	ChatTimeout         time.Duration
	ClassifyTemperature float32
	ChatTemperature     float32
	RateLimit           float64
	RateBurst           int
	UserBudgetPerMinute int
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

type DialogueConfig struct {
	ConfidenceThreshold float64
	HistoryWindow       int
	ContextTTL          time.Duration
	MaxMessageLength    int
}

type HistoryConfig struct {
	Driver     string
	SQLitePath string
}

type RateLimitConfig struct {
	ChatMax       int
	ChatWindowSec int
}

type XMPPConfig struct {
	Enabled         bool
	ComponentName   string
	ComponentSecret string
	ServerHost      string
	ComponentPort   int
	AllowedDomains  []string
}

func (c XMPPConfig) ComponentAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ComponentPort)
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           k.String("server.host"),
			Port:           k.Int("server.port"),
			MigrationsPath: k.String("migrations.path"),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		JWT: JWTConfig{
			AccessSecret: k.String("jwt.access.secret"),
			Issuer:       k.String("jwt.issuer"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		LLM: LLMConfig{
			APIKey:              k.String("llm.api.key"),
			BaseURL:             k.String("llm.base.url"),
			Model:               k.String("llm.model"),
			ClassifyTemperature: float32(k.Float64("llm.classify.temperature")),
			ChatTemperature:     float32(k.Float64("llm.chat.temperature")),
			RateLimit:           k.Float64("llm.rate.limit"),
			RateBurst:           k.Int("llm.rate.burst"),
			UserBudgetPerMinute: k.Int("llm.user.budget"),
		},
		Dialogue: DialogueConfig{
			ConfidenceThreshold: k.Float64("dialogue.confidence.threshold"),
			HistoryWindow:       k.Int("dialogue.history.window"),
			MaxMessageLength:    k.Int("dialogue.max.message.length"),
		},
		History: HistoryConfig{
			Driver:     k.String("history.driver"),
			SQLitePath: k.String("history.sqlite.path"),
		},
		RateLimit: RateLimitConfig{
			ChatMax:       k.Int("ratelimit.chat.max"),
			ChatWindowSec: k.Int("ratelimit.chat.window"),
		},
		XMPP: XMPPConfig{
			Enabled:         k.Bool("xmpp.enabled"),
			ComponentName:   k.String("xmpp.component.name"),
			ComponentSecret: k.String("xmpp.component.secret"),
			ServerHost:      k.String("xmpp.server.host"),
			ComponentPort:   k.Int("xmpp.component.port"),
			AllowedDomains:  splitList(k.String("xmpp.allowed.domains")),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(k.String("cors.allowed.origins")),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MigrationsPath == "" {
		cfg.Server.MigrationsPath = "migrations"
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "shopassist"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "shopassist"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "shop"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.ClassifyTemperature == 0 {
		cfg.LLM.ClassifyTemperature = 0.3
	}
	if cfg.LLM.ChatTemperature == 0 {
		cfg.LLM.ChatTemperature = 0.7
	}
	if cfg.LLM.RateLimit == 0 {
		cfg.LLM.RateLimit = 5
	}
	if cfg.LLM.RateBurst == 0 {
		cfg.LLM.RateBurst = 10
	}
	if cfg.LLM.UserBudgetPerMinute == 0 {
		cfg.LLM.UserBudgetPerMinute = 30
	}
	if cfg.Dialogue.ConfidenceThreshold == 0 {
		cfg.Dialogue.ConfidenceThreshold = 0.7
	}
	if cfg.Dialogue.HistoryWindow == 0 {
		cfg.Dialogue.HistoryWindow = 10
	}
	if cfg.Dialogue.MaxMessageLength == 0 {
		cfg.Dialogue.MaxMessageLength = 2000
	}
	if cfg.History.Driver == "" {
		cfg.History.Driver = "postgres"
	}
	if cfg.History.SQLitePath == "" {
		cfg.History.SQLitePath = "shopassist-history.db"
	}
	if cfg.RateLimit.ChatMax == 0 {
		cfg.RateLimit.ChatMax = 30
	}
	if cfg.RateLimit.ChatWindowSec == 0 {
		cfg.RateLimit.ChatWindowSec = 60
	}
	if cfg.XMPP.ComponentName == "" {
		cfg.XMPP.ComponentName = "assistant.shop.local"
	}
	if cfg.XMPP.ServerHost == "" {
		cfg.XMPP.ServerHost = "localhost"
	}
	if cfg.XMPP.ComponentPort == 0 {
		cfg.XMPP.ComponentPort = 5275
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	cfg.LLM.ClassifyTimeout, err = parseDuration(k, "llm.classify.timeout", "8s")
	if err != nil {
		return nil, fmt.Errorf("parsing llm classify timeout: %w", err)
	}
	cfg.LLM.ChatTimeout, err = parseDuration(k, "llm.chat.timeout", "20s")
	if err != nil {
		return nil, fmt.Errorf("parsing llm chat timeout: %w", err)
	}
	cfg.Dialogue.ContextTTL, err = parseDuration(k, "dialogue.context.ttl", "24h")
	if err != nil {
		return nil, fmt.Errorf("parsing dialogue context ttl: %w", err)
	}

	return cfg, nil
}

func parseDuration(k *koanf.Koanf, key, def string) (time.Duration, error) {
	s := k.String(key)
	if s == "" {
		s = def
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
