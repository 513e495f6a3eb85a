package config

import (
	"time"

	pkgconfig "github.com/weiawesome/wes-io-live/chatroom-service/pkg/config"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Events    pubsub.Config
	Reaper    ReaperConfig
	Chat      ChatConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	URL             string `mapstructure:"url"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// RedisConfig is optional; an empty address disables the participant cache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type CacheConfig struct {
	Prefix string
	TTL    time.Duration
}

type ReaperConfig struct {
	Interval    time.Duration
	StaleAfter  time.Duration `mapstructure:"stale_after"`
	Concurrency int
}

type ChatConfig struct {
	NamePolicy string `mapstructure:"name_policy"`
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type LogConfig struct {
	Level string
}

// Load reads config/config.yaml (or $CONFIG_PATH/config.yaml), a .env file
// and the environment, in that order of precedence from lowest to highest.
func Load() (*Config, error) {
	v, err := pkgconfig.Load(pkgconfig.Options{
		Dir:      pkgconfig.GetEnv("CONFIG_PATH", "./config"),
		Name:     "config",
		Defaults: defaults(),
		Env:      envBindings,
	})
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Cache.TTL = clampCacheTTL(cfg.Cache.TTL, cfg.Reaper.StaleAfter)

	// The event bus shares the Redis connection settings.
	cfg.Events.Redis.Address = cfg.Redis.Address
	cfg.Events.Redis.Password = cfg.Redis.Password
	cfg.Events.Redis.DB = cfg.Redis.DB

	return &cfg, nil
}

// clampCacheTTL caps the participant list TTL at a quarter of the staleness
// window. A listing cached just before a membership change, or one carrying
// an old lastStatus, then lives for a small fraction of the window only.
func clampCacheTTL(ttl, staleAfter time.Duration) time.Duration {
	if staleAfter <= 0 {
		return ttl
	}
	if limit := staleAfter / 4; ttl > limit {
		return limit
	}
	return ttl
}

func defaults() map[string]interface{} {
	events := pubsub.DefaultConfig()

	return map[string]interface{}{
		"server.host":                "0.0.0.0",
		"server.port":                5000,
		"database.driver":            "postgres",
		"database.url":               "",
		"database.host":              "localhost",
		"database.port":              5432,
		"database.user":              "postgres",
		"database.password":          "postgres",
		"database.dbname":            "chatroom",
		"database.sslmode":           "disable",
		"database.file_path":         "./data/chatroom.db",
		"database.max_idle_conns":    10,
		"database.max_open_conns":    100,
		"database.conn_max_lifetime": 60,
		"database.log_level":         "warn",
		"redis.address":              "",
		"redis.password":             "",
		"redis.db":                   0,
		"cache.prefix":               "chatroom",
		"cache.ttl":                  2 * time.Second,
		"events.driver":              events.Driver,
		"events.channel":             events.Channel,
		"events.redis.pool_size":     events.Redis.PoolSize,
		"events.redis.read_timeout":  events.Redis.ReadTimeout,
		"events.redis.write_timeout": events.Redis.WriteTimeout,
		"events.kafka.brokers":       "",
		"events.kafka.partitions":    events.Kafka.Partitions,
		"reaper.interval":            15 * time.Second,
		"reaper.stale_after":         10 * time.Second,
		"reaper.concurrency":         4,
		"chat.name_policy":           "alphanumeric",
		"rate_limit.rps":             5,
		"rate_limit.burst":           10,
		"log.level":                  "info",
	}
}

// envBindings lists the variables that do not follow the KEY_SUBKEY naming.
var envBindings = map[string]string{
	"server.port":                "PORT",
	"database.driver":            "DB_DRIVER",
	"database.url":               "DATABASE_URL",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASSWORD",
	"database.dbname":            "DB_NAME",
	"database.sslmode":           "DB_SSLMODE",
	"database.file_path":         "DB_FILE_PATH",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"database.log_level":         "DB_LOG_LEVEL",
	"redis.address":              "REDIS_ADDRESS",
	"redis.password":             "REDIS_PASSWORD",
	"redis.db":                   "REDIS_DB",
	"cache.ttl":                  "CACHE_TTL",
	"events.driver":              "EVENTS_DRIVER",
	"events.channel":             "EVENTS_CHANNEL",
	"events.kafka.brokers":       "KAFKA_BROKERS",
	"reaper.interval":            "REAPER_INTERVAL",
	"reaper.stale_after":         "REAPER_STALE_AFTER",
	"reaper.concurrency":         "REAPER_CONCURRENCY",
	"chat.name_policy":           "NAME_POLICY",
	"rate_limit.rps":             "RATE_LIMIT_RPS",
	"rate_limit.burst":           "RATE_LIMIT_BURST",
	"log.level":                  "LOG_LEVEL",
}
