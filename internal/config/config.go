package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Platforms PlatformsConfig `mapstructure:"platforms"`
	Sync      SyncConfig      `mapstructure:"sync"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool `mapstructure:"-"`
	SweepOnce   bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
	// 手动刷新接口按用户限流
	SyncPerUserPerHour int `mapstructure:"sync_per_user_per_hour"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql | sqlite
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Charset      string
	ParseTime    bool
	Path         string `mapstructure:"path"` // sqlite 文件路径
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
	// 缓存过期时间（秒）
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// PlatformsConfig 外部刷题平台的上游地址与调用限制
type PlatformsConfig struct {
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	UserAgent      string            `mapstructure:"user_agent"`
	// 单个平台所有来源加重试的总时长上限，0 表示 来源数 x 单次超时
	BudgetSeconds  int               `mapstructure:"budget_seconds"`
	LeetCode       LeetCodeConfig    `mapstructure:"leetcode"`
	Codeforces     CodeforcesConfig  `mapstructure:"codeforces"`
	CodeChef       CodeChefConfig    `mapstructure:"codechef"`
	Retry          RetryPolicyConfig `mapstructure:"retry"`
	RequestsPerMin map[string]int    `mapstructure:"requests_per_min"`
}

type LeetCodeConfig struct {
	GraphQLURL  string `mapstructure:"graphql_url"`
	AlfaAPIURL  string `mapstructure:"alfa_api_url"`
	StatsAPIURL string `mapstructure:"stats_api_url"`
}

type CodeforcesConfig struct {
	APIURL     string `mapstructure:"api_url"`
	ProfileURL string `mapstructure:"profile_url"`
}

type CodeChefConfig struct {
	ProfileURL string `mapstructure:"profile_url"`
	APIURL     string `mapstructure:"api_url"`
}

type RetryPolicyConfig struct {
	MaxAttempts  int `mapstructure:"max_attempts"`
	MinBackoffMS int `mapstructure:"min_backoff_ms"`
	MaxBackoffMS int `mapstructure:"max_backoff_ms"`
}

// SyncConfig 同步编排相关参数
type SyncConfig struct {
	Timezone             string            `mapstructure:"timezone"`
	Workers              int               `mapstructure:"workers"`
	StreakWindowDays     int               `mapstructure:"streak_window_days"`
	SweepIntervalMinutes int               `mapstructure:"sweep_interval_minutes"`
	ActiveWithinDays     int               `mapstructure:"active_within_days"`
	CommitRetry          RetryPolicyConfig `mapstructure:"commit_retry"`
}

func (c PlatformsConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c PlatformsConfig) Budget() time.Duration {
	if c.BudgetSeconds <= 0 {
		return 0
	}
	return time.Duration(c.BudgetSeconds) * time.Second
}

func (c RetryPolicyConfig) MinBackoff() time.Duration {
	return time.Duration(c.MinBackoffMS) * time.Millisecond
}

func (c RetryPolicyConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffMS) * time.Millisecond
}

// Location 返回用于划分“自然日”的时区，解析失败时退回 UTC
func (c SyncConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.path", "data/codepulse.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("jwt.expire_hours", 72)

	v.SetDefault("redis.cache_ttl_seconds", 300)

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.sync_per_user_per_hour", 30)

	v.SetDefault("platforms.timeout_seconds", 20)
	v.SetDefault("platforms.user_agent", "codepulse-sync/1.0")
	v.SetDefault("platforms.leetcode.graphql_url", "https://leetcode.com/graphql")
	v.SetDefault("platforms.leetcode.alfa_api_url", "https://alfa-leetcode-api.onrender.com")
	v.SetDefault("platforms.leetcode.stats_api_url", "https://leetcode-stats-api.herokuapp.com")
	v.SetDefault("platforms.codeforces.api_url", "https://codeforces.com/api")
	v.SetDefault("platforms.codeforces.profile_url", "https://codeforces.com/profile")
	v.SetDefault("platforms.codechef.profile_url", "https://www.codechef.com/users")
	v.SetDefault("platforms.codechef.api_url", "https://codechef-api.vercel.app/handle")
	v.SetDefault("platforms.retry.max_attempts", 2)
	v.SetDefault("platforms.retry.min_backoff_ms", 500)
	v.SetDefault("platforms.retry.max_backoff_ms", 3000)
	v.SetDefault("platforms.requests_per_min", map[string]int{
		"leetcode":   30,
		"codeforces": 30,
		"codechef":   20,
	})

	v.SetDefault("sync.timezone", "UTC")
	v.SetDefault("sync.workers", 4)
	v.SetDefault("sync.streak_window_days", 45)
	v.SetDefault("sync.sweep_interval_minutes", 360)
	v.SetDefault("sync.active_within_days", 30)
	v.SetDefault("sync.commit_retry.max_attempts", 1)
	v.SetDefault("sync.commit_retry.min_backoff_ms", 200)
	v.SetDefault("sync.commit_retry.max_backoff_ms", 1000)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CODEPULSE")
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")
	v.BindEnv("database.path", "DATABASE_PATH")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Sync
	v.BindEnv("sync.timezone", "SYNC_TIMEZONE")
	v.BindEnv("sync.workers", "SYNC_WORKERS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Sync.Workers <= 0 {
		cfg.Sync.Workers = 1
	}
	if cfg.Sync.StreakWindowDays <= 0 {
		cfg.Sync.StreakWindowDays = 45
	}

	return &cfg, nil
}
