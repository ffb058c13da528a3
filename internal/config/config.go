package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Game     GameConfig     `mapstructure:"game"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`
}

// GameConfig 牌局会话
type GameConfig struct {
	MaxGames      int           `mapstructure:"max_games"`
	EvictTimeout  time.Duration `mapstructure:"evict_timeout"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
	UndoLimit     int           `mapstructure:"undo_limit"`
	RulesFile     string        `mapstructure:"rules_file"`
	DefaultPreset string        `mapstructure:"default_preset"`
}

// AnalysisConfig 评分、听牌、图片识别服务
type AnalysisConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ImageTimeout time.Duration `mapstructure:"image_timeout"`
	CacheSize    int           `mapstructure:"cache_size"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type WorkerConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN PostgreSQL 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr Redis 地址
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "kifu")
	v.SetDefault("app.port", 8090)
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("game.max_games", 1000)
	v.SetDefault("game.evict_timeout", 2*time.Hour)
	v.SetDefault("game.evict_interval", time.Minute)
	v.SetDefault("game.undo_limit", 200)
	v.SetDefault("game.default_preset", "default")

	v.SetDefault("analysis.base_url", "http://localhost:8000")
	v.SetDefault("analysis.timeout", 5*time.Second)
	v.SetDefault("analysis.image_timeout", 30*time.Second)
	v.SetDefault("analysis.cache_size", 4096)
	v.SetDefault("analysis.cache_ttl", 24*time.Hour)

	v.SetDefault("worker.workers", 4)
	v.SetDefault("worker.queue_size", 256)

	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.subject_prefix", "kifu")
}

// Load 从指定路径加载配置，再用环境变量覆盖
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 从环境变量覆盖配置
	cfg.applyEnv()

	return &cfg, nil
}

// applyEnv 从环境变量覆盖配置
func (c *Config) applyEnv() {
	// App
	c.App.Port = GetEnvInt("KIFU_PORT", c.App.Port)
	c.App.Mode = GetEnv("KIFU_MODE", c.App.Mode)
	c.App.LogLevel = GetEnv("KIFU_LOG_LEVEL", c.App.LogLevel)

	// Analysis
	c.Analysis.BaseURL = GetEnv("ANALYSIS_BASE_URL", c.Analysis.BaseURL)
	c.Analysis.Timeout = GetEnvDuration("ANALYSIS_TIMEOUT", c.Analysis.Timeout)

	// Database
	c.Database.Enabled = GetEnvBool("POSTGRES_ENABLED", c.Database.Enabled)
	c.Database.Host = GetEnv("POSTGRES_HOST", c.Database.Host)
	c.Database.Port = GetEnvInt("POSTGRES_PORT", c.Database.Port)
	c.Database.User = GetEnv("POSTGRES_USER", c.Database.User)
	c.Database.Password = GetEnv("POSTGRES_PASSWORD", c.Database.Password)
	c.Database.Name = GetEnv("POSTGRES_DB", c.Database.Name)

	// Redis
	c.Redis.Enabled = GetEnvBool("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Host = GetEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = GetEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = GetEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = GetEnvInt("REDIS_DB", c.Redis.DB)

	// NATS
	c.NATS.Enabled = GetEnvBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.URL = GetEnv("NATS_URL", c.NATS.URL)
}
