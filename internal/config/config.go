package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	// 会话令牌固定7天有效期，验签与过期之外没有任何服务端撤销机制
	ExpireTime time.Duration `mapstructure:"-"`
}

type StorageConfig struct {
	Type           string `mapstructure:"type"`
	LocalPath      string `mapstructure:"local_path"`
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessID  string `mapstructure:"minio_access_key"`
	MinioSecret    string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`
	OSSEndpoint    string `mapstructure:"oss_endpoint"`
	OSSAccessKey   string `mapstructure:"oss_access_key"`
	OSSSecretKey   string `mapstructure:"oss_secret_key"`
	OSSBucket      string `mapstructure:"oss_bucket"`
	PresignMinutes int    `mapstructure:"presign_minutes"`
}

type RedisConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Host     string
	Port     int
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// SessionTokenTTL 会话令牌有效期
const SessionTokenTTL = 7 * 24 * time.Hour

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("LMS")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Session
	viper.BindEnv("jwt.secret", "SESSION_SECRET")

	// Redis
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")
	viper.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	viper.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	viper.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	viper.BindEnv("storage.oss_bucket", "OSS_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = SessionTokenTTL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// Validate 启动前校验必填配置。缺失项一次性全部列出，而不是在第一个缺失处停下，
// 避免进程在半配置状态下启动
func (c *Config) Validate() error {
	var missing []string

	if c.Server.Port == "" {
		missing = append(missing, "server.port (LMS_SERVER_PORT)")
	}
	if c.Database.Host == "" {
		missing = append(missing, "database.host (LMS_DATABASE_HOST)")
	}
	if c.Database.Port == 0 {
		missing = append(missing, "database.port (LMS_DATABASE_PORT)")
	}
	if c.Database.User == "" {
		missing = append(missing, "database.user (LMS_DATABASE_USER)")
	}
	if c.Database.DBName == "" {
		missing = append(missing, "database.dbname (LMS_DATABASE_NAME)")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "jwt.secret (LMS_SESSION_SECRET)")
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.LocalPath == "" {
			missing = append(missing, "storage.local_path")
		}
	case "minio":
		if c.Storage.MinioEndpoint == "" {
			missing = append(missing, "storage.minio_endpoint (LMS_MINIO_ENDPOINT)")
		}
		if c.Storage.MinioAccessID == "" {
			missing = append(missing, "storage.minio_access_key (LMS_MINIO_ACCESS_KEY)")
		}
		if c.Storage.MinioSecret == "" {
			missing = append(missing, "storage.minio_secret_key (LMS_MINIO_SECRET_KEY)")
		}
		if c.Storage.MinioBucket == "" {
			missing = append(missing, "storage.minio_bucket (LMS_MINIO_BUCKET)")
		}
	case "oss":
		if c.Storage.OSSEndpoint == "" {
			missing = append(missing, "storage.oss_endpoint (LMS_OSS_ENDPOINT)")
		}
		if c.Storage.OSSAccessKey == "" {
			missing = append(missing, "storage.oss_access_key (LMS_OSS_ACCESS_KEY)")
		}
		if c.Storage.OSSSecretKey == "" {
			missing = append(missing, "storage.oss_secret_key (LMS_OSS_SECRET_KEY)")
		}
		if c.Storage.OSSBucket == "" {
			missing = append(missing, "storage.oss_bucket (LMS_OSS_BUCKET)")
		}
	default:
		missing = append(missing, fmt.Sprintf("storage.type must be one of local/minio/oss, got %q", c.Storage.Type))
	}

	if len(missing) > 0 {
		return fmt.Errorf("invalid configuration, missing or invalid: %s", strings.Join(missing, "; "))
	}

	// 生产环境校验会话密钥强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("session secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}

	return nil
}
