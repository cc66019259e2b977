package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig 数据存储方式: memory(演示) / postgres
type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	Seed          bool   `mapstructure:"seed"`
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	LogLevel        string        `mapstructure:"log_level"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN postgres 连接串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
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

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// UploadConfig 未配置 MinIO 时使用本地目录
type UploadConfig struct {
	Dir       string `mapstructure:"dir"`
	URLPrefix string `mapstructure:"url_prefix"`
	MaxSizeMB int64  `mapstructure:"max_size_mb"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	Issuer          string        `mapstructure:"issuer"`
	TokenExpire     time.Duration `mapstructure:"token_expire"`
	MockTokenPrefix string        `mapstructure:"mock_token_prefix"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 加载配置；path 为空时按默认目录查找 config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// 显式指定的文件不存在同样视为错误
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.seed", true)
	v.SetDefault("storage.admin_email", "admin@gajrajah.com")
	v.SetDefault("storage.admin_password", "admin123")

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "crm")
	v.SetDefault("database.dbname", "gajrajah_crm")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 10*time.Minute)

	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("minio.bucket", "crm-files")

	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.url_prefix", "/uploads")
	v.SetDefault("upload.max_size_mb", 20)

	v.SetDefault("auth.jwt_secret", "gajrajah-crm-dev-secret")
	v.SetDefault("auth.issuer", "gajrajah-crm")
	v.SetDefault("auth.token_expire", 24*time.Hour)
	v.SetDefault("auth.mock_token_prefix", "mock_jwt_token")

	v.SetDefault("rate_limit.limit", 300)
	v.SetDefault("rate_limit.interval", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.seed", "STORAGE_SEED")
	v.BindEnv("storage.admin_password", "ADMIN_PASSWORD")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// MinIO
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.mock_token_prefix", "MOCK_TOKEN_PREFIX")
}
