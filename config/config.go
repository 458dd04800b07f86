package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MQ       MQConfig       `mapstructure:"mq"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Booking  BookingConfig  `mapstructure:"booking"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port         int        `mapstructure:"port"`
	BaseURL      string     `mapstructure:"base_url"`
	CORS         CORSConfig `mapstructure:"cors"`
	MaxBodyBytes int64      `mapstructure:"max_body_bytes"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	Timezone        string        `mapstructure:"timezone"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	RoomTTL  time.Duration `mapstructure:"room_ttl"` // 教室目录缓存时长
}

// MQConfig RabbitMQ 配置，URL 为空时使用进程内事件分发
type MQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
	Prefetch int    `mapstructure:"prefetch"`
}

// Enabled 是否启用消息队列
func (c *MQConfig) Enabled() bool { return c.URL != "" }

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret               string        `mapstructure:"jwt_secret"`
	AccessTokenTTL          time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTLDefault  time.Duration `mapstructure:"refresh_token_ttl_default"`
	RefreshTokenTTLRemember time.Duration `mapstructure:"refresh_token_ttl_remember_me"`
	Cookie                  CookieConfig  `mapstructure:"cookie"`
}

// CookieConfig Cookie 安全配置
type CookieConfig struct {
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
	Domain   string `mapstructure:"domain"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BookingConfig 预约业务配置
type BookingConfig struct {
	Timezone      string `mapstructure:"timezone"`        // 日期与时刻的解释时区
	MaxSeriesDays int    `mapstructure:"max_series_days"` // 批量预约允许的最大日期跨度（天）
	UpcomingLimit int    `mapstructure:"upcoming_limit"`  // 仪表盘展示的近期预约条数
}

// Location 返回预约时区，非法时回退到 UTC
func (c *BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// defaults 未在配置文件与环境变量中出现时的取值；
// 环境变量只能覆盖这里登记过的键
var defaults = map[string]any{
	"server.port":               8080,
	"server.base_url":           "http://localhost:8080",
	"server.cors.allow_origins": []string{"http://localhost:5173"},
	"server.max_body_bytes":     1 << 20,

	"db.host":               "localhost",
	"db.port":               5432,
	"db.name":               "room_booking",
	"db.user":               "postgres",
	"db.password":           "",
	"db.sslmode":            "disable",
	"db.timezone":           "Africa/Lusaka",
	"db.max_open_conns":     25,
	"db.max_idle_conns":     10,
	"db.conn_max_lifetime":  "1h",
	"db.conn_max_idle_time": "30m",

	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,
	"redis.room_ttl": "5m",

	"mq.url":      "",
	"mq.exchange": "booking.events",
	"mq.queue":    "booking.notifications",
	"mq.prefetch": 8,

	"auth.jwt_secret":                    "",
	"auth.access_token_ttl":              "15m",
	"auth.refresh_token_ttl_default":     "24h",
	"auth.refresh_token_ttl_remember_me": "168h",
	"auth.cookie.secure":                 false,
	"auth.cookie.same_site":              "Lax",
	"auth.cookie.domain":                 "",

	"log.level":  "info",
	"log.format": "json",

	"booking.timezone":        "Africa/Lusaka",
	"booking.max_series_days": 180,
	"booking.upcoming_limit":  5,
}

// Load 读取配置，优先级：环境变量 > 配置文件 > 默认值。
// path 为空时在 ./config 与当前目录查找 config.yaml，找不到不算错误
func Load(path string) (*Config, error) {
	// .env 只在本地开发时存在
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("ROOMBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 一次性报告所有不合法的配置项
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(len(c.Auth.JWTSecret) >= 16, "auth.jwt_secret 长度不能少于 16 字符")
	check(c.Server.Port > 0 && c.Server.Port <= 65535, "server.port 必须在 1-65535 之间，当前 %d", c.Server.Port)
	_, tzErr := time.LoadLocation(c.Booking.Timezone)
	check(tzErr == nil, "booking.timezone 无效: %q", c.Booking.Timezone)
	check(c.Booking.MaxSeriesDays > 0, "booking.max_series_days 必须大于 0")
	switch strings.ToLower(c.Auth.Cookie.SameSite) {
	case "", "lax", "strict", "none":
	default:
		check(false, "auth.cookie.same_site 只能是 Lax、Strict 或 None")
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置校验失败: %w", errors.Join(errs...))
	}
	return nil
}
