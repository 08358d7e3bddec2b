package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
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

type RedisConfig struct {
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

// SchedulerConfig 后台任务节奏，全部可调但默认值即生产值
type SchedulerConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	OpenIntervalMinutes   int  `mapstructure:"open_interval_minutes"`
	ExpiryIntervalMinutes int  `mapstructure:"expiry_interval_minutes"`
	FinalizerIntervalMin  int  `mapstructure:"finalizer_interval_minutes"`
	MaintenanceHour       int  `mapstructure:"maintenance_hour"`
	MaintenanceMinute     int  `mapstructure:"maintenance_minute"`
	SafetyPassHour        int  `mapstructure:"safety_pass_hour"`
	SafetyPassMinute      int  `mapstructure:"safety_pass_minute"`
	WeeklyGenHour         int  `mapstructure:"weekly_gen_hour"`
	WeeklyGenMinute       int  `mapstructure:"weekly_gen_minute"`
}

// OpenInterval 默认 10 分钟
func (c SchedulerConfig) OpenInterval() time.Duration {
	if c.OpenIntervalMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.OpenIntervalMinutes) * time.Minute
}

// ExpiryInterval 默认 15 分钟
func (c SchedulerConfig) ExpiryInterval() time.Duration {
	if c.ExpiryIntervalMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.ExpiryIntervalMinutes) * time.Minute
}

// FinalizerInterval 默认 1 小时
func (c SchedulerConfig) FinalizerInterval() time.Duration {
	if c.FinalizerIntervalMin <= 0 {
		return time.Hour
	}
	return time.Duration(c.FinalizerIntervalMin) * time.Minute
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("SCHOOL_EDU")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

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

	return &cfg, nil
}
