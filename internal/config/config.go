package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
	Fee      FeeConfig      `mapstructure:"fee"`
}

type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	Mode       string `mapstructure:"mode"`
	JWTSecret  string `mapstructure:"jwt_secret"`
	CronSecret string `mapstructure:"cron_secret"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogSQL       bool   `mapstructure:"log_sql"`
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	OrderEvent  string `mapstructure:"order_event"`
	WalletEvent string `mapstructure:"wallet_event"`
}

type BusinessConfig struct {
	AutoCompleteAfter time.Duration `mapstructure:"auto_complete_after"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	SweepBatchSize    int           `mapstructure:"sweep_batch_size"`
	OutboxInterval    time.Duration `mapstructure:"outbox_interval"`
	MaxRetryCount     int           `mapstructure:"max_retry_count"`
}

// FeeConfig is the fallback fee policy used until an admin saves a site setting.
type FeeConfig struct {
	NormalFeeRate    string `mapstructure:"normal_fee_rate"`
	ThresholdAmount  int64  `mapstructure:"threshold_amount"`
	ThresholdFeeRate string `mapstructure:"threshold_fee_rate"`
}

func (f FeeConfig) NormalRate() decimal.Decimal {
	return decimal.RequireFromString(f.NormalFeeRate)
}

func (f FeeConfig) ThresholdRate() decimal.Decimal {
	return decimal.RequireFromString(f.ThresholdFeeRate)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.jwt_secret", "")
	v.SetDefault("server.cron_secret", "")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.log_sql", false)
	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "marketplace")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic.order_event", "market.order.event")
	v.SetDefault("kafka.topic.wallet_event", "market.wallet.event")
	v.SetDefault("business.auto_complete_after", 24*time.Hour)
	v.SetDefault("business.sweep_interval", 15*time.Minute)
	v.SetDefault("business.sweep_batch_size", 200)
	v.SetDefault("business.outbox_interval", time.Second)
	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("fee.normal_fee_rate", "0.5")
	v.SetDefault("fee.threshold_amount", 1000000)
	v.SetDefault("fee.threshold_fee_rate", "0.3")
}

// LoadConfig reads the yaml file at configPath and applies MARKET_* environment
// overrides. An empty path skips the file and uses defaults plus MARKET_* environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if _, err := decimal.NewFromString(c.Fee.NormalFeeRate); err != nil {
		return fmt.Errorf("fee.normal_fee_rate: %w", err)
	}
	if _, err := decimal.NewFromString(c.Fee.ThresholdFeeRate); err != nil {
		return fmt.Errorf("fee.threshold_fee_rate: %w", err)
	}
	if c.Business.AutoCompleteAfter <= 0 {
		return fmt.Errorf("business.auto_complete_after must be positive")
	}
	if c.Business.SweepInterval <= 0 {
		return fmt.Errorf("business.sweep_interval must be positive")
	}
	return nil
}
