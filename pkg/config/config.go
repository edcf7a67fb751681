package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Storage StorageConfig `mapstructure:"storage"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Session SessionConfig `mapstructure:"session"`
	Export  ExportConfig  `mapstructure:"export"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig describes the gRPC health listener and the name the
// instance registers under in etcd.
type ServerConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	Channel  string `mapstructure:"channel"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type MongoDBConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type GatewayConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig selects the key-value backend that stands in for browser
// local storage. Driver is one of "memory", "redis" or "etcd".
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	Prefix     string `mapstructure:"prefix"`
	CartKey    string `mapstructure:"cart_key"`
	OrdersKey  string `mapstructure:"orders_key"`
	OrderIDKey string `mapstructure:"order_id_key"`
}

type PricingConfig struct {
	TaxRate     string `mapstructure:"tax_rate"`
	DeliveryFee string `mapstructure:"delivery_fee"`
	Currency    string `mapstructure:"currency"`
}

type SessionConfig struct {
	AutoClose time.Duration `mapstructure:"auto_close"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// CatalogConfig selects where the menu comes from: "static" or "mysql".
type CatalogConfig struct {
	Source string `mapstructure:"source"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "storefront")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 50061)
	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("gateway.port", 8080)
	v.SetDefault("gateway.request_timeout", 5*time.Second)
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.prefix", "/services/")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.channel", "ck:changes")
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.cart_key", "ck.cart.v1")
	v.SetDefault("storage.orders_key", "ck.orders.v1")
	v.SetDefault("storage.order_id_key", "ck.lastOrderId.v1")
	v.SetDefault("pricing.tax_rate", "0.18")
	v.SetDefault("pricing.delivery_fee", "45")
	v.SetDefault("pricing.currency", "₹")
	v.SetDefault("session.auto_close", 30*time.Second)
	v.SetDefault("export.dir", "exports")
	v.SetDefault("catalog.source", "static")
	v.SetDefault("mongodb.collection", "audit_logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})
}

// Load reads the YAML file at configPath. Any key can be overridden from the
// environment with the CK_ prefix, e.g. CK_STORAGE_DRIVER=redis.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("ck")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Defaults always decode.
	_ = v.Unmarshal(&config)
	return &config
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "redis", "etcd":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Catalog.Source {
	case "static", "mysql":
	default:
		return fmt.Errorf("unknown catalog source %q", c.Catalog.Source)
	}
	if _, _, err := c.Pricing.Rates(); err != nil {
		return err
	}
	if c.Session.AutoClose <= 0 {
		return fmt.Errorf("session.auto_close must be positive, got %s", c.Session.AutoClose)
	}
	return nil
}

// Rates parses the tax rate and delivery fee.
func (c *PricingConfig) Rates() (decimal.Decimal, decimal.Decimal, error) {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid pricing.tax_rate %q: %w", c.TaxRate, err)
	}
	fee, err := decimal.NewFromString(c.DeliveryFee)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid pricing.delivery_fee %q: %w", c.DeliveryFee, err)
	}
	if rate.IsNegative() || fee.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("pricing values must not be negative")
	}
	return rate, fee, nil
}

// Key returns key namespaced with the storage prefix.
func (c *StorageConfig) Key(key string) string {
	if c.Prefix == "" {
		return key
	}
	return c.Prefix + ":" + key
}

// TerminalKey namespaces a per-terminal key such as the cart.
func (c *StorageConfig) TerminalKey(terminal, key string) string {
	return c.Key(terminal + ":" + key)
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// Build constructs a zap logger from the log section.
func (c *LogConfig) Build() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		zc.Level = level
	}
	if c.Encoding != "" {
		zc.Encoding = c.Encoding
	}
	if len(c.OutputPaths) > 0 {
		zc.OutputPaths = c.OutputPaths
	}
	return zc.Build()
}
