package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Services      ServicesConfig      `mapstructure:"services"`
	QR            QRConfig            `mapstructure:"qr"`
	Checkout      CheckoutConfig      `mapstructure:"checkout"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	InstanceID    string              `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// ServicesConfig points at the backend services the gateway fronts.
type ServicesConfig struct {
	PaymentURL string        `mapstructure:"payment_url"`
	OrderURL   string        `mapstructure:"order_url"`
	ProductURL string        `mapstructure:"product_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// QRConfig bounds the QR poll loop and lifetime.
type QRConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollAttempts int           `mapstructure:"max_poll_attempts"`
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
}

// CheckoutConfig identifies the merchant a sale is recorded for.
type CheckoutConfig struct {
	MerchantID string `mapstructure:"merchant_id"`
	Currency   string `mapstructure:"currency"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("QRPAY")
	v.AutomaticEnv()

	// Config file is optional
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/qrpay")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Services.PaymentURL == "" {
		errs = append(errs, fmt.Errorf("services.payment_url is required"))
	}
	if c.Services.OrderURL == "" {
		errs = append(errs, fmt.Errorf("services.order_url is required"))
	}
	if c.Services.ProductURL == "" {
		errs = append(errs, fmt.Errorf("services.product_url is required"))
	}
	if c.Services.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("services.timeout must be positive"))
	}
	if c.QR.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("qr.poll_interval must be positive"))
	}
	if c.QR.MaxPollAttempts <= 0 {
		errs = append(errs, fmt.Errorf("qr.max_poll_attempts must be positive"))
	}
	if c.QR.DefaultTTL <= 0 {
		errs = append(errs, fmt.Errorf("qr.default_ttl must be positive"))
	}
	if c.Checkout.MerchantID == "" {
		errs = append(errs, fmt.Errorf("checkout.merchant_id is required"))
	}
	if c.Checkout.Currency == "" {
		errs = append(errs, fmt.Errorf("checkout.currency is required"))
	}
	if c.Redis.Port <= 0 {
		errs = append(errs, fmt.Errorf("redis.port must be positive"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Backend service defaults
	v.SetDefault("services.payment_url", "http://localhost:9001")
	v.SetDefault("services.order_url", "http://localhost:9002")
	v.SetDefault("services.product_url", "http://localhost:9003")
	v.SetDefault("services.timeout", "10s")

	// QR lifecycle defaults: 5s polls for up to 5 minutes, 15m QR lifetime
	v.SetDefault("qr.poll_interval", "5s")
	v.SetDefault("qr.max_poll_attempts", 60)
	v.SetDefault("qr.default_ttl", "15m")

	// Checkout defaults
	v.SetDefault("checkout.merchant_id", "MERCHANT_STORE_01")
	v.SetDefault("checkout.currency", "USD")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", true)

	// Instance ID
	v.SetDefault("instance_id", "qrpay-gateway-1")
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
