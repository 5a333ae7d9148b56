package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Services: ServicesConfig{
			PaymentURL: "http://localhost:9001",
			OrderURL:   "http://localhost:9002",
			ProductURL: "http://localhost:9003",
			Timeout:    10 * time.Second,
		},
		QR: QRConfig{
			PollInterval:    5 * time.Second,
			MaxPollAttempts: 60,
			DefaultTTL:      15 * time.Minute,
		},
		Checkout: CheckoutConfig{
			MerchantID: "MERCHANT_STORE_01",
			Currency:   "USD",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
		})
	}
}

func TestConfig_Validate_InvalidTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ReadTimeout = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read_timeout")

	cfg = validConfig()
	cfg.Server.WriteTimeout = 0
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "write_timeout")
}

func TestConfig_Validate_MissingServiceURLs(t *testing.T) {
	cfg := validConfig()
	cfg.Services.PaymentURL = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "services.payment_url")

	cfg = validConfig()
	cfg.Services.OrderURL = ""
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "services.order_url")

	cfg = validConfig()
	cfg.Services.ProductURL = ""
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "services.product_url")
}

func TestConfig_Validate_InvalidQRSettings(t *testing.T) {
	cfg := validConfig()
	cfg.QR.PollInterval = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "qr.poll_interval")

	cfg = validConfig()
	cfg.QR.MaxPollAttempts = 0
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "qr.max_poll_attempts")

	cfg = validConfig()
	cfg.QR.DefaultTTL = 0
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "qr.default_ttl")
}

func TestConfig_Validate_MissingCheckoutIdentity(t *testing.T) {
	cfg := validConfig()
	cfg.Checkout.MerchantID = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "checkout.merchant_id")

	cfg = validConfig()
	cfg.Checkout.Currency = ""
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "checkout.currency")
}

func TestConfig_Validate_InvalidRedisPort(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Port = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "redis.port")
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "server.port")
	assert.Contains(t, errStr, "services.payment_url")
	assert.Contains(t, errStr, "qr.poll_interval")
	assert.Contains(t, errStr, "checkout.merchant_id")
	assert.Contains(t, errStr, "redis.port")
}

func TestRedisConfig_RedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6380}
	assert.Equal(t, "redis.example.com:6380", cfg.RedisAddr())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.QR.PollInterval)
	assert.Equal(t, 60, cfg.QR.MaxPollAttempts)
	assert.Equal(t, 15*time.Minute, cfg.QR.DefaultTTL)
	assert.Equal(t, "MERCHANT_STORE_01", cfg.Checkout.MerchantID)
	assert.Equal(t, "USD", cfg.Checkout.Currency)
	assert.Equal(t, "qrpay-gateway-1", cfg.InstanceID)
}
