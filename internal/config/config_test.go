package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/agromart")
	t.Setenv("GATEWAY_DRIVER", "mock")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "INR", cfg.Gateway.Currency)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("GATEWAY_DRIVER", "mock")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_RazorpayNeedsCredentials(t *testing.T) {
	cfg := Config{
		Gateway: GatewayConfig{Driver: "razorpay", Currency: "INR", Timeout: time.Second, CheckoutLockTTL: 30 * time.Second},
		Storage: StorageConfig{Driver: "local"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Gateway.KeyID = "rzp_test_key"
	cfg.Gateway.KeySecret = "secret"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_S3NeedsBucket(t *testing.T) {
	cfg := Config{
		Gateway: GatewayConfig{Driver: "mock", Currency: "INR", Timeout: time.Second, CheckoutLockTTL: 30 * time.Second},
		Storage: StorageConfig{Driver: "s3", S3Region: "ap-south-1"},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_MailtrapNeedsToken(t *testing.T) {
	cfg := Config{
		Gateway: GatewayConfig{Driver: "mock", Currency: "INR", Timeout: time.Second, CheckoutLockTTL: 30 * time.Second},
		SMTP:    SMTPConfig{Driver: "mailtrap", MailtrapURL: "https://send.api.mailtrap.io/api/send"},
		Storage: StorageConfig{Driver: "local"},
	}
	assert.Error(t, cfg.Validate())

	cfg.SMTP.MailtrapToken = "tok"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_LockMustOutliveGatewayCall(t *testing.T) {
	cfg := Config{
		Gateway: GatewayConfig{Driver: "mock", Currency: "INR", Timeout: 10 * time.Second, CheckoutLockTTL: 10 * time.Second},
		Storage: StorageConfig{Driver: "local"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECKOUT_LOCK_TTL")

	cfg.Gateway.CheckoutLockTTL = 11 * time.Second
	assert.NoError(t, cfg.Validate())
}

func TestLoad_RejectsShortLock(t *testing.T) {
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/agromart")
	t.Setenv("GATEWAY_DRIVER", "mock")
	t.Setenv("GATEWAY_TIMEOUT", "20s")
	t.Setenv("CHECKOUT_LOCK_TTL", "15s")

	_, err := Load()
	assert.Error(t, err)
}
