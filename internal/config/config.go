package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	HTTP     HTTPConfig
	DB       DBConfig
	Redis    RedisConfig
	Session  SessionConfig
	Gateway  GatewayConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Contact  ContactConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type HTTPConfig struct {
	Addr           string   `env:"HTTP_ADDR" envDefault:":8080"`
	BaseURL        string   `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	TrustedProxies []string `env:"HTTP_TRUSTED_PROXIES" envSeparator:","`
	// ShutdownTimeout bounds graceful shutdown of in-flight requests.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type DBConfig struct {
	DSN          string `env:"DB_DSN,required,notEmpty"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// RedisConfig is optional. An empty Addr switches the cart cache and the
// checkout lock to their in-process implementations.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type SessionConfig struct {
	CookieName string        `env:"SESSION_COOKIE" envDefault:"agromart_session"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	Secure     bool          `env:"SESSION_SECURE" envDefault:"false"`
}

type GatewayConfig struct {
	Driver    string        `env:"GATEWAY_DRIVER" envDefault:"razorpay"` // razorpay|mock
	KeyID     string        `env:"RAZORPAY_KEY_ID"`
	KeySecret string        `env:"RAZORPAY_KEY_SECRET"`
	BaseURL   string        `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com"`
	Currency  string        `env:"GATEWAY_CURRENCY" envDefault:"INR"`
	Timeout   time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`

	// Circuit breaker around order creation.
	BreakerFailures uint32        `env:"GATEWAY_BREAKER_FAILURES" envDefault:"5"`
	BreakerCooldown time.Duration `env:"GATEWAY_BREAKER_COOLDOWN" envDefault:"30s"`

	// CheckoutLockTTL caps how long one checkout may hold the per-user lock.
	CheckoutLockTTL time.Duration `env:"CHECKOUT_LOCK_TTL" envDefault:"30s"`
}

// SMTPConfig also selects the mail transport: smtp, mailtrap or mock.
type SMTPConfig struct {
	Driver        string `env:"MAIL_DRIVER" envDefault:"smtp"`
	MailtrapURL   string `env:"MAILTRAP_API_URL"`
	MailtrapToken string `env:"MAILTRAP_API_TOKEN"`
	Host          string `env:"SMTP_HOST"`
	Port          string `env:"SMTP_PORT" envDefault:"1025"`
	User          string `env:"SMTP_USER"`
	Pass          string `env:"SMTP_PASS"`
	TLSMode       string `env:"SMTP_TLS_MODE" envDefault:"none"` // none|starttls|tls
	SkipVerifyTLS bool   `env:"SMTP_SKIP_VERIFY_TLS" envDefault:"false"`
	From          string `env:"EMAIL_FROM" envDefault:"no-reply@agromart.local"`
	FromName      string `env:"EMAIL_FROM_NAME" envDefault:"Agromart"`
}

type StorageConfig struct {
	Driver          string `env:"STORAGE_DRIVER" envDefault:"local"` // local|s3
	LocalDir        string `env:"LOCAL_UPLOAD_DIR" envDefault:"./storage/uploads"`
	LocalURLPrefix  string `env:"LOCAL_UPLOAD_URL_PREFIX" envDefault:"/uploads"`
	S3Region        string `env:"S3_REGION"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Prefix        string `env:"S3_PREFIX" envDefault:"uploads"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
}

type ContactConfig struct {
	Recipient string `env:"CONTACT_RECIPIENT" envDefault:"support@agromart.local"`
}

// Load reads .env when present (production uses real env vars) and parses the
// environment into a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Gateway.Driver {
	case "mock":
	case "razorpay":
		if c.Gateway.KeyID == "" || c.Gateway.KeySecret == "" {
			return errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
		}
	default:
		return fmt.Errorf("unknown GATEWAY_DRIVER: %s", c.Gateway.Driver)
	}
	if len(c.Gateway.Currency) != 3 {
		return fmt.Errorf("GATEWAY_CURRENCY must be a 3-letter code, got %q", c.Gateway.Currency)
	}
	if c.Gateway.Timeout <= 0 {
		return errors.New("GATEWAY_TIMEOUT must be positive")
	}
	// The lock must outlive the gateway call, or a second click finds no
	// gateway_order_ref to reuse and opens another order.
	if c.Gateway.CheckoutLockTTL <= c.Gateway.Timeout {
		return fmt.Errorf("CHECKOUT_LOCK_TTL (%s) must be longer than GATEWAY_TIMEOUT (%s)",
			c.Gateway.CheckoutLockTTL, c.Gateway.Timeout)
	}
	switch c.SMTP.Driver {
	case "", "smtp", "mock":
	case "mailtrap":
		if c.SMTP.MailtrapURL == "" || c.SMTP.MailtrapToken == "" {
			return errors.New("MAILTRAP_API_URL and MAILTRAP_API_TOKEN are required for MAIL_DRIVER=mailtrap")
		}
	default:
		return fmt.Errorf("unknown MAIL_DRIVER: %s", c.SMTP.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Region == "" || c.Storage.S3Bucket == "" || c.Storage.S3PublicBaseURL == "" {
			return errors.New("S3_REGION, S3_BUCKET and S3_PUBLIC_BASE_URL are required for STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER: %s", c.Storage.Driver)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }
