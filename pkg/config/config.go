package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "TARGO_DB_DSN"
	EnvDBHost = "TARGO_DB_HOST"
	EnvDBUser = "TARGO_DB_USER"
	EnvDBName = "TARGO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App        AppConfig
	DB         DBConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Settlement SettlementConfig
	Checkout   CheckoutConfig
	Withdraw   WithdrawRateLimitConfig
	Payments   PaymentsConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
	Outbox     OutboxConfig
	Cron       CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Settlement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TARGO_APP_ENV" required:"true"`
	Port         string `envconfig:"TARGO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TARGO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TARGO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TARGO_DB_DSN"`
	Driver string `envconfig:"TARGO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TARGO_DB_HOST"`
	LegacyPort     int    `envconfig:"TARGO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TARGO_DB_USER"`
	LegacyPassword string `envconfig:"TARGO_DB_PASSWORD"`
	LegacyName     string `envconfig:"TARGO_DB_NAME"`
	LegacySSLMode  string `envconfig:"TARGO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TARGO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TARGO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TARGO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TARGO_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	UseSQLite   bool `envconfig:"TARGO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TARGO_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TARGO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TARGO_REDIS_ADDR"`
	Password     string        `envconfig:"TARGO_REDIS_PASSWORD"`
	DB           int           `envconfig:"TARGO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TARGO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TARGO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TARGO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TARGO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TARGO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TARGO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TARGO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TARGO_JWT_EXPIRATION_MINUTES" default:"60"`
}

// SettlementConfig carries the platform-level money rules: seller commission
// and the maturation delay before delivered funds become withdrawable.
type SettlementConfig struct {
	CommissionRatePercent string        `envconfig:"TARGO_SETTLEMENT_COMMISSION_PERCENT" default:"10"`
	Maturation            time.Duration `envconfig:"TARGO_SETTLEMENT_MATURATION" default:"72h"`
	Currency              string        `envconfig:"TARGO_SETTLEMENT_CURRENCY" default:"RON"`
}

// CommissionRate returns the configured commission as a decimal percentage.
func (s SettlementConfig) CommissionRate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(s.CommissionRatePercent))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (s SettlementConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(s.CommissionRatePercent))
	if err != nil {
		return fmt.Errorf("invalid commission percent %q: %w", s.CommissionRatePercent, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("commission percent %s out of range [0,100]", rate)
	}
	if s.Maturation < 0 {
		return fmt.Errorf("maturation period must not be negative")
	}
	return nil
}

type CheckoutConfig struct {
	SessionTTL time.Duration `envconfig:"TARGO_CHECKOUT_SESSION_TTL" default:"2h"`
}

type WithdrawRateLimitConfig struct {
	Window time.Duration `envconfig:"TARGO_WITHDRAW_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"TARGO_WITHDRAW_RATE_LIMIT" default:"5"`
}

type PaymentsConfig struct {
	APIKey        string        `envconfig:"TARGO_PAYMENTS_API_KEY"`
	WebhookSecret string        `envconfig:"TARGO_PAYMENTS_WEBHOOK_SECRET"`
	Env           string        `envconfig:"TARGO_PAYMENTS_ENV" default:"test"`
	BaseURL       string        `envconfig:"TARGO_PAYMENTS_BASE_URL"`
	Timeout       time.Duration `envconfig:"TARGO_PAYMENTS_TIMEOUT" default:"15s"`
}

// Environment returns the normalized payments environment (test/live).
func (p PaymentsConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(p.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID       string `envconfig:"TARGO_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"TARGO_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	SettlementTopic        string `envconfig:"TARGO_PUBSUB_SETTLEMENT_TOPIC" default:"targo-settlement-events"`
	SettlementSubscription string `envconfig:"TARGO_PUBSUB_SETTLEMENT_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"TARGO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollInterval   time.Duration `envconfig:"TARGO_OUTBOX_PUBLISH_POLL_INTERVAL" default:"500ms"`
	MaxAttempts    int           `envconfig:"TARGO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionAge   time.Duration `envconfig:"TARGO_OUTBOX_RETENTION_AGE" default:"720h"`
	IdempotencyTTL time.Duration `envconfig:"TARGO_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"TARGO_CRON_INTERVAL" default:"15m"`
	MetricsAddr string        `envconfig:"TARGO_CRON_METRICS_ADDR" default:":9109"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.UseSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
