package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Pricing       PricingConfig
	Wallet        WalletConfig
	Cart          CartConfig
	Idempotency   IdempotencyConfig
	CORS          CORSConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Eventing      EventingConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	rate, err := c.Pricing.Rate()
	if err != nil {
		return err
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within [0, 1), got %s", EnvPricingTaxRate, c.Pricing.TaxRate)
	}
	if _, err := c.Wallet.SignupBonusAmount(); err != nil {
		return err
	}
	if _, err := c.Wallet.ReferralBonusAmount(); err != nil {
		return err
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"HN_APP_ENV" required:"true"`
	Port         string `envconfig:"HN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HN_SERVICE_KIND" default:"api"`
	// MetricsAddr is the listen address for worker /metrics. Empty disables it.
	MetricsAddr string `envconfig:"HN_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"HN_DB_DSN"`
	Driver string `envconfig:"HN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HN_DB_HOST"`
	LegacyPort     int    `envconfig:"HN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HN_DB_USER"`
	LegacyPassword string `envconfig:"HN_DB_PASSWORD"`
	LegacyName     string `envconfig:"HN_DB_NAME"`
	LegacySSLMode  string `envconfig:"HN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HN_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"HN_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HN_REDIS_ADDR"`
	Password     string        `envconfig:"HN_REDIS_PASSWORD"`
	DB           int           `envconfig:"HN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"HN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"HN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"HN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"HN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"HN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"10"`
	SignupWindow    time.Duration `envconfig:"HN_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupIPLimit   int           `envconfig:"HN_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"10"`
	GuestWindow     time.Duration `envconfig:"HN_AUTH_RATE_LIMIT_GUEST_WINDOW" default:"1m"`
	GuestIPLimit    int           `envconfig:"HN_AUTH_RATE_LIMIT_GUEST_IP_LIMIT" default:"30"`
}

// PricingConfig holds checkout pricing policy.
type PricingConfig struct {
	TaxRate string `envconfig:"HN_PRICING_TAX_RATE" default:"0.13"`
}

// Rate parses the configured VAT rate.
func (p PricingConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvPricingTaxRate, err)
	}
	return rate, nil
}

// WalletConfig holds the wallet bonus policy.
type WalletConfig struct {
	SignupBonus           string `envconfig:"HN_WALLET_SIGNUP_BONUS" default:"200"`
	ReferralBonusFallback string `envconfig:"HN_WALLET_REFERRAL_BONUS_FALLBACK" default:"200"`
	ReconcileRepair       bool   `envconfig:"HN_WALLET_RECONCILE_REPAIR" default:"false"`
}

func (w WalletConfig) SignupBonusAmount() (decimal.Decimal, error) {
	return parsePositiveAmount(EnvWalletSignupBonus, w.SignupBonus)
}

func (w WalletConfig) ReferralBonusAmount() (decimal.Decimal, error) {
	return parsePositiveAmount(EnvWalletReferralBonus, w.ReferralBonusFallback)
}

func parsePositiveAmount(env, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", env, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive, got %s", env, raw)
	}
	return amount, nil
}

type CartConfig struct {
	GuestTTL time.Duration `envconfig:"HN_CART_GUEST_TTL" default:"720h"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"HN_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"HN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HN_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"HN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"HN_GCS_BUCKET_NAME" default:"product-images"`
	PublicBaseURL string `envconfig:"HN_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	MaxUploadMB   int    `envconfig:"HN_MAX_UPLOAD_MB" default:"10"`
}

type PubSubConfig struct {
	DomainTopic           string `envconfig:"HN_PUBSUB_DOMAIN_TOPIC" default:"hn-domain-events"`
	AnalyticsSubscription string `envconfig:"HN_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"hn-analytics-sub"`
}

type BigQueryConfig struct {
	Dataset           string `envconfig:"HN_BIGQUERY_DATASET" default:"storefront"`
	OrderEventsTable  string `envconfig:"HN_BIGQUERY_ORDER_TABLE" default:"order_events"`
	WalletEventsTable string `envconfig:"HN_BIGQUERY_WALLET_TABLE" default:"wallet_events"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"HN_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HN_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"HN_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"HN_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"HN_CRON_LOCK_TTL" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
