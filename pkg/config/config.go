package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
	AuthRateLimit AuthRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"BAKERY_APP_ENV" required:"true"`
	Port           string   `envconfig:"BAKERY_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"BAKERY_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"BAKERY_LOG_WARN_STACK" default:"false"`
	Timezone       string   `envconfig:"BAKERY_APP_TIMEZONE" default:"UTC"`
	AllowedOrigins []string `envconfig:"BAKERY_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// Location resolves the configured timezone, defaulting to UTC.
func (a AppConfig) Location() *time.Location {
	if strings.TrimSpace(a.Timezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ServiceConfig struct {
	Kind string `envconfig:"BAKERY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BAKERY_DB_DSN"`
	Driver string `envconfig:"BAKERY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BAKERY_DB_HOST"`
	LegacyPort     int    `envconfig:"BAKERY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BAKERY_DB_USER"`
	LegacyPassword string `envconfig:"BAKERY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BAKERY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BAKERY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BAKERY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BAKERY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BAKERY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BAKERY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BAKERY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BAKERY_REDIS_ADDR"`
	Password     string        `envconfig:"BAKERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BAKERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BAKERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BAKERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BAKERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BAKERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BAKERY_REDIS_WRITE_TIMEOUT" default:"5s"`
	Namespace    string        `envconfig:"BAKERY_REDIS_NAMESPACE" default:"bk"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BAKERY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BAKERY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BAKERY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenDays  int    `envconfig:"BAKERY_JWT_REFRESH_TOKEN_DAYS" default:"30"`
}

// RefreshTokenTTL returns how long a refresh token (and its access session) lives.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenDays <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BAKERY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BAKERY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BAKERY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BAKERY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BAKERY_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BAKERY_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the env fallbacks used when no admin configuration row exists.
type PricingConfig struct {
	VATPercentage      string        `envconfig:"BAKERY_PRICING_VAT_PERCENTAGE" default:"20"`
	PlatformFee        string        `envconfig:"BAKERY_PRICING_PLATFORM_FEE" default:"5"`
	PackingFee         string        `envconfig:"BAKERY_PRICING_PACKING_FEE" default:"5"`
	ShippingCharges    string        `envconfig:"BAKERY_PRICING_SHIPPING_CHARGES" default:"20"`
	ConfigTTL          time.Duration `envconfig:"BAKERY_PRICING_CONFIG_TTL" default:"5m"`
	OrderAcceptFrom    string        `envconfig:"BAKERY_ORDER_ACCEPT_FROM" default:"06:00"`
	OrderAcceptUntil   string        `envconfig:"BAKERY_ORDER_ACCEPT_UNTIL" default:"14:00"`
	MaxQuantityPerItem int           `envconfig:"BAKERY_MAX_QUANTITY_PER_PRODUCT" default:"10"`
	CartSessionTTL     time.Duration `envconfig:"BAKERY_CART_SESSION_TTL" default:"168h"`
}

func (p PricingConfig) validate() error {
	for name, value := range map[string]string{
		EnvOrderAcceptFrom:  p.OrderAcceptFrom,
		EnvOrderAcceptUntil: p.OrderAcceptUntil,
	} {
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("%s must be HH:MM: %w", name, err)
		}
	}
	if p.MaxQuantityPerItem <= 0 {
		return fmt.Errorf("%s must be positive", EnvMaxQuantityPerItem)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BAKERY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BAKERY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BAKERY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic       string `envconfig:"BAKERY_PUBSUB_ORDERS_TOPIC" default:"bakery-order-events"`
	CouponsTopic      string `envconfig:"BAKERY_PUBSUB_COUPONS_TOPIC" default:"bakery-coupon-events"`
	UsersTopic        string `envconfig:"BAKERY_PUBSUB_USERS_TOPIC" default:"bakery-user-events"`
	UsersSubscription string `envconfig:"BAKERY_PUBSUB_USERS_SUBSCRIPTION" default:"bakery-user-events-coupons"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"BAKERY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"BAKERY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"BAKERY_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"BAKERY_OUTBOX_RETENTION" default:"720h"`
	IdempotencyTTL time.Duration `envconfig:"BAKERY_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type CronConfig struct {
	Interval        time.Duration `envconfig:"BAKERY_CRON_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"BAKERY_CRON_LOCK_TTL" default:"10m"`
	CartSessionIdle time.Duration `envconfig:"BAKERY_CRON_CART_SESSION_IDLE" default:"168h"`
}

// AuthRateLimitConfig bounds login and registration attempts per IP and per email.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BAKERY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit       int           `envconfig:"BAKERY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"BAKERY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"BAKERY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"BAKERY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"BAKERY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
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
