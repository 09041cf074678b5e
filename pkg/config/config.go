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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Stripe        StripeConfig
	Checkout      CheckoutConfig
	Sheets        SheetsConfig
	ServiceWindow ServiceWindowConfig
	Live          LiveConfig
	Webhook       WebhookConfig
	RateLimit     RateLimitConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.ServiceWindow.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BUTTERY_APP_ENV" required:"true"`
	Port         string `envconfig:"BUTTERY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BUTTERY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BUTTERY_LOG_WARN_STACK" default:"false"`
	// SlowRequest is the latency above which request.complete is logged at warn.
	SlowRequest time.Duration `envconfig:"BUTTERY_SLOW_REQUEST_THRESHOLD" default:"250ms"`
	CORSOrigins []string      `envconfig:"BUTTERY_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN        string `envconfig:"BUTTERY_DB_DSN"`
	SQLitePath string `envconfig:"BUTTERY_SQLITE_PATH" default:"buttery.db"`

	LegacyHost     string `envconfig:"BUTTERY_DB_HOST"`
	LegacyPort     int    `envconfig:"BUTTERY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BUTTERY_DB_USER"`
	LegacyPassword string `envconfig:"BUTTERY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BUTTERY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BUTTERY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BUTTERY_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"BUTTERY_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"BUTTERY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BUTTERY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BUTTERY_REDIS_URL"`
	Address      string        `envconfig:"BUTTERY_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"BUTTERY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BUTTERY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BUTTERY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BUTTERY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BUTTERY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BUTTERY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BUTTERY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BUTTERY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BUTTERY_JWT_ISSUER" default:"buttery"`
	ExpirationMinutes int    `envconfig:"BUTTERY_JWT_EXPIRATION_MINUTES" default:"720"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type StripeConfig struct {
	APIKey        string `envconfig:"BUTTERY_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"BUTTERY_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"BUTTERY_STRIPE_ENV" default:"test"`
	Currency      string `envconfig:"BUTTERY_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// CheckoutConfig holds the redirect targets around the hosted payment page.
type CheckoutConfig struct {
	// PublicBaseURL is used to build the success/cancel URLs handed to Stripe.
	PublicBaseURL string `envconfig:"BUTTERY_PUBLIC_BASE_URL" default:"http://localhost:8080"`
	// LandingURL is where /payment_success and /payment_failure send the browser.
	LandingURL   string `envconfig:"BUTTERY_LANDING_URL" default:"/"`
	CartURL      string `envconfig:"BUTTERY_CART_URL" default:"/cart"`
	ProductLabel string `envconfig:"BUTTERY_CHECKOUT_PRODUCT_LABEL" default:"Buttery Order for %s"`
}

func (c CheckoutConfig) SuccessURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/payment_success"
}

func (c CheckoutConfig) CancelURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/payment_failure"
}

type SheetsConfig struct {
	SpreadsheetID   string `envconfig:"BUTTERY_SHEETS_SPREADSHEET_ID"`
	TemplateTitle   string `envconfig:"BUTTERY_SHEETS_TEMPLATE_TITLE" default:"Template"`
	CredentialsJSON string `envconfig:"BUTTERY_SHEETS_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"BUTTERY_SHEETS_CREDENTIALS_FILE"`
}

// Enabled reports whether the sheet mirror has enough configuration to run.
func (s SheetsConfig) Enabled() bool {
	return strings.TrimSpace(s.SpreadsheetID) != "" &&
		(strings.TrimSpace(s.CredentialsJSON) != "" || strings.TrimSpace(s.CredentialsFile) != "")
}

type ServiceWindowConfig struct {
	TimeZone  string        `envconfig:"BUTTERY_TIMEZONE" default:"America/New_York"`
	StartHour int           `envconfig:"BUTTERY_SERVICE_START_HOUR" default:"22"`
	Length    time.Duration `envconfig:"BUTTERY_SERVICE_LENGTH" default:"6h"`
}

func (s ServiceWindowConfig) validate() error {
	if s.StartHour < 0 || s.StartHour > 23 {
		return fmt.Errorf("%s must be between 0 and 23", EnvServiceStartHour)
	}
	if s.Length <= 0 || s.Length > 24*time.Hour {
		return fmt.Errorf("%s must be within (0, 24h]", EnvServiceLength)
	}
	if _, err := time.LoadLocation(s.TimeZone); err != nil {
		return fmt.Errorf("%s: %w", EnvTimeZone, err)
	}
	return nil
}

type LiveConfig struct {
	Channel   string        `envconfig:"BUTTERY_LIVE_CHANNEL" default:"buttery:staff_updates"`
	Heartbeat time.Duration `envconfig:"BUTTERY_LIVE_HEARTBEAT" default:"25s"`
}

type WebhookConfig struct {
	ReplayTTL time.Duration `envconfig:"BUTTERY_WEBHOOK_REPLAY_TTL" default:"720h"`
}

// RateLimitConfig bounds how often one user may start a checkout.
type RateLimitConfig struct {
	CheckoutLimit  int           `envconfig:"BUTTERY_CHECKOUT_RATE_LIMIT" default:"5"`
	CheckoutWindow time.Duration `envconfig:"BUTTERY_CHECKOUT_RATE_WINDOW" default:"1m"`
}

// CronConfig drives cmd/cron-worker.
type CronConfig struct {
	Interval           time.Duration `envconfig:"BUTTERY_CRON_INTERVAL" default:"5m"`
	StaleCheckoutAfter time.Duration `envconfig:"BUTTERY_CRON_STALE_CHECKOUT_AFTER" default:"2h"`
	BatchSize          int           `envconfig:"BUTTERY_CRON_BATCH_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BUTTERY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BUTTERY_AUTO_MIGRATE" default:"false"`
	DevLogin    bool `envconfig:"BUTTERY_DEV_LOGIN" default:"false"`
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
