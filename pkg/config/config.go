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
	Session       SessionConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	SMTP          SMTPConfig
	Catalog       CatalogConfig
	Cron          CronConfig
	Browse        BrowseConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadBrowse reads only the browse client settings, so the CLI runs without
// server credentials in the environment.
func LoadBrowse() (BrowseConfig, error) {
	var cfg BrowseConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return BrowseConfig{}, fmt.Errorf("parsing browse config: %w", err)
	}
	return cfg, nil
}

type AppConfig struct {
	Env               string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port              string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel          string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat         string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack      bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	ClientURL         string `envconfig:"STOREFRONT_CLIENT_URL" default:"http://localhost:3000"`
	SessionCookieName string `envconfig:"STOREFRONT_SESSION_COOKIE" default:"sf_session"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	TTL    time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"72h"`
	Secure bool          `envconfig:"STOREFRONT_SESSION_SECURE" default:"false"`
}

// JWTConfig signs the short-lived tokens embedded in e-mail links.
type JWTConfig struct {
	Secret             string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer             string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	EmailTokenMinutes  int    `envconfig:"STOREFRONT_EMAIL_TOKEN_MINUTES" default:"5"`
	ResendCooldownSecs int    `envconfig:"STOREFRONT_EMAIL_RESEND_COOLDOWN_SECONDS" default:"60"`
}

// EmailTokenTTL returns how long verification and reset links stay valid.
func (j JWTConfig) EmailTokenTTL() time.Duration {
	if j.EmailTokenMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(j.EmailTokenMinutes) * time.Minute
}

func (j JWTConfig) ResendCooldown() time.Duration {
	if j.ResendCooldownSecs <= 0 {
		return 0
	}
	return time.Duration(j.ResendCooldownSecs) * time.Second
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	SignInWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNIN_WINDOW" default:"1m"`
	SignInEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNIN_EMAIL_LIMIT" default:"5"`
	SignInIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNIN_IP_LIMIT" default:"20"`
	SignUpWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignUpEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignUpIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string        `envconfig:"STOREFRONT_GCS_BUCKET_NAME"`
	ObjectPrefix  string        `envconfig:"STOREFRONT_GCS_OBJECT_PREFIX" default:"images"`
	PublicBaseURL string        `envconfig:"STOREFRONT_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	Timeout       time.Duration `envconfig:"STOREFRONT_GCS_TIMEOUT" default:"30s"`
	MaxUploadMB   int           `envconfig:"STOREFRONT_MAX_UPLOAD_MB" default:"10"`
}

// Enabled reports whether image uploads have a bucket to land in.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type SMTPConfig struct {
	Host     string `envconfig:"STOREFRONT_SMTP_HOST"`
	Port     int    `envconfig:"STOREFRONT_SMTP_PORT" default:"587"`
	Username string `envconfig:"STOREFRONT_SMTP_USERNAME"`
	Password string `envconfig:"STOREFRONT_SMTP_PASSWORD"`
	From     string `envconfig:"STOREFRONT_SMTP_FROM" default:"no-reply@storefront.local"`
}

func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

type CatalogConfig struct {
	DefaultPageSize int    `envconfig:"STOREFRONT_CATALOG_DEFAULT_PAGE_SIZE" default:"20"`
	MaxPageSize     int    `envconfig:"STOREFRONT_CATALOG_MAX_PAGE_SIZE" default:"100"`
	DefaultPriceMin string `envconfig:"STOREFRONT_CATALOG_DEFAULT_PRICE_MIN" default:"1"`
	DefaultPriceMax string `envconfig:"STOREFRONT_CATALOG_DEFAULT_PRICE_MAX" default:"1000000"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"STOREFRONT_CRON_INTERVAL" default:"1h"`
	LockTTL     time.Duration `envconfig:"STOREFRONT_CRON_LOCK_TTL" default:"10m"`
	MetricsAddr string        `envconfig:"STOREFRONT_CRON_METRICS_ADDR" default:":9091"`
}

// BrowseConfig drives the catalog client used by cmd/browse.
type BrowseConfig struct {
	APIBaseURL    string        `envconfig:"STOREFRONT_BROWSE_API_URL" default:"http://localhost:8080"`
	Timeout       time.Duration `envconfig:"STOREFRONT_BROWSE_TIMEOUT" default:"10s"`
	CacheTTL      time.Duration `envconfig:"STOREFRONT_BROWSE_CACHE_TTL" default:"24h"`
	CacheCapacity int           `envconfig:"STOREFRONT_BROWSE_CACHE_CAPACITY" default:"10000"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = DefaultSQLiteDSN
		}
		return nil
	}
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
