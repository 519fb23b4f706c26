package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// DriverSQLite matches db.DriverSQLite.
const DriverSQLite = "sqlite"

// DefaultSQLiteDSN is used when the SQLite flag is on and no DSN was supplied.
const DefaultSQLiteDSN = "file:storefront.db?_foreign_keys=on"

const (
	EnvAppEnv    = "STOREFRONT_APP_ENV"
	EnvPort      = "STOREFRONT_APP_PORT"
	EnvLogLevel  = "STOREFRONT_LOG_LEVEL"
	EnvClientURL = "STOREFRONT_CLIENT_URL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvSessionTTL = "STOREFRONT_SESSION_TTL"

	EnvJWTSecret         = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer         = "STOREFRONT_JWT_ISSUER"
	EnvEmailTokenMinutes = "STOREFRONT_EMAIL_TOKEN_MINUTES"

	EnvUseSQLite   = "STOREFRONT_USE_SQLITE"
	EnvAutoMigrate = "STOREFRONT_AUTO_MIGRATE"

	EnvGCSBucket = "STOREFRONT_GCS_BUCKET_NAME"
	EnvSMTPHost  = "STOREFRONT_SMTP_HOST"

	EnvCatalogDefaultPageSize = "STOREFRONT_CATALOG_DEFAULT_PAGE_SIZE"
	EnvBrowseAPIURL           = "STOREFRONT_BROWSE_API_URL"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
