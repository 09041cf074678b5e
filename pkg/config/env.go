package config

const EnvPrefix = "BUTTERY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv           = "BUTTERY_APP_ENV"
	EnvPort             = "BUTTERY_APP_PORT"
	EnvDBDSN            = "BUTTERY_DB_DSN"
	EnvDBHost           = "BUTTERY_DB_HOST"
	EnvDBUser           = "BUTTERY_DB_USER"
	EnvDBPassword       = "BUTTERY_DB_PASSWORD"
	EnvDBName           = "BUTTERY_DB_NAME"
	EnvRedisURL         = "BUTTERY_REDIS_URL"
	EnvJWTSecret        = "BUTTERY_JWT_SECRET"
	EnvStripeAPIKey     = "BUTTERY_STRIPE_API_KEY"
	EnvStripeSecret     = "BUTTERY_STRIPE_WEBHOOK_SECRET"
	EnvUseSQLite        = "BUTTERY_USE_SQLITE"
	EnvTimeZone         = "BUTTERY_TIMEZONE"
	EnvServiceStartHour = "BUTTERY_SERVICE_START_HOUR"
	EnvServiceLength    = "BUTTERY_SERVICE_LENGTH"
	EnvSheetsID         = "BUTTERY_SHEETS_SPREADSHEET_ID"
	EnvSheetsCredsJSON  = "BUTTERY_SHEETS_CREDENTIALS_JSON"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
