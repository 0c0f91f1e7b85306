package config

const EnvPrefix = "sokohub"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "SOKOHUB_APP_ENV"
	EnvPort       = "SOKOHUB_APP_PORT"
	EnvDBDSN      = "SOKOHUB_DB_DSN"
	EnvDBHost     = "SOKOHUB_DB_HOST"
	EnvDBUser     = "SOKOHUB_DB_USER"
	EnvDBName     = "SOKOHUB_DB_NAME"
	EnvRedisURL   = "SOKOHUB_REDIS_URL"
	EnvJWTSecret  = "SOKOHUB_JWT_SECRET"
	EnvJWTIssuer  = "SOKOHUB_JWT_ISSUER"
	EnvJWTExpMins = "SOKOHUB_JWT_EXPIRATION_MINUTES"

	EnvPesapalBaseURL        = "SOKOHUB_PESAPAL_BASE_URL"
	EnvPesapalConsumerKey    = "SOKOHUB_PESAPAL_CONSUMER_KEY"
	EnvPesapalConsumerSecret = "SOKOHUB_PESAPAL_CONSUMER_SECRET"
	EnvPesapalCallbackURL    = "SOKOHUB_PESAPAL_CALLBACK_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
