package config

const (
	EnvPrefix = "SHAREIT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv      = "SHAREIT_APP_ENV"
	EnvPort        = "SHAREIT_APP_PORT"
	EnvDBDSN       = "SHAREIT_DB_DSN"
	EnvDBHost      = "SHAREIT_DB_HOST"
	EnvDBUser      = "SHAREIT_DB_USER"
	EnvDBName      = "SHAREIT_DB_NAME"
	EnvDBPassword  = "SHAREIT_DB_PASSWORD"
	EnvUseSQLite   = "SHAREIT_USE_SQLITE"
	EnvRedisURL    = "SHAREIT_REDIS_URL"
	EnvServerURL   = "SHAREIT_SERVER_URL"
	EnvGCPProject  = "SHAREIT_GCP_PROJECT_ID"
	EnvOutboxBatch = "SHAREIT_OUTBOX_PUBLISH_BATCH_SIZE"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
