package config

// EnvPrefix is handed to envconfig; every field declares its full variable name.
const EnvPrefix = "YARDOPS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "YARDOPS_APP_ENV"
	EnvPort     = "YARDOPS_APP_PORT"
	EnvLogLevel = "YARDOPS_LOG_LEVEL"

	EnvDBDSN  = "YARDOPS_DB_DSN"
	EnvDBHost = "YARDOPS_DB_HOST"
	EnvDBUser = "YARDOPS_DB_USER"
	EnvDBName = "YARDOPS_DB_NAME"

	EnvRedisURL = "YARDOPS_REDIS_URL"

	EnvJWTSecret = "YARDOPS_JWT_SECRET"
	EnvJWTIssuer = "YARDOPS_JWT_ISSUER"

	EnvGCPProjectID = "YARDOPS_GCP_PROJECT_ID"

	EnvPubSubNotificationSub = "YARDOPS_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvCalendarDefaultSlot = "YARDOPS_CALENDAR_DEFAULT_SLOT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
