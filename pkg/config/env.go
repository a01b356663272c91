package config

const (
	EnvPrefix = "BAKERY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "BAKERY_APP_ENV"
	EnvPort      = "BAKERY_APP_PORT"
	EnvLogLevel  = "BAKERY_LOG_LEVEL"
	EnvDBDSN     = "BAKERY_DB_DSN"
	EnvDBHost    = "BAKERY_DB_HOST"
	EnvDBUser    = "BAKERY_DB_USER"
	EnvDBName    = "BAKERY_DB_NAME"
	EnvDBPass    = "BAKERY_DB_PASSWORD"
	EnvRedisURL  = "BAKERY_REDIS_URL"
	EnvJWTSecret = "BAKERY_JWT_SECRET"
	EnvJWTIssuer = "BAKERY_JWT_ISSUER"
	EnvJWTExpMin = "BAKERY_JWT_EXPIRATION_MINUTES"

	EnvVATPercentage      = "BAKERY_PRICING_VAT_PERCENTAGE"
	EnvOrderAcceptFrom    = "BAKERY_ORDER_ACCEPT_FROM"
	EnvOrderAcceptUntil   = "BAKERY_ORDER_ACCEPT_UNTIL"
	EnvMaxQuantityPerItem = "BAKERY_MAX_QUANTITY_PER_PRODUCT"
	EnvPubSubUsersSub     = "BAKERY_PUBSUB_USERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
