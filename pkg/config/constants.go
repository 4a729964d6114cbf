package config

const (
	EnvPrefix = "HN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "HN_APP_ENV"
	EnvPort         = "HN_APP_PORT"
	EnvLogLevel     = "HN_LOG_LEVEL"
	EnvLogWarnStack = "HN_LOG_WARN_STACK"
	EnvServiceKind  = "HN_SERVICE_KIND"

	EnvDBDSN      = "HN_DB_DSN"
	EnvDBHost     = "HN_DB_HOST"
	EnvDBPort     = "HN_DB_PORT"
	EnvDBUser     = "HN_DB_USER"
	EnvDBPassword = "HN_DB_PASSWORD"
	EnvDBName     = "HN_DB_NAME"
	EnvDBSSLMode  = "HN_DB_SSLMODE"

	EnvRedisURL = "HN_REDIS_URL"

	EnvJWTSecret               = "HN_JWT_SECRET"
	EnvJWTIssuer               = "HN_JWT_ISSUER"
	EnvJWTExpMins              = "HN_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "HN_REFRESH_TOKEN_TTL_MINUTES"
	EnvPricingTaxRate          = "HN_PRICING_TAX_RATE"
	EnvWalletSignupBonus       = "HN_WALLET_SIGNUP_BONUS"
	EnvWalletReferralBonus     = "HN_WALLET_REFERRAL_BONUS_FALLBACK"
	EnvWalletReconcileRepair   = "HN_WALLET_RECONCILE_REPAIR"
	EnvCartGuestTTL            = "HN_CART_GUEST_TTL"
	EnvGCPProjectID            = "HN_GCP_PROJECT_ID"
	EnvGCPCredentialsJSON      = "HN_GCP_CREDENTIALS_JSON"
	EnvGCSBucket               = "HN_GCS_BUCKET_NAME"
	EnvPubSubDomainTopic       = "HN_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubAnalyticsSub      = "HN_PUBSUB_ANALYTICS_SUBSCRIPTION"
	EnvBigQueryDataset         = "HN_BIGQUERY_DATASET"
	EnvOutboxMaxAttempts       = "HN_OUTBOX_MAX_ATTEMPTS"
	EnvCronInterval            = "HN_CRON_INTERVAL"
	EnvCORSAllowedOrigins      = "HN_CORS_ALLOWED_ORIGINS"
	EnvIdempotencyTTL          = "HN_IDEMPOTENCY_TTL"
	EnvAuthRateLimitLoginLimit = "HN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
