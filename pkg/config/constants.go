package config

const (
	EnvPrefix = "STOCKLINK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STOCKLINK_DB_DSN"
	EnvDBHost = "STOCKLINK_DB_HOST"
	EnvDBUser = "STOCKLINK_DB_USER"
	EnvDBName = "STOCKLINK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
