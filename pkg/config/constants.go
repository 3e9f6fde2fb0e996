package config

const EnvPrefix = "TRADEBINDER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TRADEBINDER_DB_DSN"
	EnvDBHost = "TRADEBINDER_DB_HOST"
	EnvDBUser = "TRADEBINDER_DB_USER"
	EnvDBName = "TRADEBINDER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
