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
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Scryfall      ScryfallConfig
	CardPrices    CardPricesConfig
	Moxfield      MoxfieldConfig
	Matching      MatchingConfig
	Listings      ListingsConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TRADEBINDER_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADEBINDER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADEBINDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEBINDER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEBINDER_DB_DSN"`
	Driver string `envconfig:"TRADEBINDER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADEBINDER_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADEBINDER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADEBINDER_DB_USER"`
	LegacyPassword string `envconfig:"TRADEBINDER_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADEBINDER_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADEBINDER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEBINDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEBINDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEBINDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEBINDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEBINDER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRADEBINDER_REDIS_ADDR"`
	Password     string        `envconfig:"TRADEBINDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEBINDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEBINDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEBINDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEBINDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEBINDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEBINDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TRADEBINDER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TRADEBINDER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TRADEBINDER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TRADEBINDER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRADEBINDER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRADEBINDER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRADEBINDER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRADEBINDER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRADEBINDER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TRADEBINDER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TRADEBINDER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TRADEBINDER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TRADEBINDER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TRADEBINDER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TRADEBINDER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TRADEBINDER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TRADEBINDER_AUTO_MIGRATE" default:"false"`
}

type ScryfallConfig struct {
	BaseURL            string        `envconfig:"TRADEBINDER_SCRYFALL_BASE_URL" default:"https://api.scryfall.com"`
	MinRequestInterval time.Duration `envconfig:"TRADEBINDER_SCRYFALL_MIN_REQUEST_INTERVAL" default:"100ms"`
	BulkLookupBatch    int           `envconfig:"TRADEBINDER_SCRYFALL_BULK_LOOKUP_BATCH" default:"75"`
}

type CardPricesConfig struct {
	BaseURL         string        `envconfig:"TRADEBINDER_CARDPRICES_BASE_URL"`
	APIKey          string        `envconfig:"TRADEBINDER_CARDPRICES_API_KEY"`
	CacheTTL        time.Duration `envconfig:"TRADEBINDER_CARDPRICES_CACHE_TTL" default:"24h"`
	FetchBatchSize  int           `envconfig:"TRADEBINDER_CARDPRICES_FETCH_BATCH_SIZE" default:"5"`
	InterBatchDelay time.Duration `envconfig:"TRADEBINDER_CARDPRICES_INTER_BATCH_DELAY" default:"100ms"`
}

type MoxfieldConfig struct {
	BaseURL string `envconfig:"TRADEBINDER_MOXFIELD_BASE_URL" default:"https://api2.moxfield.com/v3"`
}

type MatchingConfig struct {
	NameQueryChunk int `envconfig:"TRADEBINDER_MATCHING_NAME_QUERY_CHUNK" default:"30"`
}

type ListingsConfig struct {
	ResyncBatchSize int `envconfig:"TRADEBINDER_LISTINGS_RESYNC_BATCH_SIZE" default:"400"`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"TRADEBINDER_CRON_INTERVAL" default:"24h"`
	NotificationRetentionDays int           `envconfig:"TRADEBINDER_CRON_NOTIFICATION_RETENTION_DAYS" default:"15"`
}

func (db *DBConfig) ensureDSN() error {
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
