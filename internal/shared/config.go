package shared

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
	LockMemory  = "memory"
	LockRedis   = "redis"
)

type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9100"`

	// RequestTimeout bounds every HTTP request, bulk updates included.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"mysql"`
	MySQLDSN    string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/inventory?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	CatalogFile string `envconfig:"CATALOG_FILE"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass string `envconfig:"REDIS_PASSWORD"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	// CacheTTLSeconds <= 0 disables the catalog cache.
	CacheTTLSeconds int `envconfig:"CACHE_TTL_SECONDS" default:"900"`

	LockDriver string        `envconfig:"LOCK_DRIVER" default:"memory"`
	LockTTL    time.Duration `envconfig:"LOCK_TTL" default:"5s"`

	DefaultAllotment int `envconfig:"DEFAULT_ALLOTMENT" default:"5"`
	MaxRangeDays     int `envconfig:"MAX_RANGE_DAYS" default:"366"`
	BulkWritesPerSec int `envconfig:"BULK_WRITES_PER_SEC" default:"0"`
	StoreRetries     int `envconfig:"STORE_RETRIES" default:"2"`
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load reads an optional .env file and then the process environment, which wins.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, errors.Wrap(err, "process env config")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMySQL:
	case StoreMemory:
		if c.CatalogFile == "" {
			return errors.New("CATALOG_FILE is required when STORE_DRIVER=memory")
		}
	default:
		return errors.Newf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.LockDriver != LockMemory && c.LockDriver != LockRedis {
		return errors.Newf("unknown LOCK_DRIVER %q", c.LockDriver)
	}
	if c.DefaultAllotment < 0 {
		return errors.Newf("DEFAULT_ALLOTMENT must be >= 0, got %d", c.DefaultAllotment)
	}
	if c.MaxRangeDays <= 0 {
		return errors.Newf("MAX_RANGE_DAYS must be > 0, got %d", c.MaxRangeDays)
	}
	return nil
}
