// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/flore/internal/whatsapp"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	ShopName      string
	ContactNumber string

	// StorageBackend selects where cart and favorites live.
	StorageBackend string
	// CacheEnabled puts redis in front of the mongo or sqlite backend.
	CacheEnabled bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI      string
	MongoDatabase string

	SQLitePath           string
	SQLiteMigrationsPath string

	CatalogDBPath         string
	CatalogMigrationsPath string
	// CatalogURL, when set, is queried before the local catalog.
	CatalogURL     string
	CatalogTimeout time.Duration

	KafkaBrokers []string
	OrdersTopic  string

	SessionIdleTTL         time.Duration
	SessionCleanupInterval time.Duration
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)), // 1MB

		ShopName:      getEnv("SHOP_NAME", "Florê"),
		ContactNumber: getEnv("WHATSAPP_NUMBER", whatsapp.DefaultNumber),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		CacheEnabled:   getEnvBool("CACHE_ENABLED", false),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "flore"),

		SQLitePath:           getEnv("SQLITE_PATH", "./flore.db"),
		SQLiteMigrationsPath: getEnv("SQLITE_MIGRATIONS_PATH", "./internal/storage/migrations"),

		CatalogDBPath:         getEnv("CATALOG_DB_PATH", "./catalog.db"),
		CatalogMigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations"),
		CatalogURL:            getEnv("CATALOG_URL", ""),
		CatalogTimeout:        getEnvDuration("CATALOG_TIMEOUT", 30*time.Second),

		KafkaBrokers: getEnvList("KAFKA_BROKERS", nil),
		OrdersTopic:  getEnv("ORDERS_TOPIC", "orders-placed"),

		SessionIdleTTL:         getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionCleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Minute),
	}
}

type OrdersConfig struct {
	AppEnv   string
	LogLevel string

	MetricsPort string

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	MigrationsPath string

	KafkaBrokers  []string
	OrdersTopic   string
	ConsumerGroup string

	ShutdownTimeout time.Duration
}

func (c OrdersConfig) IsDevelopment() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

func LoadOrders() OrdersConfig {
	return OrdersConfig{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MetricsPort: getEnv("METRICS_PORT", "9090"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnvInt("DB_PORT", 5432),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "flore"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/orders/migrations"),

		KafkaBrokers:  getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
		OrdersTopic:   getEnv("ORDERS_TOPIC", "orders-placed"),
		ConsumerGroup: getEnv("CONSUMER_GROUP", "flore-orders"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
