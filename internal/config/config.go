package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
)

type Config struct {
	HTTPPort    string
	APIPrefix   string
	CORSOrigins []string

	DBDriver    string // "sqlite" | "pgx"
	SQLitePath  string
	DatabaseURL string

	UploadsDir    string
	MaxUploadSize int64

	RedisAddr string
	CacheTTL  time.Duration

	UseKafka     bool
	KafkaBrokers []string
	OutboxPeriod time.Duration
	OutboxLimit  int

	CleanupPeriod time.Duration

	ClickHouseAddr string
	ClickHouseDB   string

	EnforceStatusTransitions bool
	ShutdownTimeout          time.Duration
}

// LoadConfig lee el entorno. Un .env en el directorio de trabajo se carga primero si existe;
// las variables ya definidas en el entorno tienen prioridad. Una variable vacía cuenta como no definida.
func LoadConfig() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		HTTPPort:    getEnv("HTTP_PORT", "3001"),
		APIPrefix:   normalizePrefix(getEnv("API_PREFIX", "/api")),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")), // sin CORS_ORIGINS se acepta cualquier origen

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "./taskdesk.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		UploadsDir:    getEnv("UPLOADS_DIR", "./uploads"),
		MaxUploadSize: getInt64("MAX_UPLOAD_SIZE", documentDomain.DefaultMaxUploadSize),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:  getDuration("CACHE_TTL", 5*time.Minute),

		UseKafka:     getBool("USE_KAFKA", false),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		OutboxPeriod: getDuration("OUTBOX_PERIOD", time.Second),
		OutboxLimit:  int(getInt64("OUTBOX_LIMIT", 10)),

		CleanupPeriod: getDuration("CLEANUP_PERIOD", 30*time.Second),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "default"),

		EnforceStatusTransitions: getBool("ENFORCE_STATUS_TRANSITIONS", true),
		ShutdownTimeout:          getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// getDuration acepta "1m30s" o un número de segundos.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizePrefix deja el prefijo como "/api": con barra inicial y sin barra final. "" o "/" es la raíz.
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
