package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Catalog  CatalogConfig
	Sync     SyncConfig
	AI       AIConfig
	I18n     I18nConfig
}

type ServerConfig struct {
	AppEnv          string
	HTTPPort        string
	GRPCPort        string // health service
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	Enabled   bool
}

type CatalogConfig struct {
	Endpoint                string
	Token                   string
	CacheTTL                time.Duration
	BroadFetchThreshold     int
	SinglePageSize          int
	SingleRequestTimeout    time.Duration
	PaginatedRequestTimeout time.Duration
	MutationTimeout         time.Duration
}

type SyncConfig struct {
	PollInterval time.Duration
	PollCount    int
	BatchLimit   int
}

type AIConfig struct {
	GeminiAPIKey      string
	Model             string
	GenerationTimeout time.Duration
}

type I18nConfig struct {
	DefaultLanguage string
}

// LoadEnv reads the process environment, after loading a .env file when one
// is present.
func LoadEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			AppEnv:          getEnv("APP_ENV", "dev"),
			HTTPPort:        getEnv("HTTP_PORT", ":8080"),
			GRPCPort:        getEnv("GRPC_PORT", ":8082"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_catalog"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC_CATALOG_BATCHES", "catalog.batch-events"),
			Enabled: getEnvBool("KAFKA_ENABLED", true),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_INDEX", "catalog-products"),
			Enabled:   getEnvBool("ELASTICSEARCH_ENABLED", true),
		},
		Catalog: CatalogConfig{
			Endpoint:                getEnv("CATALOG_ENDPOINT", ""),
			Token:                   getEnv("CATALOG_TOKEN", ""),
			CacheTTL:                getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
			BroadFetchThreshold:     getEnvInt("CATALOG_BROAD_FETCH_THRESHOLD", 50),
			SinglePageSize:          getEnvInt("CATALOG_PAGE_SIZE", 250),
			SingleRequestTimeout:    getEnvDuration("CATALOG_SINGLE_TIMEOUT", 10*time.Second),
			PaginatedRequestTimeout: getEnvDuration("CATALOG_PAGINATED_TIMEOUT", 30*time.Second),
			MutationTimeout:         getEnvDuration("CATALOG_MUTATION_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			PollInterval: getEnvDuration("SYNC_POLL_INTERVAL", 30*time.Second),
			PollCount:    getEnvInt("SYNC_POLL_COUNT", 250),
			BatchLimit:   getEnvInt("SYNC_BATCH_LIMIT", 5),
		},
		AI: AIConfig{
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:             getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			GenerationTimeout: getEnvDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		I18n: I18nConfig{
			DefaultLanguage: getEnv("I18N_DEFAULT_LANGUAGE", "en"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("30s") or whole seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
