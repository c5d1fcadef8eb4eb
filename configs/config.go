package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort  string
	Env      string
	LogLevel string

	SeedFile         string
	FeedAPIURL       string
	FeedAPITimeout   time.Duration
	SimulatedLatency time.Duration

	RedisHost string
	RedisPort string

	KafkaBrokers      string
	KafkaEventsTopic  string
	KafkaRequiredAcks string

	LikeRateLimit  int64
	LikeRateWindow time.Duration
	IdempotencyTTL time.Duration

	OTELEnabled     bool
	OTELEndpoint    string
	OTELServiceName string
	OTELSampleRatio float64
}

// LoadConfig reads the environment, after loading a .env file if one exists.
func LoadConfig() *Config {
	_ = godotenv.Load()
	return &Config{
		AppPort:  getEnv("APP_PORT", ":8080"),
		Env:      getEnv("ENV", "local"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SeedFile:         getEnv("SEED_FILE", ""),
		FeedAPIURL:       getEnv("FEED_API_URL", ""),
		FeedAPITimeout:   getDuration("FEED_API_TIMEOUT", 5*time.Second),
		SimulatedLatency: getDuration("FEED_SIMULATED_LATENCY", 0),

		RedisHost: getEnv("REDIS_HOST", ""),
		RedisPort: getEnv("REDIS_PORT", "6379"),

		KafkaBrokers:      getEnv("KAFKA_BOOTSTRAP_SERVERS", ""),
		KafkaEventsTopic:  getEnv("FEED_EVENTS_TOPIC", "feed.events"),
		KafkaRequiredAcks: getEnv("KAFKA_REQUIRED_ACKS", "one"),

		LikeRateLimit:  int64(atoiDef(os.Getenv("LIKE_RATE_LIMIT"), 30)),
		LikeRateWindow: getDuration("LIKE_RATE_WINDOW", time.Minute),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 10*time.Minute),

		OTELEnabled:     getEnv("OTEL_ENABLED", "false") == "true",
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318"),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "lockdin-feed"),
		OTELSampleRatio: getRatio("OTEL_TRACES_SAMPLER_ARG", 1.0),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func atoiDef(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getRatio(key string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f < 0 || f > 1 {
		return def
	}
	return f
}
