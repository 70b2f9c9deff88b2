package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrMissingCredentials aborts startup: running without a push provider
// credential would silently drop every notification.
var ErrMissingCredentials = errors.New("FCM_CREDENTIALS_FILE is required")

type Config struct {
	AppPort string
	Env     string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	RedisHost string
	RedisPort string

	KafkaBrokers       string
	KafkaGroupID       string
	TopicMessages      string
	TopicNotifications string
	// Delay before the change-feed consumers first subscribe, so they do
	// not race service bootstrap.
	ConsumerSettleDelay time.Duration

	FCMCredentialsFile string
	// Concurrent notification deliveries the event bridge allows in flight.
	DeliveryWorkers int

	UserAPIURL string
	UserAPIKey string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
}

func Load() (*Config, error) {
	cred := os.Getenv("FCM_CREDENTIALS_FILE")
	if cred == "" {
		return nil, ErrMissingCredentials
	}

	return &Config{
		AppPort: getEnv("APP_PORT", ":8080"),
		Env:     getEnv("APP_ENV", "dev"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: getEnv("DB_PASSWORD", "postgres"),
		DBName: getEnv("DB_NAME", "octopus_db"),

		RedisHost: getEnv("REDIS_HOST", "localhost"),
		RedisPort: getEnv("REDIS_PORT", "6379"),

		KafkaBrokers:        getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092"),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "push-fanout"),
		TopicMessages:       getEnv("KAFKA_TOPIC_MESSAGES", "chat.messages.created"),
		TopicNotifications:  getEnv("KAFKA_TOPIC_NOTIFICATIONS", "social.notifications.created"),
		ConsumerSettleDelay: getDuration("CONSUMER_SETTLE_DELAY", 2*time.Second),

		FCMCredentialsFile: cred,
		DeliveryWorkers:    getInt("DELIVERY_WORKERS", 32),

		UserAPIURL: getEnv("USER_API_URL", "http://localhost:8081"),
		UserAPIKey: os.Getenv("USER_API_KEY"),

		S3Endpoint:  getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:    getEnv("S3_BUCKET", "images"),
		S3UseSSL:    os.Getenv("S3_USE_SSL") == "true",
	}, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName,
	)
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
