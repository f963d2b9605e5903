package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramToken        string
	PaymentProviderToken string
	ReportAPIKey         string

	LookupBaseURL string
	ReportBaseURL string

	PriceMinorUnits int64
	Currency        string

	DBConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	KafkaBrokerURL           string
	KafkaPurchaseEventsTopic string

	OutboxPollInterval time.Duration
	OutboxPollTimeout  time.Duration

	HTTPPort       int
	MigrationsPath string
	HTTPTimeout    time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.PaymentProviderToken = os.Getenv("PAYMENT_PROVIDER_TOKEN")
	cfg.ReportAPIKey = os.Getenv("REPORT_API_KEY")

	cfg.LookupBaseURL = getEnvOrDefault("VIN_LOOKUP_URL", "https://carfax-report.online/api.php")
	cfg.ReportBaseURL = getEnvOrDefault("REPORT_SERVICE_URL", "https://api.carfax.shop/report/getreport")

	cfg.PriceMinorUnits = int64(getEnvAsInt("PRICE_MINOR_UNITS", 299))
	cfg.Currency = getEnvOrDefault("PRICE_CURRENCY", "USD")

	cfg.DBConfig.Host = getEnvOrDefault("VINREPORT_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("VINREPORT_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("VINREPORT_DB_USER", "user")
	cfg.DBConfig.Password = getEnvOrDefault("VINREPORT_DB_PASSWORD", "password")
	cfg.DBConfig.Name = getEnvOrDefault("VINREPORT_DB_NAME", "vinreport_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("VINREPORT_DB_SSLMODE", "disable")

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaPurchaseEventsTopic = getEnvOrDefault("KAFKA_PURCHASE_EVENTS_TOPIC", "vin_purchase_events")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)

	cfg.HTTPPort = getEnvAsInt("HTTP_PORT", 8080)
	cfg.MigrationsPath = getEnvOrDefault("MIGRATIONS_PATH", "file://migrations")
	cfg.HTTPTimeout = getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects a startup without the credentials the flow cannot run
// without.
func (c *Config) validate() error {
	var missing []string
	if c.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if c.PaymentProviderToken == "" {
		missing = append(missing, "PAYMENT_PROVIDER_TOKEN")
	}
	if c.ReportAPIKey == "" {
		missing = append(missing, "REPORT_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
