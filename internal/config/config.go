package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPPort string `mapstructure:"HTTP_PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	MongoMaxPoolSize            uint64        `mapstructure:"MONGO_MAX_POOL_SIZE"`
	MongoMinPoolSize            uint64        `mapstructure:"MONGO_MIN_POOL_SIZE"`
	MongoConnectTimeout         time.Duration `mapstructure:"MONGO_CONNECT_TIMEOUT"`
	MongoServerSelectionTimeout time.Duration `mapstructure:"MONGO_SERVER_SELECTION_TIMEOUT"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	KafkaBrokers      string `mapstructure:"KAFKA_BROKERS"`
	NotificationTopic string `mapstructure:"NOTIFICATION_TOPIC"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	MediaBaseURL string `mapstructure:"MEDIA_BASE_URL"`
	MediaAPIKey  string `mapstructure:"MEDIA_API_KEY"`

	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	OrderRateLimit  int           `mapstructure:"ORDER_RATE_LIMIT"`

	FreeShippingThreshold float64 `mapstructure:"FREE_SHIPPING_THRESHOLD"`
	FlatShippingFee       float64 `mapstructure:"FLAT_SHIPPING_FEE"`
	TaxRate               float64 `mapstructure:"TAX_RATE"`
}

var defaults = map[string]any{
	"APP_ENV":                        "production",
	"LOG_LEVEL":                      "info",
	"HTTP_PORT":                      "8080",
	"GRPC_PORT":                      "9090",
	"MONGO_URI":                      "mongodb://localhost:27017",
	"MONGO_DB_NAME":                  "inkdesk",
	"MONGO_MAX_POOL_SIZE":            100,
	"MONGO_MIN_POOL_SIZE":            10,
	"MONGO_CONNECT_TIMEOUT":          "10s",
	"MONGO_SERVER_SELECTION_TIMEOUT": "5s",
	"REDIS_ADDR":                     "localhost:6379",
	"REDIS_PASSWORD":                 "",
	"KAFKA_BROKERS":                  "",
	"NOTIFICATION_TOPIC":             "order-notifications",
	"JWT_SECRET":                     "",
	"SMTP_HOST":                      "localhost",
	"SMTP_PORT":                      587,
	"SMTP_USERNAME":                  "",
	"SMTP_PASSWORD":                  "",
	"MAIL_FROM":                      "InkDesk <orders@inkdesk.local>",
	"MEDIA_BASE_URL":                 "",
	"MEDIA_API_KEY":                  "",
	"REQUEST_TIMEOUT":                "10s",
	"SHUTDOWN_TIMEOUT":               "15s",
	"ORDER_RATE_LIMIT":               10,
	"FREE_SHIPPING_THRESHOLD":        999.0,
	"FLAT_SHIPPING_FEE":              99.0,
	"TAX_RATE":                       0.18,
}

// Load reads configuration from the environment, falling back to envFile
// (when it exists) and then to defaults.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TaxRate < 0 {
		errs = append(errs, errors.New("TAX_RATE must not be negative"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.MongoMinPoolSize > c.MongoMaxPoolSize {
		errs = append(errs, errors.New("MONGO_MIN_POOL_SIZE must not exceed MONGO_MAX_POOL_SIZE"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Brokers splits KAFKA_BROKERS. Empty means notifications are only logged.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
