package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type DB struct {
	DbHOST     string `env:"DB_HOST" envDefault:"localhost"`
	DbPORT     string `env:"DB_PORT" envDefault:"5432"`
	DbUSER     string `env:"DB_USER" envDefault:"postgres"`
	DbPASSWORD string `env:"DB_PASSWORD" envDefault:"password"`
	DbNAME     string `env:"DB_NAME" envDefault:"studentmedia"`
	DbSSLMODE  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// URL builds a postgres:// connection string usable by both lib/pq and golang-migrate.
func (d DB) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.DbUSER, d.DbPASSWORD),
		Host:     fmt.Sprintf("%s:%s", d.DbHOST, d.DbPORT),
		Path:     d.DbNAME,
		RawQuery: url.Values{"sslmode": []string{d.DbSSLMODE}}.Encode(),
	}
	return u.String()
}

type MinIO struct {
	Endpoint   string `env:"MINIO_ENDPOINT"`
	AccessKey  string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey  string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	BucketName string `env:"MINIO_BUCKET_NAME" envDefault:"images"`
	UseSSL     bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	Region     string `env:"MINIO_REGION" envDefault:"us-east-1"`
	PublicURL  string `env:"MINIO_PUBLIC_URL"`
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type RabbitMQ struct {
	URL       string `env:"RABBITMQ_URL"`
	QueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"verification_emails"`
}

type SMTP struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"noreply@ritrjpm.ac.in"`
}

type Config struct {
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"json"`
	DemoMode      bool   `env:"DEMO_MODE" envDefault:"false"`
	CampusDomain  string `env:"CAMPUS_DOMAIN" envDefault:"@ritrjpm.ac.in"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	JWTSecretKey        string        `env:"JWT_SECRET_KEY,required"`
	AccessTokenDuration time.Duration `env:"ACCESS_TOKEN_DURATION" envDefault:"24h"`
	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL" envDefault:"15m"`

	MaxUploadSize     int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
	DispatchQueueSize int   `env:"DISPATCH_QUEUE_SIZE" envDefault:"100"`

	DB       DB
	MinIO    MinIO
	Redis    Redis
	RabbitMQ RabbitMQ
	SMTP     SMTP
}

// LoadConfig reads the configuration from the environment.
// A .env file in the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}

	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat)
	}

	if c.AccessTokenDuration <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_DURATION must be positive")
	}

	if c.VerificationCodeTTL <= 0 {
		return fmt.Errorf("VERIFICATION_CODE_TTL must be positive")
	}

	if c.DispatchQueueSize <= 0 {
		return fmt.Errorf("DISPATCH_QUEUE_SIZE must be positive")
	}

	return nil
}
