package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Minio     MinioConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string   `env:"SERVER_PORT" envDefault:":8080"`
	Environment    string   `env:"APP_ENV" envDefault:"development"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

type MongoDBConfig struct {
	URI            string        `env:"MONGO_URI,required,notEmpty"`
	DBName         string        `env:"MONGO_DBNAME" envDefault:"ecosnap"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
}

type RedisConfig struct {
	URL                 string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	NotificationChannel string `env:"REDIS_NOTIFICATION_CHANNEL" envDefault:"notifications"`
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"ecosnap-media"`
	PublicURL string `env:"MINIO_PUBLIC_URL" envDefault:"http://localhost:9000"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
}

// RateLimitConfig bounds report creation per user.
type RateLimitConfig struct {
	Reports int           `env:"RATE_LIMIT_REPORTS" envDefault:"10"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
}

// NewConfig creates a new Config
func NewConfig() (*Config, error) {
	cfg := new(Config)
	err := env.Parse(cfg)

	return cfg, err
}
