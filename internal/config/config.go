package config

import (
	"fmt"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" default:"development"`
	AppPort string `env:"APP_PORT" default:"8080"`

	DBHost         string `env:"DB_HOST" required:"true"`
	DBUser         string `env:"DB_USER"`
	DBPassword     string `env:"DB_PASSWORD"`
	DBName         string `env:"DB_NAME"`
	DBPort         string `env:"DB_PORT" default:"5432"`
	DBSSLMode      string `env:"DB_SSLMODE" default:"disable"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" default:"5"`

	JWTSecret string        `env:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `env:"JWT_TTL" default:"24h"`

	CORSOrigins       []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`
	InternalSecretKey string   `env:"INTERNAL_SECRET_KEY"`

	SMTPHost      string        `env:"SMTP_HOST"`
	SMTPPort      int           `env:"SMTP_PORT" default:"587"`
	SMTPUser      string        `env:"SMTP_USER"`
	SMTPPassword  string        `env:"SMTP_PASSWORD"`
	SMTPFrom      string        `env:"SMTP_FROM"`
	NotifyEmailTo string        `env:"NOTIFY_EMAIL_TO"`
	OrderSheet    string        `env:"ORDER_SHEET_PATH"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" default:"10s"`

	WhatsAppNumber  string  `env:"WHATSAPP_NUMBER"`
	LoyaltyEarnRate float64 `env:"LOYALTY_EARN_RATE" default:"0.01"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// LoadConfig reads .env (if present), then the environment and an optional
// watchshop.yaml in the working directory.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownFields: true,
		Files:              []string{"watchshop.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if cfg.LoyaltyEarnRate < 0 {
		return nil, fmt.Errorf("LOYALTY_EARN_RATE must not be negative, got %v", cfg.LoyaltyEarnRate)
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
