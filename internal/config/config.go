package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters. It is resolved once at
// startup and passed explicitly into the components that need it.
type Config struct {
	Port           string   `env:"PORT" envDefault:"3000"`
	DBPath         string   `env:"DB_PATH" envDefault:"blog.db"`
	JWTSecret      string   `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	TokenTTLDays   int      `env:"JWT_EXPIRES_DAYS" envDefault:"7"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://127.0.0.1:5500,http://localhost:5174"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
