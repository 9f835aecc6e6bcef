package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full environment surface of the auth service. Every knob has
// a sane default except JWTSecret, which must be provided.
type Config struct {
	Issuer    string `env:"AUTH_ISSUER" envDefault:"shoptally-auth"`
	JWTSecret string `env:"JWT_SECRET,required"`

	// SessionTTL bounds the JWT lifetime; CookieExpireDays bounds how long
	// the browser holds the cookie.
	SessionTTL       time.Duration `env:"JWT_EXPIRE" envDefault:"168h"`
	CookieExpireDays int           `env:"JWT_COOKIE_EXPIRE" envDefault:"7"`
	TempTokenTTL     time.Duration `env:"TEMP_TOKEN_TTL" envDefault:"5m"`

	PasswordExpirationDays int `env:"PASSWORD_EXPIRATION_DAYS" envDefault:"90"`
	PasswordHistoryLimit   int `env:"PASSWORD_HISTORY_LIMIT" envDefault:"5"`

	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION" envDefault:"15m"`

	DatabaseFile      string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	PepperFile        string `env:"AUTH_PEPPER_FILE" envDefault:"pepper"`
	EncryptionKeyFile string `env:"ENCRYPTION_KEY_FILE" envDefault:"encryption.key"`

	// RecaptchaSecret enables captcha checks on register and login when set.
	RecaptchaSecret string `env:"RECAPTCHA_SECRET"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig populates Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
