package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Server struct {
	ListenAddr string `env:"LISTEN_ADDR, default=0.0.0.0:3000"`
	DBPath     string `env:"DB_PATH, default=punchcard.db"`

	// Dev disables the Secure flag on the session cookie.
	Dev bool `env:"DEV, default=false"`
}

type Auth struct {
	// Auth is enforced as soon as either credential is set.
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`

	CookieSecret        string `env:"COOKIE_SECRET, default=00000000000000000000000000000000"`
	SessionDurationDays int    `env:"SESSION_DURATION_DAYS, default=30"`
}

type RateLimit struct {
	RequestsPerSecond int `env:"REQUESTS_PER_SECOND, default=5"`
	PunchesPerSecond  int `env:"PUNCHES_PER_SECOND, default=10"`
}

func (a Auth) SessionDuration() time.Duration {
	return time.Duration(a.SessionDurationDays) * 24 * time.Hour
}

type Config struct {
	Server    Server    `env:",prefix=PUNCHCARD_SERVER_"`
	Auth      Auth      `env:",prefix=PUNCHCARD_AUTH_"`
	RateLimit RateLimit `env:",prefix=PUNCHCARD_RATELIMIT_"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	err := envconfig.Process(ctx, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
