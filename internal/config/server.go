package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	StaticDir string `env:"STATIC_DIR" envDefault:"public"`

	// Origin allowed to open websocket connections. Empty means any origin,
	// which is what the browser client needs when served by the same binary.
	AllowedOrigin string `env:"ALLOWED_ORIGIN"`

	GracePeriod   time.Duration `env:"GRACE_PERIOD" envDefault:"30s"`
	TeardownDelay time.Duration `env:"TEARDOWN_DELAY" envDefault:"2s"`
	IdleTimeout   time.Duration `env:"IDLE_TIMEOUT" envDefault:"10m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
