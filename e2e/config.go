package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHAT_ADDR is the address of a running chat server, the suite is skipped without it
	ChatAddr string `envconfig:"CHAT_ADDR"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours     bool `envconfig:"E2E_COLOURS" default:"true"`
	ReadTimeout int  `envconfig:"E2E_READ_TIMEOUT_SECONDS" default:"5"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
