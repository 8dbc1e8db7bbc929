package internal

import (
	"fmt"
	"strconv"
	"strings"
	"tcp-chat/errors"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=12345" validate:"min=1,max=65535"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
	OutboxSize      int           `env:"OUTBOX_SIZE,default=256" validate:"gt=0"`
	MaxLineLength   int           `env:"MAX_LINE_LENGTH,default=65536" validate:"gt=0"`
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT,default=5s" validate:"gt=0"`
	DrainTimeout    time.Duration `env:"DRAIN_TIMEOUT,default=2s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	EventBufferSize int           `env:"EVENT_BUFFER_SIZE,default=1024" validate:"gt=0"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,default=1s" validate:"gt=0"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s" validate:"gt=0"`
	// Percentage of the event buffer above which a warning is logged
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=80" validate:"min=1,max=100"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	// Empty disables the session ledger
	BadgerFilepath string `env:"BADGER_FILEPATH"`
	// Empty disables the /metrics endpoint
	MetricsAddr string `env:"METRICS_ADDR"`
}

// Load reads the environment, after a .env file of the working directory if any.
func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	config.LogLevel = strings.ToUpper(strings.TrimSpace(config.LogLevel))
	if err := validate.Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ResolvePort returns the port given as first argument.
// Without argument it returns fallback, with an invalid one it returns
// fallback and an error wrapping ErrInvalidPort.
func ResolvePort(args []string, fallback int) (int, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || port < 1 || port > 65535 {
		return fallback, fmt.Errorf("%w: %q", errors.ErrInvalidPort, args[0])
	}
	return port, nil
}
