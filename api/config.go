package api

import (
	"errors"
	"time"
)

type CORSConfig struct {
	TrustedOrigins []string `yaml:"trusted_origins"`
}

type Config struct {
	Addr     string     `yaml:"addr"`
	CertFile string     `yaml:"cert_file"`
	KeyFile  string     `yaml:"key_file"`
	CORS     CORSConfig `yaml:"cors"`

	// MaxBodyBytes caps request bodies, and with them the size of a submitted source file.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ShutdownTimeout bounds how long in-flight requests may take once the server stops.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

const (
	defaultMaxBodyBytes    = 1_048_576
	defaultShutdownTimeout = 10 * time.Second
)

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}
	return c.ShutdownTimeout
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("api server address is required")
	}

	if c.MaxBodyBytes < 0 {
		return errors.New("max body bytes cannot be negative")
	}

	return nil
}
