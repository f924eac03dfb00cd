package server

import (
	"time"

	"github.com/pkg/errors"

	"github.com/veilchat/zkregistry/merkle"
)

// Config holds the registry service settings.
type Config struct {
	// Server settings
	Addr string

	// Registry settings
	DatabasePath string
	KeysDir      string
	TreeDepth    int

	// Performance settings
	MaxRequestSize  int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Security settings
	EnableCORS  bool
	CORSOrigins []string

	// Observability
	LogLevel string
}

// DefaultConfig returns the settings used when flags leave them unset.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8480",
		DatabasePath:    "zkregistry.db",
		KeysDir:         "keys",
		TreeDepth:       merkle.DefaultDepth,
		MaxRequestSize:  1 << 20,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
	}
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("listen address is required")
	}
	if c.DatabasePath == "" {
		return errors.New("database path is required")
	}
	if c.TreeDepth <= 0 {
		return errors.New("tree depth must be positive")
	}
	if c.EnableCORS && len(c.CORSOrigins) == 0 {
		return errors.New("CORS enabled without any allowed origin")
	}
	return nil
}
