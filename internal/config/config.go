// Package config содержит логику чтения конфигурации сервиса бронирования.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса бронирования.
type Config struct {
	RunAddress             string `env:"RUN_ADDRESS"`
	DatabaseURI            string `env:"DATABASE_URI"`
	PaymentProviderAddress string `env:"PAYMENT_PROVIDER_ADDRESS"`
	AuthSecret             string `env:"AUTH_SECRET"`
	UploadsDir             string `env:"UPLOADS_DIR"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envPaymentAddress := cfg.PaymentProviderAddress
	envAuthSecret := cfg.AuthSecret
	envUploadsDir := cfg.UploadsDir

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8081", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.PaymentProviderAddress, "p", "", "payment provider address")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret key for session cookies")
	flag.StringVar(&cfg.UploadsDir, "u", "uploads", "directory for uploaded pet photos")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envPaymentAddress != "" {
		cfg.PaymentProviderAddress = envPaymentAddress
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}
	if envUploadsDir != "" {
		cfg.UploadsDir = envUploadsDir
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8081"
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = "uploads"
	}

	return cfg, nil
}
