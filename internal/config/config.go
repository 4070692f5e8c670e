// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"
)

type Config struct {
	Application Application `yaml:"application"`
	Logger      Logger      `yaml:"logger"`

	HTTP     HTTPServer `yaml:"http"`
	Database Database   `yaml:"database"`
	Backend  Backend    `yaml:"backend"`
	Migrate  Migrate    `yaml:"migrate"`
}

type Application struct {
	Name        string `yaml:"name" default:"session-bridge" env:"APP_NAME"`
	Environment string `yaml:"environment" default:"development" env:"APP_ENVIRONMENT"`
}

// IsProduction reports whether cookies must carry the Secure attribute.
// Anything that is not explicitly production stays testable over plain HTTP.
func (a Application) IsProduction() bool {
	return a.Environment == "production"
}

type Logger struct {
	Level  string `yaml:"level" default:"info" env:"LOG_LEVEL"`
	Format string `yaml:"format" default:"json" env:"LOG_FORMAT"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" default:":8080" env:"HTTP_ADDRESS"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
}

type Database struct {
	Name     string `yaml:"name" default:"gdpm" env:"DB_NAME"`
	Host     string `yaml:"host" default:"localhost" env:"DB_HOST"`
	Port     string `yaml:"port" default:"5432" env:"DB_PORT"`
	User     string `yaml:"user" default:"postgres" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	SSLMode  string `yaml:"sslMode" default:"disable" env:"DB_SSLMODE"`
}

// Backend points at the hosted auth/data provider project. Both values are
// required; the bridge fails fast with a setup instruction when they are
// absent.
type Backend struct {
	URL     string `yaml:"url" env:"BACKEND_URL"`
	AnonKey string `yaml:"anonKey" env:"BACKEND_ANON_KEY"`
}

type Migrate struct {
	Source string `yaml:"source" default:"embedded"`
}
