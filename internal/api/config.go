package api

import "github.com/kelseyhightower/envconfig"

// Config holds runtime configuration for the HTTP server.
type Config struct {
	Addr        string `envconfig:"KFACTURE_ADDR" default:":8080"`
	MaxUploadMB int    `envconfig:"KFACTURE_MAX_UPLOAD_MB" default:"32"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
