package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all server settings, populated from environment variables.
type Config struct {
	ListenAddr     string        `env:"MOMENTS_LISTEN_ADDR" envDefault:":8080"`
	StoreDriver    string        `env:"MOMENTS_STORE_DRIVER" envDefault:"sqlite"`
	StorePath      string        `env:"MOMENTS_STORE_PATH" envDefault:"/data/gallery.db"`
	MaxUploadBytes int64         `env:"MOMENTS_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	FlareDuration  time.Duration `env:"MOMENTS_FLARE_DURATION" envDefault:"1s"`
	PreviewSize    int           `env:"MOMENTS_PREVIEW_SIZE" envDefault:"320"`

	// Remote catalog (Cloudinary-style media API) settings.
	CatalogBaseURL    string `env:"MOMENTS_CATALOG_BASE_URL" envDefault:"https://api.cloudinary.com/v1_1"`
	CatalogCloudName  string `env:"MOMENTS_CATALOG_CLOUD_NAME"`
	CatalogAPIKey     string `env:"MOMENTS_CATALOG_API_KEY"`
	CatalogAPISecret  string `env:"MOMENTS_CATALOG_API_SECRET"`
	CatalogFolder     string `env:"MOMENTS_CATALOG_FOLDER" envDefault:"best-moments-2024"`
	CatalogMaxResults int    `env:"MOMENTS_CATALOG_MAX_RESULTS" envDefault:"30"`
}

// Load reads .env (if present) and parses environment variables.
func Load() (*Config, error) {
	// Missing .env is fine; env vars may be set directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.StoreDriver {
	case "sqlite", "bolt":
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	return &cfg, nil
}
