package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	PHIEncryptionKey string        `mapstructure:"PHI_ENCRYPTION_KEY"`
	ArtifactDir      string        `mapstructure:"ARTIFACT_DIR"`
	QRMaxPayload     int           `mapstructure:"QR_MAX_PAYLOAD_BYTES"`
	QRCacheTTL       time.Duration `mapstructure:"QR_CACHE_TTL"`
	QRRenderTimeout  time.Duration `mapstructure:"QR_RENDER_TIMEOUT"`
	ExtractBaseURL   string        `mapstructure:"EXTRACT_BASE_URL"`
	ExtractAPIKey    string        `mapstructure:"EXTRACT_API_KEY"`
	ExtractTimeout   time.Duration `mapstructure:"EXTRACT_TIMEOUT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("ARTIFACT_DIR", "./artifacts")
	// 2953 bytes is the byte-mode capacity of a version 40 QR symbol at
	// error-correction level L.
	v.SetDefault("QR_MAX_PAYLOAD_BYTES", 2953)
	v.SetDefault("QR_CACHE_TTL", "1h")
	v.SetDefault("QR_RENDER_TIMEOUT", "5s")
	v.SetDefault("EXTRACT_TIMEOUT", "60s")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("PHI_ENCRYPTION_KEY")
	v.BindEnv("ARTIFACT_DIR")
	v.BindEnv("QR_MAX_PAYLOAD_BYTES")
	v.BindEnv("QR_CACHE_TTL")
	v.BindEnv("QR_RENDER_TIMEOUT")
	v.BindEnv("EXTRACT_BASE_URL")
	v.BindEnv("EXTRACT_API_KEY")
	v.BindEnv("EXTRACT_TIMEOUT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production the
// PHI encryption key is required and must be a 64-character hex string
// (32 bytes when decoded) so that patient identity fields are encrypted
// at rest.
func (c *Config) Validate() error {
	if c.IsProduction() && c.PHIEncryptionKey == "" {
		return fmt.Errorf("PHI_ENCRYPTION_KEY is required in production")
	}
	if c.PHIEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(c.PHIEncryptionKey)
		if err != nil {
			return fmt.Errorf("PHI_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return fmt.Errorf("PHI_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(keyBytes))
		}
	}

	if c.QRMaxPayload <= 0 {
		return fmt.Errorf("QR_MAX_PAYLOAD_BYTES must be positive, got %d", c.QRMaxPayload)
	}
	if c.QRCacheTTL <= 0 {
		return fmt.Errorf("QR_CACHE_TTL must be positive, got %s", c.QRCacheTTL)
	}
	if c.QRRenderTimeout <= 0 {
		return fmt.Errorf("QR_RENDER_TIMEOUT must be positive, got %s", c.QRRenderTimeout)
	}

	return nil
}

// EncryptionKey decodes the PHI encryption key. Returns nil when no key is
// configured (development mode stores fields in plaintext).
func (c *Config) EncryptionKey() ([]byte, error) {
	if c.PHIEncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.PHIEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decode PHI_ENCRYPTION_KEY: %w", err)
	}
	return key, nil
}
