package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Port:            "8000",
		Env:             "development",
		DatabaseURL:     "postgres://localhost/medvault",
		QRMaxPayload:    2953,
		QRCacheTTL:      time.Hour,
		QRRenderTimeout: 5 * time.Second,
	}
}

func TestValidateDevelopmentNoKey(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateProductionRequiresKey(t *testing.T) {
	cfg := validConfig()
	cfg.Env = "production"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "PHI_ENCRYPTION_KEY") {
		t.Fatalf("want key-required error, got %v", err)
	}
}

func TestValidateKeyFormat(t *testing.T) {
	cfg := validConfig()

	cfg.PHIEncryptionKey = "not-hex"
	if err := cfg.Validate(); err == nil {
		t.Fatal("non-hex key must be rejected")
	}

	cfg.PHIEncryptionKey = "abcd"
	if err := cfg.Validate(); err == nil {
		t.Fatal("short key must be rejected")
	}

	cfg.PHIEncryptionKey = strings.Repeat("ab", 32)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("64-hex-char key rejected: %v", err)
	}
}

func TestValidateQRSettings(t *testing.T) {
	cfg := validConfig()
	cfg.QRMaxPayload = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero payload cap must be rejected")
	}

	cfg = validConfig()
	cfg.QRCacheTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero cache TTL must be rejected")
	}

	cfg = validConfig()
	cfg.QRRenderTimeout = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative render timeout must be rejected")
	}
}

func TestEncryptionKey(t *testing.T) {
	cfg := validConfig()
	key, err := cfg.EncryptionKey()
	if err != nil || key != nil {
		t.Fatalf("unset key: got %v, %v", key, err)
	}

	cfg.PHIEncryptionKey = strings.Repeat("ab", 32)
	key, err = cfg.EncryptionKey()
	if err != nil {
		t.Fatalf("EncryptionKey: %v", err)
	}
	if len(key) != 32 {
		t.Fatalf("key length = %d", len(key))
	}
}

func TestEnvPredicates(t *testing.T) {
	cfg := validConfig()
	if !cfg.IsDev() || cfg.IsProduction() {
		t.Fatal("development predicates wrong")
	}
	cfg.Env = "production"
	if cfg.IsDev() || !cfg.IsProduction() {
		t.Fatal("production predicates wrong")
	}
}
