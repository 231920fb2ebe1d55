package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "Memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != "8080" || cfg.StoreDriver != DriverMemory {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.StoreTimeout != 15*time.Second || cfg.CacheTTL != 30*time.Second {
		t.Fatalf("unexpected timeouts %s %s", cfg.StoreTimeout, cfg.CacheTTL)
	}
	if cfg.JWTExpires() != 7*24*time.Hour {
		t.Fatalf("unexpected jwt expiry %s", cfg.JWTExpires())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": "", "STORE_DRIVER": "memory"}},
		{"postgres without dsn", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "postgres", "DB_DSN": ""}},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "sqlite"}},
		{"bad timeout", map[string]string{"JWT_SECRET": "x", "STORE_DRIVER": "memory", "STORE_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
