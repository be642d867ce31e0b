package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "markfy")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "markfy")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.DB.Host != "localhost" || cfg.DB.Port != 5432 {
		t.Fatalf("DB host:port = %s:%d, want localhost:5432", cfg.DB.Host, cfg.DB.Port)
	}
	if cfg.DB.MaxSize != 10 {
		t.Fatalf("DB MaxSize = %d, want 10", cfg.DB.MaxSize)
	}
	if cfg.Auth.TokenDuration != 168*time.Hour {
		t.Fatalf("TokenDuration = %v, want 168h", cfg.Auth.TokenDuration)
	}
	if cfg.Auth.CookieSecure {
		t.Fatal("CookieSecure = true, want false by default")
	}
	if cfg.Server.Port != "4000" {
		t.Fatalf("Port = %q, want 4000", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("AllowedOrigins = %v, want [http://localhost:3000]", cfg.Server.AllowedOrigins)
	}
}

func TestLoadConfigCollectsAllErrors(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("JWT_TOKEN_DURATION", "one week")
	t.Setenv("COOKIE_SECURE", "maybe")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("LoadConfig error = nil, want aggregated errors")
	}
	for _, want := range []string{"DB_PORT", "JWT_TOKEN_DURATION", "COOKIE_SECURE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err.Error(), want)
		}
	}
}

func TestLoadConfigClampsPoolSize(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"1", 5},
		{"50", 50},
		{"500", 100},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("DB_POOL_SIZE", tt.value)

			cfg, err := LoadConfig()
			if tt.value == "50" {
				if err != nil {
					t.Fatalf("LoadConfig error: %v", err)
				}
				if cfg.DB.MaxSize != tt.want {
					t.Fatalf("MaxSize = %d, want %d", cfg.DB.MaxSize, tt.want)
				}
				return
			}
			// Out-of-range sizes are clamped and reported as errors.
			if err == nil {
				t.Fatal("LoadConfig error = nil, want clamp error")
			}
			if !strings.Contains(err.Error(), "DB_POOL_SIZE") {
				t.Fatalf("error %q does not mention DB_POOL_SIZE", err.Error())
			}
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"http://a.example", []string{"http://a.example"}},
		{"http://a.example, http://b.example", []string{"http://a.example", "http://b.example"}},
		{"http://a.example,,", []string{"http://a.example"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := splitOrigins(tt.raw)
		if len(got) != len(tt.want) {
			t.Fatalf("splitOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("splitOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		}
	}
}
