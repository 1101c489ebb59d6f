package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"TelegramToken default", "", profile.TelegramToken},
		{"WikipediaBaseURL default", "https://pt.wikipedia.org", profile.WikipediaBaseURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.FallbackTimeout != 5 {
		t.Errorf("FallbackTimeout: expected 5, got %d", profile.FallbackTimeout)
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "telegram token",
			envVar:   "SABIA_TELEGRAM_TOKEN",
			envValue: "123456:test-token",
			field:    func(p *Profile) string { return p.TelegramToken },
			expected: "123456:test-token",
		},
		{
			name:     "legacy telegram token variable",
			envVar:   "TELEGRAM_BOT_TOKEN",
			envValue: "123456:legacy-token",
			field:    func(p *Profile) string { return p.TelegramToken },
			expected: "123456:legacy-token",
		},
		{
			name:     "wikipedia base URL",
			envVar:   "SABIA_WIKIPEDIA_BASE_URL",
			envValue: "https://en.wikipedia.org",
			field:    func(p *Profile) string { return p.WikipediaBaseURL },
			expected: "https://en.wikipedia.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer clearEnvVars()

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	dataDir := t.TempDir()

	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		p := &Profile{Mode: "bogus", Data: dataDir}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if p.Mode != "demo" {
			t.Errorf("Mode: expected demo, got %q", p.Mode)
		}
	})

	t.Run("sqlite DSN defaults into the data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dataDir}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		want := filepath.Join(dataDir, "sabia_dev.db")
		if p.DSN != want {
			t.Errorf("DSN: expected %q, got %q", want, p.DSN)
		}
	})

	t.Run("postgres requires a DSN", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dataDir, Driver: "postgres"}
		if err := p.Validate(); err == nil {
			t.Error("Validate() expected error for postgres without DSN")
		}
	})

	t.Run("unknown driver is rejected", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: dataDir, Driver: "mysql"}
		if err := p.Validate(); err == nil {
			t.Error("Validate() expected error for unknown driver")
		}
	})

	t.Run("missing data dir is created", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: filepath.Join(dataDir, "nested", "data")}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if _, err := os.Stat(p.Data); err != nil {
			t.Errorf("data dir not created: %v", err)
		}
	})
}

func clearEnvVars() {
	for _, key := range []string{
		"SABIA_TELEGRAM_TOKEN",
		"TELEGRAM_BOT_TOKEN",
		"SABIA_WIKIPEDIA_BASE_URL",
		"SABIA_FALLBACK_TIMEOUT_SECONDS",
	} {
		os.Unsetenv(key)
	}
}
