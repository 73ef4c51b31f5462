package config

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ROSTER_FEED_URL", "http://feed.local/players.json")

	cfg, err := Load(zerolog.Nop())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.PageSize != 10 || cfg.SimilarLimit != 5 {
		t.Errorf("page size/similar limit = %d/%d, want 10/5", cfg.PageSize, cfg.SimilarLimit)
	}
	if cfg.RosterCacheTTL != 5*time.Minute {
		t.Errorf("cache ttl = %s, want 5m", cfg.RosterCacheTTL)
	}
	if cfg.ServerPort != "8080" || cfg.DBPath != "roster.db" {
		t.Errorf("port/db = %s/%s", cfg.ServerPort, cfg.DBPath)
	}
	if cfg.Locale() != language.English {
		t.Errorf("locale = %s, want en", cfg.Locale())
	}
}

func TestLoadRequiresFeedURL(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ROSTER_FEED_URL", "")

	if _, err := Load(zerolog.Nop()); err == nil {
		t.Fatal("Load() without ROSTER_FEED_URL should fail")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{PageSize: 10, SimilarLimit: 5, CollationLocale: "en-GB"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, true},
		{"negative similar limit", func(c *Config) { c.SimilarLimit = -2 }, true},
		{"bad locale", func(c *Config) { c.CollationLocale = "not a tag!" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q) error: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("Chdir(%q) error: %v", prev, err)
		}
	})
}
