package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canonica-labs/esql/internal/query"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestLoad_Defaults verifies an empty file yields the defaults.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("expected defaults, got error: %v", err)
	}
	if cfg.Search.PageSize != 20 || cfg.Search.TrackTotalHits != "true" {
		t.Errorf("unexpected search defaults %+v", cfg.Search)
	}
	if cfg.Logging.Level != "warn" || cfg.Transport.Timeout != 30*time.Second {
		t.Errorf("unexpected defaults %+v %+v", cfg.Logging, cfg.Transport)
	}
	if cfg.Transport.Retry.MaxAttempts != 3 || cfg.Transport.Retry.InitialDelay != 100*time.Millisecond {
		t.Errorf("unexpected retry defaults %+v", cfg.Transport.Retry)
	}
	if filepath.Base(cfg.Storage.Path) != "esql.db" || cfg.Storage.Keyring.ServiceName != "esql" {
		t.Errorf("unexpected storage defaults %+v", cfg.Storage)
	}
}

// TestLoad_File verifies values are read from YAML.
func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
profile: staging
search:
  page_size: 50
  track_total_hits: custom
  track_total_hits_value: 10000
logging:
  level: debug
  format: json
storage:
  path: /tmp/profiles.db
transport:
  timeout: 5s
  insecure_skip_verify: true
  retry:
    max_attempts: 1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile != "staging" || cfg.Search.PageSize != 50 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Storage.Path != "/tmp/profiles.db" {
		t.Errorf("unexpected storage path %q", cfg.Storage.Path)
	}
	if cfg.Transport.Timeout != 5*time.Second || !cfg.Transport.InsecureSkipVerify || cfg.Transport.Retry.MaxAttempts != 1 {
		t.Errorf("unexpected transport %+v", cfg.Transport)
	}

	d, err := cfg.Search.PlannerDefaults()
	if err != nil {
		t.Fatalf("PlannerDefaults: %v", err)
	}
	if d.PageSize != 50 || d.TrackTotalHits.Mode != query.TrackTotalHitsCustom || d.TrackTotalHits.Value != 10000 {
		t.Errorf("unexpected planner defaults %+v", d)
	}
}

// TestLoad_Env verifies ESQL_ variables override the file.
func TestLoad_Env(t *testing.T) {
	t.Setenv("ESQL_SEARCH_PAGE_SIZE", "7")
	t.Setenv("ESQL_PROFILE", "local")

	cfg, err := Load(writeConfig(t, "search:\n  page_size: 50\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.PageSize != 7 || cfg.Profile != "local" {
		t.Errorf("expected env overrides, got %+v", cfg)
	}
}

// TestLoad_Invalid verifies bad values are rejected.
func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"page size": "search:\n  page_size: 0\n",
		"mode":      "search:\n  track_total_hits: sometimes\n",
		"cap":       "search:\n  track_total_hits: custom\n  track_total_hits_value: -1\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// TestLoad_MissingExplicitFile verifies a named file must exist.
func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
