package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/internal/storage"
	"github.com/canonica-labs/esql/pkg/models"
)

const validFile = `
default: local
profiles:
  local:
    endpoint: http://localhost:9200
  cloud:
    endpoint: https://es.example.com
    auth_mode: header
    header_name: Authorization
    password: ApiKey abc
    version: 8.11.0
`

func newStore() *storage.ProfileStore {
	return storage.NewProfileStore(storage.NewMockRepository(), storage.NewMemorySecrets())
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// TestLoadConfig_Valid verifies a well-formed file loads and validates.
func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, validFile))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.IsValidated() {
		t.Fatal("expected config to be marked validated")
	}
	if diff := cmp.Diff([]string{"cloud", "local"}, cfg.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	p, err := cfg.Profile("cloud")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.AuthMode != models.AuthHeader || p.Password != "ApiKey abc" || p.Version != "8.11.0" {
		t.Errorf("unexpected profile %+v", p)
	}
}

// TestLoadConfig_RejectsUnknownKeys verifies typos fail instead of being ignored.
func TestLoadConfig_RejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"top level", "profiles:\n  a:\n    endpoint: http://x:9200\nprofile: a\n"},
		{"profile level", "profiles:\n  a:\n    endpiont: http://x:9200\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.content))
			if !cerrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

// TestLoadConfig_Empty verifies a file without profiles is rejected.
func TestLoadConfig_Empty(t *testing.T) {
	if _, err := ParseConfig([]byte("default: a\n")); !cerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// TestConfig_Validate verifies profile and default checks.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown default", "default: b\nprofiles:\n  a:\n    endpoint: http://x:9200\n"},
		{"missing endpoint", "profiles:\n  a:\n    auth_mode: none\n"},
		{"bad auth mode", "profiles:\n  a:\n    endpoint: http://x:9200\n    auth_mode: kerberos\n"},
		{"header without name", "profiles:\n  a:\n    endpoint: http://x:9200\n    auth_mode: header\n"},
		{"two secrets", "profiles:\n  a:\n    endpoint: http://x:9200\n    password: p\n    password_env: P\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.content))
			if err != nil {
				t.Fatalf("ParseConfig: %v", err)
			}
			if err := cfg.Validate(); !cerrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if cfg.IsValidated() {
				t.Error("invalid config must not be marked validated")
			}
		})
	}
}

// TestConfig_PasswordEnv verifies secrets can come from the environment.
func TestConfig_PasswordEnv(t *testing.T) {
	t.Setenv("ESQL_TEST_SECRET", "s3cret")
	cfg, err := ParseConfig([]byte("profiles:\n  a:\n    endpoint: http://x:9200\n    auth_mode: basic\n    username: elastic\n    password_env: ESQL_TEST_SECRET\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	p, err := cfg.Profile("a")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if p.Password != "s3cret" {
		t.Errorf("expected the environment secret, got %q", p.Password)
	}
}

// TestConfig_ApplyRequiresValidation verifies apply refuses unvalidated files.
func TestConfig_ApplyRequiresValidation(t *testing.T) {
	cfg, err := ParseConfig([]byte(validFile))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if _, err := cfg.ApplyTo(context.Background(), newStore()); !cerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// TestConfig_ApplyIsIdempotent verifies a second apply updates instead of failing.
func TestConfig_ApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	cfg, _ := ParseConfig([]byte(validFile))
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	first, err := cfg.ApplyTo(ctx, store)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if diff := cmp.Diff(&ApplyResult{Created: []string{"cloud", "local"}}, first); diff != "" {
		t.Errorf("first apply mismatch (-want +got):\n%s", diff)
	}

	second, err := cfg.ApplyTo(ctx, store)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if diff := cmp.Diff(&ApplyResult{Updated: []string{"cloud", "local"}}, second); diff != "" {
		t.Errorf("second apply mismatch (-want +got):\n%s", diff)
	}
	if !cfg.IsApplied() {
		t.Error("expected config to be marked applied")
	}

	p, err := store.Load(ctx, "cloud")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Password != "ApiKey abc" {
		t.Errorf("expected the secret to be stored, got %q", p.Password)
	}
}

// TestConfig_ApplyKeepsDetectedVersion verifies an unpinned version is not cleared.
func TestConfig_ApplyKeepsDetectedVersion(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	if err := store.Add(ctx, &models.ConnectionProfile{Name: "local", Endpoint: "http://localhost:9200", AuthMode: models.AuthNone}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.SetVersion(ctx, "local", "7.10.2"); err != nil {
		t.Fatalf("SetVersion: %v", err)
	}

	cfg, _ := ParseConfig([]byte(validFile))
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if _, err := cfg.ApplyTo(ctx, store); err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	p, _ := store.Load(ctx, "local")
	if p.Version != "7.10.2" {
		t.Errorf("expected version 7.10.2 to survive, got %q", p.Version)
	}
}

// TestConfig_ApplyReportsStale verifies profiles missing from the file are listed, not removed.
func TestConfig_ApplyReportsStale(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	if err := store.Add(ctx, &models.ConnectionProfile{Name: "old", Endpoint: "http://old:9200", AuthMode: models.AuthNone}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	cfg, _ := ParseConfig([]byte(validFile))
	_ = cfg.Validate()

	res, err := cfg.ApplyTo(ctx, store)
	if err != nil {
		t.Fatalf("ApplyTo: %v", err)
	}
	if diff := cmp.Diff([]string{"old"}, res.Stale); diff != "" {
		t.Errorf("stale mismatch (-want +got):\n%s", diff)
	}
	if _, err := store.Load(ctx, "old"); err != nil {
		t.Errorf("stale profile must be kept: %v", err)
	}
}

// TestBootstrapper_DeleteRequiresConfirmation verifies removals need Confirmed.
func TestBootstrapper_DeleteRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	_ = store.Add(ctx, &models.ConnectionProfile{Name: "old", Endpoint: "http://old:9200", AuthMode: models.AuthNone})
	b := NewBootstrapper(store)

	err := b.ApplyChange(ctx, ProfileChange{Type: ChangeTypeDelete, Profile: "old"})
	if !cerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := b.ApplyChange(ctx, ProfileChange{Type: ChangeTypeDelete, Profile: "old", Confirmed: true}); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
	if _, err := store.Load(ctx, "old"); err == nil {
		t.Error("expected the profile to be removed")
	}
}

// TestBootstrapper_Init verifies the example file loads and refuses to overwrite.
func TestBootstrapper_Init(t *testing.T) {
	dir := t.TempDir()
	b := NewBootstrapper(nil)
	path, err := b.Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("example does not load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example does not validate: %v", err)
	}
	if _, err := b.Init(dir); !cerrors.IsValidation(err) {
		t.Fatalf("expected validation error on second init, got %v", err)
	}
}

// TestConfig_SaveRoundTrip verifies a saved file loads back.
func TestConfig_SaveRoundTrip(t *testing.T) {
	cfg, _ := ParseConfig([]byte(validFile))
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if diff := cmp.Diff(cfg.Profiles, got.Profiles); diff != "" {
		t.Errorf("profiles mismatch (-want +got):\n%s", diff)
	}
}
