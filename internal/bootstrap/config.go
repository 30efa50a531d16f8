// Package bootstrap loads declarative profile files.
//
// A profile file names a set of connection profiles and the default one:
//
//	default: local
//	profiles:
//	  local:
//	    endpoint: http://localhost:9200
//	  cloud:
//	    endpoint: https://es.example.com
//	    auth_mode: header
//	    header_name: Authorization
//	    password_env: ES_API_KEY
//
// Applying a file is idempotent: profiles are created or updated, and
// profiles missing from the file are only removed on confirmation.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	cerrors "github.com/canonica-labs/esql/internal/errors"
	"github.com/canonica-labs/esql/pkg/models"
)

// Config is a profile file.
type Config struct {
	Default  string                   `yaml:"default,omitempty"`
	Profiles map[string]ProfileConfig `yaml:"profiles"`

	validated bool
	applied   bool
}

// ProfileConfig is one profile entry. PasswordEnv names an environment
// variable holding the secret, keeping it out of versioned files.
type ProfileConfig struct {
	Endpoint    string `yaml:"endpoint"`
	AuthMode    string `yaml:"auth_mode,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	HeaderName  string `yaml:"header_name,omitempty"`
	Version     string `yaml:"version,omitempty"`
}

var (
	knownKeys        = map[string]bool{"default": true, "profiles": true}
	knownProfileKeys = map[string]bool{
		"endpoint": true, "auth_mode": true, "username": true, "password": true,
		"password_env": true, "header_name": true, "version": true,
	}
)

// LoadConfig reads a profile file. Unknown keys fail.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.NewValidation("load profiles", "file", err.Error(), "")
	}
	return ParseConfig(data)
}

// ParseConfig parses a profile file.
func ParseConfig(data []byte) (*Config, error) {
	// First pass: reject unknown keys
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, cerrors.NewFormat("load profiles", "file is not YAML", err)
	}
	for key := range raw {
		if !knownKeys[key] {
			return nil, unknownKey(key, "")
		}
	}
	if profiles, ok := raw["profiles"].(map[string]any); ok {
		for name, p := range profiles {
			fields, ok := p.(map[string]any)
			if !ok {
				return nil, cerrors.NewValidation("load profiles", "profiles."+name, "profile must be a mapping", "")
			}
			for key := range fields {
				if !knownProfileKeys[key] {
					return nil, unknownKey(key, name)
				}
			}
		}
	}

	// Second pass: typed config
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cerrors.NewFormat("load profiles", "file does not match the profile schema", err)
	}
	if len(cfg.Profiles) == 0 {
		return nil, cerrors.NewValidation("load profiles", "profiles", "at least one profile is required", "")
	}
	return &cfg, nil
}

func unknownKey(key, profile string) error {
	field := key
	if profile != "" {
		field = "profiles." + profile + "." + key
	}
	return cerrors.NewValidation("load profiles", field, "unknown key "+key, "")
}

// Validate checks every profile without touching the store.
func (c *Config) Validate() error {
	if c.Default != "" {
		if _, ok := c.Profiles[c.Default]; !ok {
			return cerrors.NewValidation("validate profiles", "default",
				fmt.Sprintf("default profile %q is not defined", c.Default), "")
		}
	}
	for _, name := range c.Names() {
		p, err := c.Profile(name)
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return cerrors.NewValidation("validate profiles", "profiles."+name, err.Error(), "")
		}
		if pc := c.Profiles[name]; pc.Password != "" && pc.PasswordEnv != "" {
			return cerrors.NewValidation("validate profiles", "profiles."+name,
				"password and password_env are exclusive", "")
		}
	}
	c.validated = true
	return nil
}

// IsValidated returns true if Validate() has been called successfully.
func (c *Config) IsValidated() bool {
	return c.validated
}

// IsApplied returns true if ApplyTo() has been called successfully.
func (c *Config) IsApplied() bool {
	return c.applied
}

// Names returns the profile names in order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile builds the connection profile name, resolving password_env.
func (c *Config) Profile(name string) (*models.ConnectionProfile, error) {
	pc, ok := c.Profiles[name]
	if !ok {
		return nil, cerrors.NewValidation("load profiles", "profiles", fmt.Sprintf("profile %q is not defined", name), "")
	}
	mode, err := models.ParseAuthMode(pc.AuthMode)
	if err != nil {
		return nil, cerrors.NewValidation("load profiles", "profiles."+name+".auth_mode", err.Error(), "")
	}
	password := pc.Password
	if pc.PasswordEnv != "" {
		password = os.Getenv(pc.PasswordEnv)
	}
	return &models.ConnectionProfile{
		Name:       name,
		Endpoint:   pc.Endpoint,
		AuthMode:   mode,
		Username:   pc.Username,
		Password:   password,
		HeaderName: pc.HeaderName,
		Version:    pc.Version,
	}, nil
}

// Store is the profile store a Config is applied to.
type Store interface {
	List(ctx context.Context) ([]*models.ConnectionProfile, error)
	Add(ctx context.Context, p *models.ConnectionProfile) error
	Save(ctx context.Context, p *models.ConnectionProfile) error
	Remove(ctx context.Context, name string) error
}

// ApplyResult lists what ApplyTo changed.
type ApplyResult struct {
	Created []string
	Updated []string
	// Stale are stored profiles the file does not define.
	Stale []string
}

// ApplyTo creates or updates every profile of the file in store.
func (c *Config) ApplyTo(ctx context.Context, store Store) (*ApplyResult, error) {
	if !c.validated {
		return nil, cerrors.NewValidation("apply profiles", "config", "configuration must be validated before apply", "")
	}

	existing, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	stored := make(map[string]*models.ConnectionProfile, len(existing))
	for _, p := range existing {
		stored[p.Name] = p
	}

	res := &ApplyResult{}
	for _, name := range c.Names() {
		p, err := c.Profile(name)
		if err != nil {
			return nil, err
		}
		if prev, ok := stored[name]; ok {
			// a detected version survives files that do not pin one
			if p.Version == "" {
				p.Version = prev.Version
			}
			if err := store.Save(ctx, p); err != nil {
				return nil, fmt.Errorf("failed to update profile '%s': %w", name, err)
			}
			res.Updated = append(res.Updated, name)
			continue
		}
		if err := store.Add(ctx, p); err != nil {
			return nil, fmt.Errorf("failed to create profile '%s': %w", name, err)
		}
		res.Created = append(res.Created, name)
	}
	for _, p := range existing {
		if _, ok := c.Profiles[p.Name]; !ok {
			res.Stale = append(res.Stale, p.Name)
		}
	}

	c.applied = true
	return res, nil
}

// Save writes the file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profiles file: %w", err)
	}
	return nil
}

// ChangeType represents the type of a profile change.
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// ProfileChange is a pending change to the store.
type ProfileChange struct {
	Type      ChangeType
	Profile   string
	Confirmed bool
}

// Bootstrapper handles profile file operations.
type Bootstrapper struct {
	store Store
}

// NewBootstrapper creates a new bootstrapper.
func NewBootstrapper(store Store) *Bootstrapper {
	return &Bootstrapper{store: store}
}

// Init writes an example profile file into dir.
func (b *Bootstrapper) Init(dir string) (string, error) {
	path := filepath.Join(dir, "profiles.yaml")
	if _, err := os.Stat(path); err == nil {
		return "", cerrors.NewValidation("init profiles", "file", path+" already exists", "")
	}

	example := `# esql connection profiles
# Apply with: esql profile import profiles.yaml

default: local

profiles:
  local:
    endpoint: http://localhost:9200

  # legacy:
  #   endpoint: http://es5.internal:9200
  #   auth_mode: basic
  #   username: elastic
  #   password_env: ES5_PASSWORD
  #   version: 5.6.16

  # cloud:
  #   endpoint: https://my-deployment.es.example.com
  #   auth_mode: header
  #   header_name: Authorization
  #   password_env: ES_API_KEY
`
	if err := os.WriteFile(path, []byte(example), 0o600); err != nil {
		return "", fmt.Errorf("failed to write profiles file: %w", err)
	}
	return path, nil
}

// ApplyChange applies a single change. Deletes must be confirmed.
func (b *Bootstrapper) ApplyChange(ctx context.Context, change ProfileChange) error {
	if change.Type == ChangeTypeDelete && !change.Confirmed {
		return cerrors.NewValidation("apply profiles", "confirm",
			fmt.Sprintf("removing profile '%s' requires confirmation", change.Profile),
			"run with --confirm to acknowledge the removal")
	}
	if b.store == nil {
		return cerrors.NewInternal("no profile store configured", nil)
	}

	switch change.Type {
	case ChangeTypeDelete:
		return b.store.Remove(ctx, change.Profile)
	default:
		return nil
	}
}
