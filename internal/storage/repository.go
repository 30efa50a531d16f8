// Package storage persists connection profiles.
//
// Profile metadata lives in a local SQLite database; the secret part of a
// profile (password, header value or cookie) is kept in a SecretStore,
// normally the OS keyring, and never written to the database.
package storage

import (
	"context"

	"github.com/canonica-labs/esql/pkg/models"
)

// ProfileRepository defines the interface for connection profile persistence.
// Implementations must be safe for concurrent use and respect ctx.
// Password is never stored by a repository.
type ProfileRepository interface {
	// Create registers a new profile.
	// Returns a validation error if the name is taken or the profile is invalid.
	Create(ctx context.Context, p *models.ConnectionProfile) error

	// Get retrieves a profile by name.
	// Returns ErrProfileNotFound (wrapped) if it does not exist.
	Get(ctx context.Context, name string) (*models.ConnectionProfile, error)

	// Update modifies an existing profile.
	Update(ctx context.Context, p *models.ConnectionProfile) error

	// Delete removes a profile by name.
	Delete(ctx context.Context, name string) error

	// List returns all profiles ordered by name.
	// Returns an empty slice (not nil) if there are none.
	List(ctx context.Context) ([]*models.ConnectionProfile, error)

	// Exists checks whether a profile with the given name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// CheckConnectivity verifies the database is reachable.
	CheckConnectivity(ctx context.Context) error
}

// SecretStore keeps the secret of each profile.
type SecretStore interface {
	// Secret returns the stored secret, or "" when none is stored.
	Secret(profile string) (string, error)
	SetSecret(profile, secret string) error
	// DeleteSecret removes the secret; removing a missing one is not an error.
	DeleteSecret(profile string) error
}

func copyProfile(p *models.ConnectionProfile) *models.ConnectionProfile {
	c := *p
	return &c
}
