package storage

import (
	"context"
	"fmt"

	"github.com/canonica-labs/esql/pkg/models"
)

// ProfileStore joins profile metadata and secrets.
type ProfileStore struct {
	repo    ProfileRepository
	secrets SecretStore
}

// NewProfileStore creates a store over repo and secrets.
func NewProfileStore(repo ProfileRepository, secrets SecretStore) *ProfileStore {
	return &ProfileStore{repo: repo, secrets: secrets}
}

// Add registers p and stores its secret.
func (s *ProfileStore) Add(ctx context.Context, p *models.ConnectionProfile) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	if err := s.secrets.SetSecret(p.Name, p.Password); err != nil {
		// no profile may exist without its secret
		_ = s.repo.Delete(ctx, p.Name)
		return err
	}
	return nil
}

// Save updates p and its secret.
func (s *ProfileStore) Save(ctx context.Context, p *models.ConnectionProfile) error {
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	return s.secrets.SetSecret(p.Name, p.Password)
}

// SetVersion records the detected cluster version of a profile.
func (s *ProfileStore) SetVersion(ctx context.Context, name, version string) error {
	p, err := s.repo.Get(ctx, name)
	if err != nil {
		return err
	}
	p.Version = version
	return s.repo.Update(ctx, p)
}

// Load returns the profile with its secret filled in.
func (s *ProfileStore) Load(ctx context.Context, name string) (*models.ConnectionProfile, error) {
	p, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	secret, err := s.secrets.Secret(name)
	if err != nil {
		return nil, err
	}
	p.Password = secret
	return p, nil
}

// Remove deletes a profile and its secret.
func (s *ProfileStore) Remove(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	if err := s.secrets.DeleteSecret(name); err != nil {
		return fmt.Errorf("profile %s removed but its secret was not: %w", name, err)
	}
	return nil
}

// List returns all profiles without secrets.
func (s *ProfileStore) List(ctx context.Context) ([]*models.ConnectionProfile, error) {
	return s.repo.List(ctx)
}
