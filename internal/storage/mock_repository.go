package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/99designs/keyring"

	"github.com/canonica-labs/esql/pkg/models"
)

// errSimulated is returned by MockRepository when a failure is switched on.
var errSimulated = errors.New("profile store unavailable (simulated)")

// MockRepository is an in-memory ProfileRepository for tests.
// It is thread-safe and respects context cancellation.
type MockRepository struct {
	mu       sync.RWMutex
	profiles map[string]*models.ConnectionProfile

	connectivityFailure     bool
	persistenceFailure      bool
	connectivityCheckCalled bool
}

var _ ProfileRepository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		profiles: make(map[string]*models.ConnectionProfile),
	}
}

// checkContext verifies the context is not cancelled or timed out.
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Create registers a new profile.
func (r *MockRepository) Create(ctx context.Context, p *models.ConnectionProfile) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return invalidProfile("add profile", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.persistenceFailure {
		return errSimulated
	}
	if _, exists := r.profiles[p.Name]; exists {
		return alreadyExists(p.Name)
	}

	now := time.Now()
	c := copyProfile(p)
	c.Password = ""
	c.AuthMode = authMode(p)
	c.CreatedAt = now
	c.UpdatedAt = now
	r.profiles[p.Name] = c
	return nil
}

// Get retrieves a profile by name.
func (r *MockRepository) Get(ctx context.Context, name string) (*models.ConnectionProfile, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.profiles[name]
	if !exists {
		return nil, notFound(name)
	}
	return copyProfile(p), nil
}

// Update modifies an existing profile, keeping its creation time.
func (r *MockRepository) Update(ctx context.Context, p *models.ConnectionProfile) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return invalidProfile("update profile", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.persistenceFailure {
		return errSimulated
	}
	existing, exists := r.profiles[p.Name]
	if !exists {
		return notFound(p.Name)
	}

	c := copyProfile(p)
	c.Password = ""
	c.AuthMode = authMode(p)
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = time.Now()
	r.profiles[p.Name] = c
	return nil
}

// Delete removes a profile by name.
func (r *MockRepository) Delete(ctx context.Context, name string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.profiles[name]; !exists {
		return notFound(name)
	}
	delete(r.profiles, name)
	return nil
}

// List returns all profiles ordered by name.
func (r *MockRepository) List(ctx context.Context) ([]*models.ConnectionProfile, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.ConnectionProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, copyProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Exists checks if a profile with the given name exists.
func (r *MockRepository) Exists(ctx context.Context, name string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.profiles[name]
	return exists, nil
}

// SetConnectivityFailure configures the mock to simulate connectivity failures.
func (r *MockRepository) SetConnectivityFailure(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectivityFailure = fail
}

// SetPersistenceFailure configures the mock to simulate write failures.
func (r *MockRepository) SetPersistenceFailure(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistenceFailure = fail
}

// CheckConnectivity verifies database connectivity.
func (r *MockRepository) CheckConnectivity(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectivityCheckCalled = true

	if r.connectivityFailure {
		return errSimulated
	}
	return nil
}

// ConnectivityCheckCalled returns whether CheckConnectivity was called.
func (r *MockRepository) ConnectivityCheckCalled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connectivityCheckCalled
}

// NewMemorySecrets returns a SecretStore backed by an in-memory keyring.
func NewMemorySecrets() *KeyringSecrets {
	return NewKeyringSecrets(keyring.NewArrayKeyring(nil))
}
