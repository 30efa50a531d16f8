package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"

	"github.com/canonica-labs/esql/internal/config"
)

// KeyringPasswordEnv unlocks the file keyring backend without a prompt.
const KeyringPasswordEnv = "ESQL_KEYRING_PASSWORD"

const keyPrefix = "profile:"

// KeyringSecrets implements SecretStore on a keyring.Keyring.
type KeyringSecrets struct {
	ring keyring.Keyring
}

var _ SecretStore = (*KeyringSecrets)(nil)

// NewKeyringSecrets wraps an opened keyring.
func NewKeyringSecrets(ring keyring.Keyring) *KeyringSecrets {
	return &KeyringSecrets{ring: ring}
}

// OpenKeyring opens the keyring selected by cfg. An empty backend lets the
// library pick the OS default.
func OpenKeyring(cfg config.KeyringConfig) (*KeyringSecrets, error) {
	kc := keyring.Config{
		ServiceName:      cfg.ServiceName,
		FileDir:          cfg.FileDir,
		FilePasswordFunc: keyring.TerminalPrompt,
		KeychainName:     "login",
		PassPrefix:       cfg.ServiceName,
		WinCredPrefix:    cfg.ServiceName,
	}
	if pw := os.Getenv(KeyringPasswordEnv); pw != "" {
		kc.FilePasswordFunc = keyring.FixedStringPrompt(pw)
	}
	if cfg.Backend != "" {
		kc.AllowedBackends = []keyring.BackendType{keyring.BackendType(cfg.Backend)}
	}

	ring, err := keyring.Open(kc)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewKeyringSecrets(ring), nil
}

// Secret returns the stored secret of profile, or "" when none is stored.
func (s *KeyringSecrets) Secret(profile string) (string, error) {
	item, err := s.ring.Get(keyPrefix + profile)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret of %s: %w", profile, err)
	}
	return string(item.Data), nil
}

// SetSecret stores the secret of profile. An empty secret removes it.
func (s *KeyringSecrets) SetSecret(profile, secret string) error {
	if secret == "" {
		return s.DeleteSecret(profile)
	}
	err := s.ring.Set(keyring.Item{
		Key:   keyPrefix + profile,
		Data:  []byte(secret),
		Label: "esql profile " + profile,
	})
	if err != nil {
		return fmt.Errorf("failed to store secret of %s: %w", profile, err)
	}
	return nil
}

// DeleteSecret removes the secret of profile.
func (s *KeyringSecrets) DeleteSecret(profile string) error {
	err := s.ring.Remove(keyPrefix + profile)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove secret of %s: %w", profile, err)
	}
	return nil
}
