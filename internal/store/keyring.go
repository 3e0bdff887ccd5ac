package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "mailboard"

// KeyringKV persists entries in the OS keyring
// (macOS Keychain, Windows Credential Manager, or Linux Secret Service).
type KeyringKV struct {
	service string
}

// NewKeyringKV returns a KeyringKV under the mailboard service name.
func NewKeyringKV() *KeyringKV {
	return &KeyringKV{service: serviceName}
}

// Get retrieves the value stored under key.
func (k *KeyringKV) Get(_ context.Context, key string) (string, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s from keyring: %w", key, err)
	}
	return v, nil
}

// Set stores value under key.
func (k *KeyringKV) Set(_ context.Context, key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are ignored.
func (k *KeyringKV) Delete(_ context.Context, key string) error {
	if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}
